package display

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/hub75-bcm/internal/types"
)

// fakeDisplay records the images it is given
type fakeDisplay struct {
	mu     sync.Mutex
	images []image.Image
}

func (d *fakeDisplay) Clear() error                         { return nil }
func (d *fakeDisplay) Fill(color.Color) error               { return nil }
func (d *fakeDisplay) SetPixel(int, int, color.Color) error { return nil }
func (d *fakeDisplay) GetDimensions() (int, int)            { return 64, 64 }

func (d *fakeDisplay) SetImage(img image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images = append(d.images, img)
	return nil
}

func (d *fakeDisplay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.images)
}

var _ types.Display = (*fakeDisplay)(nil)

func rgbAt(img *image.RGBA, x, y int) [3]uint8 {
	c := img.RGBAAt(x, y)
	return [3]uint8{c.R, c.G, c.B}
}

func TestRenderPattern(t *testing.T) {
	for _, name := range Patterns() {
		t.Run(name, func(t *testing.T) {
			img, err := RenderPattern(name, 64, 64)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

			lit := 0
			for i := 0; i < len(img.Pix); i += 4 {
				if img.Pix[i]|img.Pix[i+1]|img.Pix[i+2] != 0 {
					lit++
				}
			}
			assert.Greater(t, lit, 64*64/2, "pattern should light most of the panel")
		})
	}

	_, err := RenderPattern("plaid", 64, 64)
	assert.Error(t, err)
}

func TestStripesPattern(t *testing.T) {
	img, err := RenderPattern("stripes", 64, 64)
	require.NoError(t, err)

	tests := []struct {
		x    int
		want int // index of the dominant channel
	}{
		{x: 0, want: 0},
		{x: 1, want: 1},
		{x: 2, want: 2},
		{x: 30, want: 0},
		{x: 62, want: 2},
	}
	for _, tt := range tests {
		c := rgbAt(img, tt.x, 32)
		assert.Greater(t, c[tt.want], uint8(200), "x=%d %v", tt.x, c)
		for ch := 0; ch < 3; ch++ {
			if ch != tt.want {
				assert.Less(t, c[ch], uint8(60), "x=%d %v", tt.x, c)
			}
		}
	}
}

func TestRampPattern(t *testing.T) {
	img, err := RenderPattern("ramp", 64, 64)
	require.NoError(t, err)

	// brightness increases left to right in the white band
	prev := -1
	for x := 0; x < 64; x += 8 {
		v := int(img.RGBAAt(x, 8).G)
		assert.GreaterOrEqual(t, v, prev, "x=%d", x)
		prev = v
	}
	assert.Greater(t, img.RGBAAt(62, 24).R, uint8(200))
	assert.Less(t, img.RGBAAt(62, 24).G, uint8(30))
	assert.Greater(t, img.RGBAAt(62, 56).B, uint8(200))
}

func TestTextFrame(t *testing.T) {
	img := TextFrame("A", 64, 64, 20, color.RGBA{255, 0, 0, 255})
	lit := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := img.RGBAAt(x, y)
			if c.R > 0 {
				lit++
				assert.True(t, x >= 44 && x < 44+7, "glyph pixel at x=%d", x)
			}
			assert.Zero(t, c.G)
		}
	}
	assert.Greater(t, lit, 5)
	assert.Equal(t, 14, TextWidth("AB"))
}

func TestRendererStaticPattern(t *testing.T) {
	cfg := &types.DisplayConfig{Pattern: "bars", UpdateInterval: 0.001}
	r := NewRenderer(cfg, zerolog.Nop())
	d := &fakeDisplay{}
	r.SetDisplay(d)

	require.NoError(t, r.render())
	require.NoError(t, r.render())
	assert.Equal(t, 1, d.count(), "static patterns are drawn once")

	require.NoError(t, r.SetPattern("wheel"))
	require.NoError(t, r.render())
	assert.Equal(t, 2, d.count())

	require.NoError(t, r.SetPattern(PatternNone))
	require.NoError(t, r.render())
	assert.Equal(t, 2, d.count())

	assert.Error(t, r.SetPattern("plaid"))
	assert.Equal(t, PatternNone, r.Pattern())
}

func TestRendererScrollsText(t *testing.T) {
	cfg := &types.DisplayConfig{Pattern: PatternText, Text: "hi", UpdateInterval: 0.001}
	r := NewRenderer(cfg, zerolog.Nop())
	d := &fakeDisplay{}
	r.SetDisplay(d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	require.Eventually(t, func() bool { return d.count() >= 5 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	d.mu.Lock()
	defer d.mu.Unlock()
	first := d.images[0].(*image.RGBA)
	later := d.images[4].(*image.RGBA)
	assert.NotEqual(t, first.Pix, later.Pix, "text moves between frames")
}

func TestRendererSetText(t *testing.T) {
	r := NewRenderer(&types.DisplayConfig{Pattern: "bars", UpdateInterval: 1}, zerolog.Nop())
	r.SetText("hello")
	assert.Equal(t, PatternText, r.Pattern())
}
