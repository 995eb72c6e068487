package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/fkcurrie/hub75-bcm/internal/types"
	"github.com/fkcurrie/hub75-bcm/pkg/gpio"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
	"github.com/fkcurrie/hub75-bcm/pkg/matrix"
)

type fakePatterns struct {
	mu      sync.Mutex
	pattern string
	text    string
}

func (p *fakePatterns) SetPattern(name string) error {
	if name == "plaid" {
		return fmt.Errorf("unknown pattern %q", name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pattern = name
	return nil
}

func (p *fakePatterns) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
	p.pattern = "text"
}

func (p *fakePatterns) get() (pattern, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pattern, p.text
}

func newTestServer(t *testing.T) (*httptest.Server, *matrix.Matrix, *fakePatterns) {
	t.Helper()
	cfg := matrix.DefaultConfig()
	cfg.Depth = hub75.MinDepth
	cfg.Gamma = false
	m, err := matrix.NewMatrix(gpio.NewMemoryBus(0xffffffff, 1), cfg, zerolog.Nop())
	require.NoError(t, err)

	patterns := &fakePatterns{pattern: "wheel"}
	intakeCfg := &types.IntakeConfig{Listen: ":0", MaxUploadBytes: 1 << 20, PreviewInterval: 0.01}
	status := func() types.DisplayStatus {
		_, gen := m.Frame()
		return types.DisplayStatus{State: types.StateRunning, Mode: "timeline", Depth: cfg.Depth, Generation: gen}
	}
	srv := NewServer(intakeCfg, m, patterns, status, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, m, patterns
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFit(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{name: "small", w: 16, h: 8},
		{name: "exact", w: 64, h: 64},
		{name: "large", w: 200, h: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Fit(solid(tt.w, tt.h, color.RGBA{0, 200, 0, 255}), 64, 64)
			assert.Equal(t, image.Rect(0, 0, 64, 64), out.Bounds())
			c := out.RGBAAt(32, 32)
			assert.InDelta(t, 200, int(c.G), 2)
			assert.Zero(t, c.R)
		})
	}
}

func TestPostFrame(t *testing.T) {
	encoders := map[string]func(*bytes.Buffer, image.Image) error{
		"png":  func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) },
		"jpeg": func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, &jpeg.Options{Quality: 100}) },
		"bmp":  func(b *bytes.Buffer, img image.Image) error { return bmp.Encode(b, img) },
	}

	for format, encode := range encoders {
		t.Run(format, func(t *testing.T) {
			ts, m, patterns := newTestServer(t)

			var buf bytes.Buffer
			require.NoError(t, encode(&buf, solid(100, 40, color.RGBA{255, 0, 0, 255})))

			resp, err := http.Post(ts.URL+"/frame", "application/octet-stream", &buf)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]uint64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, uint64(1), body["generation"])

			f, _ := m.Frame()
			p := f.At(10, 10)
			assert.Greater(t, p.R, uint8(240))
			assert.Less(t, p.G, uint8(16))
			pattern, _ := patterns.get()
			assert.Equal(t, "none", pattern, "uploads replace the pattern")
		})
	}
}

func TestPostFrameRejectsGarbage(t *testing.T) {
	ts, m, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/frame", "image/png", strings.NewReader("definitely not an image"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, m.Generation())
}

func TestPostFrameTooLarge(t *testing.T) {
	ts, m, _ := newTestServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 1024, 1024))
	rand.New(rand.NewSource(1)).Read(img.Pix)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.Greater(t, buf.Len(), 1<<20)

	resp, err := http.Post(ts.URL+"/frame", "image/png", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, resp.StatusCode)
	assert.Zero(t, m.Generation())
}

func TestSnapshot(t *testing.T) {
	ts, m, _ := newTestServer(t)
	require.NoError(t, m.Fill(color.RGBA{0, 0, 255, 255}))

	resp, err := http.Get(ts.URL + "/frame.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Frame-Generation"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	_, _, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestPatternAndText(t *testing.T) {
	ts, _, patterns := newTestServer(t)

	resp, err := http.Post(ts.URL+"/pattern/bars", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	pattern, _ := patterns.get()
	assert.Equal(t, "bars", pattern)

	resp, err = http.Post(ts.URL+"/pattern/plaid", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/text", "text/plain", strings.NewReader("  hello panel \n"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	pattern, text := patterns.get()
	assert.Equal(t, "hello panel", text)
	assert.Equal(t, "text", pattern)
}

func TestHealth(t *testing.T) {
	ts, m, _ := newTestServer(t)
	require.NoError(t, m.Clear())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status types.DisplayStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, types.StateRunning, status.State)
	assert.Equal(t, uint64(1), status.Generation)
	assert.Equal(t, hub75.MinDepth, status.Depth)
}

func TestPreviewWebsocket(t *testing.T) {
	ts, m, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readFrame := func() image.Image {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, kind)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		return img
	}

	first := readFrame()
	r, _, _, _ := first.At(0, 0).RGBA()
	assert.Zero(t, r, "starts blank")

	require.NoError(t, m.Fill(color.RGBA{255, 0, 0, 255}))
	next := readFrame()
	r, _, _, _ = next.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}
