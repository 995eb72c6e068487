package hub75

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/hub75-bcm/pkg/colorcorrect"
)

func TestFrameFromImage(t *testing.T) {
	tests := []struct {
		name    string
		img     image.Image
		wantErr bool
	}{
		{name: "rgba 64x64", img: image.NewRGBA(image.Rect(0, 0, 64, 64))},
		{name: "nrgba 64x64", img: image.NewNRGBA(image.Rect(0, 0, 64, 64))},
		{name: "offset bounds", img: image.NewRGBA(image.Rect(10, 10, 74, 74))},
		{name: "too small", img: image.NewRGBA(image.Rect(0, 0, 32, 32)), wantErr: true},
		{name: "too wide", img: image.NewRGBA(image.Rect(0, 0, 128, 64)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FrameFromImage(tt.img, false)
			if tt.wantErr {
				var dimErr *DimensionError
				require.True(t, errors.As(err, &dimErr), "want *DimensionError, got %v", err)
				assert.Equal(t, tt.img.Bounds().Dx(), dimErr.Width)
				assert.Nil(t, f)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, f.Validate())
		})
	}
}

func TestFrameFromImagePixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 7, 69, 71))
	img.Set(5, 7, color.RGBA{R: 255, A: 255})
	img.Set(68, 70, color.RGBA{G: 128, B: 64, A: 255})

	f, err := FrameFromImage(img, false)
	require.NoError(t, err)
	assert.Equal(t, Pixel{R: 255}, f.At(0, 0))
	assert.Equal(t, Pixel{G: 128, B: 64}, f.At(63, 63))

	g, err := FrameFromImage(img, true)
	require.NoError(t, err)
	assert.Equal(t, Pixel{R: 255}, g.At(0, 0))
	assert.Equal(t, Pixel{G: colorcorrect.Gamma(128), B: colorcorrect.Gamma(64)}, g.At(63, 63))
}

func TestFrameFromImageGenericPath(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	img.Set(1, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(3, 4, color.NRGBA{R: 255, A: 0})

	f, err := FrameFromImage(img, false)
	require.NoError(t, err)
	assert.Equal(t, Pixel{R: 10, G: 20, B: 30}, f.At(1, 2))
	assert.Equal(t, Pixel{}, f.At(3, 4), "transparent pixels are dark")
}

func TestFrameValidate(t *testing.T) {
	assert.NoError(t, NewFrame().Validate())

	var nilFrame *Frame
	assert.Error(t, nilFrame.Validate())

	short := NewFrame()
	short.Pix = short.Pix[:10]
	assert.Error(t, short.Validate())

	wrong := &Frame{Width: 32, Height: 128, Pix: make([]Pixel, 32*128)}
	err := wrong.Validate()
	var dimErr *DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 32, dimErr.Width)
	assert.Equal(t, 128, dimErr.Height)
	assert.Contains(t, err.Error(), "32x128")
}

func TestFrameCloneAndImage(t *testing.T) {
	f := NewFrame()
	f.Fill(Pixel{R: 1, G: 2, B: 3})

	c := f.Clone()
	c.Set(0, 0, Pixel{})
	assert.Equal(t, Pixel{R: 1, G: 2, B: 3}, f.At(0, 0))

	img := f.Image()
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, img.RGBAAt(10, 10))
}
