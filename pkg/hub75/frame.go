package hub75

import (
	"image"
	"image/color"

	"github.com/fkcurrie/hub75-bcm/pkg/colorcorrect"
)

// Pixel is one 8-bit-per-channel RGB value
type Pixel struct {
	R, G, B uint8
}

// Frame is a row-major pixel grid. Only 64x64 frames are accepted by the
// FrameBuffer and the Encoder.
type Frame struct {
	Width  int
	Height int
	Pix    []Pixel
}

// NewFrame returns a blank 64x64 frame
func NewFrame() *Frame {
	return &Frame{
		Width:  Width,
		Height: Height,
		Pix:    make([]Pixel, Width*Height),
	}
}

// At returns the pixel at (x, y)
func (f *Frame) At(x, y int) Pixel {
	return f.Pix[y*f.Width+x]
}

// Set sets the pixel at (x, y)
func (f *Frame) Set(x, y int, p Pixel) {
	f.Pix[y*f.Width+x] = p
}

// Fill sets every pixel to p
func (f *Frame) Fill(p Pixel) {
	for i := range f.Pix {
		f.Pix[i] = p
	}
}

// Clone returns a deep copy of f
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Width:  f.Width,
		Height: f.Height,
		Pix:    make([]Pixel, len(f.Pix)),
	}
	copy(c.Pix, f.Pix)
	return c
}

// Validate reports a DimensionError unless f is a complete 64x64 frame
func (f *Frame) Validate() error {
	if f == nil {
		return &DimensionError{}
	}
	if f.Width != Width || f.Height != Height || len(f.Pix) != Width*Height {
		return &DimensionError{Width: f.Width, Height: f.Height}
	}
	return nil
}

// Image renders the frame as an RGBA image, for previews
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			p := f.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return img
}

// PixelFromColor converts any color to a Pixel. Alpha is composited over
// black, which is what an unlit LED looks like.
func PixelFromColor(c color.Color) Pixel {
	r, g, b, _ := c.RGBA()
	return Pixel{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// FrameFromImage copies a 64x64 image into a new frame, optionally applying
// the ingest gamma curve. Images of any other size are rejected; resizing
// belongs to the caller.
func FrameFromImage(img image.Image, gamma bool) (*Frame, error) {
	bounds := img.Bounds()
	if bounds.Dx() != Width || bounds.Dy() != Height {
		return nil, &DimensionError{Width: bounds.Dx(), Height: bounds.Dy()}
	}

	f := NewFrame()
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < Height; y++ {
			off := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < Width; x++ {
				s := rgba.Pix[off+x*4:]
				f.Pix[y*Width+x] = Pixel{R: s[0], G: s[1], B: s[2]}
			}
		}
	} else {
		for y := 0; y < Height; y++ {
			for x := 0; x < Width; x++ {
				f.Pix[y*Width+x] = PixelFromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	}

	if gamma {
		for i, p := range f.Pix {
			f.Pix[i] = Pixel{
				R: colorcorrect.Gamma(p.R),
				G: colorcorrect.Gamma(p.G),
				B: colorcorrect.Gamma(p.B),
			}
		}
	}
	return f, nil
}
