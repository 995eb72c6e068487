package types

import (
	"image"
	"image/color"
)

// Display is what content producers draw on. *matrix.Matrix implements it.
type Display interface {
	// Clear turns every LED off
	Clear() error
	// Fill sets every pixel to c
	Fill(c color.Color) error
	// SetPixel sets a pixel at the given coordinates to the given color
	SetPixel(x, y int, c color.Color) error
	// SetImage replaces the content with a 64x64 image
	SetImage(img image.Image) error
	// GetDimensions returns the display size in pixels
	GetDimensions() (width, height int)
}
