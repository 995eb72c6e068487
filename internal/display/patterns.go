package display

import (
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// patterns holds the built-in test images as SVG documents on a 64x64
// canvas
var patterns = map[string]string{
	"bars":    barsSVG(),
	"ramp":    rampSVG,
	"stripes": stripesSVG(),
	"wheel":   wheelSVG(12),
}

// Patterns returns the names of the built-in patterns
func Patterns() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RenderPattern rasterizes a built-in pattern at w x h
func RenderPattern(name string, w, h int) (*image.RGBA, error) {
	svg, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q", name)
	}
	return RenderSVG(svg, w, h)
}

// RenderSVG rasterizes an SVG document scaled to w x h over black
func RenderSVG(svg string, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

// barsSVG is seven full-height color bars in descending luminance
func barsSVG() string {
	colors := []string{"#ffffff", "#ffff00", "#00ffff", "#00ff00", "#ff00ff", "#ff0000", "#0000ff"}
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64" width="64" height="64">`)
	w := 64.0 / float64(len(colors))
	for i, c := range colors {
		fmt.Fprintf(&b, `<rect x="%.3f" y="0" width="%.3f" height="64" fill="%s"/>`, float64(i)*w, w+0.01, c)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// stripesSVG repeats red, green and blue one-pixel vertical stripes
func stripesSVG() string {
	colors := []string{"#ff0000", "#00ff00", "#0000ff"}
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64" width="64" height="64">`)
	for x := 0; x < 64; x++ {
		fmt.Fprintf(&b, `<rect x="%d" y="0" width="1" height="64" fill="%s"/>`, x, colors[x%3])
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// wheelSVG is a hue wheel of n slices fading to white at the center
func wheelSVG(n int) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64" width="64" height="64">`)
	b.WriteString(`<defs><radialGradient id="center" cx="32" cy="32" r="30" gradientUnits="userSpaceOnUse">` +
		`<stop offset="0" stop-color="#ffffff" stop-opacity="1"/>` +
		`<stop offset="1" stop-color="#ffffff" stop-opacity="0"/>` +
		`</radialGradient></defs>`)

	step := 2 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		a0, a1 := float64(i)*step, float64(i+1)*step
		r, g, bl := hueRGB(float64(i) * 360 / float64(n))
		fmt.Fprintf(&b, `<path d="M32 32 L%.3f %.3f A30 30 0 0 1 %.3f %.3f Z" fill="#%02x%02x%02x"/>`,
			32+30*math.Cos(a0), 32+30*math.Sin(a0),
			32+30*math.Cos(a1), 32+30*math.Sin(a1),
			r, g, bl)
	}
	b.WriteString(`<circle cx="32" cy="32" r="30" fill="url(#center)"/>`)
	b.WriteString(`</svg>`)
	return b.String()
}

// hueRGB returns the fully saturated color of hue h in degrees
func hueRGB(h float64) (r, g, b uint8) {
	x := 1 - math.Abs(math.Mod(h/60, 2)-1)
	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf = 1, x
	case h < 120:
		rf, gf = x, 1
	case h < 180:
		gf, bf = 1, x
	case h < 240:
		gf, bf = x, 1
	case h < 300:
		rf, bf = x, 1
	default:
		rf, bf = 1, x
	}
	return uint8(math.Round(rf * 255)), uint8(math.Round(gf * 255)), uint8(math.Round(bf * 255))
}

// rampSVG is a white ramp over red, green and blue ramps, for checking the
// BCM depth and the correction curves
const rampSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64" width="64" height="64">
<defs>
<linearGradient id="w" x1="0" y1="0" x2="64" y2="0" gradientUnits="userSpaceOnUse"><stop offset="0" stop-color="#000000"/><stop offset="1" stop-color="#ffffff"/></linearGradient>
<linearGradient id="r" x1="0" y1="0" x2="64" y2="0" gradientUnits="userSpaceOnUse"><stop offset="0" stop-color="#000000"/><stop offset="1" stop-color="#ff0000"/></linearGradient>
<linearGradient id="g" x1="0" y1="0" x2="64" y2="0" gradientUnits="userSpaceOnUse"><stop offset="0" stop-color="#000000"/><stop offset="1" stop-color="#00ff00"/></linearGradient>
<linearGradient id="b" x1="0" y1="0" x2="64" y2="0" gradientUnits="userSpaceOnUse"><stop offset="0" stop-color="#000000"/><stop offset="1" stop-color="#0000ff"/></linearGradient>
</defs>
<rect x="0" y="0" width="64" height="16" fill="url(#w)"/>
<rect x="0" y="16" width="64" height="16" fill="url(#r)"/>
<rect x="0" y="32" width="64" height="16" fill="url(#g)"/>
<rect x="0" y="48" width="64" height="16" fill="url(#b)"/>
</svg>`
