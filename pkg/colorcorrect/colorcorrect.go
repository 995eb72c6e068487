// Package colorcorrect holds the 8-bit channel correction curves used before
// bit-plane extraction (lightness) and when ingesting image data (gamma).
package colorcorrect

import "math"

const (
	// DefaultGamma is the exponent of the ingest curve. It stays within two
	// steps of the panel firmware's hand-tuned table (128 -> 55).
	DefaultGamma = 2.2

	// Knee of the CIE 1931 lightness curve (L* below this is linear)
	lightnessKnee = 8.0
)

var (
	lightnessTable = buildLightnessTable()
	gammaTable     = buildGammaTable(DefaultGamma)
)

// Lightness maps a linear 8-bit channel value to the output level the panel
// must be driven at for the eye to perceive a linear brightness ramp.
func Lightness(v uint8) uint8 {
	return lightnessTable[v]
}

// Gamma applies the ingest gamma curve to a raw image channel value.
func Gamma(v uint8) uint8 {
	return gammaTable[v]
}

// LightnessTable returns a copy of the lightness lookup table
func LightnessTable() [256]uint8 {
	return lightnessTable
}

// GammaTable returns a copy of the gamma lookup table
func GammaTable() [256]uint8 {
	return gammaTable
}

// buildLightnessTable inverts CIE 1931 lightness: the input is treated as L*
// in [0, 100] and converted to relative luminance.
func buildLightnessTable() [256]uint8 {
	var t [256]uint8
	for i := range t {
		l := float64(i) * 100 / 255
		var y float64
		if l <= lightnessKnee {
			y = l / 903.3
		} else {
			y = math.Pow((l+16)/116, 3)
		}
		t[i] = clamp(y * 255)
	}
	return monotonic(t)
}

func buildGammaTable(gamma float64) [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = clamp(math.Pow(float64(i)/255, gamma) * 255)
	}
	return monotonic(t)
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// monotonic flattens any rounding dip so the curve never decreases.
func monotonic(t [256]uint8) [256]uint8 {
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			t[i] = t[i-1]
		}
	}
	return t
}
