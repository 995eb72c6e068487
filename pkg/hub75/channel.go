package hub75

import (
	"fmt"
	"strings"
)

// Channel names one source channel of a Pixel
type Channel uint8

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
)

func (c Channel) String() string {
	switch c {
	case ChannelR:
		return "R"
	case ChannelG:
		return "G"
	case ChannelB:
		return "B"
	}
	return "?"
}

// ChannelOrder says which source channel feeds the physical red, green and
// blue data lines, in that order. Some panels are wired with the colors
// rotated; the remap is applied during column encoding.
type ChannelOrder [3]Channel

var (
	// OrderRGB is the canonical wiring
	OrderRGB = ChannelOrder{ChannelR, ChannelG, ChannelB}
	// OrderBRG drives red from blue, green from red and blue from green,
	// matching the ESP32-S3 sticker frame panel
	OrderBRG = ChannelOrder{ChannelB, ChannelR, ChannelG}
)

// ParseChannelOrder parses a permutation of "RGB", e.g. "BRG"
func ParseChannelOrder(s string) (ChannelOrder, error) {
	var o ChannelOrder
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return o, &ConfigError{Field: "channel_order", Reason: fmt.Sprintf("%q is not a permutation of RGB", s)}
	}

	seen := 0
	for i := 0; i < 3; i++ {
		var c Channel
		switch s[i] {
		case 'R':
			c = ChannelR
		case 'G':
			c = ChannelG
		case 'B':
			c = ChannelB
		default:
			return o, &ConfigError{Field: "channel_order", Reason: fmt.Sprintf("%q is not a permutation of RGB", s)}
		}
		if seen&(1<<c) != 0 {
			return o, &ConfigError{Field: "channel_order", Reason: fmt.Sprintf("%q repeats channel %s", s, c)}
		}
		seen |= 1 << c
		o[i] = c
	}
	return o, nil
}

func (o ChannelOrder) String() string {
	return o[0].String() + o[1].String() + o[2].String()
}

// valid reports whether o is a permutation
func (o ChannelOrder) valid() bool {
	seen := 0
	for _, c := range o {
		if c > ChannelB {
			return false
		}
		seen |= 1 << c
	}
	return seen == 0b111
}

// Apply returns the values for the physical red, green and blue lines
func (o ChannelOrder) Apply(p Pixel) (r, g, b uint8) {
	src := [3]uint8{p.R, p.G, p.B}
	return src[o[0]], src[o[1]], src[o[2]]
}
