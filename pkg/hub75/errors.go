package hub75

import "fmt"

// ConfigError reports an invalid static configuration: a pin assignment with
// a collision or an out-of-range bit, an unsupported BCM depth or a bad
// channel order. It is returned at startup, before any hardware is driven.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// DimensionError reports a frame or image whose size is not the fixed
// matrix size. Frames are never cropped or padded.
type DimensionError struct {
	Width  int
	Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("frame dimensions (%dx%d) do not match matrix dimensions (%dx%d)",
		e.Width, e.Height, Width, Height)
}
