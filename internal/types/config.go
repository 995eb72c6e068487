package types

import "github.com/fkcurrie/hub75-bcm/pkg/hub75"

// PanelConfig describes the panel wiring and encoding
type PanelConfig struct {
	// Preset names a built-in pinout: "adafruit-bonnet" or "esp32-s3".
	// Pins, when set, overrides it.
	Preset       string           `json:"preset" yaml:"preset"`
	Pins         *hub75.PinConfig `json:"pins,omitempty" yaml:"pins,omitempty"`
	WordWidth    int              `json:"word_width" yaml:"word_width"`
	Depth        int              `json:"depth" yaml:"depth"`
	ChannelOrder string           `json:"channel_order" yaml:"channel_order"`
	Gamma        bool             `json:"gamma" yaml:"gamma"`
	Lightness    bool             `json:"lightness" yaml:"lightness"`
}

// RefreshConfig selects the refresh strategy, the output bus and the
// scheduling of the refresh thread
type RefreshConfig struct {
	Mode string `json:"mode" yaml:"mode"`
	// BaseDelay is a duration string such as "2us"
	BaseDelay string `json:"base_delay" yaml:"base_delay"`
	CPU       int    `json:"cpu" yaml:"cpu"`
	Priority  int    `json:"priority" yaml:"priority"`
	// Bus is one of "gpiocdev", "periph", "gpiomem", "devmem" or "memory"
	Bus  string `json:"bus" yaml:"bus"`
	Chip string `json:"chip" yaml:"chip"`
	// SoC selects the GPIO register layout of the gpiomem and devmem
	// buses: "bcm2711", "bcm2835" or "rp1"
	SoC string `json:"soc" yaml:"soc"`
}

// IntakeConfig configures the HTTP frame intake
type IntakeConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Listen         string `json:"listen" yaml:"listen"`
	MaxUploadBytes int64  `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	// PreviewInterval is the websocket preview period in seconds
	PreviewInterval float64 `json:"preview_interval" yaml:"preview_interval"`
}

// DisplayConfig represents the configuration for the built-in content
type DisplayConfig struct {
	// Pattern is shown at startup: "wheel", "bars", "ramp", "stripes",
	// "text" or "none"
	Pattern string `json:"pattern" yaml:"pattern"`
	Text    string `json:"text" yaml:"text"`
	// UpdateInterval is the animation period in seconds
	UpdateInterval float64 `json:"update_interval" yaml:"update_interval"`
}
