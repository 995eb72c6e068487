package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fkcurrie/hub75-bcm/internal/types"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
	"github.com/fkcurrie/hub75-bcm/pkg/matrix"
	"github.com/fkcurrie/hub75-bcm/pkg/mmap"
	"github.com/fkcurrie/hub75-bcm/pkg/refresh"
)

// Pin presets by name
var presets = map[string]hub75.PinConfig{
	"adafruit-bonnet": hub75.AdafruitBonnet,
	"esp32-s3":        hub75.ESP32S3,
}

// Output buses by name
var buses = map[string]bool{
	BusGPIOCDev: true,
	BusPeriph:   true,
	BusGPIOMem:  true,
	BusDevMem:   true,
	BusMemory:   true,
}

// Output bus names
const (
	BusGPIOCDev = "gpiocdev"
	BusPeriph   = "periph"
	BusGPIOMem  = "gpiomem"
	BusDevMem   = "devmem"
	BusMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	Panel   types.PanelConfig   `json:"panel" yaml:"panel"`
	Refresh types.RefreshConfig `json:"refresh" yaml:"refresh"`
	Intake  types.IntakeConfig  `json:"intake" yaml:"intake"`
	Display types.DisplayConfig `json:"display" yaml:"display"`
}

// LoadConfig loads the configuration from a file. Files ending in .yaml or
// .yml are read as YAML, anything else as JSON. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration to path in the format its extension
// selects
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Panel: types.PanelConfig{
			Preset:       "adafruit-bonnet",
			WordWidth:    hub75.MaxWordWidth,
			Depth:        hub75.MaxDepth,
			ChannelOrder: hub75.OrderRGB.String(),
			Gamma:        true,
			Lightness:    true,
		},
		Refresh: types.RefreshConfig{
			Mode:      refresh.ModeTimeline.String(),
			BaseDelay: refresh.DefaultBaseDelay.String(),
			CPU:       3,
			Priority:  50,
			Bus:       "gpiocdev",
			Chip:      "gpiochip0",
			SoC:       "bcm2711",
		},
		Intake: types.IntakeConfig{
			Enabled:         true,
			Listen:          ":8080",
			MaxUploadBytes:  4 << 20,
			PreviewInterval: 0.2,
		},
		Display: types.DisplayConfig{
			Pattern:        "wheel",
			Text:           "HUB75",
			UpdateInterval: 0.05,
		},
	}
}

// Validate checks every field that can be checked without hardware
func (c *Config) Validate() error {
	if _, err := c.MatrixConfig(); err != nil {
		return err
	}
	if !buses[c.Refresh.Bus] {
		return &hub75.ConfigError{Field: "refresh.bus", Reason: fmt.Sprintf("unknown bus %q", c.Refresh.Bus)}
	}
	if _, ok := mmap.SoCs[c.Refresh.SoC]; !ok {
		return &hub75.ConfigError{Field: "refresh.soc", Reason: fmt.Sprintf("unknown SoC %q", c.Refresh.SoC)}
	}
	if c.Intake.Enabled && c.Intake.Listen == "" {
		return &hub75.ConfigError{Field: "intake.listen", Reason: "no listen address"}
	}
	if c.Intake.MaxUploadBytes <= 0 {
		return &hub75.ConfigError{Field: "intake.max_upload_bytes", Reason: "must be positive"}
	}
	if c.Display.UpdateInterval <= 0 {
		return &hub75.ConfigError{Field: "display.update_interval", Reason: "must be positive"}
	}
	return nil
}

// PinConfig resolves the pin preset, or the explicit pins if given
func (c *Config) PinConfig() (hub75.PinConfig, error) {
	if c.Panel.Pins != nil {
		return *c.Panel.Pins, nil
	}
	pins, ok := presets[strings.ToLower(c.Panel.Preset)]
	if !ok {
		return hub75.PinConfig{}, &hub75.ConfigError{Field: "panel.preset", Reason: fmt.Sprintf("unknown preset %q", c.Panel.Preset)}
	}
	return pins, nil
}

// MatrixConfig converts the configuration to a matrix.Config, validating
// the pin assignment and encoder settings on the way
func (c *Config) MatrixConfig() (*matrix.Config, error) {
	pins, err := c.PinConfig()
	if err != nil {
		return nil, err
	}
	if _, err := hub75.NewPinAssignment(pins, c.Panel.WordWidth); err != nil {
		return nil, err
	}
	if c.Panel.Depth < hub75.MinDepth || c.Panel.Depth > hub75.MaxDepth {
		return nil, &hub75.ConfigError{Field: "panel.depth", Reason: fmt.Sprintf("BCM depth %d outside [%d, %d]", c.Panel.Depth, hub75.MinDepth, hub75.MaxDepth)}
	}
	order, err := hub75.ParseChannelOrder(c.Panel.ChannelOrder)
	if err != nil {
		return nil, err
	}
	mode, err := refresh.ParseMode(c.Refresh.Mode)
	if err != nil {
		return nil, &hub75.ConfigError{Field: "refresh.mode", Reason: err.Error()}
	}
	delay, err := time.ParseDuration(c.Refresh.BaseDelay)
	if err != nil || delay < 0 {
		return nil, &hub75.ConfigError{Field: "refresh.base_delay", Reason: fmt.Sprintf("invalid duration %q", c.Refresh.BaseDelay)}
	}

	return &matrix.Config{
		Pins:      pins,
		WordWidth: c.Panel.WordWidth,
		Depth:     c.Panel.Depth,
		Mode:      mode,
		Order:     order,
		Gamma:     c.Panel.Gamma,
		Lightness: c.Panel.Lightness,
		BaseDelay: delay,
		CPU:       c.Refresh.CPU,
		Priority:  c.Refresh.Priority,
	}, nil
}
