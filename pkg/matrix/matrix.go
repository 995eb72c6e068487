// Package matrix ties the HUB75 pieces together: a frame buffer fed by
// callers, the BCM encoder, and the refresh engine driving a bus.
package matrix

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fkcurrie/hub75-bcm/pkg/colorcorrect"
	"github.com/fkcurrie/hub75-bcm/pkg/gpio"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
	"github.com/fkcurrie/hub75-bcm/pkg/refresh"
)

// Config holds the configuration for the LED matrix
type Config struct {
	Pins hub75.PinConfig
	// WordWidth is the width of the output register in bits
	WordWidth int
	// Depth is the number of BCM planes (5-8)
	Depth int
	Mode  refresh.Mode
	Order hub75.ChannelOrder
	// Gamma applies the gamma curve to incoming pixels
	Gamma bool
	// Lightness applies perceptual lightness correction when encoding
	Lightness bool
	BaseDelay time.Duration
	// CPU pins the refresh thread; -1 disables pinning
	CPU int
	// Priority is the SCHED_FIFO priority of the refresh thread; 0 disables
	Priority int
}

// DefaultConfig returns the configuration for an Adafruit bonnet on a
// Raspberry Pi
func DefaultConfig() *Config {
	return &Config{
		Pins:      hub75.AdafruitBonnet,
		WordWidth: hub75.MaxWordWidth,
		Depth:     hub75.MaxDepth,
		Mode:      refresh.ModeTimeline,
		Order:     hub75.OrderRGB,
		Gamma:     true,
		Lightness: true,
		BaseDelay: refresh.DefaultBaseDelay,
		CPU:       -1,
	}
}

// Matrix represents a 64x64 HUB75 panel. Writers are serialized: each
// change replaces the frame and, in timeline mode, re-encodes and installs
// the program before the next change starts.
type Matrix struct {
	cfg    Config
	pins   *hub75.PinAssignment
	enc    *hub75.Encoder
	fb     *hub75.FrameBuffer
	engine *refresh.Engine
	logger zerolog.Logger

	mu sync.Mutex
}

// NewMatrix validates cfg and prepares a matrix driving bus. Nothing is
// written to the bus until Run.
func NewMatrix(bus gpio.Bus, cfg *Config, logger zerolog.Logger) (*Matrix, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	pins, err := hub75.NewPinAssignment(cfg.Pins, cfg.WordWidth)
	if err != nil {
		return nil, err
	}
	enc, err := hub75.NewEncoder(pins, hub75.EncoderOptions{
		Depth:     cfg.Depth,
		Order:     cfg.Order,
		Lightness: cfg.Lightness,
	})
	if err != nil {
		return nil, err
	}

	fb := hub75.NewFrameBuffer()
	engine, err := refresh.NewEngine(bus, enc, fb, refresh.Config{
		Mode:      cfg.Mode,
		BaseDelay: cfg.BaseDelay,
		CPU:       cfg.CPU,
		Priority:  cfg.Priority,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("mode", cfg.Mode.String()).
		Int("depth", cfg.Depth).
		Str("order", enc.Order().String()).
		Str("driven_mask", fmt.Sprintf("%#08x", pins.DrivenMask())).
		Msg("Matrix configured")

	return &Matrix{
		cfg:    *cfg,
		pins:   pins,
		enc:    enc,
		fb:     fb,
		engine: engine,
		logger: logger,
	}, nil
}

// Run refreshes the panel until ctx is done or Close is called
func (m *Matrix) Run(ctx context.Context) error {
	return m.engine.Run(ctx)
}

// Close stops the refresh engine, which blanks the panel on its way out
func (m *Matrix) Close() error {
	m.engine.Stop()
	return nil
}

// GetDimensions returns the dimensions of the LED matrix
func (m *Matrix) GetDimensions() (width, height int) {
	return hub75.Width, hub75.Height
}

// Pins returns the validated pin assignment
func (m *Matrix) Pins() *hub75.PinAssignment {
	return m.pins
}

// Stats returns the refresh counters
func (m *Matrix) Stats() refresh.Stats {
	return m.engine.Stats()
}

// Generation returns the number of frames published so far
func (m *Matrix) Generation() uint64 {
	return m.fb.Generation()
}

// Frame returns the published frame. It must not be modified.
func (m *Matrix) Frame() (*hub75.Frame, uint64) {
	return m.fb.Snapshot()
}

// SetImage shows a 64x64 image. Other sizes fail with a DimensionError;
// see internal/intake for resizing.
func (m *Matrix) SetImage(img image.Image) error {
	f, err := hub75.FrameFromImage(img, m.cfg.Gamma)
	if err != nil {
		return err
	}
	return m.SetFrame(f)
}

// SetFrame shows f as is, without gamma correction
func (m *Matrix) SetFrame(f *hub75.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.fb.Replace(f); err != nil {
		return err
	}
	// Encode the stored copy; the caller keeps ownership of f.
	published, gen := m.fb.Snapshot()
	return m.publish(published, gen)
}

// update edits a copy of the current frame and publishes it
func (m *Matrix) update(fn func(f *hub75.Frame)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, gen := m.fb.Update(fn)
	return m.publish(f, gen)
}

// publish encodes and installs the program for f in timeline mode. Must be
// called with m.mu held.
func (m *Matrix) publish(f *hub75.Frame, gen uint64) error {
	if m.cfg.Mode != refresh.ModeTimeline {
		return nil
	}

	start := time.Now()
	tl, err := m.enc.Timeline(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	tl.Generation = gen
	if err := m.engine.Install(tl); err != nil {
		return fmt.Errorf("failed to install timeline: %w", err)
	}
	m.logger.Debug().Uint64("generation", gen).Dur("encode", time.Since(start)).Msg("Timeline installed")
	return nil
}

// ingest converts a color to a pixel, applying the gamma curve if enabled
func (m *Matrix) ingest(c color.Color) hub75.Pixel {
	p := hub75.PixelFromColor(c)
	if m.cfg.Gamma {
		p = hub75.Pixel{R: colorcorrect.Gamma(p.R), G: colorcorrect.Gamma(p.G), B: colorcorrect.Gamma(p.B)}
	}
	return p
}

func inBounds(x, y int) error {
	if x < 0 || x >= hub75.Width || y < 0 || y >= hub75.Height {
		return fmt.Errorf("coordinates out of bounds: (%d, %d)", x, y)
	}
	return nil
}

// Clear turns every LED off
func (m *Matrix) Clear() error {
	return m.SetFrame(hub75.NewFrame())
}

// Fill fills the entire matrix with a color
func (m *Matrix) Fill(c color.Color) error {
	p := m.ingest(c)
	return m.update(func(f *hub75.Frame) {
		f.Fill(p)
	})
}

// SetPixel sets a pixel at the given coordinates to the given color
func (m *Matrix) SetPixel(x, y int, c color.Color) error {
	if err := inBounds(x, y); err != nil {
		return err
	}
	p := m.ingest(c)
	return m.update(func(f *hub75.Frame) {
		f.Set(x, y, p)
	})
}

// SetPixelColor sets a pixel at the given coordinates to the given color
func (m *Matrix) SetPixelColor(x, y int, r, g, b uint8) error {
	return m.SetPixel(x, y, color.RGBA{r, g, b, 255})
}

// GetPixelColor returns the stored color of a pixel, after ingest
// correction
func (m *Matrix) GetPixelColor(x, y int) (r, g, b uint8, err error) {
	if err := inBounds(x, y); err != nil {
		return 0, 0, 0, err
	}
	f, _ := m.fb.Snapshot()
	p := f.At(x, y)
	return p.R, p.G, p.B, nil
}

// SetPixelHSV sets a pixel at the given coordinates using HSV color values.
// h is in degrees, s and v in [0, 1].
func (m *Matrix) SetPixelHSV(x, y int, h, s, v float64) error {
	return m.SetPixel(x, y, hsvToRGB(h, s, v))
}

// Scroll shifts the display by dx, dy pixels, wrapping around the edges
func (m *Matrix) Scroll(dx, dy int) error {
	return m.update(func(f *hub75.Frame) {
		src := f.Clone()
		for y := 0; y < hub75.Height; y++ {
			for x := 0; x < hub75.Width; x++ {
				sx := mod(x-dx, hub75.Width)
				sy := mod(y-dy, hub75.Height)
				f.Set(x, y, src.At(sx, sy))
			}
		}
	})
}

// SetText draws text over the current content with the 7x13 fixed font.
// (x, y) is the left end of the baseline.
func (m *Matrix) SetText(text string, x, y int, c color.Color) error {
	p := m.ingest(c)
	return m.update(func(f *hub75.Frame) {
		img := f.Image()
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{p.R, p.G, p.B, 255}),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x, y),
		}
		d.DrawString(text)
		copyImage(f, img)
	})
}

// copyImage copies an RGBA image of frame size into f without correction
func copyImage(f *hub75.Frame, img *image.RGBA) {
	for y := 0; y < hub75.Height; y++ {
		for x := 0; x < hub75.Width; x++ {
			c := img.RGBAAt(x, y)
			f.Set(x, y, hub75.Pixel{R: c.R, G: c.G, B: c.B})
		}
	}
}

// Draw copies the part of src at sp onto the rectangle r of the display,
// like draw.Draw with draw.Src. Colors are gamma corrected if enabled.
func (m *Matrix) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	off := sp.Sub(r.Min)
	r = r.Intersect(image.Rect(0, 0, hub75.Width, hub75.Height))
	return m.update(func(f *hub75.Frame) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				f.Set(x, y, m.ingest(src.At(x+off.X, y+off.Y)))
			}
		}
	})
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

// hsvToRGB converts HSV color values to RGB
func hsvToRGB(h, s, v float64) color.Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = math.Max(0, math.Min(1, s))
	v = math.Max(0, math.Min(1, v))

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	mm := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8(math.Round((r + mm) * 255)),
		G: uint8(math.Round((g + mm) * 255)),
		B: uint8(math.Round((b + mm) * 255)),
		A: 255,
	}
}
