package display

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fkcurrie/hub75-bcm/internal/types"
)

// PatternNone leaves the display to other content sources
const PatternNone = "none"

// PatternText scrolls the configured text
const PatternText = "text"

// Renderer handles the built-in content: static test patterns and
// scrolling text
type Renderer struct {
	cfg     *types.DisplayConfig
	display types.Display
	logger  zerolog.Logger

	mu      sync.RWMutex
	pattern string
	text    string
	offset  int
	dirty   bool
}

// NewRenderer creates a new renderer instance
func NewRenderer(cfg *types.DisplayConfig, logger zerolog.Logger) *Renderer {
	return &Renderer{
		cfg:     cfg,
		logger:  logger.With().Str("component", "renderer").Logger(),
		pattern: cfg.Pattern,
		text:    cfg.Text,
		dirty:   true,
	}
}

// SetDisplay sets the display to render to
func (r *Renderer) SetDisplay(d types.Display) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.display = d
	r.dirty = true
}

// SetPattern switches the built-in content. PatternNone stops the renderer
// from drawing until another pattern is selected.
func (r *Renderer) SetPattern(name string) error {
	if name != PatternNone && name != PatternText {
		if _, ok := patterns[name]; !ok {
			return fmt.Errorf("unknown pattern %q", name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if name != r.pattern {
		r.logger.Info().Str("pattern", name).Msg("Pattern selected")
	}
	r.pattern = name
	r.offset = 0
	r.dirty = true
	return nil
}

// SetText sets the scrolling text and selects the text pattern
func (r *Renderer) SetText(text string) {
	r.mu.Lock()
	r.text = text
	r.mu.Unlock()
	r.SetPattern(PatternText)
}

// Pattern returns the selected pattern
func (r *Renderer) Pattern() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pattern
}

// Start starts the renderer
func (r *Renderer) Start(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(r.cfg.UpdateInterval * float64(time.Second)))
	defer ticker.Stop()

	for {
		if err := r.render(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to render")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// render draws the next frame of the current pattern. Static patterns are
// only drawn when they change.
func (r *Renderer) render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.display == nil || r.pattern == PatternNone {
		return nil
	}
	w, h := r.display.GetDimensions()

	if r.pattern == PatternText {
		img := TextFrame(r.text, w, h, r.offset, color.RGBA{255, 255, 255, 255})
		r.offset++
		if r.offset > TextWidth(r.text)+w {
			r.offset = 0
		}
		return r.display.SetImage(img)
	}

	if !r.dirty {
		return nil
	}
	img, err := RenderPattern(r.pattern, w, h)
	if err != nil {
		return err
	}
	if err := r.display.SetImage(img); err != nil {
		return err
	}
	r.dirty = false
	return nil
}

// TextWidth returns the width of text in pixels in the 7x13 font
func TextWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

// TextFrame renders text vertically centered on a black w x h image,
// entering from the right edge and moved left by offset pixels
func TextFrame(text string, w, h, offset int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	baseline := (h + face.Ascent - face.Descent) / 2
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(w-offset, baseline),
	}
	d.DrawString(text)
	return img
}
