// Package refresh runs the real-time loop that drives a HUB75 panel from
// the current BCM program.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fkcurrie/hub75-bcm/pkg/gpio"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
)

// ErrRunning is returned by Run when the engine is already running
var ErrRunning = errors.New("refresh engine already running")

// DefaultBaseDelay is the hold time of plane 0 in direct mode
const DefaultBaseDelay = 2 * time.Microsecond

// Config configures an Engine
type Config struct {
	Mode Mode
	// BaseDelay is how long direct mode holds a row of plane 0; plane p
	// is held BaseDelay << p
	BaseDelay time.Duration
	// CPU is the core the refresh thread is pinned to; -1 leaves the
	// affinity alone
	CPU int
	// Priority is the SCHED_FIFO priority of the refresh thread; 0 keeps
	// the default scheduler
	Priority int
	Logger   zerolog.Logger
}

// Stats are running counters of an Engine
type Stats struct {
	// Cycles counts completed refresh cycles
	Cycles uint64 `json:"cycles"`
	// Rows counts scan rows driven
	Rows uint64 `json:"rows"`
	// StaleRows counts direct mode rows shown from an older frame because
	// the writer held the FrameBuffer
	StaleRows uint64 `json:"stale_rows"`
	// Swaps counts installed timelines
	Swaps uint64 `json:"swaps"`
}

// strategy produces one refresh cycle. It must poll e.halted at every
// row boundary and return false as soon as it reports true.
type strategy interface {
	cycle(e *Engine) bool
}

// Engine continuously writes the current BCM program to a bus. Only the
// bits of the pin assignment's driven mask are ever written.
type Engine struct {
	bus    gpio.Bus
	enc    *hub75.Encoder
	fb     *hub75.FrameBuffer
	cfg    Config
	logger zerolog.Logger

	mask uint32
	idle uint32
	emit func(uint32)

	strategy strategy
	current  atomic.Pointer[hub75.Timeline]

	halt     atomic.Bool
	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once

	cycles    atomic.Uint64
	rows      atomic.Uint64
	staleRows atomic.Uint64
	swaps     atomic.Uint64
}

// NewEngine returns an engine that is not yet running. Timeline mode
// starts out with a blank program; direct mode reads fb.
func NewEngine(bus gpio.Bus, enc *hub75.Encoder, fb *hub75.FrameBuffer, cfg Config) (*Engine, error) {
	if bus == nil {
		return nil, &hub75.ConfigError{Field: "bus", Reason: "no output bus"}
	}
	if enc == nil {
		return nil, &hub75.ConfigError{Field: "encoder", Reason: "no encoder"}
	}
	if cfg.BaseDelay < 0 {
		return nil, &hub75.ConfigError{Field: "base_delay", Reason: fmt.Sprintf("negative delay %v", cfg.BaseDelay)}
	}

	pins := enc.Pins()
	e := &Engine{
		bus:    bus,
		enc:    enc,
		fb:     fb,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "refresh").Logger(),
		mask:   pins.DrivenMask(),
		idle:   pins.IdleWord(),
		stop:   make(chan struct{}),
	}
	e.emit = func(w uint32) {
		e.bus.Write(w & e.mask)
	}

	switch cfg.Mode {
	case ModeTimeline:
		blank, err := enc.Timeline(hub75.NewFrame())
		if err != nil {
			return nil, fmt.Errorf("failed to encode blank timeline: %w", err)
		}
		e.current.Store(blank)
		e.strategy = &timelineStrategy{}
	case ModeDirect:
		if fb == nil {
			return nil, &hub75.ConfigError{Field: "framebuffer", Reason: "direct mode needs a frame buffer"}
		}
		f, _ := fb.Snapshot()
		e.strategy = &directStrategy{frame: f, state: e.idle}
	default:
		return nil, &hub75.ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown mode %v", cfg.Mode)}
	}

	return e, nil
}

// Mode returns the refresh mode
func (e *Engine) Mode() Mode {
	return e.cfg.Mode
}

// Install atomically replaces the timeline. The running cycle finishes on
// the old program; the next cycle starts on tl.
func (e *Engine) Install(tl *hub75.Timeline) error {
	if tl == nil {
		return errors.New("nil timeline")
	}
	if tl.Depth != e.enc.Depth() {
		return fmt.Errorf("timeline depth %d does not match encoder depth %d", tl.Depth, e.enc.Depth())
	}
	if want := hub75.TimelineLength(tl.Depth); tl.Len() != want {
		return fmt.Errorf("timeline has %d words, want %d", tl.Len(), want)
	}
	e.current.Store(tl)
	e.swaps.Add(1)
	return nil
}

// Current returns the installed timeline
func (e *Engine) Current() *hub75.Timeline {
	return e.current.Load()
}

// Stop asks a running engine to blank the panel and return. It does not
// wait; an engine that has been stopped cannot be run again.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stop)
	})
	e.halt.Store(true)
}

// Running reports whether Run is executing
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Stats returns a snapshot of the counters
func (e *Engine) Stats() Stats {
	return Stats{
		Cycles:    e.cycles.Load(),
		Rows:      e.rows.Load(),
		StaleRows: e.staleRows.Load(),
		Swaps:     e.swaps.Load(),
	}
}

// Run refreshes the panel until ctx is done or Stop is called. The calling
// goroutine is locked to its OS thread and, where supported, pinned and
// given real-time priority. Whatever the exit path, the idle word is
// written last so the panel is left blank. A fault inside the loop is
// recovered and returned as an error.
func (e *Engine) Run(ctx context.Context) (err error) {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)

	// A previous Run ended by its context leaves halt set; only Stop is
	// terminal.
	select {
	case <-e.stop:
		e.halt.Store(true)
	default:
		e.halt.Store(false)
	}

	ctx, cancel := context.WithCancel(ctx)
	watched := make(chan struct{})
	defer func() {
		cancel()
		<-watched
	}()
	go func() {
		defer close(watched)
		select {
		case <-ctx.Done():
		case <-e.stop:
		}
		e.halt.Store(true)
	}()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	e.realtime()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh fault: %v", r)
			e.logger.Error().Err(err).Msg("Refresh loop failed, blanking panel")
		}
		e.bus.Write(e.idle)
	}()

	e.logger.Info().Str("mode", e.cfg.Mode.String()).Int("depth", e.enc.Depth()).Msg("Refresh started")
	for !e.halted() {
		if e.strategy.cycle(e) {
			e.cycles.Add(1)
		}
	}
	e.logger.Info().Uint64("cycles", e.cycles.Load()).Msg("Refresh stopped")
	return nil
}

func (e *Engine) halted() bool {
	return e.halt.Load()
}
