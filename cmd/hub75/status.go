package main

import (
	"context"
	"sync"
	"time"

	"github.com/fkcurrie/hub75-bcm/internal/types"
	"github.com/fkcurrie/hub75-bcm/pkg/matrix"
	"github.com/fkcurrie/hub75-bcm/pkg/refresh"
)

// refresher is the part of the matrix the tracker watches
type refresher interface {
	Run(ctx context.Context) error
	Stats() refresh.Stats
	Generation() uint64
}

// statusTracker runs the refresh loop and records how it ended
type statusTracker struct {
	m       refresher
	cfg     *matrix.Config
	started time.Time

	mu      sync.Mutex
	state   types.RefreshState
	updated time.Time
	lastGen uint64
}

func newStatusTracker(m refresher, cfg *matrix.Config) *statusTracker {
	return &statusTracker{m: m, cfg: cfg, state: types.StateIdle}
}

func (t *statusTracker) setState(s types.RefreshState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
}

// run drives the refresh loop until ctx is done
func (t *statusTracker) run(ctx context.Context) error {
	t.mu.Lock()
	t.started = time.Now()
	t.state = types.StateRunning
	t.mu.Unlock()

	err := t.m.Run(ctx)
	if err != nil {
		t.setState(types.StateFault)
		return err
	}
	t.setState(types.StateStopped)
	return nil
}

func (t *statusTracker) status() types.DisplayStatus {
	stats := t.m.Stats()
	gen := t.m.Generation()

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.lastGen {
		t.lastGen = gen
		t.updated = time.Now()
	}
	var uptime time.Duration
	if !t.started.IsZero() {
		uptime = time.Since(t.started).Truncate(time.Second)
	}

	return types.DisplayStatus{
		State:      t.state,
		Mode:       t.cfg.Mode.String(),
		Depth:      t.cfg.Depth,
		Generation: gen,
		Refresh: types.RefreshStats{
			Cycles:    stats.Cycles,
			Rows:      stats.Rows,
			StaleRows: stats.StaleRows,
			Swaps:     stats.Swaps,
		},
		Uptime:      uptime.String(),
		LastUpdated: t.updated,
	}
}
