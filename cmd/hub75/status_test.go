package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/hub75-bcm/internal/types"
	"github.com/fkcurrie/hub75-bcm/pkg/matrix"
	"github.com/fkcurrie/hub75-bcm/pkg/refresh"
)

type fakeRefresher struct {
	err   error
	stats refresh.Stats
	gen   uint64
}

func (f *fakeRefresher) Run(ctx context.Context) error {
	<-ctx.Done()
	return f.err
}

func (f *fakeRefresher) Stats() refresh.Stats { return f.stats }
func (f *fakeRefresher) Generation() uint64   { return f.gen }

func TestStatusTracker(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		state types.RefreshState
	}{
		{name: "clean stop", state: types.StateStopped},
		{name: "fault", err: errors.New("refresh fault: boom"), state: types.StateFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRefresher{err: tt.err, stats: refresh.Stats{Cycles: 3, Rows: 96, Swaps: 1}, gen: 2}
			tracker := newStatusTracker(f, matrix.DefaultConfig())
			assert.Equal(t, types.StateIdle, tracker.status().State)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := tracker.run(ctx)
			if tt.err != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			st := tracker.status()
			assert.Equal(t, tt.state, st.State)
			assert.Equal(t, "timeline", st.Mode)
			assert.Equal(t, 8, st.Depth)
			assert.Equal(t, uint64(2), st.Generation)
			assert.Equal(t, uint64(96), st.Refresh.Rows)
			assert.False(t, st.LastUpdated.IsZero())
		})
	}
}
