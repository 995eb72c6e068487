//go:build linux

package refresh

import (
	"golang.org/x/sys/unix"
)

// realtime pins the locked refresh thread and raises its priority.
// Failures only degrade timing, so they are logged and ignored.
func (e *Engine) realtime() {
	if e.cfg.CPU >= 0 {
		var set unix.CPUSet
		set.Zero()
		set.Set(e.cfg.CPU)
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			e.logger.Warn().Err(err).Int("cpu", e.cfg.CPU).Msg("Failed to pin refresh thread")
		} else {
			e.logger.Debug().Int("cpu", e.cfg.CPU).Msg("Pinned refresh thread")
		}
	}

	if e.cfg.Priority > 0 {
		attr := &unix.SchedAttr{
			Size:     unix.SizeofSchedAttr,
			Policy:   unix.SCHED_FIFO,
			Priority: uint32(e.cfg.Priority),
		}
		if err := unix.SchedSetAttr(0, attr, 0); err != nil {
			e.logger.Warn().Err(err).Int("priority", e.cfg.Priority).Msg("Failed to set SCHED_FIFO")
		} else {
			e.logger.Debug().Int("priority", e.cfg.Priority).Msg("Refresh thread running SCHED_FIFO")
		}
	}
}
