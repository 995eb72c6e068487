package refresh

import (
	"time"

	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
)

// timelineStrategy replays the installed timeline word by word. The
// program is loaded once per cycle so a swap never splits a cycle.
type timelineStrategy struct{}

func (s *timelineStrategy) cycle(e *Engine) bool {
	tl := e.current.Load()
	words := tl.Words
	body := len(words) - 1
	for off := 0; off < body; off += hub75.RowSteps {
		if e.halted() {
			return false
		}
		for _, w := range words[off : off+hub75.RowSteps] {
			e.bus.Write(w & e.mask)
		}
		e.rows.Add(1)
	}
	e.bus.Write(words[body] & e.mask)
	return true
}

// directStrategy builds every row from the frame buffer as it scans.
//
// If the writer holds the frame buffer when a row starts, the row is built
// from the last frame obtained instead of waiting. The panel may then show
// rows of the previous frame for one cycle, but the scan never stalls.
type directStrategy struct {
	frame *hub75.Frame
	cols  [hub75.Width]uint8
	state uint32
}

func (s *directStrategy) cycle(e *Engine) bool {
	for plane := e.enc.Depth() - 1; plane >= 0; plane-- {
		hold := e.cfg.BaseDelay << uint(plane)
		for row := 0; row < hub75.ScanRows; row++ {
			if e.halted() {
				return false
			}
			if f, _, ok := e.fb.TrySnapshot(); ok {
				s.frame = f
			} else {
				e.staleRows.Add(1)
			}
			e.enc.RowBits(s.frame, plane, row, s.cols[:])
			s.state = e.enc.EmitRow(s.state, s.cols[:], row, e.emit)
			spin(hold)
			e.rows.Add(1)
		}
	}
	return true
}

// spin busy-waits for d. Sleeping would hand the thread back to the
// scheduler, whose wakeup latency is far coarser than a plane hold.
func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
