//go:build !linux

package refresh

func (e *Engine) realtime() {
	if e.cfg.CPU >= 0 || e.cfg.Priority > 0 {
		e.logger.Warn().Msg("Thread pinning and real-time priority are only supported on Linux")
	}
}
