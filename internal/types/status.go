package types

import (
	"time"
)

// RefreshState describes what the refresh loop is doing
type RefreshState string

const (
	// Possible refresh states
	StateIdle    RefreshState = "Idle"
	StateRunning RefreshState = "Running"
	StateStopped RefreshState = "Stopped"
	StateFault   RefreshState = "Fault"
)

// RefreshStats mirrors the refresh engine counters
type RefreshStats struct {
	Cycles    uint64 `json:"cycles"`
	Rows      uint64 `json:"rows"`
	StaleRows uint64 `json:"stale_rows"`
	Swaps     uint64 `json:"swaps"`
}

// DisplayStatus is reported by the status endpoint
type DisplayStatus struct {
	State       RefreshState `json:"state"`
	Mode        string       `json:"mode"`
	Depth       int          `json:"depth"`
	Generation  uint64       `json:"generation"`
	Refresh     RefreshStats `json:"refresh"`
	Uptime      string       `json:"uptime"`
	LastUpdated time.Time    `json:"last_updated"`
}
