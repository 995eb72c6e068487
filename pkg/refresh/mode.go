package refresh

import (
	"fmt"
	"strings"
)

// Mode selects how the engine produces bus words
type Mode int

const (
	// ModeTimeline replays a fully unrolled Timeline
	ModeTimeline Mode = iota
	// ModeDirect extracts each row from the FrameBuffer while scanning and
	// holds it for a plane-weighted delay
	ModeDirect
)

func (m Mode) String() string {
	switch m {
	case ModeTimeline:
		return "timeline"
	case ModeDirect:
		return "direct"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "timeline" or "direct"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "timeline":
		return ModeTimeline, nil
	case "direct":
		return ModeDirect, nil
	}
	return 0, fmt.Errorf("unknown refresh mode %q", s)
}
