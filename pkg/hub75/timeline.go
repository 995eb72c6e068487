package hub75

// Timeline is a fully unrolled BCM refresh cycle: every bus word of every
// plane, repeat, row and column in output order. Replaying it verbatim
// needs no computation per step.
type Timeline struct {
	Depth      int
	Generation uint64
	Words      []uint32
}

// Len returns the number of bus words in the cycle
func (t *Timeline) Len() int {
	return len(t.Words)
}

// TimelineLength is the exact word count of a Timeline at the given depth:
// plane p contributes 2^p full scans of ScanRows rows, each RowSteps words,
// and one closing word disables output.
func TimelineLength(depth int) int {
	n := 0
	for p := 0; p < depth; p++ {
		n += (1 << p) * ScanRows * RowSteps
	}
	return n + 1
}

// Timeline unrolls f into a complete refresh cycle. Planes run from most to
// least significant; plane p is scanned 2^p times.
func (e *Encoder) Timeline(f *Frame) (*Timeline, error) {
	planes, err := e.BitPlanes(f)
	if err != nil {
		return nil, err
	}
	return e.Unroll(planes), nil
}

// Unroll expands a bit-plane table into a Timeline
func (e *Encoder) Unroll(planes *BitPlanes) *Timeline {
	words := make([]uint32, 0, TimelineLength(planes.Depth))
	emit := func(w uint32) {
		words = append(words, w)
	}

	state := e.pins.IdleWord()
	for plane := planes.Depth - 1; plane >= 0; plane-- {
		for rep := 0; rep < 1<<plane; rep++ {
			for row := 0; row < ScanRows; row++ {
				state = e.EmitRow(state, planes.Row(plane, row), row, emit)
			}
		}
	}
	emit(state | e.pins.Bit(OE))

	return &Timeline{Depth: planes.Depth, Words: words}
}
