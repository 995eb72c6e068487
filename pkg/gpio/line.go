package gpio

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"

	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
)

// DefaultChip is the GPIO character device carrying the 40-pin header on
// a Raspberry Pi
const DefaultChip = "gpiochip0"

// LineBus drives the fourteen HUB75 lines through the GPIO character
// device. Bit positions are used as line offsets on the chip.
type LineBus struct {
	lines   *gpiocdev.Lines
	bits    []uint32
	values  []int
	mask    uint32
	last    uint32
	primed  bool
	errOnce sync.Once
	err     error
	logger  zerolog.Logger
}

// NewLineBus requests every driven line of pins on chip as an output,
// starting from the idle word.
func NewLineBus(chip string, pins *hub75.PinAssignment, logger zerolog.Logger) (*LineBus, error) {
	if chip == "" {
		chip = DefaultChip
	}

	offsets := pins.Pins()
	bits := make([]uint32, len(offsets))
	initial := make([]int, len(offsets))
	idle := pins.IdleWord()
	for i, off := range offsets {
		bits[i] = 1 << uint(off)
		if idle&bits[i] != 0 {
			initial[i] = 1
		}
	}

	logger.Debug().Str("chip", chip).Ints("offsets", offsets).Msg("Requesting GPIO lines")
	lines, err := gpiocdev.RequestLines(chip, offsets,
		gpiocdev.AsOutput(initial...),
		gpiocdev.WithConsumer("hub75"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request lines on %s: %w", chip, err)
	}

	return &LineBus{
		lines:  lines,
		bits:   bits,
		values: make([]int, len(offsets)),
		mask:   pins.DrivenMask(),
		last:   idle,
		primed: true,
		logger: logger,
	}, nil
}

// Write sets every driven line to its bit in word. Unchanged words are
// skipped. The first failure is kept and reported by Err; Write itself
// never blocks the refresh loop on errors.
func (b *LineBus) Write(word uint32) {
	word &= b.mask
	if b.primed && word == b.last {
		return
	}
	for i, bit := range b.bits {
		if word&bit != 0 {
			b.values[i] = 1
		} else {
			b.values[i] = 0
		}
	}
	if err := b.lines.SetValues(b.values); err != nil {
		b.errOnce.Do(func() {
			b.err = err
			b.logger.Error().Err(err).Msg("Failed to set line values")
		})
		return
	}
	b.last = word
	b.primed = true
}

// Err returns the first write error, if any
func (b *LineBus) Err() error {
	return b.err
}

// Close releases the lines
func (b *LineBus) Close() error {
	if err := b.lines.Close(); err != nil {
		return fmt.Errorf("failed to release lines: %w", err)
	}
	return nil
}
