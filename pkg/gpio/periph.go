package gpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
)

// PeriphBus drives one periph.io output pin per HUB75 role. Only the pins
// whose level changed are written.
type PeriphBus struct {
	outs   []gpio.PinOut
	bits   []uint32
	mask   uint32
	idle   uint32
	last   uint32
	primed bool
	err    error
}

// OpenPeriphBus initializes the periph.io host drivers and looks the pins
// up by their BCM names (GPIO<n>).
func OpenPeriphBus(pins *hub75.PinAssignment) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io: %w", err)
	}

	outs := make(map[hub75.Role]gpio.PinOut, len(hub75.Roles()))
	for _, r := range hub75.Roles() {
		name := fmt.Sprintf("GPIO%d", pins.Position(r))
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("failed to find pin %s for %s", name, r)
		}
		outs[r] = p
	}
	return NewPeriphBus(pins, outs)
}

// NewPeriphBus wraps already resolved pins. Every role needs an output.
func NewPeriphBus(pins *hub75.PinAssignment, outs map[hub75.Role]gpio.PinOut) (*PeriphBus, error) {
	b := &PeriphBus{mask: pins.DrivenMask(), idle: pins.IdleWord()}
	for _, r := range hub75.Roles() {
		out, ok := outs[r]
		if !ok || out == nil {
			return nil, fmt.Errorf("no output pin for %s", r)
		}
		b.outs = append(b.outs, out)
		b.bits = append(b.bits, pins.Bit(r))
	}
	b.Write(b.idle)
	if b.err != nil {
		return nil, fmt.Errorf("failed to drive idle state: %w", b.err)
	}
	return b, nil
}

// Write drives the pins whose level differs from the previous word
func (b *PeriphBus) Write(word uint32) {
	word &= b.mask
	changed := b.mask
	if b.primed {
		changed = word ^ b.last
	}
	for i, bit := range b.bits {
		if changed&bit == 0 {
			continue
		}
		if err := b.outs[i].Out(gpio.Level(word&bit != 0)); err != nil && b.err == nil {
			b.err = err
		}
	}
	b.last = word
	b.primed = true
}

// Err returns the first write error, if any
func (b *PeriphBus) Err() error {
	return b.err
}

// Close leaves the panel in the idle state with output disabled
func (b *PeriphBus) Close() error {
	b.Write(b.idle)
	if b.err != nil {
		return fmt.Errorf("failed to drive idle state: %w", b.err)
	}
	return nil
}
