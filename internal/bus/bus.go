// Package bus opens the output bus named in the configuration
package bus

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fkcurrie/hub75-bcm/internal/config"
	"github.com/fkcurrie/hub75-bcm/pkg/gpio"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
	"github.com/fkcurrie/hub75-bcm/pkg/mmap"
)

// Bus is an output bus that holds hardware until closed
type Bus interface {
	gpio.Bus
	Close() error
}

// Open opens the bus selected by cfg for the given pins
func Open(cfg *config.Config, pins *hub75.PinAssignment, logger zerolog.Logger) (Bus, error) {
	name := cfg.Refresh.Bus
	logger.Info().Str("bus", name).Msg("Opening output bus")

	switch name {
	case config.BusGPIOCDev:
		return gpio.NewLineBus(cfg.Refresh.Chip, pins, logger)
	case config.BusPeriph:
		return gpio.OpenPeriphBus(pins)
	case config.BusGPIOMem, config.BusDevMem:
		regs, ok := mmap.SoCs[cfg.Refresh.SoC]
		if !ok {
			return nil, fmt.Errorf("unknown SoC %q", cfg.Refresh.SoC)
		}
		return openRegisters(name, regs, cfg.Refresh.Chip, pins, logger)
	case config.BusMemory:
		return gpio.NewMemoryBus(pins.DrivenMask(), 1), nil
	}
	return nil, fmt.Errorf("unknown bus %q", name)
}

// claimedBus writes registers directly while holding the kernel's claim on
// the lines, which keeps them configured as outputs
type claimedBus struct {
	*mmap.RegisterBus
	lines *gpio.LineBus
}

func (b *claimedBus) Close() error {
	err := b.RegisterBus.Close()
	if lerr := b.lines.Close(); err == nil {
		err = lerr
	}
	return err
}

func openRegisters(name string, regs mmap.Registers, chip string, pins *hub75.PinAssignment, logger zerolog.Logger) (Bus, error) {
	var lines *gpio.LineBus
	if regs.NeedsClaim {
		var err error
		if lines, err = gpio.NewLineBus(chip, pins, logger); err != nil {
			return nil, err
		}
	}

	var (
		b   *mmap.RegisterBus
		err error
	)
	if name == config.BusGPIOMem {
		b, err = mmap.OpenGPIOMem(regs, pins.DrivenMask())
	} else {
		b, err = mmap.OpenDevMem(regs, pins.DrivenMask())
	}
	if err != nil {
		if lines != nil {
			lines.Close()
		}
		return nil, err
	}
	b.Write(pins.IdleWord())

	if lines != nil {
		return &claimedBus{RegisterBus: b, lines: lines}, nil
	}
	return b, nil
}
