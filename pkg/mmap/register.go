package mmap

import "fmt"

// Registers locates the set and clear registers of a GPIO block. Writing a
// one to a bit of Set drives that line high, a one to a bit of Clr drives
// it low, and zeros leave lines untouched.
type Registers struct {
	// Device is the unprivileged device mapping the block from offset 0
	Device string
	// Base is the physical address of the GPIO block
	Base int64
	// Size is the length of the block to map
	Size uintptr
	Set  uintptr
	Clr  uintptr
	// NeedsClaim is set when the lines must be requested as outputs
	// through the kernel before register writes reach the pins
	NeedsClaim bool
}

// BCM2711 is the Raspberry Pi 4 GPIO block (GPSET0 and GPCLR0)
var BCM2711 = Registers{
	Device: "/dev/gpiomem",
	Base:   0xFE200000,
	Size:   0x1000,
	Set:    0x1C,
	Clr:    0x28,
}

// BCM2835 is the Raspberry Pi 1 and Zero GPIO block
var BCM2835 = Registers{
	Device: "/dev/gpiomem",
	Base:   0x20200000,
	Size:   0x1000,
	Set:    0x1C,
	Clr:    0x28,
}

// RP1 is the Raspberry Pi 5 I/O controller. Bank 0 is driven through the
// atomic set and clear aliases of its RIO block, which only reach pins whose
// function is RIO with the output enabled.
var RP1 = Registers{
	Device:     "/dev/gpiomem0",
	Base:       0x1F000D0000,
	Size:       0x30000,
	Set:        0x10000 + 0x2000,
	Clr:        0x10000 + 0x3000,
	NeedsClaim: true,
}

// SoCs maps lower-case SoC names to their register layouts
var SoCs = map[string]Registers{
	"bcm2711": BCM2711,
	"bcm2835": BCM2835,
	"rp1":     RP1,
}

// RegisterBus writes bus words as one set store and one clear store. Lines
// outside the mask are never named in either store, so other users of the
// same GPIO bank are left alone.
type RegisterBus struct {
	mem  *MemoryMap
	regs Registers
	mask uint32
}

// NewRegisterBus drives the lines in mask through mem
func NewRegisterBus(mem *MemoryMap, regs Registers, mask uint32) (*RegisterBus, error) {
	for _, off := range []uintptr{regs.Set, regs.Clr} {
		if off%4 != 0 || off+4 > mem.Size() {
			return nil, fmt.Errorf("register offset %#x outside mapped region of %#x bytes", off, mem.Size())
		}
	}
	return &RegisterBus{mem: mem, regs: regs, mask: mask}, nil
}

// OpenGPIOMem maps the GPIO block through regs.Device, which needs no
// root privileges and always starts at the GPIO base
func OpenGPIOMem(regs Registers, mask uint32) (*RegisterBus, error) {
	mem, err := OpenDevice(regs.Device, 0, regs.Size)
	if err != nil {
		return nil, err
	}
	return NewRegisterBus(mem, regs, mask)
}

// OpenDevMem maps the GPIO block through /dev/mem at its physical address
func OpenDevMem(regs Registers, mask uint32) (*RegisterBus, error) {
	mem, err := NewMemoryMap(regs.Base, regs.Size)
	if err != nil {
		return nil, err
	}
	return NewRegisterBus(mem, regs, mask)
}

// Write drives word onto the masked lines
func (b *RegisterBus) Write(word uint32) {
	b.mem.Write32(b.regs.Set, word&b.mask)
	b.mem.Write32(b.regs.Clr, ^word&b.mask)
}

// Close unmaps the register block
func (b *RegisterBus) Close() error {
	return b.mem.Close()
}
