// Package hub75 converts 64x64 RGB frames into Binary Code Modulation
// programs for HUB75 panels scanned two rows in parallel.
package hub75

import (
	"fmt"
	"sort"
)

const (
	// Width is the number of columns shifted per scan row
	Width = 64
	// Height is the number of physical pixel rows
	Height = 64
	// ScanRows is the number of row-address states; each drives two
	// physical rows 32 apart
	ScanRows = Height / 2
	// MaxWordWidth is the widest supported output register
	MaxWordWidth = 32
)

// Role is a logical HUB75 signal
type Role int

const (
	R1 Role = iota
	G1
	B1
	R2
	G2
	B2
	A
	B
	C
	D
	E
	CLK
	LAT
	OE

	numRoles
)

var roleNames = [numRoles]string{
	"R1", "G1", "B1", "R2", "G2", "B2",
	"A", "B", "C", "D", "E",
	"CLK", "LAT", "OE",
}

func (r Role) String() string {
	if r < 0 || r >= numRoles {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// Roles returns every role in declaration order
func Roles() []Role {
	roles := make([]Role, numRoles)
	for i := range roles {
		roles[i] = Role(i)
	}
	return roles
}

var (
	rgbRoles  = [6]Role{R1, G1, B1, R2, G2, B2}
	addrRoles = [5]Role{A, B, C, D, E}
)

// PinConfig maps each HUB75 signal to a bit position of the output register
type PinConfig struct {
	R1  int `json:"r1" yaml:"r1"`   // Red data for upper half
	G1  int `json:"g1" yaml:"g1"`   // Green data for upper half
	B1  int `json:"b1" yaml:"b1"`   // Blue data for upper half
	R2  int `json:"r2" yaml:"r2"`   // Red data for lower half
	G2  int `json:"g2" yaml:"g2"`   // Green data for lower half
	B2  int `json:"b2" yaml:"b2"`   // Blue data for lower half
	A   int `json:"a" yaml:"a"`     // Address bit A
	B   int `json:"b" yaml:"b"`     // Address bit B
	C   int `json:"c" yaml:"c"`     // Address bit C
	D   int `json:"d" yaml:"d"`     // Address bit D
	E   int `json:"e" yaml:"e"`     // Address bit E
	CLK int `json:"clk" yaml:"clk"` // Clock signal
	LAT int `json:"lat" yaml:"lat"` // Latch signal
	OE  int `json:"oe" yaml:"oe"`   // Output enable (active low)
}

// AdafruitBonnet is the Adafruit RGB Matrix Bonnet pinout (BCM numbering)
var AdafruitBonnet = PinConfig{
	R1: 5, G1: 13, B1: 6,
	R2: 12, G2: 16, B2: 23,
	A: 22, B: 26, C: 27, D: 20, E: 24,
	CLK: 17, LAT: 21, OE: 4,
}

// ESP32S3 is the wiring used by the ESP32-S3 sticker frame
var ESP32S3 = PinConfig{
	R1: 12, G1: 13, B1: 14,
	R2: 15, G2: 16, B2: 17,
	A: 4, B: 5, C: 6, D: 7, E: 8,
	CLK: 3, LAT: 9, OE: 10,
}

// Position returns the bit assigned to role r
func (c PinConfig) Position(r Role) int {
	switch r {
	case R1:
		return c.R1
	case G1:
		return c.G1
	case B1:
		return c.B1
	case R2:
		return c.R2
	case G2:
		return c.G2
	case B2:
		return c.B2
	case A:
		return c.A
	case B:
		return c.B
	case C:
		return c.C
	case D:
		return c.D
	case E:
		return c.E
	case CLK:
		return c.CLK
	case LAT:
		return c.LAT
	case OE:
		return c.OE
	}
	return -1
}

// PinAssignment is a validated PinConfig plus the masks derived from it.
// It is immutable after construction.
type PinAssignment struct {
	width      int
	pos        [numRoles]int
	rgbMask    uint32
	addrMask   uint32
	drivenMask uint32
	// bus bits for each packed 6-bit column value
	dataWords [64]uint32
	// bus bits for each scan row address
	addrWords [ScanRows]uint32
}

// NewPinAssignment validates cfg against a bus word of the given width.
// Every position must lie in [0, width) and no two roles may share a bit.
func NewPinAssignment(cfg PinConfig, width int) (*PinAssignment, error) {
	if width <= 0 || width > MaxWordWidth {
		return nil, &ConfigError{
			Field:  "width",
			Reason: fmt.Sprintf("bus word width %d outside [1, %d]", width, MaxWordWidth),
		}
	}

	p := &PinAssignment{width: width}
	owner := make(map[int]Role, numRoles)
	for _, r := range Roles() {
		pos := cfg.Position(r)
		if pos < 0 || pos >= width {
			return nil, &ConfigError{
				Field:  r.String(),
				Reason: fmt.Sprintf("bit position %d outside [0, %d)", pos, width),
			}
		}
		if prev, taken := owner[pos]; taken {
			return nil, &ConfigError{
				Field:  prev.String() + "/" + r.String(),
				Reason: fmt.Sprintf("bit position %d assigned to both %s and %s", pos, prev, r),
			}
		}
		owner[pos] = r
		p.pos[r] = pos
		p.drivenMask |= 1 << uint(pos)
	}

	for _, r := range rgbRoles {
		p.rgbMask |= p.Bit(r)
	}
	for _, r := range addrRoles {
		p.addrMask |= p.Bit(r)
	}

	for v := range p.dataWords {
		var w uint32
		for i, r := range rgbRoles {
			if v&(1<<i) != 0 {
				w |= p.Bit(r)
			}
		}
		p.dataWords[v] = w
	}
	for row := range p.addrWords {
		var w uint32
		for i, r := range addrRoles {
			if row&(1<<i) != 0 {
				w |= p.Bit(r)
			}
		}
		p.addrWords[row] = w
	}

	return p, nil
}

// Width returns the bus word width the assignment was validated against
func (p *PinAssignment) Width() int {
	return p.width
}

// Position returns the bit position of role r
func (p *PinAssignment) Position(r Role) int {
	return p.pos[r]
}

// Bit returns the single-bit mask of role r
func (p *PinAssignment) Bit(r Role) uint32 {
	return 1 << uint(p.pos[r])
}

// RGBMask is the OR of the six data lines
func (p *PinAssignment) RGBMask() uint32 {
	return p.rgbMask
}

// AddrMask is the OR of the five row-address lines
func (p *PinAssignment) AddrMask() uint32 {
	return p.addrMask
}

// DrivenMask is the OR of all fourteen lines. Bits outside it belong to
// other hardware and must never be written.
func (p *PinAssignment) DrivenMask() uint32 {
	return p.drivenMask
}

// AddressWord returns the address-line bits selecting scan row row
func (p *PinAssignment) AddressWord(row int) uint32 {
	return p.addrWords[row%ScanRows]
}

// DataWord returns the data-line bits for a packed column value
func (p *PinAssignment) DataWord(packed uint8) uint32 {
	return p.dataWords[packed&0x3f]
}

// IdleWord is the safe bus state: clock and latch high, output disabled,
// data and address low.
func (p *PinAssignment) IdleWord() uint32 {
	return p.Bit(CLK) | p.Bit(LAT) | p.Bit(OE)
}

// Pins returns the assigned bit positions sorted ascending
func (p *PinAssignment) Pins() []int {
	pins := make([]int, 0, numRoles)
	for _, pos := range p.pos {
		pins = append(pins, pos)
	}
	sort.Ints(pins)
	return pins
}

// Config returns the PinConfig the assignment was built from
func (p *PinAssignment) Config() PinConfig {
	return PinConfig{
		R1: p.pos[R1], G1: p.pos[G1], B1: p.pos[B1],
		R2: p.pos[R2], G2: p.pos[G2], B2: p.pos[B2],
		A: p.pos[A], B: p.pos[B], C: p.pos[C], D: p.pos[D], E: p.pos[E],
		CLK: p.pos[CLK], LAT: p.pos[LAT], OE: p.pos[OE],
	}
}
