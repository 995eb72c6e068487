package hub75

import (
	"fmt"

	"github.com/fkcurrie/hub75-bcm/pkg/colorcorrect"
)

const (
	// MinDepth is the smallest supported number of BCM planes
	MinDepth = 5
	// MaxDepth is the largest supported number of BCM planes
	MaxDepth = 8

	// RowCommitSteps counts the words after the last column of a row:
	// output off, latch low, latch high, row address, output on
	RowCommitSteps = 5
	// RowSteps is the number of bus words emitted per scan row: one
	// clear step, three per column, then the commit window
	RowSteps = 1 + Width*3 + RowCommitSteps
)

// EncoderOptions configures an Encoder
type EncoderOptions struct {
	// Depth is the number of BCM planes (5-8); the top Depth bits of each
	// corrected channel are displayed
	Depth int
	// Order remaps source channels onto the physical data lines. The zero
	// value means OrderRGB.
	Order ChannelOrder
	// Lightness applies perceptual lightness correction before bit
	// extraction
	Lightness bool
}

// Encoder turns frames into BCM programs for one pin assignment
type Encoder struct {
	pins  *PinAssignment
	depth int
	order ChannelOrder
	curve [256]uint8
}

// NewEncoder validates the options and returns an Encoder
func NewEncoder(pins *PinAssignment, opts EncoderOptions) (*Encoder, error) {
	if pins == nil {
		return nil, &ConfigError{Field: "pins", Reason: "no pin assignment"}
	}
	if opts.Depth < MinDepth || opts.Depth > MaxDepth {
		return nil, &ConfigError{
			Field:  "depth",
			Reason: fmt.Sprintf("BCM depth %d outside [%d, %d]", opts.Depth, MinDepth, MaxDepth),
		}
	}

	order := opts.Order
	if order == (ChannelOrder{}) {
		order = OrderRGB
	}
	if !order.valid() {
		return nil, &ConfigError{Field: "channel_order", Reason: fmt.Sprintf("%v is not a permutation of RGB", [3]Channel(order))}
	}

	e := &Encoder{
		pins:  pins,
		depth: opts.Depth,
		order: order,
	}
	if opts.Lightness {
		e.curve = colorcorrect.LightnessTable()
	} else {
		for i := range e.curve {
			e.curve[i] = uint8(i)
		}
	}
	return e, nil
}

// Depth returns the number of BCM planes
func (e *Encoder) Depth() int {
	return e.depth
}

// Pins returns the pin assignment the encoder emits for
func (e *Encoder) Pins() *PinAssignment {
	return e.pins
}

// Order returns the channel remap in use
func (e *Encoder) Order() ChannelOrder {
	return e.order
}

// shift returns the source bit displayed by plane
func (e *Encoder) shift(plane int) uint {
	return uint(8 - e.depth + plane)
}

// physical returns the corrected values for the physical R, G, B lines
func (e *Encoder) physical(p Pixel) (r, g, b uint8) {
	r, g, b = e.order.Apply(p)
	return e.curve[r], e.curve[g], e.curve[b]
}

// RowBits extracts the packed columns of one plane and scan row straight
// from a frame. dst must hold Width entries. f must be a valid frame.
func (e *Encoder) RowBits(f *Frame, plane, row int, dst []uint8) {
	shift := e.shift(plane)
	upper := f.Pix[row*Width : (row+1)*Width]
	lower := f.Pix[(row+ScanRows)*Width : (row+ScanRows+1)*Width]
	for col := 0; col < Width; col++ {
		r1, g1, b1 := e.physical(upper[col])
		r2, g2, b2 := e.physical(lower[col])
		dst[col] = packColumn(r1, g1, b1, r2, g2, b2, shift)
	}
}

// BitPlanes builds the compact per-plane table for f
func (e *Encoder) BitPlanes(f *Frame) (*BitPlanes, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	// correct every channel once, then slice it into planes
	corrected := make([][3]uint8, len(f.Pix))
	for i, p := range f.Pix {
		r, g, b := e.physical(p)
		corrected[i] = [3]uint8{r, g, b}
	}

	planes := newBitPlanes(e.depth)
	for plane := 0; plane < e.depth; plane++ {
		shift := e.shift(plane)
		for row := 0; row < ScanRows; row++ {
			dst := planes.Row(plane, row)
			upper := corrected[row*Width : (row+1)*Width]
			lower := corrected[(row+ScanRows)*Width : (row+ScanRows+1)*Width]
			for col := range dst {
				u, l := upper[col], lower[col]
				dst[col] = packColumn(u[0], u[1], u[2], l[0], l[1], l[2], shift)
			}
		}
	}
	return planes, nil
}

// EmitRow emits the RowSteps bus words that shift one scan row into the
// panel and display it, starting from bus state state, and returns the
// final state. Output stays enabled while the columns shift in (the
// previous row keeps displaying); it is disabled only around the latch and
// the address change.
func (e *Encoder) EmitRow(state uint32, cols []uint8, row int, emit func(uint32)) uint32 {
	p := e.pins
	clk, lat, oe := p.Bit(CLK), p.Bit(LAT), p.Bit(OE)

	state &^= p.rgbMask
	emit(state)

	for _, c := range cols {
		state = state&^p.rgbMask | p.DataWord(c)
		emit(state)
		state &^= clk
		emit(state)
		state |= clk
		emit(state)
	}

	state |= oe
	emit(state)
	state &^= lat
	emit(state)
	state |= lat
	emit(state)
	state = state&^p.addrMask | p.AddressWord(row)
	emit(state)
	state &^= oe
	emit(state)

	return state
}
