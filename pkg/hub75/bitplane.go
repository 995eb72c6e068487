package hub75

// Packed column bits. One byte carries the six data-line states of one
// column for one plane and scan row.
const (
	bitR1 uint8 = 1 << iota
	bitG1
	bitB1
	bitR2
	bitG2
	bitB2
)

// BitPlanes is the compact BCM program: for each plane, each scan row and
// each column, the packed data-line bits. Plane 0 is the least significant
// of the retained bits.
type BitPlanes struct {
	Depth int
	Data  []uint8
}

func newBitPlanes(depth int) *BitPlanes {
	return &BitPlanes{
		Depth: depth,
		Data:  make([]uint8, depth*ScanRows*Width),
	}
}

// Row returns the packed columns of one plane and scan row
func (b *BitPlanes) Row(plane, row int) []uint8 {
	off := (plane*ScanRows + row) * Width
	return b.Data[off : off+Width]
}

// packColumn packs the upper and lower triples of one column
func packColumn(r1, g1, b1, r2, g2, b2 uint8, shift uint) uint8 {
	return (r1>>shift)&1 |
		((g1>>shift)&1)<<1 |
		((b1>>shift)&1)<<2 |
		((r2>>shift)&1)<<3 |
		((g2>>shift)&1)<<4 |
		((b2>>shift)&1)<<5
}
