// Package gpio provides the output buses a refresh engine writes HUB75 bus
// words to.
package gpio

import (
	"sync"
)

// Bus accepts one output word at a time. Bit i of a word is bit position i
// of the pin assignment. Implementations only ever change the lines inside
// their driven mask.
type Bus interface {
	Write(word uint32)
}

// DefaultMemoryLimit is the number of words a MemoryBus keeps by default
const DefaultMemoryLimit = 1 << 20

// MemoryBus records written words. It backs tests and dry runs on machines
// without GPIO hardware.
type MemoryBus struct {
	mu      sync.Mutex
	mask    uint32
	limit   int
	words   []uint32
	count   uint64
	last    uint32
	written bool
}

// NewMemoryBus returns a bus that keeps at most limit words, masked to
// mask. Words past the limit are counted but not stored. A limit <= 0 means
// DefaultMemoryLimit.
func NewMemoryBus(mask uint32, limit int) *MemoryBus {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &MemoryBus{
		mask:  mask,
		limit: limit,
	}
}

// Write records word & mask
func (b *MemoryBus) Write(word uint32) {
	word &= b.mask
	b.mu.Lock()
	if len(b.words) < b.limit {
		b.words = append(b.words, word)
	}
	b.count++
	b.last = word
	b.written = true
	b.mu.Unlock()
}

// Words returns a copy of the recorded words
func (b *MemoryBus) Words() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]uint32, len(b.words))
	copy(out, b.words)
	return out
}

// Count returns the number of words written, stored or not
func (b *MemoryBus) Count() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Last returns the most recent word and whether anything was written
func (b *MemoryBus) Last() (uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.written
}

// Reset discards the recorded words
func (b *MemoryBus) Reset() {
	b.mu.Lock()
	b.words = b.words[:0]
	b.count = 0
	b.last = 0
	b.written = false
	b.mu.Unlock()
}

// Close is a no-op
func (b *MemoryBus) Close() error {
	return nil
}
