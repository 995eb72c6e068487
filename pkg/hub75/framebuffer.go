package hub75

import "sync"

// FrameBuffer holds the frame currently on display. Replace swaps the whole
// frame under an exclusive lock; readers get the published frame pointer
// under a shared lock. A published frame is never written again, so a
// reader can never observe a mix of old and new pixels.
type FrameBuffer struct {
	mu         sync.RWMutex
	frame      *Frame
	generation uint64
}

// NewFrameBuffer returns a buffer holding a blank frame
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{frame: NewFrame()}
}

// Replace validates f and publishes a private copy of it
func (b *FrameBuffer) Replace(f *Frame) (uint64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	next := f.Clone()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.frame = next
	b.generation++
	return b.generation, nil
}

// Snapshot returns the published frame and its generation. The returned
// frame must not be modified.
func (b *FrameBuffer) Snapshot() (*Frame, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame, b.generation
}

// TrySnapshot is Snapshot without blocking: ok is false when a writer
// currently holds the buffer.
func (b *FrameBuffer) TrySnapshot() (f *Frame, generation uint64, ok bool) {
	if !b.mu.TryRLock() {
		return nil, 0, false
	}
	defer b.mu.RUnlock()
	return b.frame, b.generation, true
}

// Generation returns the number of completed replacements
func (b *FrameBuffer) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generation
}

// Update applies fn to a copy of the current frame and publishes the
// result. Writers are excluded for the whole call, so concurrent updates
// never lose each other's changes. It returns the published frame, which
// must not be modified, and its generation.
func (b *FrameBuffer) Update(fn func(f *Frame)) (*Frame, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.frame.Clone()
	fn(next)
	b.frame = next
	b.generation++
	return next, b.generation
}
