package hub75

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBufferReplace(t *testing.T) {
	fb := NewFrameBuffer()
	f, gen := fb.Snapshot()
	assert.Zero(t, gen)
	assert.Equal(t, Pixel{}, f.At(0, 0))

	red := NewFrame()
	red.Fill(Pixel{R: 255})
	gen, err := fb.Replace(red)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)

	// the buffer keeps its own copy
	red.Fill(Pixel{B: 255})
	f, gen = fb.Snapshot()
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, Pixel{R: 255}, f.At(63, 63))

	_, err = fb.Replace(&Frame{Width: 32, Height: 32, Pix: make([]Pixel, 32*32)})
	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, uint64(1), fb.Generation(), "rejected frames do not bump the generation")
}

func TestFrameBufferTrySnapshot(t *testing.T) {
	fb := NewFrameBuffer()

	f, _, ok := fb.TrySnapshot()
	require.True(t, ok)
	assert.NotNil(t, f)

	fb.mu.Lock()
	_, _, ok = fb.TrySnapshot()
	fb.mu.Unlock()
	assert.False(t, ok, "a held writer lock must not block the reader")
}

func TestFrameBufferNoTearing(t *testing.T) {
	fb := NewFrameBuffer()
	values := []uint8{10, 20, 30, 40}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			f := NewFrame()
			f.Fill(Pixel{R: values[i%len(values)]})
			_, err := fb.Replace(f)
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 2000; n++ {
				f, _ := fb.Snapshot()
				first := f.Pix[0]
				for _, p := range f.Pix {
					if p != first {
						t.Errorf("torn frame: %v and %v", first, p)
						return
					}
				}
			}
		}()
	}

	// readers finish on their own; then stop the writer
	done := make(chan struct{})
	go func() {
		for fb.Generation() < 10 {
		}
		close(done)
	}()
	<-done
	close(stop)
	wg.Wait()
}

func TestFrameBufferUpdate(t *testing.T) {
	fb := NewFrameBuffer()
	before, _ := fb.Snapshot()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			fb.Update(func(f *Frame) {
				f.Set(x, 0, Pixel{G: 255})
			})
		}(i)
	}
	wg.Wait()

	f, gen := fb.Snapshot()
	assert.Equal(t, uint64(16), gen)
	for x := 0; x < 16; x++ {
		assert.Equal(t, Pixel{G: 255}, f.At(x, 0), "update %d lost", x)
	}
	assert.Equal(t, Pixel{}, before.At(0, 0), "published frames are never modified")
}
