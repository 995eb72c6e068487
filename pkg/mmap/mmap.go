// Package mmap maps GPIO register blocks into memory and drives HUB75 bus
// words through their set and clear registers.
package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MemoryMap represents a memory mapped region
type MemoryMap struct {
	addr   int64
	size   uintptr
	region []byte
	mapped bool
}

// NewMemoryMap maps size bytes of physical memory at addr through /dev/mem
func NewMemoryMap(addr int64, size uintptr) (*MemoryMap, error) {
	return OpenDevice("/dev/mem", addr, size)
}

// OpenDevice maps size bytes at offset addr of a memory device such as
// /dev/mem or /dev/gpiomem
func OpenDevice(path string, addr int64, size uintptr) (*MemoryMap, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	region, err := unix.Mmap(
		int(f.Fd()),
		addr,
		int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap %s: %w", path, err)
	}

	return &MemoryMap{
		addr:   addr,
		size:   size,
		region: region,
		mapped: true,
	}, nil
}

// FromBytes wraps an ordinary byte slice, e.g. to simulate a register block
func FromBytes(region []byte) *MemoryMap {
	return &MemoryMap{
		size:   uintptr(len(region)),
		region: region,
	}
}

// Close unmaps the memory region
func (m *MemoryMap) Close() error {
	if !m.mapped {
		return nil
	}
	m.mapped = false
	if err := unix.Munmap(m.region); err != nil {
		return fmt.Errorf("failed to munmap: %w", err)
	}
	return nil
}

// Size returns the length of the region in bytes
func (m *MemoryMap) Size() uintptr {
	return m.size
}

// Region returns the mapped memory region
func (m *MemoryMap) Region() []byte {
	return m.region
}

// Read32 reads a 32-bit register. offset must be 4-byte aligned.
func (m *MemoryMap) Read32(offset uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&m.region[offset])))
}

// Write32 writes a 32-bit register with a single store. offset must be
// 4-byte aligned.
func (m *MemoryMap) Write32(offset uintptr, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&m.region[offset])), value)
}
