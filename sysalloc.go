package bump

import (
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sync/semaphore"
)

// SystemAllocator supplies the blocks an arena carves its chunks from.
//
// Allocate returns a slice of exactly l.Size() bytes whose first byte is
// aligned to l.Align(), or an error wrapping ErrNoCapacity. Free receives
// the same slice and layout back once the arena is done with the block; an
// error from Free means the block could not be returned and is logged by
// the arena. Implementations must be safe for concurrent use, since one
// allocator may back many arenas.
type SystemAllocator interface {
	Allocate(l Layout) ([]byte, error)
	Free(b []byte, l Layout) error
}

// HeapAllocator takes blocks from the Go heap. Free is a no-op; blocks are
// reclaimed by the garbage collector once the arena drops them.
//
// The runtime aborts the process when it cannot back a heap allocation, so
// requests larger than the heap ceiling (the smaller of the soft memory
// limit and physical memory) fail with ErrNoCapacity instead.
type HeapAllocator struct{}

// physicalMemory is the machine's RAM in bytes, or 0 if unknown.
var physicalMemory = sync.OnceValue(totalRAM)

// heapCeiling returns the largest block HeapAllocator will request.
func heapCeiling() uint64 {
	ceiling := uint64(math.MaxInt64)
	if limit := debug.SetMemoryLimit(-1); limit > 0 {
		ceiling = uint64(limit)
	}
	if ram := physicalMemory(); ram > 0 {
		ceiling = min(ceiling, ram)
	}
	return ceiling
}

// Allocate over-allocates by align-1 bytes and slices out an aligned window.
func (HeapAllocator) Allocate(l Layout) (b []byte, err error) {
	if ceiling := heapCeiling(); uint64(l.Size()) > ceiling {
		return nil, fmt.Errorf("%w: %d bytes exceeds heap ceiling of %d", ErrNoCapacity, l.Size(), ceiling)
	}
	defer func() {
		// makeslice panics for lengths the runtime cannot represent.
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %v", ErrNoCapacity, r)
		}
	}()

	align := l.Align()
	buf := make([]byte, l.Size()+align-1)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	off := ((addr + align - 1) &^ (align - 1)) - addr
	end := off + l.Size()
	return buf[off:end:end], nil
}

func (HeapAllocator) Free([]byte, Layout) error { return nil }

// CountingAllocator wraps another SystemAllocator and counts the blocks
// that pass through it.
type CountingAllocator struct {
	inner     SystemAllocator
	allocs    atomic.Int64
	frees     atomic.Int64
	liveBytes atomic.Int64
}

// NewCountingAllocator wraps inner. A nil inner uses HeapAllocator.
func NewCountingAllocator(inner SystemAllocator) *CountingAllocator {
	if inner == nil {
		inner = HeapAllocator{}
	}
	return &CountingAllocator{inner: inner}
}

func (c *CountingAllocator) Allocate(l Layout) ([]byte, error) {
	b, err := c.inner.Allocate(l)
	if err != nil {
		return nil, err
	}
	c.allocs.Add(1)
	c.liveBytes.Add(int64(l.Size()))
	return b, nil
}

// Free counts the block as freed only if inner gives it back.
func (c *CountingAllocator) Free(b []byte, l Layout) error {
	if err := c.inner.Free(b, l); err != nil {
		return err
	}
	c.frees.Add(1)
	c.liveBytes.Add(-int64(l.Size()))
	return nil
}

// Allocs returns the number of successful Allocate calls.
func (c *CountingAllocator) Allocs() int64 { return c.allocs.Load() }

// Frees returns the number of successful Free calls.
func (c *CountingAllocator) Frees() int64 { return c.frees.Load() }

// Outstanding returns allocations minus frees.
func (c *CountingAllocator) Outstanding() int64 { return c.allocs.Load() - c.frees.Load() }

// LiveBytes returns the bytes currently handed out and not yet freed.
func (c *CountingAllocator) LiveBytes() int64 { return c.liveBytes.Load() }

// LimitedAllocator caps the total bytes outstanding across every arena it
// backs. Requests over budget fail with ErrNoCapacity rather than block.
type LimitedAllocator struct {
	inner SystemAllocator
	limit int64
	sem   *semaphore.Weighted
}

// NewLimitedAllocator wraps inner with a budget of limit bytes.
// A nil inner uses HeapAllocator.
func NewLimitedAllocator(inner SystemAllocator, limit int64) *LimitedAllocator {
	if inner == nil {
		inner = HeapAllocator{}
	}
	if limit < 0 {
		limit = 0
	}
	return &LimitedAllocator{
		inner: inner,
		limit: limit,
		sem:   semaphore.NewWeighted(limit),
	}
}

func (a *LimitedAllocator) Allocate(l Layout) ([]byte, error) {
	n := int64(l.Size())
	if !a.sem.TryAcquire(n) {
		return nil, fmt.Errorf("%w: %d bytes exceeds remaining budget of %d", ErrNoCapacity, n, a.limit)
	}
	b, err := a.inner.Allocate(l)
	if err != nil {
		a.sem.Release(n)
		return nil, err
	}
	return b, nil
}

// Free returns the block's bytes to the budget, unless inner fails to
// free it.
func (a *LimitedAllocator) Free(b []byte, l Layout) error {
	if err := a.inner.Free(b, l); err != nil {
		return err
	}
	a.sem.Release(int64(l.Size()))
	return nil
}

// Limit returns the configured budget in bytes.
func (a *LimitedAllocator) Limit() int64 { return a.limit }
