package bump

import "unsafe"

// chunk is one block of arena memory. Allocations are carved from the top
// of the block downwards: end starts at start+capacity and only decreases
// until the chunk is rewound.
type chunk struct {
	base   unsafe.Pointer // first usable byte, uintptr(base) == start
	start  uintptr
	end    uintptr
	layout Layout // payload capacity and alignment of the block
	block  []byte // as returned by the system allocator
	next   *chunk // previous, smaller head
}

// emptyChunk is the head of every arena that has not allocated yet.
// It has zero capacity, so reserve always fails against it.
var emptyChunk chunk

func newChunk(block []byte, l Layout, next *chunk) *chunk {
	base := unsafe.Pointer(unsafe.SliceData(block))
	start := uintptr(base)
	return &chunk{
		base:   base,
		start:  start,
		end:    start + l.size,
		layout: l,
		block:  block,
		next:   next,
	}
}

// reserve bumps the cursor down by l.size, truncating to l.align.
// Truncation keeps alignment a mask instead of a round-up; the subtraction
// saturates at zero and zero is never a valid address.
func (c *chunk) reserve(l Layout) (unsafe.Pointer, bool) {
	var p uintptr
	if l.size <= c.end {
		p = (c.end - l.size) &^ (l.align - 1)
	}
	if p < c.start || p == 0 {
		return nil, false
	}
	c.end = p
	return unsafe.Add(c.base, p-c.start), true
}

func (c *chunk) capacity() uintptr { return c.layout.size }

func (c *chunk) used() uintptr { return c.start + c.layout.size - c.end }

func (c *chunk) rewind() { c.end = c.start + c.layout.size }

// contains reports whether p lies inside the chunk's payload.
func (c *chunk) contains(p unsafe.Pointer) bool {
	addr := uintptr(p)
	return addr >= c.start && addr < c.start+c.layout.size
}
