package bump

import (
	"math"
	"unsafe"
)

const (
	// DefaultCapacity is the size of the first chunk of an arena built by New.
	DefaultCapacity = 1 << 11

	// minChunkAlign is the alignment every chunk is allocated with.
	minChunkAlign = unsafe.Alignof(uintptr(0))
)

// Arena is a bump allocator over a chain of chunks. The newest chunk is the
// largest and is the only one allocations are served from; older chunks stay
// alive until Reset or Release.
//
// An Arena is not safe for concurrent use. It may be handed to another
// goroutine, but only one goroutine may use it at a time.
type Arena struct {
	head      *chunk
	cfg       config
	gen       uint64 // bumped by Reset and Release
	nchunks   int
	grows     int
	undropped int // live handles whose values implement Dropper
	released  bool
}

// New returns an empty arena. No memory is obtained until the first
// allocation, which creates a chunk of at least DefaultCapacity bytes.
func New(opts ...Option) *Arena {
	return &Arena{
		head: &emptyChunk,
		cfg:  newConfig(opts),
		gen:  1,
	}
}

// WithCapacity returns an arena whose first chunk holds n bytes.
// Failure to obtain the chunk goes through the alloc error handler.
// If n <= 0 the arena is built lazily, as by New.
func WithCapacity(n int, opts ...Option) *Arena {
	a := New(opts...)
	if err := a.prime(n); err != nil {
		a.allocFailed(err)
	}
	return a
}

// TryWithCapacity is like WithCapacity but returns an error wrapping
// ErrNoCapacity when the first chunk cannot be obtained.
func TryWithCapacity(n int, opts ...Option) (*Arena, error) {
	a := New(opts...)
	if err := a.prime(n); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Arena) prime(n int) error {
	if n <= 0 {
		return nil
	}
	l, err := NewLayout(uintptr(n), minChunkAlign)
	if err != nil {
		return &AllocError{Layout: Layout{size: uintptr(n), align: minChunkAlign}, Err: err}
	}
	c, err := a.newChunk(l.PadToAlign(), nil)
	if err != nil {
		return err
	}
	a.head = c
	a.nchunks = 1
	return nil
}

func (a *Arena) newChunk(l Layout, next *chunk) (*chunk, error) {
	block, err := a.cfg.sys.Allocate(l)
	if err != nil {
		return nil, &AllocError{Layout: l, Err: err}
	}
	return newChunk(block, l, next), nil
}

// TryAllocate reserves uninitialized memory for l. It returns an error
// wrapping ErrNoCapacity if a new chunk was needed and could not be obtained.
func (a *Arena) TryAllocate(l Layout) (Allocation, error) {
	p, err := a.reserve(l)
	if err != nil {
		return Allocation{}, err
	}
	return Allocation{arena: a, ptr: p, layout: l, gen: a.gen}, nil
}

// Allocate reserves uninitialized memory for l. Failure goes through the
// alloc error handler.
func (a *Arena) Allocate(l Layout) Allocation {
	p, err := a.reserve(l)
	if err != nil {
		a.allocFailed(err)
	}
	return Allocation{arena: a, ptr: p, layout: l, gen: a.gen}
}

// AllocBytes returns n uninitialized bytes from the arena.
// Returns nil if n <= 0.
func (a *Arena) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	l := Layout{size: uintptr(n), align: 1}
	p, err := a.reserve(l)
	if err != nil {
		a.allocFailed(err)
	}
	return unsafe.Slice((*byte)(p), n)
}

func (a *Arena) reserve(l Layout) (unsafe.Pointer, error) {
	if l.align == 0 {
		l.align = 1
	}
	// Zero-sized requests still take a byte so the pointer stays inside
	// the block.
	if l.size == 0 {
		l.size = 1
	}
	// Fast path: the head chunk has room
	if p, ok := a.head.reserve(l); ok {
		return p, nil
	}
	return a.reserveSlow(l)
}

// reserveSlow links a new head chunk and serves l from it.
//
//go:noinline
func (a *Arena) reserveSlow(l Layout) (unsafe.Pointer, error) {
	c, err := a.grow(l)
	if err != nil {
		return nil, err
	}
	p, ok := c.reserve(l)
	if !ok {
		panic("bump: fresh chunk cannot hold " + l.String())
	}
	return p, nil
}

// grow links a new head chunk of max(l.size, 2*head) bytes, or the initial
// capacity when the head is still the empty chunk.
func (a *Arena) grow(l Layout) (*chunk, error) {
	a.panicIfReleased()

	head := a.head
	if head.capacity() > uintptr(math.MaxInt)/2 {
		return nil, &AllocError{Layout: l, Err: ErrInvalidLayout}
	}
	size := max(l.size, head.capacity()*2)
	if head.capacity() == 0 {
		size = max(size, a.cfg.initialCapacity)
	}
	align := max(l.align, head.layout.Align(), minChunkAlign)
	cl, err := NewLayout(size, align)
	if err != nil {
		return nil, &AllocError{Layout: l, Err: err}
	}
	cl = cl.PadToAlign()

	next := head
	if head.capacity() == 0 {
		next = nil
	}
	c, err := a.newChunk(cl, next)
	if err != nil {
		return nil, &AllocError{Layout: l, Err: err}
	}
	a.head = c
	a.nchunks++
	a.grows++
	a.cfg.logger.Debug("bump: new chunk",
		"size", cl.size, "align", cl.align, "chunks", a.nchunks)
	return c, nil
}

// EnsureCapacity makes sure the next n bytes of allocations with alignment 1
// are served without growing, linking a new head chunk now if the current
// one lacks the room. Use it ahead of a burst of allocations whose total is
// known. It returns an error wrapping ErrNoCapacity if the chunk cannot be
// obtained.
func (a *Arena) EnsureCapacity(n int) error {
	a.panicIfReleased()
	if n <= 0 {
		return nil
	}
	l := Layout{size: uintptr(n), align: 1}
	if a.head.capacity() != 0 && a.head.end-a.head.start >= l.size {
		return nil
	}
	_, err := a.grow(l)
	return err
}

func (a *Arena) allocFailed(err error) {
	a.cfg.onAllocError(err)
	panic(err)
}

// Reset frees every chunk but the newest and rewinds it, so the next cycle
// reuses the largest chunk without growing again. Allocations, tokens and
// handles obtained before Reset become stale.
func (a *Arena) Reset() {
	a.panicIfReleased()
	if a.undropped > 0 {
		a.cfg.logger.Warn("bump: reset with undropped values", "count", a.undropped)
		a.undropped = 0
	}
	if head := a.head; head.capacity() != 0 {
		a.freeChain(head.next)
		head.next = nil
		head.rewind()
		a.nchunks = 1
	}
	a.gen++
}

// Release frees every chunk and makes the arena unusable.
// Any subsequent allocation or Reset will panic.
func (a *Arena) Release() {
	if a.released {
		return
	}
	if a.head.capacity() != 0 {
		a.freeChain(a.head)
	}
	a.head = &emptyChunk
	a.nchunks = 0
	a.undropped = 0
	a.released = true
	a.gen++
}

func (a *Arena) freeChain(c *chunk) {
	for c != nil {
		next := c.next
		if err := a.cfg.sys.Free(c.block, c.layout); err != nil {
			a.cfg.logger.Error("bump: free chunk failed",
				"error", err, "size", c.layout.size, "align", c.layout.align)
		}
		c.block, c.base, c.next = nil, nil, nil
		c = next
	}
}

// panicIfReleased panics if the arena has been released.
func (a *Arena) panicIfReleased() {
	if a.released {
		panic("bump: use after Release()")
	}
}
