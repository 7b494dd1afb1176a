package bump

import "sync"

// Pool hands out arenas to one goroutine at a time. An Arena itself is never
// shared: Get transfers it to the caller and Put takes it back, reset, so
// its grown chunk serves the next caller.
//
// A sync.Pool is not used because it drops entries without calling Release,
// which would leak off-heap chunks.
type Pool struct {
	mu       sync.Mutex
	free     []*Arena
	capacity int
	opts     []Option
}

// NewPool creates a pool whose arenas start with capacity bytes.
// If capacity <= 0, arenas are built lazily with New.
func NewPool(capacity int, opts ...Option) *Pool {
	return &Pool{capacity: capacity, opts: opts}
}

// Get returns an arena for exclusive use by the caller.
func (p *Pool) Get() *Arena {
	if a := p.pop(); a != nil {
		return a
	}
	return WithCapacity(p.capacity, p.opts...)
}

// TryGet is like Get but reports failure to build a new arena.
func (p *Pool) TryGet() (*Arena, error) {
	if a := p.pop(); a != nil {
		return a, nil
	}
	return TryWithCapacity(p.capacity, p.opts...)
}

func (p *Pool) pop() *Arena {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.free)
	if n == 0 {
		return nil
	}
	a := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	return a
}

// Put resets a and returns it to the pool. The caller must not use a, or
// anything allocated from it, afterwards. Released arenas are ignored.
func (p *Pool) Put(a *Arena) {
	if a == nil || a.released {
		return
	}
	a.Reset()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, a)
}

// Len returns the number of idle arenas.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Release releases every idle arena. Arenas checked out at the time are
// unaffected and may still be Put back.
func (p *Pool) Release() {
	p.mu.Lock()
	free := p.free
	p.free = nil
	p.mu.Unlock()
	for _, a := range free {
		a.Release()
	}
}
