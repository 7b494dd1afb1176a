package bump

import "unsafe"

// Dropper is implemented by values that need work done when their handle
// is dropped. Drop is called on the value in place, at most once.
type Dropper interface {
	Drop()
}

// NeedsDrop reports whether *T implements Dropper.
func NeedsDrop[T any]() bool {
	_, ok := any((*T)(nil)).(Dropper)
	return ok
}

// Plain is satisfied by fixed-size scalar types. Values, slices and text
// built from them carry no drop obligation, so their handles convert to
// plain references for free.
type Plain interface {
	~bool |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 | ~complex64 | ~complex128
}

// Box owns a value committed to arena memory. It is responsible for the
// value's Drop, never for the bytes, which go away with Reset or Release.
// A Box must not be copied.
type Box[T any] struct {
	ptr   *T
	arena *Arena
	gen   uint64
}

func newBox[T any](a *Arena, p *T, gen uint64) Box[T] {
	if NeedsDrop[T]() {
		a.undropped++
	}
	return Box[T]{ptr: p, arena: a, gen: gen}
}

// Err returns ErrStaleHandle if the arena was reset or released since the
// value was committed.
func (b *Box[T]) Err() error {
	if b.arena == nil || b.gen != b.arena.gen {
		return ErrStaleHandle
	}
	return nil
}

// Get returns the boxed value, or nil after Drop or Leak.
// It panics with ErrStaleHandle if the arena was reset or released.
func (b *Box[T]) Get() *T {
	if err := b.Err(); err != nil {
		panic(err)
	}
	return b.ptr
}

// Drop runs the value's Drop method, if it has one. Later calls do
// nothing. A stale Box is disarmed without touching memory and reports
// ErrStaleHandle.
func (b *Box[T]) Drop() error {
	if b.ptr == nil {
		return nil
	}
	if err := b.Err(); err != nil {
		b.ptr = nil
		return err
	}
	if d, ok := any(b.ptr).(Dropper); ok {
		d.Drop()
		b.arena.undropped--
	}
	b.ptr = nil
	return nil
}

// Leak gives up the drop obligation and returns the value's address, which
// stays valid until the arena is reset or released. Drop is never run.
func (b *Box[T]) Leak() *T {
	p := b.Get()
	if p != nil && NeedsDrop[T]() {
		b.arena.undropped--
	}
	b.ptr = nil
	return p
}

// Recycle drops the value and reissues its memory as a fresh Allocation.
func (b *Box[T]) Recycle() Allocation {
	p := b.Get()
	if p == nil {
		panic("bump: recycle of an emptied Box")
	}
	_ = b.Drop()
	return Allocation{
		arena:  b.arena,
		ptr:    unsafe.Pointer(p),
		layout: LayoutOf[T](),
		gen:    b.gen,
	}
}

// IntoRef converts a Box of plain data into a plain pointer.
func IntoRef[T Plain](b Box[T]) *T {
	return b.Leak()
}

// SliceBox owns a slice committed to arena memory. See Box.
type SliceBox[T any] struct {
	s     []T
	arena *Arena
	gen   uint64
	owned bool
}

func newSliceBox[T any](a *Arena, s []T, gen uint64) SliceBox[T] {
	if len(s) > 0 && NeedsDrop[T]() {
		a.undropped++
	}
	return SliceBox[T]{s: s, arena: a, gen: gen, owned: true}
}

// Err returns ErrStaleHandle if the arena was reset or released since the
// slice was committed.
func (b *SliceBox[T]) Err() error {
	if b.arena == nil || b.gen != b.arena.gen {
		return ErrStaleHandle
	}
	return nil
}

// Get returns the boxed slice, or nil after Drop or Leak.
func (b *SliceBox[T]) Get() []T {
	if err := b.Err(); err != nil {
		panic(err)
	}
	if !b.owned {
		return nil
	}
	return b.s
}

// Len returns the number of elements, or 0 after Drop or Leak.
func (b *SliceBox[T]) Len() int {
	if !b.owned {
		return 0
	}
	return len(b.s)
}

// Drop runs Drop on every element, if T has one. Later calls do nothing.
func (b *SliceBox[T]) Drop() error {
	if !b.owned {
		return nil
	}
	b.owned = false
	if err := b.Err(); err != nil {
		return err
	}
	if len(b.s) > 0 && NeedsDrop[T]() {
		for i := range b.s {
			any(&b.s[i]).(Dropper).Drop()
		}
		b.arena.undropped--
	}
	return nil
}

// Leak gives up the drop obligation and returns the slice.
func (b *SliceBox[T]) Leak() []T {
	s := b.Get()
	if len(s) > 0 && NeedsDrop[T]() {
		b.arena.undropped--
	}
	b.owned = false
	return s
}

// IntoSlice converts a SliceBox of plain data into a plain slice.
func IntoSlice[T Plain](b SliceBox[T]) []T {
	return b.Leak()
}

// StrBox is text committed to arena memory. Text has no drop obligation.
type StrBox struct {
	s     string
	arena *Arena
	gen   uint64
}

// FromUTF8Unchecked relabels bytes as text without copying. The caller
// guarantees the bytes are valid UTF-8.
func FromUTF8Unchecked(b SliceBox[byte]) StrBox {
	s := b.Leak()
	return StrBox{
		s:     unsafe.String(unsafe.SliceData(s), len(s)),
		arena: b.arena,
		gen:   b.gen,
	}
}

// Err returns ErrStaleHandle if the arena was reset or released since the
// text was committed.
func (b StrBox) Err() error {
	if b.arena == nil || b.gen != b.arena.gen {
		return ErrStaleHandle
	}
	return nil
}

// String returns the text. It panics with ErrStaleHandle if the arena was
// reset or released.
func (b StrBox) String() string {
	if err := b.Err(); err != nil {
		panic(err)
	}
	return b.s
}

// Len returns the length of the text in bytes.
func (b StrBox) Len() int { return len(b.s) }
