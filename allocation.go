package bump

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// Allocation is reserved, uninitialized arena memory waiting to be
// committed. It is committed at most once, by Write, WriteSlice,
// CopyFromSlice, CopyFromString or AppendFromSlice, and must not be copied.
//
// An Allocation does not own its bytes; the arena does. It becomes stale
// when the arena is Reset or Released.
type Allocation struct {
	arena  *Arena
	ptr    unsafe.Pointer
	layout Layout
	gen    uint64
}

// Layout returns the layout that was reserved.
func (a *Allocation) Layout() Layout { return a.layout }

// Err returns ErrStaleHandle if the arena was reset or released since the
// allocation was made.
func (a *Allocation) Err() error {
	if a.arena == nil || a.gen != a.arena.gen {
		return ErrStaleHandle
	}
	return nil
}

// Pointer returns the start of the reserved memory, or nil once committed.
func (a *Allocation) Pointer() unsafe.Pointer {
	a.mustBeLive()
	return a.ptr
}

// Bytes returns the reserved memory as a byte slice. Its contents are
// whatever the arena last held there.
func (a *Allocation) Bytes() []byte {
	a.mustBeLive()
	if a.ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(a.ptr), a.layout.size)
}

// CopyFromString copies s into the allocation.
func (a *Allocation) CopyFromString(s string) StrBox {
	a.fits(Layout{size: uintptr(len(s)), align: 1})
	b := unsafe.Slice((*byte)(a.take()), len(s))
	copy(b, s)
	return StrBox{
		s:     unsafe.String(unsafe.SliceData(b), len(b)),
		arena: a.arena,
		gen:   a.gen,
	}
}

func (a *Allocation) mustBeLive() {
	if err := a.Err(); err != nil {
		panic(err)
	}
}

// fits asserts the reservation is at least as large and as aligned as l.
func (a *Allocation) fits(l Layout) {
	if a.layout.Align() < l.Align() || a.layout.size < l.size {
		panic(fmt.Sprintf("bump: %v does not fit in allocation of %v", l, a.layout))
	}
}

// take hands out the pointer and marks the allocation committed.
func (a *Allocation) take() unsafe.Pointer {
	a.mustBeLive()
	if a.ptr == nil {
		panic("bump: allocation already committed")
	}
	p := a.ptr
	a.ptr = nil
	return p
}

// Write moves v into the allocation.
func Write[T any](a *Allocation, v T) Box[T] {
	mustBePointerFree[T]()
	a.fits(LayoutOf[T]())
	p := (*T)(a.take())
	*p = v
	return newBox(a.arena, p, a.gen)
}

// WriteSlice fills the whole allocation with values produced by mk. The
// slice length is the reserved size divided by the size of T.
func WriteSlice[T any](a *Allocation, mk func() T) SliceBox[T] {
	mustBePointerFree[T]()
	elem := LayoutOf[T]()
	if a.layout.Align() < elem.Align() {
		panic(fmt.Sprintf("bump: %v does not fit in allocation of %v", elem, a.layout))
	}
	n := 0
	if elem.size > 0 {
		n = int(a.layout.size / elem.size)
	}
	s := unsafe.Slice((*T)(a.take()), n)
	for i := range s {
		s[i] = mk()
	}
	return newSliceBox(a.arena, s, a.gen)
}

// CopyFromSlice copies src into the allocation.
func CopyFromSlice[T Plain](a *Allocation, src []T) SliceBox[T] {
	l, err := ArrayLayout[T](len(src))
	if err != nil {
		panic(err)
	}
	a.fits(l)
	s := unsafe.Slice((*T)(a.take()), len(src))
	copy(s, src)
	return newSliceBox(a.arena, s, a.gen)
}

// AppendFromSlice moves the contents of *buf into the allocation and
// truncates *buf to zero length. The backing array of *buf is left as is.
func AppendFromSlice[T any](a *Allocation, buf *[]T) SliceBox[T] {
	mustBePointerFree[T]()
	src := *buf
	l, err := ArrayLayout[T](len(src))
	if err != nil {
		panic(err)
	}
	a.fits(l)
	s := unsafe.Slice((*T)(a.take()), len(src))
	copy(s, src)
	*buf = src[:0]
	return newSliceBox(a.arena, s, a.gen)
}

// pointerFree caches hasPointers per type.
var pointerFree sync.Map // reflect.Type -> bool

// mustBePointerFree panics if T holds Go pointers. Arena memory is not
// scanned by the garbage collector, so pointers stored there would dangle.
func mustBePointerFree[T any]() {
	t := reflect.TypeFor[T]()
	free, ok := pointerFree.Load(t)
	if !ok {
		free = !hasPointers(t)
		pointerFree.Store(t, free)
	}
	if !free.(bool) {
		panic(fmt.Sprintf("bump: %v contains pointers and cannot be stored in an arena", t))
	}
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
