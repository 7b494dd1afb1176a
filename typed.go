package bump

import "unsafe"

// AllocValue moves v into the arena and returns a handle owning it.
// T must not contain Go pointers.
func AllocValue[T any](a *Arena, v T) Box[T] {
	alloc := a.Allocate(LayoutOf[T]())
	return Write(&alloc, v)
}

// TryAllocValue is like AllocValue but reports capacity failures as errors.
func TryAllocValue[T any](a *Arena, v T) (Box[T], error) {
	alloc, err := a.TryAllocate(LayoutOf[T]())
	if err != nil {
		return Box[T]{}, err
	}
	return Write(&alloc, v), nil
}

// AllocCopySlice copies src into the arena. The copy is valid until the
// arena is reset or released.
func AllocCopySlice[T Plain](a *Arena, src []T) []T {
	l := arrayLayout[T](a, len(src))
	alloc := a.Allocate(l)
	return IntoSlice(CopyFromSlice(&alloc, src))
}

// AllocString copies s into the arena. The copy is valid until the arena
// is reset or released.
func (a *Arena) AllocString(s string) string {
	alloc := a.Allocate(Layout{size: uintptr(len(s)), align: 1})
	return alloc.CopyFromString(s).String()
}

// TryAllocString is like AllocString but reports capacity failures as errors.
func (a *Arena) TryAllocString(s string) (string, error) {
	alloc, err := a.TryAllocate(Layout{size: uintptr(len(s)), align: 1})
	if err != nil {
		return "", err
	}
	return alloc.CopyFromString(s).String(), nil
}

// AppendFromBuffer moves the contents of *buf into the arena, leaving *buf
// empty with its capacity intact.
func AppendFromBuffer[T any](a *Arena, buf *[]T) SliceBox[T] {
	l := arrayLayout[T](a, len(*buf))
	alloc := a.Allocate(l)
	return AppendFromSlice(&alloc, buf)
}

// AllocSlice allocates a zeroed slice of n elements of type T.
// Returns nil if n <= 0.
func AllocSlice[T Plain](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	l := arrayLayout[T](a, n)
	alloc := a.Allocate(l)
	p := alloc.take()
	// Memory is reused across Reset, so it has to be cleared here.
	clear(unsafe.Slice((*byte)(p), l.size))
	return unsafe.Slice((*T)(p), n)
}

// AllocSliceFunc allocates n elements of type T, each produced by mk.
func AllocSliceFunc[T any](a *Arena, n int, mk func() T) SliceBox[T] {
	l := arrayLayout[T](a, max(n, 0))
	alloc := a.Allocate(l)
	return WriteSlice(&alloc, mk)
}

// arrayLayout is ArrayLayout for the infallible functions. Overflow goes to
// the alloc error handler with the element layout and count.
func arrayLayout[T any](a *Arena, n int) Layout {
	l, err := ArrayLayout[T](n)
	if err != nil {
		a.allocFailed(&AllocError{Layout: LayoutOf[T](), Count: n, Err: err})
	}
	return l
}
