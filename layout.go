package bump

import (
	"fmt"
	"math"
	"math/bits"
	"unsafe"
)

// Layout describes the size and alignment of a block of memory.
// The zero Layout is a zero-sized, byte-aligned request.
type Layout struct {
	size  uintptr
	align uintptr
}

// NewLayout returns a Layout for size bytes aligned to align.
// align must be a power of two, and size rounded up to align must not
// exceed math.MaxInt.
func NewLayout(size, align uintptr) (Layout, error) {
	if align == 0 || bits.OnesCount64(uint64(align)) != 1 {
		return Layout{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrInvalidLayout, align)
	}
	if size > uintptr(math.MaxInt)-(align-1) {
		return Layout{}, fmt.Errorf("%w: size %d overflows with alignment %d", ErrInvalidLayout, size, align)
	}
	return Layout{size: size, align: align}, nil
}

// MustLayout is like NewLayout but panics on an invalid layout.
func MustLayout(size, align uintptr) Layout {
	l, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return l
}

// LayoutOf returns the Layout of a single T.
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{size: unsafe.Sizeof(zero), align: unsafe.Alignof(zero)}
}

// ArrayLayout returns the Layout of n contiguous values of type T.
func ArrayLayout[T any](n int) (Layout, error) {
	if n < 0 {
		return Layout{}, fmt.Errorf("%w: negative length %d", ErrInvalidLayout, n)
	}
	elem := LayoutOf[T]()
	hi, size := bits.Mul64(uint64(elem.size), uint64(n))
	if hi != 0 || size > math.MaxInt {
		return Layout{}, fmt.Errorf("%w: %d elements of %d bytes overflows", ErrInvalidLayout, n, elem.size)
	}
	return NewLayout(uintptr(size), elem.align)
}

// Size returns the size in bytes.
func (l Layout) Size() uintptr { return l.size }

// Align returns the alignment in bytes. A zero Layout reports 1.
func (l Layout) Align() uintptr {
	if l.align == 0 {
		return 1
	}
	return l.align
}

// PadToAlign returns l with its size rounded up to a multiple of its alignment.
func (l Layout) PadToAlign() Layout {
	mask := l.Align() - 1
	return Layout{size: (l.size + mask) &^ mask, align: l.Align()}
}

func (l Layout) String() string {
	return fmt.Sprintf("Layout{size: %d, align: %d}", l.size, l.Align())
}
