package bump

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCapacity is returned when no chunk large enough for a request
	// could be obtained from the system allocator.
	ErrNoCapacity = errors.New("bump: no capacity")
	// ErrInvalidLayout is returned for alignments that are not a power of
	// two and for sizes whose arithmetic would overflow.
	ErrInvalidLayout = errors.New("bump: invalid layout")
	// ErrStaleHandle reports use of an Allocation or handle after the arena
	// it came from was Reset or Released.
	ErrStaleHandle = errors.New("bump: stale handle")
)

// AllocError records the layout that could not be satisfied. For array
// requests whose total size overflows, Layout is the element layout and
// Count the number of elements asked for.
type AllocError struct {
	Layout Layout
	Count  int
	Err    error
}

func (e *AllocError) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("bump: memory allocation of %d elements of %d bytes (align %d) failed: %v",
			e.Count, e.Layout.Size(), e.Layout.Align(), e.Err)
	}
	return fmt.Sprintf("bump: memory allocation of %d bytes (align %d) failed: %v",
		e.Layout.Size(), e.Layout.Align(), e.Err)
}

func (e *AllocError) Unwrap() error { return e.Err }

// Is reports every AllocError as a capacity failure.
func (e *AllocError) Is(target error) bool {
	return target == ErrNoCapacity
}
