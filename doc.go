// Package bump implements a region ("bump") allocator over a chain of chunks,
// with a typed layer for committing values, slices and text into it.
//
// # Overview
//
// An arena hands out memory by moving a cursor down through its newest
// chunk. When the chunk runs out, a new one at least twice as large is
// linked in front of it. Nothing is freed individually: Reset drops every
// chunk but the newest and rewinds it, and Release drops them all.
// On linux chunks are anonymous mappings outside the Go heap, so an arena
// that is not released keeps its memory until the process exits.
// This suits code that allocates many values with a shared lifetime:
//
//   - Request-scoped scratch data
//   - Parsers and compilers building short-lived trees
//   - Batch jobs that rebuild the same working set each cycle
//
// # Basic Usage
//
//	a := bump.New()     // no memory until the first allocation
//	defer a.Release()
//
//	s := a.AllocString("hello world")
//	xs := bump.AllocCopySlice(a, []int64{1, 2, 3})
//
//	p := bump.AllocValue(a, Point{X: 1, Y: 2})
//	p.Get().X = 3
//	p.Drop()
//
//	a.Reset() // keeps the largest chunk for the next cycle
//
// # Allocations and Handles
//
// Allocate and TryAllocate reserve raw memory for a Layout and return an
// Allocation, which is committed once by Write, WriteSlice, CopyFromSlice,
// CopyFromString or AppendFromSlice. Committing yields a handle (Box,
// SliceBox or StrBox) that owns the value's Drop, if its type implements
// Dropper, but never the bytes.
//
// Handles of Plain data convert to ordinary pointers and slices with
// IntoRef and IntoSlice, since there is nothing to drop.
//
// # Memory Safety
//
// Chunk memory is not scanned by the garbage collector, so only types
// without Go pointers may be stored in it; committing any other type panics.
// Every Reset and Release advances the arena's generation, and handles or
// allocations from an earlier generation report ErrStaleHandle instead of
// reading reused memory.
//
// # Errors
//
// The Try* functions return errors wrapping ErrNoCapacity. The other
// functions pass the same failures to the arena's alloc error handler,
// which by default logs the failing layout and exits the process.
//
// # Thread Safety
//
// An Arena is not safe for concurrent use. Use Pool to hand arenas between
// goroutines.
package bump
