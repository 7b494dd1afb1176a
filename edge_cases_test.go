package bump_test

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/bump"
)

func TestEdgeCases(t *testing.T) {
	t.Run("ZeroAndNegativeCapacities", func(t *testing.T) {
		for _, n := range []int{0, -1, -1000} {
			a := bump.WithCapacity(n)
			assert.Zero(t, a.NumChunks(), "WithCapacity(%d) should stay lazy", n)
			a.AllocBytes(1)
			assert.Equal(t, bump.DefaultCapacity, a.HeadCapacity())
			a.Release()
		}
	})

	t.Run("LargeAllocations", func(t *testing.T) {
		a := bump.WithCapacity(1024)
		defer a.Release()

		assert.Len(t, a.AllocBytes(2048), 2048)
		assert.Len(t, a.AllocBytes(1<<20), 1<<20)
		assert.Equal(t, 3, a.NumChunks())
	})

	t.Run("OverflowProtection", func(t *testing.T) {
		a := bump.WithCapacity(1024)
		defer a.Release()

		_, err := bump.ArrayLayout[int64](math.MaxInt / 4)
		assert.ErrorIs(t, err, bump.ErrInvalidLayout)

		_, err = bump.NewLayout(uintptr(math.MaxInt), 16)
		assert.ErrorIs(t, err, bump.ErrInvalidLayout)

		_, err = bump.TryWithCapacity(math.MaxInt)
		assert.ErrorIs(t, err, bump.ErrNoCapacity)
	})

	t.Run("UseAfterRelease", func(t *testing.T) {
		a := bump.WithCapacity(1024)
		a.Release()
		assert.Panics(t, func() { a.AllocBytes(10) })
		assert.Panics(t, func() { bump.AllocValue(a, int64(1)) })
	})

	t.Run("MultipleReleases", func(t *testing.T) {
		a := bump.WithCapacity(1024)
		assert.NotPanics(t, func() {
			a.Release()
			a.Release()
			a.Release()
		})
	})

	t.Run("EmptySliceAllocations", func(t *testing.T) {
		a := bump.WithCapacity(1024)
		defer a.Release()

		assert.Nil(t, bump.AllocSlice[int64](a, 0))
		assert.Empty(t, bump.AllocCopySlice(a, []byte{}))
		assert.Empty(t, a.AllocString(""))
	})

	t.Run("ExactChunkSizeAllocation", func(t *testing.T) {
		a := bump.WithCapacity(1024)
		defer a.Release()

		assert.Len(t, a.AllocBytes(1024), 1024)
		assert.Equal(t, 1, a.NumChunks())
		assert.Equal(t, 1024, a.SizeInUse())

		a.AllocBytes(1)
		assert.Equal(t, 2, a.NumChunks())
		assert.Equal(t, 2048, a.HeadCapacity())
	})

	t.Run("AlignmentBoundaries", func(t *testing.T) {
		a := bump.WithCapacity(1024)
		defer a.Release()

		for _, align := range []uintptr{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096} {
			a.AllocBytes(1)
			alloc := a.Allocate(bump.MustLayout(align, align))
			assert.Zero(t, uintptr(alloc.Pointer())%align, "align %d", align)
		}
	})
}

func roundTrip[T any](t *testing.T, a *bump.Arena, v T) T {
	t.Helper()
	b := bump.AllocValue(a, v)
	require.NoError(t, b.Err())
	return *b.Get()
}

func TestTypeSafety(t *testing.T) {
	a := bump.New()
	defer a.Release()

	t.Run("BasicTypes", func(t *testing.T) {
		assert.Equal(t, int8(-8), roundTrip(t, a, int8(-8)))
		assert.Equal(t, uint16(16), roundTrip(t, a, uint16(16)))
		assert.Equal(t, int32(-32), roundTrip(t, a, int32(-32)))
		assert.Equal(t, uint64(math.MaxUint64), roundTrip(t, a, uint64(math.MaxUint64)))
		assert.Equal(t, float32(3.25), roundTrip(t, a, float32(3.25)))
		assert.Equal(t, math.Pi, roundTrip(t, a, math.Pi))
		assert.Equal(t, complex(1, -1), roundTrip(t, a, complex(1, -1)))
		assert.True(t, roundTrip(t, a, true))
	})

	t.Run("ComplexTypes", func(t *testing.T) {
		type header struct {
			Version uint8
			Flags   uint16
			Length  uint32
			Offset  int64
		}
		type packet struct {
			Header  header
			Payload [32]byte
			Sum     uint32
		}

		p := packet{Header: header{Version: 2, Flags: 0x8001, Length: 32, Offset: -1}, Sum: 0xdeadbeef}
		copy(p.Payload[:], "payload")
		b := bump.AllocValue(a, p)
		require.NoError(t, b.Err())
		assert.Equal(t, p, *b.Get())
		assert.Zero(t, uintptr(unsafe.Pointer(b.Get()))%unsafe.Alignof(p))
	})

	t.Run("ArraysAndSlices", func(t *testing.T) {
		arr := bump.AllocValue(a, [8]int16{1, 2, 3, 4, 5, 6, 7, 8})
		assert.Equal(t, int16(8), arr.Get()[7])

		s := bump.AllocSlice[uint32](a, 100)
		for i := range s {
			s[i] = uint32(i * i)
		}
		assert.Equal(t, uint32(99*99), s[99])
	})

	t.Run("PointerTypesRejected", func(t *testing.T) {
		type node struct {
			Value int
			Next  *node
		}
		assert.PanicsWithValue(t,
			"bump: bump_test.node contains pointers and cannot be stored in an arena",
			func() { bump.AllocValue(a, node{}) })
		assert.Panics(t, func() { bump.AllocValue(a, []int{1}) })
		assert.Panics(t, func() { bump.AllocValue(a, map[string]int{}) })
	})
}
