package bump

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunk(t *testing.T, size, align uintptr) *chunk {
	t.Helper()
	l := MustLayout(size, align)
	block, err := HeapAllocator{}.Allocate(l)
	require.NoError(t, err)
	return newChunk(block, l, nil)
}

func TestChunkReserveBumpsDown(t *testing.T) {
	c := testChunk(t, 64, 8)
	top := c.end
	require.Equal(t, c.start+64, top)

	p, ok := c.reserve(MustLayout(10, 1))
	require.True(t, ok)
	assert.Equal(t, top-10, uintptr(p))
	assert.Equal(t, uintptr(10), c.used())

	// top is 8-aligned, so top-10-8 truncates to top-24
	p, ok = c.reserve(MustLayout(8, 8))
	require.True(t, ok)
	assert.Equal(t, top-24, uintptr(p))
	assert.Equal(t, uintptr(24), c.used())
}

func TestChunkReserveAlignment(t *testing.T) {
	tests := []struct {
		name  string
		size  uintptr
		align uintptr
	}{
		{"byte", 3, 1},
		{"half", 2, 2},
		{"word", 4, 4},
		{"double", 8, 8},
		{"vector", 16, 16},
		{"cache line", 1, 64},
	}

	c := testChunk(t, 512, 64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := c.end
			p, ok := c.reserve(MustLayout(tt.size, tt.align))
			require.True(t, ok)
			addr := uintptr(p)
			assert.Zero(t, addr%tt.align)
			assert.GreaterOrEqual(t, addr, c.start)
			assert.LessOrEqual(t, addr+tt.size, before)
			assert.Equal(t, addr, c.end)
		})
	}
}

func TestChunkReserveExhausted(t *testing.T) {
	c := testChunk(t, 64, 8)

	p, ok := c.reserve(MustLayout(64, 1))
	require.True(t, ok)
	assert.Equal(t, c.start, uintptr(p))

	end := c.end
	_, ok = c.reserve(MustLayout(1, 1))
	assert.False(t, ok)
	assert.Equal(t, end, c.end, "failed reserve must not move the cursor")
}

func TestChunkReserveHugeLayout(t *testing.T) {
	c := testChunk(t, 64, 8)
	end := c.end

	_, ok := c.reserve(Layout{size: c.end + 1, align: 1})
	assert.False(t, ok)
	_, ok = c.reserve(Layout{size: ^uintptr(0), align: 1})
	assert.False(t, ok)
	assert.Equal(t, end, c.end)
}

func TestEmptyChunkNeverFits(t *testing.T) {
	for _, l := range []Layout{{size: 0, align: 1}, {size: 1, align: 1}, {size: 8, align: 8}} {
		_, ok := emptyChunk.reserve(l)
		assert.False(t, ok, "%v", l)
	}
	assert.Zero(t, emptyChunk.end)
	assert.Zero(t, emptyChunk.capacity())
	assert.Nil(t, emptyChunk.next)
}

func TestChunkRewind(t *testing.T) {
	c := testChunk(t, 128, 8)
	_, ok := c.reserve(MustLayout(100, 1))
	require.True(t, ok)

	c.rewind()
	assert.Zero(t, c.used())
	assert.Equal(t, c.start+128, c.end)
}

func TestChunkContains(t *testing.T) {
	c := testChunk(t, 32, 8)
	p, ok := c.reserve(MustLayout(4, 4))
	require.True(t, ok)

	assert.True(t, c.contains(p))
	assert.True(t, c.contains(c.base))
	assert.False(t, c.contains(unsafe.Add(c.base, 32)))
}
