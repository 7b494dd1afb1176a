package bump

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsEmpty(t *testing.T) {
	a := New()
	defer a.Release()

	assert.Equal(t, ArenaMetrics{}, a.Metrics())
	assert.Zero(t, a.Utilization())
}

func TestMetrics(t *testing.T) {
	a := WithCapacity(1024)
	defer a.Release()

	assert.Equal(t, 1, a.NumChunks())
	assert.Equal(t, 1024, a.Capacity())
	assert.Zero(t, a.SizeInUse())

	a.AllocBytes(100)
	a.AllocBytes(200)
	assert.Equal(t, 300, a.SizeInUse())
	assert.InDelta(t, 300.0/1024.0, a.Utilization(), 1e-9)

	a.AllocBytes(2000)
	m := a.Metrics()
	assert.Equal(t, ArenaMetrics{
		SizeInUse:    2300,
		Capacity:     3072,
		HeadCapacity: 2048,
		NumChunks:    2,
		Grows:        1,
		Utilization:  2300.0 / 3072.0,
	}, m)
}

func TestMetricsAfterReset(t *testing.T) {
	a := WithCapacity(1024)
	defer a.Release()

	a.AllocBytes(2000)
	gen := a.Generation()
	a.Reset()

	assert.Zero(t, a.SizeInUse())
	assert.Equal(t, 1, a.NumChunks())
	assert.Equal(t, 2048, a.Capacity())
	assert.Equal(t, 2048, a.HeadCapacity())
	assert.Equal(t, 1, a.Metrics().Grows)
	assert.Equal(t, gen+1, a.Generation())
}

func TestMetricsAfterRelease(t *testing.T) {
	a := WithCapacity(1024)
	a.AllocBytes(2000)
	gen := a.Generation()
	a.Release()

	assert.Zero(t, a.SizeInUse())
	assert.Zero(t, a.NumChunks())
	assert.Zero(t, a.Capacity())
	assert.Zero(t, a.HeadCapacity())
	assert.Zero(t, a.Utilization())
	assert.Equal(t, gen+1, a.Generation())
}

func TestSizeInUseCountsPadding(t *testing.T) {
	a := WithCapacity(1024)
	defer a.Release()

	a.AllocBytes(1)
	a.Allocate(MustLayout(8, 8))
	// One byte, then seven bytes of padding below it, then eight.
	assert.Equal(t, 16, a.SizeInUse())
}
