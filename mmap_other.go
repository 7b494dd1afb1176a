//go:build !linux

package bump

// MmapAllocator falls back to the Go heap on platforms without anonymous
// mapping support in this package.
type MmapAllocator struct {
	HeapAllocator
}

func defaultSystemAllocator() SystemAllocator { return HeapAllocator{} }

// totalRAM is unknown here, so the heap ceiling is the soft memory limit.
func totalRAM() uint64 { return 0 }
