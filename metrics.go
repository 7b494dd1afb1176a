package bump

// SizeInUse returns the total number of bytes currently allocated in the arena.
// This includes padding lost to alignment.
func (a *Arena) SizeInUse() int {
	sum := 0
	for c := a.head; c != nil && c.capacity() != 0; c = c.next {
		sum += int(c.used())
	}
	return sum
}

// NumChunks returns the number of chunks currently held by the arena.
func (a *Arena) NumChunks() int {
	return a.nchunks
}

// Capacity returns the total capacity (in bytes) of all chunks in the arena.
func (a *Arena) Capacity() int {
	sum := 0
	for c := a.head; c != nil; c = c.next {
		sum += int(c.capacity())
	}
	return sum
}

// HeadCapacity returns the capacity of the chunk allocations are served from.
// This is the capacity Reset keeps.
func (a *Arena) HeadCapacity() int {
	return int(a.head.capacity())
}

// Utilization returns the ratio of bytes in use to total capacity (0.0 to 1.0).
// Returns 0.0 if the arena has no capacity.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// Generation returns a counter that changes on every Reset and Release.
func (a *Arena) Generation() uint64 {
	return a.gen
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	return ArenaMetrics{
		SizeInUse:    a.SizeInUse(),
		Capacity:     a.Capacity(),
		HeadCapacity: a.HeadCapacity(),
		NumChunks:    a.NumChunks(),
		Grows:        a.grows,
		Undropped:    a.undropped,
		Utilization:  a.Utilization(),
	}
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	SizeInUse    int     // Bytes currently allocated
	Capacity     int     // Total capacity in bytes
	HeadCapacity int     // Capacity of the newest chunk
	NumChunks    int     // Number of chunks
	Grows        int     // Chunks created since construction
	Undropped    int     // Live handles whose values still need Drop
	Utilization  float64 // Ratio of used to total capacity (0.0-1.0)
}
