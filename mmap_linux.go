//go:build linux

package bump

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapAllocator backs chunks with anonymous private mappings, keeping arena
// memory outside the Go heap. Free unmaps the block immediately.
//
// It is the default on linux: a mapping the kernel cannot back fails with
// ENOMEM, which is reported as ErrNoCapacity rather than aborting.
type MmapAllocator struct{}

func defaultSystemAllocator() SystemAllocator { return MmapAllocator{} }

func (MmapAllocator) Allocate(l Layout) ([]byte, error) {
	page := uintptr(unix.Getpagesize())
	length, ok := mapLength(l.Size(), page)
	if !ok {
		return nil, fmt.Errorf("%w: mapping of %d bytes overflows", ErrNoCapacity, l.Size())
	}

	// Alignments beyond a page are met by over-mapping and trimming.
	var extra uintptr
	if l.Align() > page {
		extra = l.Align() - page
	}
	if length > ^uintptr(0)-extra {
		return nil, fmt.Errorf("%w: mapping of %d bytes overflows", ErrNoCapacity, l.Size())
	}

	p, err := unix.MmapPtr(-1, 0, nil, length+extra,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrNoCapacity, length+extra, err)
	}

	if extra > 0 {
		addr := uintptr(p)
		head := ((addr + l.Align() - 1) &^ (l.Align() - 1)) - addr
		if err := trimMapping(p, head, length, extra-head); err != nil {
			_ = unix.MunmapPtr(p, length+extra)
			return nil, fmt.Errorf("%w: trim mapping: %v", ErrNoCapacity, err)
		}
		p = unsafe.Add(p, head)
	}

	return unsafe.Slice((*byte)(p), l.Size()), nil
}

// trimMapping unmaps head bytes before and tail bytes after the length
// bytes kept at p+head.
func trimMapping(p unsafe.Pointer, head, length, tail uintptr) error {
	if head > 0 {
		if err := unix.MunmapPtr(p, head); err != nil {
			return err
		}
	}
	if tail > 0 {
		if err := unix.MunmapPtr(unsafe.Add(p, head+length), tail); err != nil {
			return err
		}
	}
	return nil
}

func (MmapAllocator) Free(b []byte, l Layout) error {
	length, _ := mapLength(l.Size(), uintptr(unix.Getpagesize()))
	if err := unix.MunmapPtr(unsafe.Pointer(unsafe.SliceData(b)), length); err != nil {
		return fmt.Errorf("munmap %d bytes: %w", length, err)
	}
	return nil
}

// mapLength rounds size up to whole pages; a zero size still maps one page.
func mapLength(size, page uintptr) (uintptr, bool) {
	if size == 0 {
		return page, true
	}
	if size > ^uintptr(0)-(page-1) {
		return 0, false
	}
	return (size + page - 1) &^ (page - 1), true
}

// totalRAM reports physical memory from sysinfo(2), or 0 on failure.
func totalRAM() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}
