package trace

import (
	"fmt"
	"unsafe"
)

// stamp fills a payload with a descending counter and checkStamp verifies
// it, so that a realloc that forgot to copy old bytes, or an allocator
// that hands out overlapping memory, shows up as a mismatch.

func stamp(alloc Allocator, p uintptr, size int) {
	count := int32(-13)
	for off := 0; off+4 <= size; off += 4 {
		*(*int32)(unsafe.Pointer(p + uintptr(off))) = count
		count--
	}
}

func checkStamp(alloc Allocator, p uintptr, size int) error {
	count := int32(-13)
	for off := 0; off+4 <= size; off += 4 {
		got := *(*int32)(unsafe.Pointer(p + uintptr(off)))
		if got != count {
			return fmt.Errorf("stamp mismatch at offset %d: got %d, want %d", off, got, count)
		}
		count--
	}
	return nil
}
