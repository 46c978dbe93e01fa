package trace

import (
	"errors"
	"unsafe"
)

var errHeapExhausted = errors.New("trace: heap exhausted")

// baseAddr returns the address of buf's backing array, even when buf has
// zero length (as long as it has nonzero capacity), where &buf[0] would
// panic with an index out of range. internal/arena.NewSliceProvider uses
// the same technique.
func baseAddr(buf []byte) uintptr {
	if cap(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}
