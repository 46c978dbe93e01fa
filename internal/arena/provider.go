// Package arena implements the allocator core: block layout with boundary
// tags, segregated binned free lists, per-goroutine arenas, the cross-thread
// remote-free mailbox protocol, coalescing, splitting, and in-place growth.
//
package arena

import (
	"fmt"
	"unsafe"
)

// Provider is the heap's memory source: a monotonically growing, never
// shrinking, contiguous byte region.
//
// A Provider is an external collaborator: the allocator only ever calls
// Expand, HeapLow, HeapHigh, Size and Reset; it never touches the operating
// system or the Go runtime's own allocator to get more memory.
type Provider interface {
	// Expand grows the region by n bytes and returns a pointer to the start
	// of the newly added span. It returns ok=false, leaving the region
	// unchanged, if the provider cannot grow any further.
	Expand(n int) (start uintptr, ok bool)

	// HeapLow and HeapHigh return the inclusive bounds of the current
	// region. HeapHigh is undefined (and HeapLow equal to it) when the
	// region is empty.
	HeapLow() uintptr
	HeapHigh() uintptr

	// Size returns the current size of the region, in bytes.
	Size() int

	// Reset restores the region to empty. Any outstanding pointers into the
	// region become invalid; this exists for test harnesses that replay many
	// traces against one Provider.
	Reset()
}

// SliceProvider is the default [Provider]: a single Go byte slice reserved
// up front at its maximum capacity and grown by re-slicing, never by
// reallocating. This is what keeps the region's addresses stable across
// growth, which a gapless region walk from memory_start to end_of_heap
// requires and a copying-growth slice (plain append) would violate.
type SliceProvider struct {
	buf []byte
	lo  uintptr
}

// NewSliceProvider reserves a region of the given maximum capacity. The
// region starts empty; callers grow it via Expand.
func NewSliceProvider(maxBytes int) *SliceProvider {
	buf := make([]byte, 0, maxBytes)
	lo := uintptr(0)
	if maxBytes > 0 {
		lo = uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	}
	return &SliceProvider{buf: buf, lo: lo}
}

// Expand implements [Provider].
func (p *SliceProvider) Expand(n int) (uintptr, bool) {
	if n < 0 || len(p.buf)+n > cap(p.buf) {
		return 0, false
	}
	start := len(p.buf)
	p.buf = p.buf[:start+n]
	return p.lo + uintptr(start), true
}

// HeapLow implements [Provider].
func (p *SliceProvider) HeapLow() uintptr { return p.lo }

// HeapHigh implements [Provider].
func (p *SliceProvider) HeapHigh() uintptr {
	if len(p.buf) == 0 {
		return p.lo
	}
	return p.lo + uintptr(len(p.buf)) - 1
}

// Size implements [Provider].
func (p *SliceProvider) Size() int { return len(p.buf) }

// Reset implements [Provider].
func (p *SliceProvider) Reset() {
	p.buf = p.buf[:0]
}

func (p *SliceProvider) String() string {
	return fmt.Sprintf("SliceProvider{lo: %#x, size: %d/%d}", p.lo, len(p.buf), cap(p.buf))
}
