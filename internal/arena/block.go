package arena

import (
	"github.com/basalt-run/talloc/internal/debug"
	"github.com/basalt-run/talloc/internal/unsafe2"
	"github.com/basalt-run/talloc/internal/unsafe2/layout"
)

func init() {
	debug.Assert(layout.Size[header]() == headerSize, "header layout drifted: got %d, want %d", layout.Size[header](), headerSize)
	debug.Assert(layout.Size[links]() == linksSize, "links layout drifted: got %d, want %d", layout.Size[links](), linksSize)
}

// Alignment is the fixed alignment of every block.
const Alignment = 8

// headerSize is the size of the fixed, always-present part of a block's
// header: the owning arena's id and the packed size/free-flag word. It does
// NOT include the free-list pointers, which double as payload bytes once a
// block is allocated.
const headerSize = 16

// footerSize is the size of the trailing boundary tag.
const footerSize = 8

// linksSize is the size of the free-list prev/next pointer pair that
// overlaps the first bytes of an allocated block's payload.
const linksSize = 16

// allocOverhead is the bookkeeping cost of an allocated block: header plus
// footer. The free-list pointers are not overhead, because they occupy
// bytes the caller already owns as payload.
const allocOverhead = headerSize + footerSize

// MinBlockSize is the smallest total_size any block may have: it must be
// large enough that a block can always be converted back to a free block
// (header + free-list links + footer) without being resized.
const MinBlockSize = headerSize + linksSize + footerSize // 40

// header is the fixed part of every block, allocated or free. It sits at
// the very start of the block's byte range inside the provider's region.
type header struct {
	owner        uint32 // index into the global arena table
	_            uint32 // padding, keeps sizeAndFlags 8-byte aligned
	sizeAndFlags uint64
}

// freeBit and queuedBit are safe to pack into the low bits of sizeAndFlags
// because every size is Alignment-rounded (a multiple of 8), so its own low
// 3 bits are always zero.
const (
	freeBit   = uint64(1) << 0
	queuedBit = uint64(1) << 1
	flagBits  = freeBit | queuedBit
)

func (h *header) size() int {
	return int(h.sizeAndFlags &^ flagBits)
}

func (h *header) setSize(n int) {
	h.sizeAndFlags = uint64(n) | (h.sizeAndFlags & flagBits)
}

func (h *header) isFree() bool {
	return h.sizeAndFlags&freeBit != 0
}

func (h *header) setFree(free bool) {
	if free {
		h.sizeAndFlags |= freeBit
	} else {
		h.sizeAndFlags &^= freeBit
	}
}

// isQueued reports whether this block currently sits in some arena's
// mailbox, awaiting that arena's next drain, rather than being linked into
// a bin. A queued block's links field is a mailbox next pointer, not a
// bin's prev/next pair, so coalescing must never try to unlink a queued
// block from a bin: it was never inserted into one.
func (h *header) isQueued() bool {
	return h.sizeAndFlags&queuedBit != 0
}

func (h *header) setQueued(queued bool) {
	if queued {
		h.sizeAndFlags |= queuedBit
	} else {
		h.sizeAndFlags &^= queuedBit
	}
}

// links is the free-list prev/next pair, overlaid on the first linksSize
// bytes of a free block's payload region.
type links struct {
	prev, next addr
}

// addr is a byte-granular address into the managed region. It is a plain
// uintptr (see [unsafe2.Addr]), never a real Go pointer, so it is safe to
// store inside the region itself.
type addr = unsafe2.Addr[byte]

func headerAt(a addr) *header {
	return unsafe2.Cast[header](a.AssertValid())
}

// payloadAddr returns the address of the first payload byte of the block at
// a — i.e., where the caller's pointer points, and where free-list links
// live while the block is free.
func payloadAddr(a addr) addr {
	return a.Add(headerSize)
}

// blockAddrFromPayload recovers a block's header address from a payload
// pointer previously handed to a caller.
func blockAddrFromPayload(p addr) addr {
	return p.Add(-headerSize)
}

func linksAt(a addr) *links {
	return unsafe2.Cast[links](payloadAddr(a).AssertValid())
}

// footerAddr returns the address of the footer word of the block at a,
// given its total size.
func footerAddr(a addr, size int) addr {
	return a.Add(size - footerSize)
}

func footerAt(a addr, size int) *uint64 {
	return unsafe2.Cast[uint64](footerAddr(a, size).AssertValid())
}

// stampFooter writes the boundary tag for the block at a, whose header's
// size field must already be up to date.
func stampFooter(a addr) {
	h := headerAt(a)
	*footerAt(a, h.size()) = uint64(h.size())
}

// nextBlockAddr returns the address immediately following the block at a.
func nextBlockAddr(a addr, size int) addr {
	return a.Add(size)
}

// prevBlockAddr uses the footer immediately preceding a to find the start
// of the previous block. Callers must have already verified a is not the
// first block in the region.
func prevBlockAddr(a addr) addr {
	prevFooter := unsafe2.Cast[uint64](a.Add(-footerSize).AssertValid())
	prevSize := int(*prevFooter)
	return a.Add(-prevSize)
}

// align rounds n up to the next multiple of Alignment.
func align(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// blockSizeFor computes the total block size needed to satisfy a user
// request of n bytes: header, footer, and alignment padding, never below
// MinBlockSize.
func blockSizeFor(n int) int {
	need := align(n + allocOverhead)
	if need < MinBlockSize {
		need = MinBlockSize
	}
	return need
}

// payloadCapacity returns how many bytes of usable payload a block of the
// given total size provides.
func payloadCapacity(totalSize int) int {
	return totalSize - allocOverhead
}
