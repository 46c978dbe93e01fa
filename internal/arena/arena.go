// Package arena implements the allocator core: block layout with boundary
// tags, segregated binned free lists, per-goroutine arenas, the cross-thread
// remote-free mailbox protocol, coalescing, splitting, and in-place growth.
//
// Everything in this package operates over a single contiguous region handed
// out by a [Provider]. The provider stands in for an sbrk-like primitive:
// the allocator never asks the Go runtime for memory on its hot path, it
// only asks the provider to grow the region it already owns.
//
// # Ownership
//
// Each goroutine that calls into the allocator is assigned its own [Arena]
// on first use (see [registry.arenaFor]), which owns a set of segregated
// free-list bins that only that goroutine ever reads or writes — no lock is
// needed to search or splice them. A block freed by a goroutine other than
// its owner is posted to the owning arena's mailbox instead (see
// internal/arena's free.go and reclaim.go), which is the only part of an
// Arena that is shared across goroutines.
package arena

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/timandy/routine"

	"github.com/basalt-run/talloc/internal/debug"
)

// region owns the single contiguous memory span the whole allocator works
// over, plus the state guarded by the global lock: the lock is only ever
// held to bump end_of_heap when extending the region, never while
// searching bins or draining a mailbox.
type region struct {
	provider Provider

	// globalMu, held, serializes heap extension. It is recursive: a goroutine
	// that already holds it can acquire it again without deadlocking against
	// itself, as it would with a plain sync.Mutex. Alloc's extendForAlloc and
	// Realloc's growByExtension each hold it only around one call to extend;
	// neither acquires it while already holding it. Recursion is tracked by
	// goroutine id via github.com/timandy/routine, the same library the rest
	// of this module
	// uses for goroutine identity.
	globalMu  sync.Mutex
	cond      sync.Cond
	heldBy    int64
	holdDepth int
	hasHolder bool

	memoryStart addr
	endOfHeap   addr
}

func newRegion(p Provider) *region {
	r := &region{provider: p}
	r.cond.L = &r.globalMu
	return r
}

// lockGlobal acquires the recursive global lock for the calling goroutine,
// returning an unlock func. Safe to call re-entrantly from the same
// goroutine; each call to lockGlobal must be matched by exactly one call to
// the returned unlock.
func (r *region) lockGlobal() (unlock func()) {
	goid := routine.Goid()

	r.globalMu.Lock()
	for r.hasHolder && r.heldBy != goid {
		r.cond.Wait()
	}
	r.hasHolder = true
	r.heldBy = goid
	r.holdDepth++
	r.globalMu.Unlock()

	return func() { r.unlockGlobal(goid) }
}

func (r *region) unlockGlobal(goid int64) {
	r.globalMu.Lock()
	debug.Assert(r.hasHolder && r.heldBy == goid, "global lock released by non-owner goroutine %d (held by %d)", goid, r.heldBy)
	r.holdDepth--
	if r.holdDepth == 0 {
		r.hasHolder = false
		r.cond.Signal()
	}
	r.globalMu.Unlock()
}

// extend grows the region by at least need bytes, returning the address of
// a fresh block header covering the whole new span. Must be called with the
// global lock held.
func (r *region) extend(need int) (addr, bool) {
	start, ok := r.provider.Expand(need)
	if !ok {
		return 0, false
	}
	a := addr(start)
	if r.memoryStart.IsZero() {
		r.memoryStart = a
	}
	r.endOfHeap = a.Add(need)
	return a, true
}

func (r *region) isTerminal(a addr, size int) bool {
	return nextBlockAddr(a, size) == r.endOfHeap
}

func (r *region) isFirstBlock(a addr) bool {
	return a == r.memoryStart
}

// Arena is a single goroutine's view of the heap: its own segregated bins
// (lock-free, since only the owning goroutine ever touches them) and its
// mailbox of blocks freed remotely by other goroutines, which only the owner
// drains.
type Arena struct {
	id     uint32
	uuid   uuid.UUID
	goid   int64
	region *region
	global *globalStats

	bins [NumBins]addr

	mailboxMu sync.Mutex
	mailbox   addr // singly-linked list of blocks awaiting drain, via links.next

	stats arenaStats
}

// arenaStats counters are incremented only by the owning goroutine, but
// read from [Stats] by any goroutine, so they must be atomic even though
// there is never any write/write contention on them.
type arenaStats struct {
	allocs      atomic.Uint64
	frees       atomic.Uint64
	remoteFrees atomic.Uint64
	splits      atomic.Uint64
	coalesces   atomic.Uint64
	extensions  atomic.Uint64
}

// ID returns the arena's stable owner index, as stored in block headers.
func (a *Arena) ID() uint32 { return a.id }

// UUID returns the arena's diagnostic identifier.
func (a *Arena) UUID() uuid.UUID { return a.uuid }

func (a *Arena) binHead(idx int) addr { return a.bins[idx] }

func (a *Arena) setBinHead(idx int, v addr) { a.bins[idx] = v }

// unlinkFromBin removes a free block from its bin's doubly-linked list.
func (a *Arena) unlinkFromBin(idx int, blk addr) {
	l := linksAt(blk)
	prev, next := l.prev, l.next

	if !prev.IsZero() {
		linksAt(prev).next = next
	} else {
		a.setBinHead(idx, next)
	}
	if !next.IsZero() {
		linksAt(next).prev = prev
	}
	l.prev, l.next = 0, 0
}

// pushToBin inserts a free block at the head of its bin's list (LIFO),
// clearing its queued flag: this is the one place a block stops being
// mailbox-resident and becomes eligible for coalesceRight/coalesceLeft to
// merge into.
func (a *Arena) pushToBin(blk addr) {
	h := headerAt(blk)
	h.setQueued(false)
	idx := binIndex(h.size())
	head := a.binHead(idx)

	l := linksAt(blk)
	l.prev = 0
	l.next = head
	if !head.IsZero() {
		linksAt(head).prev = blk
	}
	a.setBinHead(idx, blk)
}
