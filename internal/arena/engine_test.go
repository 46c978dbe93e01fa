package arena_test

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-run/talloc/internal/arena"
	"github.com/basalt-run/talloc/internal/unsafe2"
)

func newEngine(t *testing.T, maxBytes int) *arena.Engine {
	t.Helper()
	return arena.NewEngine(arena.NewSliceProvider(maxBytes))
}

func TestAllocReturnsDistinctNonOverlappingPointers(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1<<20)
	p1 := e.Alloc(64)
	p2 := e.Alloc(64)

	require.False(t, p1.IsZero())
	require.False(t, p2.IsZero())
	assert.NotEqual(t, p1, p2)
}

func TestFreeThenAllocReusesSpace(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1<<20)
	p1 := e.Alloc(128)
	e.Free(p1)

	before := e.HeapHigh()
	p2 := e.Alloc(128)
	after := e.HeapHigh()

	require.False(t, p2.IsZero())
	assert.Equal(t, before, after, "reusing a freed block must not grow the heap")
}

func TestCheckPassesOnCleanHeap(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1<<20)

	p1 := e.Alloc(48)
	p2 := e.Alloc(96)
	p3 := e.Alloc(16)
	e.Free(p2)
	e.Free(p1)
	e.Free(p3)

	assert.NoError(t, e.Check())
}

func TestSplittingLeavesUsableRemainder(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1<<20)
	big := e.Alloc(4096)
	e.Free(big)

	small1 := e.Alloc(32)
	small2 := e.Alloc(32)

	require.False(t, small1.IsZero())
	require.False(t, small2.IsZero())
	assert.NoError(t, e.Check())
}

func TestCoalescingMergesAdjacentFrees(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1<<20)
	a := e.Alloc(64)
	b := e.Alloc(64)
	c := e.Alloc(64)

	e.Free(b)
	e.Free(a)
	e.Free(c)

	require.NoError(t, e.Check())

	before := e.HeapHigh()
	big := e.Alloc(64 + 64 + 64 - 8)
	assert.False(t, big.IsZero(), "three coalesced adjacent blocks should satisfy a request for roughly their combined size")
	assert.Equal(t, before, e.HeapHigh(), "the request must be served from the coalesced block, not by growing the heap")
}

func TestReallocGrowInPlaceAbsorbsFreeNeighbor(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1<<20)
	a := e.Alloc(64)
	b := e.Alloc(64)
	e.Free(b)

	grown := e.Realloc(a, 100)
	require.False(t, grown.IsZero())
	assert.Equal(t, a, grown, "growing into a freed right neighbor should not relocate")
}

func TestReallocPreservesContents(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1<<20)
	p := e.Alloc(32)
	require.False(t, p.IsZero())

	src := p.AssertValid()
	for i := 0; i < 32; i++ {
		*(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(src)) + uintptr(i))) = byte(i)
	}

	// Force relocation by allocating something that can't be absorbed and
	// asking for far more than the original block could ever hold in place.
	e.Alloc(8)
	grown := e.Realloc(p, 4096)
	require.False(t, grown.IsZero())

	dst := grown.AssertValid()
	for i := 0; i < 32; i++ {
		got := *(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(dst)) + uintptr(i)))
		assert.Equal(t, byte(i), got)
	}
}

func TestConcurrentCrossGoroutineFreeRoutesToMailbox(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 4<<20)

	const n = 64
	ptrs := make([]unsafe2.Addr[byte], n)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			p := e.Alloc(48)
			require.False(t, p.IsZero())
			ptrs[i] = p
		}
	}()
	wg.Wait()

	var wg2 sync.WaitGroup
	for i := 0; i < n; i++ {
		wg2.Add(1)
		go func(p unsafe2.Addr[byte]) {
			defer wg2.Done()
			e.Free(p)
		}(ptrs[i])
	}
	wg2.Wait()

	// Give the owning goroutine's arena a chance to drain: Check walks
	// mailboxes directly, so no further allocation is needed to observe the
	// remote frees, but the owner's own goroutine never gets a turn here
	// since it already exited — that's fine, Check doesn't require a drain.
	require.NoError(t, e.Check())
}
