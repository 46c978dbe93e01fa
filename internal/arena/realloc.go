package arena

import (
	"github.com/basalt-run/talloc/internal/debug"
	"github.com/basalt-run/talloc/internal/unsafe2"
)

// Realloc resizes the block at p. p must be a payload address previously
// returned to, and still owned by, the calling arena — reallocating a
// pointer from another goroutine's arena is a caller error, just as freeing
// one remotely is a deliberate cross-arena operation (see [Arena.Free])
// rather than something Realloc does implicitly.
//
// Returns the new payload address, which may equal p. Returns the zero
// address if newN cannot be satisfied (relocation was required but the
// provider is exhausted); on that path the original block is left
// untouched, exactly like a failed [Arena.Alloc].
func (a *Arena) Realloc(p addr, newN int) addr {
	a.drainMailbox()

	blk := blockAddrFromPayload(p)
	h := headerAt(blk)
	debug.Assert(h.owner == a.id, "Realloc called on a block owned by arena %d from arena %d", h.owner, a.id)
	debug.Assert(!h.isFree(), "Realloc called on a free block at %v", blk)

	oldTotal := h.size()
	need := blockSizeFor(newN)

	switch {
	case need <= oldTotal:
		return payloadAddr(a.shrinkInPlace(blk, oldTotal, need))

	case a.growByAbsorbingRight(blk, need):
		return payloadAddr(blk)

	case a.growByExtension(blk, oldTotal, need):
		return payloadAddr(blk)

	default:
		return a.relocate(blk, oldTotal, newN)
	}
}

// shrinkInPlace handles the case where the block is already large enough.
// If the unused tail is worth splitting off, it is posted to the mailbox
// (see [Arena.split]'s rationale for routing splits that way) rather than
// binned directly.
func (a *Arena) shrinkInPlace(blk addr, oldTotal, need int) addr {
	h := headerAt(blk)
	if rem := oldTotal - need; rem >= splitThreshold {
		a.split(blk, need, rem)
		h.setSize(need)
		stampFooter(blk)
		debug.Log([]any{"arena=%d", a.id}, "realloc-shrink", "%v, %d->%d", blk, oldTotal, need)
	}
	return blk
}

// growByAbsorbingRight handles the case where the block's immediate right
// neighbor is free, owned by this same arena, not queued in a mailbox, and,
// combined with blk, large enough to satisfy need. A free neighbor owned by
// a different arena is left alone, for the same reason [Arena.coalesceRight]
// leaves one alone. A free, same-owner neighbor that is still queued is also
// left alone: drainMailbox at Realloc's entry empties the mailbox, but a
// concurrent remote free can repost into it before this check runs, and a
// queued neighbor is linked into a mailbox chain, not a bin, so unlinkFromBin
// would corrupt an unrelated bin instead of actually detaching it — it's
// picked up on the next drain instead. Leftover beyond need is split off
// exactly as in a fresh allocation.
func (a *Arena) growByAbsorbingRight(blk addr, need int) bool {
	h := headerAt(blk)
	size := h.size()

	if a.region.isTerminal(blk, size) {
		return false
	}

	right := nextBlockAddr(blk, size)
	rh := headerAt(right)
	if !rh.isFree() || rh.owner != a.id || rh.isQueued() || size+rh.size() < need {
		return false
	}

	a.unlinkFromBin(binIndex(rh.size()), right)
	combined := size + rh.size()
	h.setSize(combined)

	if rem := combined - need; rem >= splitThreshold {
		a.split(blk, need, rem)
		h.setSize(need)
	}
	stampFooter(blk)

	debug.Log([]any{"arena=%d", a.id}, "realloc-grow-absorb", "%v, %d->%d", blk, size, h.size())
	return true
}

// growByExtension handles the case where blk is the last block in the
// region, so the region can simply be grown by the shortfall instead of
// relocating. The terminal check is made under the global lock, so no other
// goroutine can extend the region between the check and the extension.
func (a *Arena) growByExtension(blk addr, oldTotal, need int) bool {
	h := headerAt(blk)

	extra := need - oldTotal

	unlock := a.region.lockGlobal()
	if !a.region.isTerminal(blk, oldTotal) {
		unlock()
		return false
	}
	_, ok := a.region.extend(extra)
	unlock()
	if !ok {
		return false
	}

	h.setSize(need)
	stampFooter(blk)
	a.stats.extensions.Add(1)

	debug.Log([]any{"arena=%d", a.id}, "realloc-grow-extend", "%v, %d->%d", blk, oldTotal, need)
	return true
}

// relocate handles the case where neither shrinking nor growing in place is
// possible: allocate a fresh block, copy min(newN, old payload size) bytes,
// free the original.
func (a *Arena) relocate(blk addr, oldTotal, newN int) addr {
	oldPayload := payloadCapacity(oldTotal)

	newP := a.Alloc(newN)
	if newP.IsZero() {
		return 0
	}

	n := min(oldPayload, newN)
	unsafe2.Copy(newP.AssertValid(), payloadAddr(blk).AssertValid(), n)

	debug.Log([]any{"arena=%d", a.id}, "realloc-relocate", "%v->%v, copy=%d", blk, newP, n)

	a.freeLocal(blk)
	return newP
}
