package arena

import (
	"github.com/basalt-run/talloc/internal/debug"
)

// splitThreshold is the minimum leftover size (in bytes) a candidate free
// block must have beyond the request before it is worth splitting into two
// blocks. Splitting into a remainder smaller than MinBlockSize would
// produce a block that can never be freed correctly, so this can never be
// lower than MinBlockSize.
const splitThreshold = MinBlockSize

// Alloc satisfies a request of n bytes, returning the address of the
// payload, or the zero address if the request cannot be satisfied (the
// provider is exhausted).
func (a *Arena) Alloc(n int) addr {
	a.drainMailbox()

	need := blockSizeFor(n)

	if blk, ok := a.findFit(need); ok {
		return a.carve(blk, need)
	}

	blk, ok := a.extendForAlloc(need)
	if !ok {
		return 0
	}
	return a.carve(blk, need)
}

// findFit does a first-fit search starting at binIndex(need), walking every
// higher bin until a block at least need bytes is found. Bins below
// binIndex(need) can never hold a block large enough (bin_index is
// monotone), so they are skipped entirely.
func (a *Arena) findFit(need int) (addr, bool) {
	scanned := 0
	start := binIndex(need)
	for idx := start; idx < NumBins; idx++ {
		for blk := a.binHead(idx); !blk.IsZero(); blk = linksAt(blk).next {
			scanned++
			if headerAt(blk).size() >= need {
				a.unlinkFromBin(idx, blk)
				a.global.binScanLen.Record(float64(scanned))
				return blk, true
			}
		}
	}
	a.global.binScanLen.Record(float64(scanned))
	return 0, false
}

// carve prepares a block found free (either from a bin or freshly extended)
// to satisfy a need-byte request: split off a remainder if it's large
// enough to be independently useful, then mark the (possibly shrunk) block
// allocated and hand back its payload.
func (a *Arena) carve(blk addr, need int) addr {
	h := headerAt(blk)
	total := h.size()

	if rem := total - need; rem >= splitThreshold {
		a.split(blk, need, rem)
		total = need
	}

	h.setSize(total)
	h.setFree(false)
	h.owner = a.id
	stampFooter(blk)

	a.stats.allocs.Add(1)
	a.global.blockSize.Record(float64(total))
	debug.Log([]any{"arena=%d", a.id}, "alloc", "%v, size=%d", blk, total)

	return payloadAddr(blk)
}

// split carves a need-byte block off the front of a (total-byte) free
// block, and posts the trailing rem-byte remainder to this arena's own
// mailbox rather than binning it directly. Going through the mailbox keeps
// there being exactly one code path that inserts a block into a bin
// (drainMailbox's coalesce-then-bin step), instead of having both a direct
// bin insert here and another in reclaim.go.
func (a *Arena) split(blk addr, need, rem int) {
	h := headerAt(blk)
	h.setSize(need)

	tail := nextBlockAddr(blk, need)
	tailHeader := headerAt(tail)
	tailHeader.owner = a.id
	tailHeader.setSize(rem)
	tailHeader.setFree(true)
	stampFooter(tail)

	a.stats.splits.Add(1)
	debug.Log([]any{"arena=%d", a.id}, "split", "%v, %d+%d", blk, need, rem)

	a.postRemote(tail)
}

// extendForAlloc grows the shared region by enough to satisfy a need-byte
// request, under the global lock, and returns a fresh free block covering
// exactly the new span.
func (a *Arena) extendForAlloc(need int) (addr, bool) {
	unlock := a.region.lockGlobal()
	defer unlock()

	blk, ok := a.region.extend(need)
	if !ok {
		return 0, false
	}

	h := headerAt(blk)
	h.owner = a.id
	h.setSize(need)
	h.setFree(true)
	stampFooter(blk)

	a.stats.extensions.Add(1)
	debug.Log([]any{"arena=%d", a.id}, "extend", "%v, size=%d", blk, need)

	return blk, true
}
