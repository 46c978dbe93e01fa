package arena

import "github.com/basalt-run/talloc/internal/debug"

// drainMailbox processes every block freed into this arena's mailbox since
// the last drain (whether freed locally or remotely — both paths route
// through postRemote), coalescing and binning each one.
// Only ever called by this arena's owning goroutine, and only from the
// start of Alloc and Realloc — Free itself never drains, so its cost stays
// O(1) regardless of how many frees are pending.
func (a *Arena) drainMailbox() {
	a.mailboxMu.Lock()
	head := a.mailbox
	a.mailbox = 0
	a.mailboxMu.Unlock()

	if head.IsZero() {
		return
	}

	// Collect every member before coalescing any of them. Each member is
	// still marked queued at this point, which is what keeps one member's
	// coalesce from unlinking another not-yet-processed member out of a bin
	// it was never inserted into (see coalesceRight/coalesceLeft) — a member
	// only becomes eligible to be merged into once its own turn below has
	// called pushToBin, clearing its queued flag.
	var members []addr
	for blk := head; !blk.IsZero(); {
		next := linksAt(blk).next
		members = append(members, blk)
		blk = next
	}

	for _, blk := range members {
		before := headerAt(blk).size()
		blk = a.coalesceRight(blk)
		blk = a.coalesceLeft(blk)
		merged := headerAt(blk).size() != before

		a.pushToBin(blk)
		if merged {
			a.stats.coalesces.Add(1)
			a.global.coalesceChain.Record(1)
		} else {
			a.global.coalesceChain.Record(0)
		}
	}

	debug.Log([]any{"arena=%d", a.id}, "drain", "%d block(s)", len(members))
}

// coalesceRight merges blk with its right neighbor if that neighbor is free,
// owned by this same arena, not itself sitting queued in a mailbox, and not
// the terminal end of the region. A free neighbor owned by a different arena
// is left alone: it lives in that arena's own bins array, which this arena
// has no business splicing (see [Arena.Free]'s ownership note) — it will be
// picked up the next time its own owner frees or coalesces something
// adjacent to it. A free, same-owner neighbor that is still queued is also
// left alone: it is linked into some arena's mailbox chain, not a bin, so
// unlinkFromBin would corrupt whatever bin its size happens to hash to
// instead of actually removing it from where it lives — it becomes eligible
// once its own turn through drainMailbox clears its queued flag. The
// neighbor is unlinked from its bin first. Returns blk unchanged if no merge
// happened.
func (a *Arena) coalesceRight(blk addr) addr {
	h := headerAt(blk)
	size := h.size()

	if a.region.isTerminal(blk, size) {
		return blk
	}

	right := nextBlockAddr(blk, size)
	rh := headerAt(right)
	if !rh.isFree() || rh.owner != a.id || rh.isQueued() {
		return blk
	}

	a.unlinkFromBin(binIndex(rh.size()), right)

	h.setSize(size + rh.size())
	stampFooter(blk)
	return blk
}

// coalesceLeft merges blk into its left neighbor if that neighbor is free,
// owned by this same arena, and not itself queued in a mailbox (see
// [Arena.coalesceRight]). The neighbor is unlinked from its bin first.
// Returns the address of the surviving (left) block, or blk unchanged if no
// merge happened.
func (a *Arena) coalesceLeft(blk addr) addr {
	if a.region.isFirstBlock(blk) {
		return blk
	}

	left := prevBlockAddr(blk)
	lh := headerAt(left)
	if !lh.isFree() || lh.owner != a.id || lh.isQueued() {
		return blk
	}

	a.unlinkFromBin(binIndex(lh.size()), left)

	h := headerAt(blk)
	lh.setSize(lh.size() + h.size())
	stampFooter(left)
	return left
}
