package arena

import (
	"github.com/basalt-run/talloc/internal/debug"
)

// Free releases the block whose payload starts at p. If the calling
// goroutine owns the block, it is posted to its own arena's mailbox for
// coalescing and binning on the next drain. Otherwise it is posted to the
// owning arena's mailbox for that arena to reclaim on its own time (the
// cross-thread "remote free" path) — either way this call never touches a
// bin directly, and never blocks on anything but a mailbox mutex.
func (a *Arena) Free(reg *registry, p addr) {
	blk := blockAddrFromPayload(p)
	h := headerAt(blk)
	debug.Assert(!h.isFree(), "Free called on an already-free block at %v", blk)
	owner := reg.arenaByOwner(h.owner)

	if owner == a {
		a.stats.frees.Add(1)
		debug.Log([]any{"arena=%d", a.id}, "free", "%v, size=%d", blk, h.size())
		a.freeLocal(blk)
		return
	}

	a.stats.remoteFrees.Add(1)
	debug.Log([]any{"arena=%d", a.id}, "remote-free", "%v -> arena=%d", blk, owner.id)

	// The freeing goroutine, not the owner, stamps the block free: until it
	// lands in the owner's mailbox, no other goroutine touches it. Once
	// mailed, only the owner may read or write it again — no coalescing
	// happens here, since this block's neighbors may belong to bins the
	// owner is concurrently searching.
	h.setFree(true)
	stampFooter(blk)
	owner.postRemote(blk)
}

// freeLocal marks blk free and posts it to this arena's own mailbox, to be
// coalesced with its neighbors and binned on the next drain. It does not
// coalesce here: an immediate neighbor that is free and owned by this same
// arena might itself be sitting undrained in this arena's mailbox rather than
// linked into a bin (it was remotely freed, or split off, and hasn't been
// drained yet), and coalescing would then splice it out of a bin it was
// never inserted into, corrupting that bin's head and the mailbox chain
// both. Routing every free — local or remote — through a mailbox keeps
// drainMailbox the only place a block is ever coalesced or bin-linked.
func (a *Arena) freeLocal(blk addr) {
	h := headerAt(blk)
	h.setFree(true)
	stampFooter(blk)
	a.postRemote(blk)
}

// postRemote appends blk to this arena's mailbox. blk's header is left
// exactly as the caller set it (free, sized, owned by this arena); the
// mailbox link overlays the block's payload the same way a bin's free-list
// links do, since a mailed block is never simultaneously in a bin. Marking
// blk queued lets coalesceRight/coalesceLeft recognize and skip it until it's
// actually drained and binned.
func (a *Arena) postRemote(blk addr) {
	headerAt(blk).setQueued(true)

	a.mailboxMu.Lock()
	l := linksAt(blk)
	l.next = a.mailbox
	l.prev = 0
	a.mailbox = blk
	a.mailboxMu.Unlock()
}
