package arena

import (
	"fmt"

	"github.com/basalt-run/talloc/internal/dbg"
	"github.com/basalt-run/talloc/internal/sync2"
	"github.com/basalt-run/talloc/internal/xsync"
)

// CheckError describes the first invariant violation [Check] found.
type CheckError struct {
	Code CheckCode
	Addr addr
	Msg  string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("talloc: check failed: %v", dbg.Dict("violation",
		"code", e.Code,
		"addr", e.Addr,
		"detail", e.Msg,
	))
}

// CheckCode classifies the kind of invariant violation a failed [Check]
// found.
type CheckCode int

const (
	_ CheckCode = iota
	ErrBadFooter
	ErrRegionGap
	ErrBadBinMembership
	ErrBadBinList
	ErrBadMailbox
	ErrDuplicateMembership
	ErrMisaligned
)

var checkCodeNames = [...]string{
	ErrBadFooter:           "bad footer",
	ErrRegionGap:           "region gap",
	ErrBadBinMembership:    "block binned under the wrong index",
	ErrBadBinList:          "bin list is not a consistent doubly-linked list",
	ErrBadMailbox:          "mailbox is not a consistent singly-linked list",
	ErrDuplicateMembership: "block appears in more than one bin or mailbox",
	ErrMisaligned:          "block address is not correctly aligned",
}

func (c CheckCode) String() string {
	if int(c) < len(checkCodeNames) && checkCodeNames[c] != "" {
		return checkCodeNames[c]
	}
	return "unknown"
}

// Check walks the whole region block-by-block, verifying header/footer
// agreement, alignment, and a gapless walk from memory_start to
// end_of_heap, then walks every arena's bins and mailbox, verifying that
// every linked block is free and appears in only one bin or mailbox, and
// that every list is internally consistent. It does not check that every
// free block found by the region walk is linked into some list.
func Check(reg *registry, r *region) error {
	if err := checkRegionWalk(r); err != nil {
		return err
	}
	return checkBinsAndMailboxes(reg.all())
}

func checkRegionWalk(r *region) error {
	if r.memoryStart.IsZero() && r.endOfHeap.IsZero() {
		return nil
	}

	for blk := r.memoryStart; blk != r.endOfHeap; {
		h := headerAt(blk)
		size := h.size()
		if size < MinBlockSize {
			return &CheckError{ErrBadFooter, blk, fmt.Sprintf("size %d below minimum %d", size, MinBlockSize)}
		}
		if prev, _ := blk.Misalign(Alignment); prev != 0 {
			return &CheckError{ErrMisaligned, blk, "block start is not 8-byte aligned"}
		}

		footer := *footerAt(blk, size)
		if int(footer) != size {
			return &CheckError{ErrBadFooter, blk, fmt.Sprintf("footer %d != header size %d", footer, size)}
		}

		next := nextBlockAddr(blk, size)
		if next > r.endOfHeap {
			return &CheckError{ErrRegionGap, blk, "block overruns end_of_heap"}
		}
		blk = next
	}
	return nil
}

// seenPool recycles the duplicate-membership set across repeated Check
// calls, since fuzzing and long-running test harnesses may call Check once
// per operation.
var seenPool = sync2.Pool[xsync.Set[addr]]{
	Reset: func(s *xsync.Set[addr]) { *s = xsync.Set[addr]{} },
}

func checkBinsAndMailboxes(arenas []*Arena) error {
	seen, drop := seenPool.Get()
	defer drop()

	for _, a := range arenas {
		for idx := 0; idx < NumBins; idx++ {
			if err := checkBinList(a, idx, seen); err != nil {
				return err
			}
		}
		if err := checkMailbox(a, seen); err != nil {
			return err
		}
	}
	return nil
}

func checkBinList(a *Arena, idx int, seen *xsync.Set[addr]) error {
	var prev addr
	for blk := a.binHead(idx); !blk.IsZero(); blk = linksAt(blk).next {
		if seen.Load(blk) {
			return &CheckError{ErrDuplicateMembership, blk, "block present in more than one bin/mailbox"}
		}
		seen.Store(blk)

		h := headerAt(blk)
		if !h.isFree() {
			return &CheckError{ErrBadBinList, blk, "allocated block found in a free bin"}
		}
		if h.isQueued() {
			return &CheckError{ErrBadBinList, blk, "block marked queued found linked into a bin"}
		}
		if got := binIndex(h.size()); got != idx {
			return &CheckError{ErrBadBinMembership, blk, fmt.Sprintf("size %d belongs in bin %d, found in bin %d", h.size(), got, idx)}
		}
		if linksAt(blk).prev != prev {
			return &CheckError{ErrBadBinList, blk, "prev pointer does not match list order"}
		}
		prev = blk
	}
	return nil
}

func checkMailbox(a *Arena, seen *xsync.Set[addr]) error {
	for blk := a.mailbox; !blk.IsZero(); blk = linksAt(blk).next {
		if seen.Load(blk) {
			return &CheckError{ErrDuplicateMembership, blk, "block present in more than one bin/mailbox"}
		}
		seen.Store(blk)
		h := headerAt(blk)
		if !h.isFree() {
			return &CheckError{ErrBadMailbox, blk, "allocated block found in mailbox"}
		}
		if !h.isQueued() {
			return &CheckError{ErrBadMailbox, blk, "block not marked queued found linked into a mailbox"}
		}
	}
	return nil
}
