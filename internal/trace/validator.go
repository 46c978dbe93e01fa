package trace

import (
	"fmt"
)

// Op identifies the kind of operation a [Request] performs.
type Op int

const (
	OpAlloc Op = iota
	OpRealloc
	OpFree
)

func (o Op) String() string {
	switch o {
	case OpAlloc:
		return "alloc"
	case OpRealloc:
		return "realloc"
	case OpFree:
		return "free"
	default:
		return "unknown"
	}
}

// UnmarshalYAML decodes an Op from its String form ("alloc", "realloc" or
// "free"), as written in testdata/scenarios.yaml.
func (o *Op) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	for _, op := range []Op{OpAlloc, OpRealloc, OpFree} {
		if op.String() == s {
			*o = op
			return nil
		}
	}
	return fmt.Errorf("trace: unknown op %q", s)
}

// Request is one line of a replayable allocator trace. Index names a slot
// in the validator's symbol table: an OpAlloc populates it, a later
// OpRealloc or OpFree refers back to it by the same Index.
type Request struct {
	Op    Op  `yaml:"op"`
	Index int `yaml:"index"`
	Size  int `yaml:"size,omitempty"`
}

// rangeRec records the payload extent of one live allocation, for overlap
// checking.
type rangeRec struct {
	index  int
	lo, hi uintptr // inclusive
}

// Validator replays a sequence of [Request]s against an [Allocator],
// checking every result for a handful of properties: returned pointers are
// aligned and within heap bounds, no two live allocations' payloads
// overlap, and a realloc's result preserves the old payload's bytes
// (verified by stamping and re-checking a counting pattern).
type Validator struct {
	Align int

	alloc  Allocator
	ranges []rangeRec
	sizes  map[int]int
}

// NewValidator constructs a Validator for the given allocator, checking
// payload alignment against align bytes.
func NewValidator(alloc Allocator, align int) *Validator {
	return &Validator{Align: align, alloc: alloc, sizes: map[int]int{}}
}

// Run replays reqs in order against the allocator, returning the first
// error encountered, or nil if every request was satisfied and every
// invariant held.
func (v *Validator) Run(reqs []Request) error {
	v.alloc.Reset()
	if err := v.alloc.Init(); err != nil {
		return fmt.Errorf("trace: init failed: %w", err)
	}
	v.ranges = v.ranges[:0]
	clear(v.sizes)

	ptrs := map[int]uintptr{}

	for i, req := range reqs {
		switch req.Op {
		case OpAlloc:
			p, err := v.alloc.Malloc(req.Size)
			if err != nil || p == 0 {
				return fmt.Errorf("trace: request %d: malloc(%d) failed: %w", i, req.Size, err)
			}
			if err := v.addRange(i, req.Index, p, req.Size); err != nil {
				return err
			}
			stamp(v.alloc, p, req.Size)
			ptrs[req.Index] = p
			v.sizes[req.Index] = req.Size

		case OpRealloc:
			old := ptrs[req.Index]
			oldSize := v.sizes[req.Index]

			newP, err := v.alloc.Realloc(old, req.Size)
			if err != nil || (req.Size > 0 && newP == 0) {
				return fmt.Errorf("trace: request %d: realloc(%d) failed: %w", i, req.Size, err)
			}

			v.removeRange(req.Index)
			if req.Size == 0 {
				delete(ptrs, req.Index)
				delete(v.sizes, req.Index)
				continue
			}
			if err := v.addRange(i, req.Index, newP, req.Size); err != nil {
				return err
			}
			if err := checkStamp(v.alloc, newP, min(oldSize, req.Size)); err != nil {
				return fmt.Errorf("trace: request %d: %w", i, err)
			}
			stamp(v.alloc, newP, req.Size)
			ptrs[req.Index] = newP
			v.sizes[req.Index] = req.Size

		case OpFree:
			v.removeRange(req.Index)
			v.alloc.Free(ptrs[req.Index])
			delete(ptrs, req.Index)
			delete(v.sizes, req.Index)
		}
	}

	return nil
}

func (v *Validator) addRange(opnum, index int, p uintptr, size int) error {
	if size <= 0 {
		return nil
	}
	lo, hi := p, p+uintptr(size)-1

	if lo%uintptr(v.Align) != 0 {
		return fmt.Errorf("trace: request %d: pointer %#x is not %d-byte aligned", opnum, lo, v.Align)
	}
	if lo < v.alloc.HeapLow() || hi > v.alloc.HeapHigh() {
		return fmt.Errorf("trace: request %d: range [%#x,%#x] outside heap [%#x,%#x]", opnum, lo, hi, v.alloc.HeapLow(), v.alloc.HeapHigh())
	}
	for _, r := range v.ranges {
		if lo <= r.hi && r.lo <= hi {
			return fmt.Errorf("trace: request %d: range [%#x,%#x] overlaps existing range [%#x,%#x] (index %d)", opnum, lo, hi, r.lo, r.hi, r.index)
		}
	}

	v.ranges = append(v.ranges, rangeRec{index: index, lo: lo, hi: hi})
	return nil
}

func (v *Validator) removeRange(index int) {
	for i, r := range v.ranges {
		if r.index == index {
			v.ranges = append(v.ranges[:i], v.ranges[i+1:]...)
			return
		}
	}
}
