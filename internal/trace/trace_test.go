package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-run/talloc/internal/trace"
)

func TestScenariosLoadAndReplayAgainstNaiveAllocator(t *testing.T) {
	t.Parallel()

	scenarios, err := trace.Scenarios()
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			t.Parallel()

			alloc := trace.NewNaiveAllocator(1<<22, 8)
			v := trace.NewValidator(alloc, 8)
			assert.NoError(t, v.Run(s.Requests), "scenario %s (%s) must validate against the naive allocator", s.Name, s.Description)
		})
	}
}

func TestNaiveAllocatorNeverReusesFreedSpace(t *testing.T) {
	t.Parallel()

	alloc := trace.NewNaiveAllocator(1<<16, 8)
	require.NoError(t, alloc.Init())

	p1, err := alloc.Malloc(64)
	require.NoError(t, err)
	alloc.Free(p1)

	p2, err := alloc.Malloc(64)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2, "a bump allocator must never hand back space it already gave out, freed or not")
}

func TestNaiveAllocatorReallocPreservesContents(t *testing.T) {
	t.Parallel()

	alloc := trace.NewNaiveAllocator(1<<16, 8)
	require.NoError(t, alloc.Init())

	v := trace.NewValidator(alloc, 8)
	err := v.Run([]trace.Request{
		{Op: trace.OpAlloc, Index: 0, Size: 32},
		{Op: trace.OpRealloc, Index: 0, Size: 96},
		{Op: trace.OpFree, Index: 0},
	})
	assert.NoError(t, err)
}

func TestValidatorRejectsOutOfHeapPointer(t *testing.T) {
	t.Parallel()

	alloc := &badAllocator{NaiveAllocator: trace.NewNaiveAllocator(1 << 16, 8)}
	v := trace.NewValidator(alloc, 8)

	err := v.Run([]trace.Request{
		{Op: trace.OpAlloc, Index: 0, Size: 64},
	})
	assert.Error(t, err)
}

// badAllocator deliberately hands back an aligned pointer past its own heap,
// to exercise the Validator's bounds check rather than its alignment check.
type badAllocator struct {
	*trace.NaiveAllocator
}

func (b *badAllocator) Malloc(size int) (uintptr, error) {
	if _, err := b.NaiveAllocator.Malloc(size); err != nil {
		return 0, err
	}
	return b.HeapHigh() + 1 + 4096, nil
}
