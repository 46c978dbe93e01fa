// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package talloc_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basalt-run/talloc"
)

func initTest(t *testing.T) {
	t.Helper()
	talloc.Init(talloc.WithMaxHeap(4 << 20))
	t.Cleanup(talloc.ResetBrk)
}

func TestMallocFreeRoundTrip(t *testing.T) {
	initTest(t)

	p := talloc.Malloc(64)
	require.NotNil(t, p)
	talloc.Free(p)

	assert.NoError(t, talloc.Check())
}

func TestMallocZeroReturnsNil(t *testing.T) {
	initTest(t)
	assert.Nil(t, talloc.Malloc(0))
}

func TestFreeNilIsNoOp(t *testing.T) {
	initTest(t)
	assert.NotPanics(t, func() { talloc.Free(nil) })
}

func TestReallocNilActsLikeMalloc(t *testing.T) {
	initTest(t)
	p := talloc.Realloc(nil, 32)
	require.NotNil(t, p)
	talloc.Free(p)
}

func TestReallocZeroActsLikeFree(t *testing.T) {
	initTest(t)
	p := talloc.Malloc(32)
	require.NotNil(t, p)
	assert.Nil(t, talloc.Realloc(p, 0))
}

func TestHeapBoundsGrowMonotonically(t *testing.T) {
	initTest(t)

	lo0, hi0 := talloc.HeapLow(), talloc.HeapHigh()
	p := talloc.Malloc(256)
	require.NotNil(t, p)

	assert.Equal(t, lo0, talloc.HeapLow())
	assert.GreaterOrEqual(t, talloc.HeapHigh(), hi0)
}

func TestWritingThroughReturnedPointerIsSafe(t *testing.T) {
	initTest(t)

	p := talloc.Malloc(16)
	require.NotNil(t, p)

	buf := unsafe.Slice((*byte)(p), 16)
	for i := range buf {
		buf[i] = byte(i)
	}
	for i, b := range buf {
		assert.Equal(t, byte(i), b)
	}
}

func TestConcurrentAllocFreeAcrossGoroutines(t *testing.T) {
	talloc.Init(talloc.WithMaxHeap(16 << 20))
	t.Cleanup(talloc.ResetBrk)

	const goroutines = 8
	const perGoroutine = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ptrs := make([]unsafe.Pointer, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				p := talloc.Malloc(32 + i%64)
				if p == nil {
					continue
				}
				ptrs = append(ptrs, p)
			}
			for _, p := range ptrs {
				talloc.Free(p)
			}
		}()
	}
	wg.Wait()

	assert.NoError(t, talloc.Check())
}

func TestTracerLogsOperations(t *testing.T) {
	talloc.Init(talloc.WithMaxHeap(1 << 20))
	t.Cleanup(talloc.ResetBrk)

	var buf bytes.Buffer
	tr := &talloc.Tracer{W: &buf}

	p := tr.Malloc(32)
	require.NotNil(t, p)
	q := tr.Realloc(p, 64)
	require.NotNil(t, q)
	tr.Free(q)

	out := buf.String()
	assert.True(t, strings.Contains(out, "malloc 32"))
	assert.True(t, strings.Contains(out, "realloc-begin"))
	assert.True(t, strings.Contains(out, "realloc-end"))
	assert.True(t, strings.Contains(out, "free"))
}

func TestErrNotInitializedMentionsInit(t *testing.T) {
	// Calling mustEngine-backed functions before Init panics with an error
	// wrapping ErrNotInitialized. Earlier tests in this package have already
	// installed an engine, which ResetBrk does not remove, so this test does
	// not trigger the panic; it checks the sentinel's message instead.
	assert.Contains(t, talloc.ErrNotInitialized.Error(), "Init")
}
