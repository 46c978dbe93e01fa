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

package talloc

import (
	"sync"
	"sync/atomic"

	"github.com/basalt-run/talloc/internal/arena"
	"github.com/basalt-run/talloc/internal/debug"
)

var (
	engineMu sync.Mutex
	engine   atomic.Pointer[arena.Engine]
)

// Init prepares the package-level heap. It must be called once before any
// of [Malloc], [Free], [Realloc], [Check], [HeapLow], or [HeapHigh].
// Calling it again replaces the heap entirely; any outstanding pointers
// from the previous heap become invalid.
func Init(opts ...InitOption) {
	var cfg initConfig
	for _, o := range opts {
		o.apply(&cfg)
	}

	p := cfg.provider
	if p == nil {
		debug.Assert(cfg.maxHeapBytes > 0, "talloc.Init: WithMaxHeap or WithProvider is required")
		p = arena.NewSliceProvider(cfg.maxHeapBytes)
	}

	engineMu.Lock()
	defer engineMu.Unlock()
	engine.Store(arena.NewEngine(p))
}

// mustEngine returns the package-level engine, panicking per [ErrNotInitialized]
// semantics if [Init] hasn't run yet.
func mustEngine() *arena.Engine {
	e := engine.Load()
	if e == nil {
		panic(&errOp{code: errCodeNotInitialized, op: "talloc"})
	}
	return e
}
