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
	"fmt"
	"io"
	"sync/atomic"
	"unsafe"
)

// Tracer decorates Malloc/Free/Realloc with a sequential, thread-safe log
// of every call and its result, each line prefixed by a sequence number:
// "seq malloc n ptr", "seq free ptr", and for Realloc a
// "seq realloc-begin ptr n" / "seq realloc-end ptr n ret" pair. The log is
// plain text recording pointers; nothing in this module parses it back
// into [internal/trace.Request] values.
//
// The zero Tracer discards everything; set W to capture output.
type Tracer struct {
	W   io.Writer
	seq atomic.Uint64
}

func (t *Tracer) logf(format string, args ...any) {
	if t.W == nil {
		return
	}
	seq := t.seq.Add(1) - 1
	_, _ = fmt.Fprintf(t.W, "%d "+format+"\n", append([]any{seq}, args...)...)
}

// Malloc calls [Malloc] and logs the call.
func (t *Tracer) Malloc(n int) unsafe.Pointer {
	p := Malloc(n)
	t.logf("malloc %d %p", n, p)
	return p
}

// Free calls [Free] and logs the call.
func (t *Tracer) Free(p unsafe.Pointer) {
	t.logf("free %p", p)
	Free(p)
}

// Realloc calls [Realloc] and logs both the start and end of the call as a
// realloc-begin/realloc-end pair, useful for catching the in-place case,
// where the log can show p == ret.
func (t *Tracer) Realloc(p unsafe.Pointer, n int) unsafe.Pointer {
	t.logf("realloc-begin %p %d", p, n)
	ret := Realloc(p, n)
	t.logf("realloc-end %p %d %p", p, n, ret)
	return ret
}
