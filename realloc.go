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
	"unsafe"

	"github.com/basalt-run/talloc/internal/unsafe2"
)

// Realloc resizes the allocation at p to n bytes, copying min(n, old size)
// bytes and preserving them. Returns the new pointer, which may equal p, or
// nil if n could not be satisfied, in which case p is left untouched and
// still valid.
//
// Calling p == nil is equivalent to [Malloc](n). Calling with n == 0 frees
// p and returns nil, mirroring the C realloc convention.
//
// p must have been allocated by, and not yet freed by, the calling
// goroutine: unlike [Free], Realloc does not support resizing a pointer
// that belongs to another goroutine's arena.
func Realloc(p unsafe.Pointer, n int) unsafe.Pointer {
	if p == nil {
		return Malloc(n)
	}
	if n <= 0 {
		Free(p)
		return nil
	}

	out := mustEngine().Realloc(unsafe2.AddrOf((*byte)(p)), n)
	if out.IsZero() {
		return nil
	}
	return unsafe.Pointer(out.AssertValid())
}
