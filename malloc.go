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

import "unsafe"

// Malloc allocates n bytes and returns a pointer to them, or nil if the
// heap cannot satisfy the request. The returned memory is not zeroed.
//
// The pointer returned belongs to the calling goroutine's arena (see the
// package doc comment); it is safe to hand it to another goroutine to read
// or write. Any goroutine may call [Free] on it, which routes the block to
// the owning arena's mailbox; [Realloc] must be called by the goroutine that
// allocated it.
func Malloc(n int) unsafe.Pointer {
	if n <= 0 {
		return nil
	}
	p := mustEngine().Alloc(n)
	if p.IsZero() {
		return nil
	}
	return unsafe.Pointer(p.AssertValid())
}
