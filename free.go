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

// Free releases memory previously returned by [Malloc] or [Realloc]. p must
// not be used again after this call.
//
// Freeing p from a goroutine other than the one that allocated it is
// explicitly supported: it is routed to the owning arena's mailbox rather
// than applied directly, per the package doc comment's concurrency model.
// Freeing nil is a no-op.
func Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	mustEngine().Free(unsafe2.AddrOf((*byte)(p)))
}
