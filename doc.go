// Copyright 2020-2025 Buf Technologies, Inc.
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

// Package talloc is a multi-threaded, general-purpose dynamic memory
// allocator built on top of a single contiguous region of memory.
//
// Blocks carry boundary tags (a header and a footer), which makes finding a
// block's neighbors in memory an O(1) operation; this is what makes
// coalescing adjacent free blocks cheap. Free blocks are indexed by size
// into a fixed number of segregated free lists ("bins"), giving allocation
// close to O(1) for the common case of a bin already holding a suitable
// block.
//
// # Concurrency model
//
// Every goroutine that calls into the package is assigned its own arena on
// first use, and that arena's bins are only ever touched by the owning
// goroutine — no locking is needed to search or splice them. [Free] called
// on a pointer owned by a different goroutine's arena does not touch that
// arena's bins directly: the block is instead posted to the owning arena's
// mailbox, a small mutex-protected queue that the owner drains (coalescing
// as it goes) the next time it calls [Malloc]. [Realloc] does not support
// such pointers: it must be called by the goroutine that allocated p. See
// internal/arena for the implementation of this protocol.
//
// # Usage
//
// Call [Init] once before using the package, to fix the maximum size of the
// region it manages. [Malloc], [Free], and [Realloc] behave like their C
// namesakes: out-of-memory is reported by [Malloc] and [Realloc] returning
// nil rather than by any panic — this package never
// panics in response to exhausted memory, only in response to internal
// invariant violations when built with the debug build tag.
package talloc
