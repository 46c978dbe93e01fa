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

// HeapLow returns the address of the first byte of the managed heap, as
// reported by its provider. It does not change as the heap grows.
func HeapLow() uintptr { return mustEngine().HeapLow() }

// HeapHigh returns the address of the last byte of the managed heap. Equal
// to HeapLow if the heap has never been grown.
func HeapHigh() uintptr { return mustEngine().HeapHigh() }

// ResetBrk discards the entire heap, returning it to empty. Any pointers
// previously returned by [Malloc] or [Realloc] become invalid. Intended for
// test harnesses that replay many independent traces against one heap.
func ResetBrk() { mustEngine().Reset() }
