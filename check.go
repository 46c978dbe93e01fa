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

import "github.com/basalt-run/talloc/internal/arena"

// Check walks every block in the heap and every arena's bins and mailbox,
// verifying the allocator's internal invariants: header/footer agreement,
// alignment, a gapless region walk, and that every block linked into a bin
// or mailbox is free and appears in only one of them. It does not check
// that every free block found by the region walk is linked into some list.
//
// It returns nil if the heap is consistent, or an error describing the
// first violation found (an [*arena.CheckError]) otherwise. Intended for
// test harnesses and fuzzing, not for the hot allocation path.
func Check() error {
	return mustEngine().Check()
}

// Stats returns a snapshot of allocator instrumentation: counts of each
// operation performed and a few running averages useful for judging bin
// search and coalescing behavior.
func Stats() arena.Snapshot {
	return mustEngine().Stats()
}
