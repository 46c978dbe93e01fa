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

package unsafe2

import (
	"fmt"
	"unsafe"
)

// Addr is a typed raw address, scaled in units of T.
//
// Unlike a *T, an Addr[T] is not traced by the garbage collector, and is
// safe to store inside arbitrary byte regions (such as a manually managed
// heap) without pinning or leaking whatever it points to.
type Addr[T any] uintptr

// AddrOf gets the address of a pointer.
func AddrOf[P ~*E, E any](p P) Addr[E] {
	return Addr[E](unsafe.Pointer(p))
}

// Zero is the null address; no valid block ever lives there.
func Zero[T any]() Addr[T] { return 0 }

// IsZero reports whether this is the null address.
func (a Addr[T]) IsZero() bool { return a == 0 }

// AssertValid asserts that this address is a valid pointer.
//
//go:nosplit
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(a)) //nolint:govet // deliberate raw conversion.
}

// Add adds the given offset, in units of T, to this address.
func (a Addr[T]) Add(n int) Addr[T] {
	size, _ := Layout[T]()
	return a + Addr[T](n*size)
}

// Sub computes the offset, in units of T, between this address and b.
func (a Addr[T]) Sub(b Addr[T]) int {
	size, _ := Layout[T]()
	return int(a-b) / size
}

// Misalign returns the misalignment for an address: the byte offset to the
// previous, and the next, align-aligned word.
//
// align must be a power of two. If a is aligned, both returns are zero.
func (a Addr[T]) Misalign(align int) (prev, next int) {
	addr := int(a)
	prev = addr & (align - 1)
	next = (align - addr) & (align - 1)
	return prev, next
}

// Format implements [fmt.Formatter].
func (a Addr[T]) Format(state fmt.State, verb rune) {
	if verb == 'v' {
		fmt.Fprintf(state, "%#x", uintptr(a))
		return
	}
	fmt.Fprintf(state, fmt.FormatString(state, verb), uintptr(a))
}
