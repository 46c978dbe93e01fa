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

//go:build !debug

package debug

const Enabled = false

func Log([]any, string, string, ...any) {}
func Assert(bool, string, ...any)       {}

type Value[T any] struct {
	_ struct{}
}

func (v *Value[T]) Get() *T {
	panic("talloc: called Value.Get() when not built with -tags debug")
}
