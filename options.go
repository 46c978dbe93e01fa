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

// initConfig collects the options passed to [Init].
type initConfig struct {
	maxHeapBytes int
	provider     arena.Provider
}

// InitOption configures [Init].
type InitOption struct{ apply func(*initConfig) }

// WithMaxHeap sets the largest the managed heap may ever grow to, in bytes.
// Required unless [WithProvider] is given, since the default provider
// ([arena.SliceProvider]) must reserve its backing slice up front so that
// addresses stay stable as the heap grows.
func WithMaxHeap(bytes int) InitOption {
	return InitOption{func(c *initConfig) { c.maxHeapBytes = bytes }}
}

// WithProvider overrides the default [arena.SliceProvider] with a
// caller-supplied provider, for tests that want to swap in a fake or
// instrumented memory source.
func WithProvider(p arena.Provider) InitOption {
	return InitOption{func(c *initConfig) { c.provider = p }}
}
