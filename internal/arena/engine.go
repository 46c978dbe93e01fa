package arena

// Engine ties a [Provider] to the arena registry that grows over it. It is
// the thing the root talloc package wraps: callers never construct an Arena
// directly, they go through Engine so that goroutine affinity (see
// [registry.arenaFor]) is established automatically on first use.
type Engine struct {
	region   *region
	registry *registry
}

// NewEngine constructs an Engine over the given Provider. The Provider
// should be freshly constructed (or freshly Reset) — an Engine does not
// adopt any existing allocations in an already-populated Provider.
func NewEngine(p Provider) *Engine {
	r := newRegion(p)
	return &Engine{region: r, registry: newRegistry(r)}
}

// arena returns the calling goroutine's arena, creating it on first use.
func (e *Engine) arena() *Arena { return e.registry.arenaFor() }

// Alloc allocates on the calling goroutine's arena.
func (e *Engine) Alloc(n int) addr {
	return e.arena().Alloc(n)
}

// Free frees p: a local free if the calling goroutine owns p, a remote
// mailbox post otherwise.
func (e *Engine) Free(p addr) {
	e.arena().Free(e.registry, p)
}

// Realloc resizes p on the calling goroutine's arena. p must have been
// allocated by, and not yet freed by, this same goroutine.
func (e *Engine) Realloc(p addr, newN int) addr {
	return e.arena().Realloc(p, newN)
}

// Check walks the whole engine: every arena's bins and mailbox, plus a
// single walk of the shared region.
func (e *Engine) Check() error {
	return Check(e.registry, e.region)
}

// Stats returns a snapshot of instrumentation counters across every arena
// this engine has created.
func (e *Engine) Stats() Snapshot {
	return Stats(e.registry, e.registry.global)
}

// HeapLow and HeapHigh pass through to the Provider's inclusive bounds of
// the shared region.
func (e *Engine) HeapLow() uintptr  { return e.region.provider.HeapLow() }
func (e *Engine) HeapHigh() uintptr { return e.region.provider.HeapHigh() }

// Reset discards the engine's entire region and all arena state, handing
// the underlying Provider back to empty. Existing pointers become invalid;
// this exists for test harnesses that replay many traces against one
// Engine/Provider pair.
func (e *Engine) Reset() {
	e.region.provider.Reset()
	e.region.memoryStart = 0
	e.region.endOfHeap = 0
	e.registry = newRegistry(e.region)
}
