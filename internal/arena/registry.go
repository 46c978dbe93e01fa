package arena

import (
	"sync"

	"github.com/google/uuid"
	"github.com/timandy/routine"

	"github.com/basalt-run/talloc/internal/debug"
	"github.com/basalt-run/talloc/internal/xsync"
)

// registry maps goroutines to their arena, implementing a per-thread-arena
// model. A goroutine's affinity is established on its first call into the
// allocator and never changes: goroutines stand in for threads since OS
// threads are not exposed to user code, the same reading
// internal/debug.Log uses for its own "g%04d" goroutine-id tagging.
type registry struct {
	byGoid xsync.Map[int64, *Arena]

	mu     sync.Mutex
	table  []*Arena // index i holds the arena whose owner field is i
	region *region
	global *globalStats
}

func newRegistry(r *region) *registry {
	return &registry{region: r, global: newGlobalStats()}
}

// arenaFor returns the calling goroutine's arena, creating one on first use.
func (reg *registry) arenaFor() *Arena {
	goid := routine.Goid()
	if a, ok := reg.byGoid.Load(goid); ok {
		return a
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	// Another goroutine may have raced us between the Load above and
	// acquiring mu; re-check under the lock rather than double-allocate.
	if a, ok := reg.byGoid.Load(goid); ok {
		return a
	}

	a := &Arena{
		id:     uint32(len(reg.table)),
		uuid:   uuid.New(),
		goid:   goid,
		region: reg.region,
		global: reg.global,
	}
	reg.table = append(reg.table, a)
	reg.byGoid.Store(goid, a)

	debug.Log(nil, "registry", "new arena %s (owner=%d) for goroutine %d", a.uuid, a.id, goid)

	return a
}

// arenaByOwner resolves the owner index stored in a block's header back to
// the Arena struct. This never returns nil for a valid owner index: arenas
// are appended to table and never removed.
func (reg *registry) arenaByOwner(owner uint32) *Arena {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.table[owner]
}

// all returns a snapshot of every arena created so far, used by Check to
// walk every arena's bins and mailbox.
func (reg *registry) all() []*Arena {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]*Arena, len(reg.table))
	copy(out, reg.table)
	return out
}
