package arena

import "github.com/basalt-run/talloc/internal/stats"

// globalStats holds the cross-arena instrumentation counters that need
// concurrency-safe aggregation themselves, as opposed to arenaStats' atomic
// counters, which are only ever written by their owning goroutine and merely
// need to be safe to read from Stats on an arbitrary goroutine.
type globalStats struct {
	binScanLen    stats.Mean
	coalesceChain stats.Mean
	blockSize     *stats.Median
}

func newGlobalStats() *globalStats {
	return &globalStats{blockSize: stats.NewMedian(256)}
}

// Snapshot is a point-in-time summary of allocator activity, returned by the
// root package's Stats function.
type Snapshot struct {
	Arenas int

	Allocs      uint64
	Frees       uint64
	RemoteFrees uint64
	Splits      uint64
	Coalesces   uint64
	Extensions  uint64

	MeanBinScanLength    float64
	MeanCoalesceChainLen float64
	MedianBlockSize      float64
}

// Stats aggregates per-arena counters (each only ever written by its own
// goroutine but read here from whichever goroutine calls Stats, hence
// atomic) with the concurrency-safe global ones.
func Stats(reg *registry, g *globalStats) Snapshot {
	arenas := reg.all()
	s := Snapshot{
		Arenas:               len(arenas),
		MeanBinScanLength:    g.binScanLen.Get(),
		MeanCoalesceChainLen: g.coalesceChain.Get(),
		MedianBlockSize:      g.blockSize.Get(),
	}
	for _, a := range arenas {
		s.Allocs += a.stats.allocs.Load()
		s.Frees += a.stats.frees.Load()
		s.RemoteFrees += a.stats.remoteFrees.Load()
		s.Splits += a.stats.splits.Load()
		s.Coalesces += a.stats.coalesces.Load()
		s.Extensions += a.stats.extensions.Load()
	}
	return s
}
