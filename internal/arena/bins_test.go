package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinIndexMonotone(t *testing.T) {
	t.Parallel()

	prev := -1
	for size := 0; size <= 1<<20; size += 8 {
		idx := binIndex(size)
		assert.GreaterOrEqual(t, idx, prev, "bin_index must be non-decreasing at size=%d", size)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, NumBins)
		prev = idx
	}
}

func TestBinIndexSmallRegion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, binIndex(0))
	assert.Equal(t, 1, binIndex(8))
	assert.Equal(t, 127, binIndex(SmallLargeThreshold-Alignment))
}

func TestBinIndexContinuousAtThreshold(t *testing.T) {
	t.Parallel()

	below := binIndex(SmallLargeThreshold - Alignment)
	at := binIndex(SmallLargeThreshold)
	assert.LessOrEqual(t, at-below, 1, "bin_index must not jump by more than one bin across the small/large boundary")
}

func TestBinIndexClampsAtTop(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NumBins-1, binIndex(1<<40))
}
