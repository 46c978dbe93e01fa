package arena

import (
	"math/bits"

	"github.com/basalt-run/talloc/internal/debug"
)

// NumBins is the fixed number of segregated free lists per arena.
const NumBins = 150

// SmallLargeThreshold is the size boundary between the two binning regimes:
// sizes below it get one bin per 8-byte step; sizes at or above it get one
// bin per power of two.
const SmallLargeThreshold = 1024

// smallBins is the number of bin indices spent on the small region: one per
// 8-byte step from 0 up to (but not including) SmallLargeThreshold.
const smallBins = SmallLargeThreshold / Alignment // 128

// largeOffset is chosen so that binIndex joins continuously at the
// small/large boundary: floor(log2(SmallLargeThreshold)) + largeOffset must
// equal smallBins. log2Floor is an ordinary function, not a constant
// expression, so this is derived once at package init and checked against
// the literal it must equal — smallBins(128) - floor(log2(1024))(10) = 118
// — rather than trusted blindly.
var largeOffset = smallBins - log2Floor(SmallLargeThreshold) // 118

func init() {
	debug.Assert(largeOffset == 118, "largeOffset drifted: got %d, want 118", largeOffset)
}

// log2Floor computes floor(log2(n)) for n > 0 using a bit scan
// (math/bits.Len), never floating-point log2+floor. Floating point log2 is
// exact at every integer only by accident of rounding, and is wrong at
// powers of two on some platforms/libm versions.
func log2Floor(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}

// binIndex maps a block's total size to a bin index in [0, NumBins): pure,
// total over positive sizes, monotone non-decreasing, clamped at the top
// end for oversized requests.
func binIndex(size int) int {
	var idx int
	switch {
	case size <= 0:
		idx = 0
	case size < SmallLargeThreshold:
		idx = size / Alignment
	default:
		idx = log2Floor(size) + largeOffset
	}
	return clampBin(idx)
}

func clampBin(idx int) int {
	switch {
	case idx < 0:
		return 0
	case idx >= NumBins:
		return NumBins - 1
	default:
		return idx
	}
}
