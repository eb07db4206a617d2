package timeline

import (
	"math"

	"github.com/matzehuels/tracetower/pkg/trace"
)

// =============================================================================
// Density Summarizer
// =============================================================================

// shortSpanBins is the cutoff between exact and endpoint-only binning.
// Tasks covering at most this many bins increment every covered bin;
// longer tasks mark only their two endpoint bins.
const shortSpanBins = 4

// Bins builds a fixed-resolution activity histogram for a lane, used as
// the collapsed-lane sparkline. The histogram covers [globalStart,
// globalEnd) in binCount equal-width buckets.
//
// Short tasks (span ≤ 4 bins) increment every bin in their inclusive
// range, capturing brief precise bursts. Longer tasks increment only
// their two endpoint bins, which keeps the cost per task O(1) instead of
// O(binCount) while still marking where the task begins and ends. The
// result is a visual density cue, not a time-accurate occupancy
// integral.
func Bins(tasks []trace.Task, globalStart, globalEnd float64, binCount int) []int {
	if binCount < 1 {
		binCount = 1
	}
	bins := make([]int, binCount)

	span := globalEnd - globalStart
	if span <= 0 {
		span = 1
	}
	binWidth := span / float64(binCount)

	for _, t := range tasks {
		lo := clampBin(int(math.Floor((t.Start-globalStart)/binWidth)), binCount)
		hi := clampBin(int(math.Floor((t.End-globalStart)/binWidth)), binCount)
		if hi < lo {
			lo, hi = hi, lo
		}

		if hi-lo+1 <= shortSpanBins {
			for b := lo; b <= hi; b++ {
				bins[b]++
			}
		} else {
			bins[lo]++
			bins[hi]++
		}
	}

	return bins
}

// BinWidth returns the time width of one bin for the given range.
// A degenerate range is widened to a span of 1.
func BinWidth(globalStart, globalEnd float64, binCount int) float64 {
	if binCount < 1 {
		binCount = 1
	}
	span := globalEnd - globalStart
	if span <= 0 {
		span = 1
	}
	return span / float64(binCount)
}

// clampBin clamps a bin index into [0, binCount-1].
func clampBin(b, binCount int) int {
	if b < 0 {
		return 0
	}
	if b >= binCount {
		return binCount - 1
	}
	return b
}
