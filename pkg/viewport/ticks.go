package viewport

import "math"

// =============================================================================
// Ruler Tick Selection
// =============================================================================

// NiceStep picks a time step of 1, 2, or 5 times a power of ten such
// that consecutive major ticks land at least targetPx screen pixels
// apart. pixelsPerUnit is the current screen pixels per time unit, so
// the step adapts continuously to the zoom instead of being fixed per
// zoom level.
func NiceStep(pixelsPerUnit, targetPx float64) float64 {
	if pixelsPerUnit <= 0 || targetPx <= 0 {
		return 1
	}

	raw := targetPx / pixelsPerUnit
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)

	for _, m := range []float64{1, 2, 5, 10} {
		if m*base >= raw {
			return m * base
		}
	}
	return 10 * base
}

// Ticks returns the tick times in [start, end] aligned to multiples of
// step. A non-positive step yields no ticks.
func Ticks(start, end, step float64) []float64 {
	if step <= 0 || end < start {
		return nil
	}

	first := math.Ceil(start/step) * step
	n := int((end-first)/step) + 1
	if n <= 0 {
		return nil
	}

	ticks := make([]float64, 0, n)
	for t := first; t <= end+step*1e-9; t += step {
		ticks = append(ticks, t)
	}
	return ticks
}
