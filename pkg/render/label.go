package render

// =============================================================================
// Label Elision
// =============================================================================

// Ellipsis is appended to truncated labels.
const Ellipsis = "…"

// MinLabelWidthPx is the smallest on-screen task width worth labelling.
const MinLabelWidthPx = 10.0

// Elide fits a label into availPx at the given font size.
//
// The cheap path estimates a character budget from the measurer's
// average glyph width; when the whole label fits the estimate with
// headroom it is returned unmeasured. Only when the estimate says the
// label may not fit does the precise path run: a binary search over
// measured prefix widths, with the ellipsis included in each probe.
// Ground-truth measurement is the fallback, not the default.
func Elide(label string, availPx, size float64, m TextMeasurer) string {
	if label == "" || availPx <= 0 {
		return ""
	}

	runes := []rune(label)

	avg := averageGlyphWidth(size, m)
	// Headroom of one glyph absorbs estimate error for strings of wide
	// characters.
	budget := int(availPx/avg) - 1
	if len(runes) < budget {
		return label
	}

	// Precise check: the full label may still fit.
	if m.Width(label, size) <= availPx {
		return label
	}

	// Largest prefix such that prefix+ellipsis fits. Width grows with
	// prefix length, so binary search applies.
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.Width(string(runes[:mid])+Ellipsis, size) <= availPx {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	if lo == 0 {
		return ""
	}
	return string(runes[:lo]) + Ellipsis
}

// averageGlyphWidth samples the measurer once for the budget estimate.
func averageGlyphWidth(size float64, m TextMeasurer) float64 {
	const sample = "abcdefghijklmnopqrstuvwxyz0123456789"
	w := m.Width(sample, size) / float64(len(sample))
	if w <= 0 {
		return 1
	}
	return w
}
