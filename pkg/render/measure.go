package render

import "unicode/utf8"

// =============================================================================
// Text Measurement
// =============================================================================

// TextMeasurer answers how many screen pixels a string occupies at a
// font size. The renderer treats measurement as potentially expensive
// (a cell surface counts runes, a browser-grade surface rasterizes), so
// callers are expected to go through a MemoMeasurer.
type TextMeasurer interface {
	Width(s string, size float64) float64
}

// GlyphMeasurer estimates widths from a fixed glyph aspect ratio. It is
// the default measurer: exact enough for monospace hosts and for the
// rough character-budget estimate that gates the precise elision path.
type GlyphMeasurer struct {
	// WidthFactor is the average glyph width as a fraction of the font
	// size. 0.6 approximates common proportional fonts; a monospace
	// cell surface uses 1.0 with size meaning cell count.
	WidthFactor float64
}

// NewGlyphMeasurer returns a measurer with the default aspect ratio.
func NewGlyphMeasurer() *GlyphMeasurer {
	return &GlyphMeasurer{WidthFactor: 0.6}
}

// Width implements TextMeasurer.
func (g *GlyphMeasurer) Width(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * g.WidthFactor * size
}

// =============================================================================
// Memoizing Wrapper
// =============================================================================

type measureKey struct {
	s    string
	size float64
}

// MemoMeasurer caches measurement results keyed by the exact string and
// size. Labels repeat heavily across frames (the same task names appear
// at the same zoom until the user zooms again), so the cache converts
// repeated ground-truth measurement into a map lookup.
//
// Not safe for concurrent use; the renderer runs on a single goroutine.
type MemoMeasurer struct {
	inner TextMeasurer
	cache map[measureKey]float64

	hits, misses int
}

// NewMemoMeasurer wraps a measurer with a memo cache.
func NewMemoMeasurer(inner TextMeasurer) *MemoMeasurer {
	return &MemoMeasurer{
		inner: inner,
		cache: make(map[measureKey]float64),
	}
}

// Width implements TextMeasurer.
func (m *MemoMeasurer) Width(s string, size float64) float64 {
	k := measureKey{s: s, size: size}
	if w, ok := m.cache[k]; ok {
		m.hits++
		return w
	}
	w := m.inner.Width(s, size)
	m.cache[k] = w
	m.misses++
	return w
}

// Stats returns cache hit/miss counters for observability.
func (m *MemoMeasurer) Stats() (hits, misses int) {
	return m.hits, m.misses
}

// Reset drops the cache, for use when the host's font metrics change.
func (m *MemoMeasurer) Reset() {
	m.cache = make(map[measureKey]float64)
	m.hits, m.misses = 0, 0
}
