package timeline

// =============================================================================
// Coordinate Mapper
// =============================================================================

// Mapper converts between trace time and horizontal content position.
// Content coordinates are fixed: zoom and pan are applied later by the
// viewport transform, so the mapper is parameterized only by the global
// time range and the fixed content width.
type Mapper struct {
	globalStart float64
	span        float64 // always > 0
	leftMargin  float64
	usableWidth float64
}

// NewMapper builds a mapper for the given range and layout constants.
// A degenerate range (globalEnd ≤ globalStart) is treated as a span of
// 1 time unit so the mapping never divides by zero.
func NewMapper(cfg Config, globalStart, globalEnd float64) Mapper {
	cfg.SetDefaults()
	span := globalEnd - globalStart
	if span <= 0 {
		span = 1
	}
	return Mapper{
		globalStart: globalStart,
		span:        span,
		leftMargin:  cfg.LeftMargin,
		usableWidth: cfg.WidthPx - cfg.LeftMargin - cfg.RightGutter,
	}
}

// TimeToX maps a trace time to a horizontal content position.
func (m Mapper) TimeToX(t float64) float64 {
	return m.leftMargin + (t-m.globalStart)/m.span*m.usableWidth
}

// XToTime is the exact inverse of TimeToX.
func (m Mapper) XToTime(x float64) float64 {
	return m.globalStart + (x-m.leftMargin)/m.usableWidth*m.span
}

// DurationToWidth maps a time span to a content-space width.
func (m Mapper) DurationToWidth(d float64) float64 {
	return d / m.span * m.usableWidth
}

// Span returns the (degeneracy-guarded) global time span.
func (m Mapper) Span() float64 { return m.span }

// UsableWidth returns the horizontal space available for task bars.
func (m Mapper) UsableWidth() float64 { return m.usableWidth }
