// Package viewport implements the interaction math for the timeline
// viewer: viewport state, anchored zoom, per-axis pan clamping, lane
// visibility, pointer hit testing, and ruler tick selection.
//
// # Architecture
//
// The package is pure math over explicit state. A State is owned by
// exactly one Controller and passed by reference to whoever renders; no
// package-level mutable state exists. The content coordinate space is
// fixed by the preprocessed layout; screen space is derived from it via
//
//	screen = content*scale + pan
//
// so all interaction reduces to mutating (scale, panX, panY) under the
// clamping rules below.
package viewport

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMinScale and DefaultMaxScale bound the zoom range.
	DefaultMinScale = 0.05
	DefaultMaxScale = 20.0

	// DefaultTickSpacingPx is the target pixel distance between major
	// ruler ticks. The time step adapts to the zoom so the on-screen
	// spacing stays close to this.
	DefaultTickSpacingPx = 100.0
)

// State is the current zoom/pan of the viewer. It is mutated only by
// the Controller and read by the renderer and minimap.
type State struct {
	Scale float64 `json:"scale"`
	PanX  float64 `json:"pan_x"`
	PanY  float64 `json:"pan_y"`
}

// NewState returns a State at identity scale.
func NewState() *State {
	return &State{Scale: 1}
}

// ContentToScreen maps a content coordinate to screen space.
func (s *State) ContentToScreen(cx, cy float64) (float64, float64) {
	return cx*s.Scale + s.PanX, cy*s.Scale + s.PanY
}

// ScreenToContent maps a screen coordinate back to content space.
func (s *State) ScreenToContent(px, py float64) (float64, float64) {
	return (px - s.PanX) / s.Scale, (py - s.PanY) / s.Scale
}

// VisibleWindow returns the content-space rectangle currently shown in
// a viewport of the given pixel size.
func (s *State) VisibleWindow(viewW, viewH float64) (left, top, right, bottom float64) {
	left, top = s.ScreenToContent(0, 0)
	right, bottom = s.ScreenToContent(viewW, viewH)
	return left, top, right, bottom
}

// =============================================================================
// Limits - Pan Clamping
// =============================================================================

// Limits is the valid pan range at the current scale and viewport size.
// When scaled content exceeds the viewport on an axis the range keeps
// content edges pinned to the viewport edges; when content is smaller
// the range collapses to the single centering value.
type Limits struct {
	PanXMin, PanXMax float64
	PanYMin, PanYMax float64
}

// ComputeLimits derives pan limits for the given content size, viewport
// size, and scale.
func ComputeLimits(contentW, contentH, viewW, viewH, scale float64) Limits {
	return Limits{
		PanXMin: axisMin(contentW, viewW, scale),
		PanXMax: axisMax(contentW, viewW, scale),
		PanYMin: axisMin(contentH, viewH, scale),
		PanYMax: axisMax(contentH, viewH, scale),
	}
}

func axisMin(content, view, scale float64) float64 {
	scaled := content * scale
	if scaled >= view {
		return view - scaled
	}
	return (view - scaled) / 2
}

func axisMax(content, view, scale float64) float64 {
	scaled := content * scale
	if scaled >= view {
		return 0
	}
	return (view - scaled) / 2
}

// Clamp forces the state's pan into the limits.
func (s *State) Clamp(lim Limits) {
	s.PanX = clamp(s.PanX, lim.PanXMin, lim.PanXMax)
	s.PanY = clamp(s.PanY, lim.PanYMin, lim.PanYMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// =============================================================================
// Anchored Zoom
// =============================================================================

// ZoomAt multiplies the scale by factor while keeping the content point
// under the screen position (px, py) fixed. The scale is clamped to
// [minScale, maxScale] before the pan is recomputed, so the anchor
// invariant holds at the effective scale even when the request saturates.
func (s *State) ZoomAt(factor, px, py, minScale, maxScale float64) {
	cx, cy := s.ScreenToContent(px, py)

	s.Scale = clamp(s.Scale*factor, minScale, maxScale)

	// Reposition so the anchor content point maps back to (px, py).
	s.PanX = px - cx*s.Scale
	s.PanY = py - cy*s.Scale
}

// Fit resets the state so the whole content fits the viewport, centered
// on both axes. The resulting scale is clamped to the zoom bounds.
func (s *State) Fit(contentW, contentH, viewW, viewH, minScale, maxScale float64) {
	if contentW <= 0 || contentH <= 0 || viewW <= 0 || viewH <= 0 {
		s.Scale, s.PanX, s.PanY = 1, 0, 0
		return
	}
	scale := viewW / contentW
	if v := viewH / contentH; v < scale {
		scale = v
	}
	s.Scale = clamp(scale, minScale, maxScale)
	s.PanX = (viewW - contentW*s.Scale) / 2
	s.PanY = (viewH - contentH*s.Scale) / 2
}
