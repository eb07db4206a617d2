package viewport

// =============================================================================
// Interaction Controller
// =============================================================================

// Mode is the controller's input state.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModePinching
)

func (m Mode) String() string {
	switch m {
	case ModePanning:
		return "panning"
	case ModePinching:
		return "pinching"
	default:
		return "idle"
	}
}

// Controller owns the viewport state and translates input events into
// clamped pan/zoom mutations. It runs on the host's event loop; methods
// are not safe for concurrent use and do not need to be, because the
// host processes one input event at a time.
//
// Every mutation sets an internal redraw-pending flag instead of
// painting directly; the host's frame tick calls ConsumeRedraw and
// performs at most one render pass no matter how many events arrived
// since the previous tick.
type Controller struct {
	State      *State
	Visibility VisibilityMap

	MinScale float64
	MaxScale float64

	contentW, contentH float64
	viewW, viewH       float64
	limits             Limits

	mode         Mode
	lastX, lastY float64

	// Press origin and accumulated displacement, used by hosts to
	// distinguish clicks from drags.
	pressX, pressY float64

	pinchDist float64

	redrawPending bool
}

// NewController builds a controller with default zoom bounds, identity
// state, and an all-expanded visibility map.
func NewController() *Controller {
	return &Controller{
		State:      NewState(),
		Visibility: NewVisibilityMap(),
		MinScale:   DefaultMinScale,
		MaxScale:   DefaultMaxScale,
	}
}

// Mode returns the current input mode.
func (c *Controller) Mode() Mode { return c.mode }

// Limits returns the pan limits at the current scale and sizes.
func (c *Controller) Limits() Limits { return c.limits }

// SetContent records the content-space dimensions (from the layout) and
// recomputes limits.
func (c *Controller) SetContent(w, h float64) {
	c.contentW, c.contentH = w, h
	c.recompute()
}

// Resize records the viewport pixel size, recomputes limits, and
// schedules a redraw.
func (c *Controller) Resize(w, h float64) {
	c.viewW, c.viewH = w, h
	c.recompute()
	c.requestRedraw()
}

// recompute refreshes the pan limits and clamps the state into them.
func (c *Controller) recompute() {
	c.limits = ComputeLimits(c.contentW, c.contentH, c.viewW, c.viewH, c.State.Scale)
	c.State.Clamp(c.limits)
}

// =============================================================================
// Pointer Input
// =============================================================================

// PointerDown begins a pan gesture.
func (c *Controller) PointerDown(px, py float64) {
	c.mode = ModePanning
	c.lastX, c.lastY = px, py
	c.pressX, c.pressY = px, py
}

// PointerMove pans by the pointer delta while a gesture is active.
func (c *Controller) PointerMove(px, py float64) {
	if c.mode != ModePanning {
		return
	}
	c.PanBy(px-c.lastX, py-c.lastY)
	c.lastX, c.lastY = px, py
}

// PointerUp ends the active gesture and reports the total displacement
// since PointerDown, letting the host treat small-displacement releases
// as clicks.
func (c *Controller) PointerUp(px, py float64) (dx, dy float64) {
	c.mode = ModeIdle
	return px - c.pressX, py - c.pressY
}

// PanBy shifts the view by a screen-space delta, clamped to the limits.
func (c *Controller) PanBy(dx, dy float64) {
	c.State.PanX += dx
	c.State.PanY += dy
	c.State.Clamp(c.limits)
	c.requestRedraw()
}

// Wheel applies an anchored zoom at the pointer position.
func (c *Controller) Wheel(factor, px, py float64) {
	c.ZoomAt(factor, px, py)
}

// ZoomAt zooms around a screen anchor, then reclamps the pan for the
// new scale.
func (c *Controller) ZoomAt(factor, px, py float64) {
	c.State.ZoomAt(factor, px, py, c.MinScale, c.MaxScale)
	c.recompute()
	c.requestRedraw()
}

// ZoomAtCenter zooms around the viewport center (keyboard zoom).
func (c *Controller) ZoomAtCenter(factor float64) {
	c.ZoomAt(factor, c.viewW/2, c.viewH/2)
}

// Fit rescales and recenters so the whole content is visible.
func (c *Controller) Fit() {
	c.State.Fit(c.contentW, c.contentH, c.viewW, c.viewH, c.MinScale, c.MaxScale)
	c.recompute()
	c.requestRedraw()
}

// CenterOnTime pans horizontally so the given content x sits at the
// viewport's horizontal center (minimap click-to-recenter).
func (c *Controller) CenterOnTime(contentX float64) {
	c.State.PanX = c.viewW/2 - contentX*c.State.Scale
	c.State.Clamp(c.limits)
	c.requestRedraw()
}

// =============================================================================
// Pinch Input
// =============================================================================

// PinchStart enters pinch mode with the initial finger distance.
// The terminal host never produces touch events; the pinch path exists
// for pointer-capable hosts sharing this controller.
func (c *Controller) PinchStart(dist float64) {
	if dist <= 0 {
		return
	}
	c.mode = ModePinching
	c.pinchDist = dist
}

// PinchMove zooms by the ratio of the current finger distance to the
// previous one, anchored at the gesture midpoint.
func (c *Controller) PinchMove(dist, midX, midY float64) {
	if c.mode != ModePinching || dist <= 0 || c.pinchDist <= 0 {
		return
	}
	c.ZoomAt(dist/c.pinchDist, midX, midY)
	c.pinchDist = dist
}

// PinchEnd returns to idle.
func (c *Controller) PinchEnd() {
	c.mode = ModeIdle
	c.pinchDist = 0
}

// =============================================================================
// Lane Visibility
// =============================================================================

// ToggleLane flips one lane's collapsed state and schedules a redraw.
func (c *Controller) ToggleLane(laneID string) {
	c.Visibility.Toggle(laneID)
	c.requestRedraw()
}

// CollapseAll collapses every given lane.
func (c *Controller) CollapseAll(laneIDs []string) {
	c.Visibility.CollapseAll(laneIDs)
	c.requestRedraw()
}

// ExpandAll expands every lane.
func (c *Controller) ExpandAll() {
	c.Visibility.ExpandAll()
	c.requestRedraw()
}

// =============================================================================
// Redraw Coalescing
// =============================================================================

// requestRedraw marks that at least one mutation happened since the
// last frame.
func (c *Controller) requestRedraw() {
	c.redrawPending = true
}

// ConsumeRedraw reports whether a redraw is due and clears the flag.
// Called once per frame tick by the host; any number of mutations
// between ticks collapse into a single true.
func (c *Controller) ConsumeRedraw() bool {
	due := c.redrawPending
	c.redrawPending = false
	return due
}
