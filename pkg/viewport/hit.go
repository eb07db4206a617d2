package viewport

import (
	"github.com/matzehuels/tracetower/pkg/timeline"
)

// =============================================================================
// Pointer Hit Testing
// =============================================================================

// Hit is the result of a successful pointer hit test.
type Hit struct {
	LaneID string
	Row    int
	Task   *timeline.Geometry
}

// HitTest maps a screen position to the task geometry under it, or nil.
// The lookup walks screen → content coordinates, lane band from the
// vertical position, row from the pitch, then a binary search over the
// row's x-sorted tasks. Collapsed lanes never report task hits; their
// header band is still resolvable via HitLane for toggle clicks.
func HitTest(s *State, vis VisibilityMap, l *timeline.Layout, px, py float64) *Hit {
	cx, cy := s.ScreenToContent(px, py)

	lane := l.LaneAt(cy)
	if lane == nil || !vis.Visible(lane.ID) {
		return nil
	}

	row := lane.RowAt(cy, l.Config)
	if row < 0 || row >= len(lane.Rows) {
		return nil
	}

	g := lane.Rows[row].TaskAt(cx)
	if g == nil {
		return nil
	}
	return &Hit{LaneID: lane.ID, Row: row, Task: g}
}

// HitLane returns the lane whose header band contains the screen
// position, for collapse-toggle clicks. Unlike HitTest it reports
// collapsed lanes too.
func HitLane(s *State, l *timeline.Layout, px, py float64) *timeline.ThreadLayout {
	_, cy := s.ScreenToContent(px, py)
	lane := l.LaneAt(cy)
	if lane == nil {
		return nil
	}
	if cy < lane.Header.Top || cy >= lane.Header.Top+lane.Header.Height {
		return nil
	}
	return lane
}

// HitTest is the controller-bound convenience form.
func (c *Controller) HitTest(l *timeline.Layout, px, py float64) *Hit {
	return HitTest(c.State, c.Visibility, l, px, py)
}

// HitLane is the controller-bound convenience form.
func (c *Controller) HitLane(l *timeline.Layout, px, py float64) *timeline.ThreadLayout {
	return HitLane(c.State, l, px, py)
}
