package render

import (
	"github.com/matzehuels/tracetower/pkg/timeline"
	"github.com/matzehuels/tracetower/pkg/viewport"
)

// =============================================================================
// Minimap
// =============================================================================

// DefaultDragThresholdPx separates click-to-recenter from widget drags:
// releases whose total pointer displacement stays under the threshold
// count as clicks.
const DefaultDragThresholdPx = 5.0

// Gesture classifies a completed minimap pointer interaction.
type Gesture int

const (
	// GestureClick recenters the main view on the clicked time.
	GestureClick Gesture = iota
	// GestureDrag repositions the minimap widget itself.
	GestureDrag
)

// Minimap is the always-fully-zoomed-out overview widget. It renders
// independently of the main viewport state and floats at a screen
// position the user can drag.
type Minimap struct {
	// Widget rectangle in screen pixels.
	X, Y, W, H float64

	// DragThresholdPx overrides DefaultDragThresholdPx when positive.
	DragThresholdPx float64
}

// NewMinimap places a minimap of the given size at (x, y).
func NewMinimap(x, y, w, h float64) *Minimap {
	return &Minimap{X: x, Y: y, W: w, H: h}
}

// Contains reports whether a screen point is inside the widget.
func (m *Minimap) Contains(px, py float64) bool {
	return px >= m.X && px < m.X+m.W && py >= m.Y && py < m.Y+m.H
}

// Classify maps a release's total displacement since press to a
// gesture.
func (m *Minimap) Classify(dx, dy float64) Gesture {
	threshold := m.DragThresholdPx
	if threshold <= 0 {
		threshold = DefaultDragThresholdPx
	}
	if dx*dx+dy*dy <= threshold*threshold {
		return GestureClick
	}
	return GestureDrag
}

// MoveBy shifts the widget on screen (drag gesture).
func (m *Minimap) MoveBy(dx, dy float64) {
	m.X += dx
	m.Y += dy
}

// ContentXAt maps a screen x inside the widget to the content x it
// represents (click gesture).
func (m *Minimap) ContentXAt(px, contentW float64) float64 {
	if m.W <= 0 {
		return 0
	}
	return (px - m.X) / m.W * contentW
}

// Render draws the low-fidelity overview: every task as a proportional
// rectangle at least 1px wide and tall, plus a translucent overlay of
// the window currently visible in the main viewport.
func (m *Minimap) Render(surface Surface, theme Theme, l *timeline.Layout, s *viewport.State, viewW, viewH float64) {
	contentW := l.Config.WidthPx
	contentH := l.ContentHeight
	if contentW <= 0 || contentH <= 0 {
		return
	}
	scaleX := m.W / contentW
	scaleY := m.H / contentH

	surface.FillRect(m.X, m.Y, m.W, m.H, theme.Background)
	surface.StrokeRect(m.X, m.Y, m.W, m.H, theme.RulerLine, 1)

	for i := range l.Threads {
		lane := &l.Threads[i]
		for _, row := range lane.Rows {
			for j := range row {
				g := &row[j]
				w := g.Width * scaleX
				if w < 1 {
					w = 1
				}
				h := g.Height * scaleY
				if h < 1 {
					h = 1
				}
				surface.FillRect(m.X+g.X*scaleX, m.Y+g.Y*scaleY, w, h, g.Fill)
			}
		}
	}

	// Translucent window overlay: the main viewport's visible content
	// rectangle, clipped to the widget.
	left, top, right, bottom := s.VisibleWindow(viewW, viewH)
	ox := clampf(m.X+left*scaleX, m.X, m.X+m.W)
	oy := clampf(m.Y+top*scaleY, m.Y, m.Y+m.H)
	ox2 := clampf(m.X+right*scaleX, m.X, m.X+m.W)
	oy2 := clampf(m.Y+bottom*scaleY, m.Y, m.Y+m.H)
	surface.FillRect(ox, oy, ox2-ox, oy2-oy, theme.WindowOverlay)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
