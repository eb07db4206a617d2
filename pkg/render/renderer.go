package render

import (
	"math"
	"strconv"

	"github.com/matzehuels/tracetower/pkg/timeline"
	"github.com/matzehuels/tracetower/pkg/viewport"
)

// =============================================================================
// Virtualized Renderer
// =============================================================================

// Renderer draws one frame of a layout through a Surface. The same
// renderer serves the SVG artifact path and the interactive viewer; the
// frame parameters carry everything that varies per host.
type Renderer struct {
	Surface  Surface
	Measurer TextMeasurer
	Theme    Theme

	// TickSpacingPx is the target pixel distance between ruler ticks.
	TickSpacingPx float64

	// FontSize is the label font size in surface units.
	FontSize float64
}

// NewRenderer builds a renderer with the default theme and a memoized
// glyph measurer.
func NewRenderer(s Surface) *Renderer {
	return &Renderer{
		Surface:       s,
		Measurer:      NewMemoMeasurer(NewGlyphMeasurer()),
		Theme:         DefaultTheme(),
		TickSpacingPx: viewport.DefaultTickSpacingPx,
		FontSize:      11,
	}
}

// Frame is one render pass's input.
type Frame struct {
	Layout     *timeline.Layout
	State      *viewport.State
	Visibility viewport.VisibilityMap
	ViewW      float64
	ViewH      float64
}

// Stats reports what one frame actually drew, for tests and the
// observability hooks.
type Stats struct {
	TasksDrawn     int
	FragmentsDrawn int
	LabelsDrawn    int
	LanesCollapsed int
	LanesSkipped   int
}

// Render draws one complete frame: background, lane bands, collapsed
// sparklines, visible tasks with overhead fragments and elided labels,
// and the time ruler.
func (r *Renderer) Render(f Frame) Stats {
	var st Stats

	l, s := f.Layout, f.State
	r.Surface.FillRect(0, 0, f.ViewW, f.ViewH, r.Theme.Background)

	winLeft, winTop, winRight, winBottom := s.VisibleWindow(f.ViewW, f.ViewH)
	mapper := timeline.NewMapper(l.Config, l.GlobalStart, l.GlobalEnd)

	for i := range l.Threads {
		lane := &l.Threads[i]
		laneBottom := lane.RowsTop + float64(lane.RowCount)*l.Config.RowPitch()

		// Vertical culling: lanes fully outside the window cost nothing.
		if laneBottom < winTop || lane.Header.Top > winBottom {
			st.LanesSkipped++
			continue
		}

		r.drawLaneBand(lane, laneBottom, s, f.ViewW)

		if !f.Visibility.Visible(lane.ID) {
			st.LanesCollapsed++
			r.drawSparkline(lane, mapper, s, winLeft, winRight)
			continue
		}

		for rowIdx := range lane.Rows {
			row := lane.Rows[rowIdx]
			for j := row.FirstVisible(winLeft); j < len(row); j++ {
				g := &row[j]
				if g.X > winRight {
					// Rows are x-sorted: nothing further can intersect.
					break
				}
				r.drawTask(g, s, &st)
			}
		}
	}

	r.drawRuler(l, mapper, s, f.ViewW, f.ViewH, winLeft, winRight)
	return st
}

// drawLaneBand paints the alternating background band and the lane
// label pinned to the left edge.
func (r *Renderer) drawLaneBand(lane *timeline.ThreadLayout, laneBottom float64, s *viewport.State, viewW float64) {
	_, topY := s.ContentToScreen(0, lane.Header.Top)
	_, bottomY := s.ContentToScreen(0, laneBottom)

	band := r.Theme.BandEven
	if lane.Header.BandIndex == 1 {
		band = r.Theme.BandOdd
	}
	r.Surface.FillRect(0, topY, viewW, bottomY-topY, band)

	_, headerBase := s.ContentToScreen(0, lane.Header.Top+lane.Header.Height*0.7)
	r.Surface.Text(4, headerBase, lane.ID, r.FontSize, r.Theme.LaneLabel)
}

// drawSparkline renders a collapsed lane's density histogram inside the
// header band, bars bottom-anchored and scaled to the tallest bin.
func (r *Renderer) drawSparkline(lane *timeline.ThreadLayout, m timeline.Mapper, s *viewport.State, winLeft, winRight float64) {
	maxBin := 0
	for _, b := range lane.Bins {
		if b > maxBin {
			maxBin = b
		}
	}
	if maxBin == 0 {
		return
	}

	baseline := lane.Header.Top + lane.Header.Height
	maxH := lane.Header.Height * 0.8

	for i, b := range lane.Bins {
		if b == 0 {
			continue
		}
		binStart := lane.BinStartUs + float64(i)*lane.BinWidthUs
		x0 := m.TimeToX(binStart)
		x1 := m.TimeToX(binStart + lane.BinWidthUs)
		if x1 < winLeft || x0 > winRight {
			continue
		}

		h := maxH * float64(b) / float64(maxBin)
		sx, sy := s.ContentToScreen(x0, baseline-h)
		ex, by := s.ContentToScreen(x1, baseline)
		r.Surface.FillRect(sx, sy, ex-sx, by-sy, r.Theme.Sparkline)
	}
}

// drawTask paints one task rectangle, its overhead fragments, and its
// label when enough screen width is available.
func (r *Renderer) drawTask(g *timeline.Geometry, s *viewport.State, st *Stats) {
	x, y := s.ContentToScreen(g.X, g.Y)
	w := g.Width * s.Scale
	h := g.Height * s.Scale

	r.Surface.FillRect(x, y, w, h, g.Fill)
	r.Surface.StrokeRect(x, y, w, h, r.Theme.TaskStroke, 1)
	st.TasksDrawn++

	for i := range g.Overheads {
		fr := &g.Overheads[i]
		fx, fy := s.ContentToScreen(fr.X, fr.Y)
		r.Surface.FillRect(fx, fy, fr.Width*s.Scale, fr.Height*s.Scale, r.Theme.OverheadFill)
		st.FragmentsDrawn++
	}

	if g.Label != "" && w > MinLabelWidthPx {
		avail := w - 4
		if label := Elide(g.Label, avail, r.FontSize, r.Measurer); label != "" {
			r.Surface.Text(x+2, y+h*0.7, label, r.FontSize, r.Theme.TaskLabel)
			st.LabelsDrawn++
		}
	}
}

// drawRuler draws major time ticks at a nice step chosen from the
// current pixels-per-time-unit, so tick density stays stable in screen
// space across zoom levels.
func (r *Renderer) drawRuler(l *timeline.Layout, m timeline.Mapper, s *viewport.State, viewW, viewH, winLeft, winRight float64) {
	pixelsPerUnit := s.Scale * m.UsableWidth() / m.Span()
	step := viewport.NiceStep(pixelsPerUnit, r.TickSpacingPx)

	timeLeft := m.XToTime(winLeft)
	timeRight := m.XToTime(winRight)
	if timeLeft < l.GlobalStart {
		timeLeft = l.GlobalStart
	}
	if timeRight > l.GlobalEnd {
		timeRight = l.GlobalEnd
	}

	for _, tick := range viewport.Ticks(timeLeft, timeRight, step) {
		sx, _ := s.ContentToScreen(m.TimeToX(tick), 0)
		r.Surface.Line(sx, 0, sx, viewH, r.Theme.RulerLine, 1)
		r.Surface.Text(sx+2, r.FontSize+2, FormatTick(tick, step), r.FontSize, r.Theme.RulerText)
	}
}

// FormatTick renders a tick time with just enough decimals for the
// step, so sub-unit steps do not collapse to identical labels.
func FormatTick(t, step float64) string {
	decimals := 0
	if step > 0 && step < 1 {
		decimals = int(math.Ceil(-math.Log10(step)))
	}
	return strconv.FormatFloat(t, 'f', decimals, 64) + "µs"
}
