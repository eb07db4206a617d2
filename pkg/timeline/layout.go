package timeline

import (
	"sort"

	"github.com/matzehuels/tracetower/pkg/trace"
)

// =============================================================================
// Layout - Preprocessed Geometry
// =============================================================================

// Layout is the complete preprocessing output for one trace document:
// absolute content-space geometry for every task, lane headers, density
// histograms, and per-row x-sorted indexes for range search.
//
// A Layout is rebuilt wholesale whenever the document or the Config
// changes; it is never partially patched. The viewer and renderer treat
// it as read-only.
type Layout struct {
	Config      Config  `json:"config" bson:"config"`
	GlobalStart float64 `json:"global_start" bson:"global_start"`
	GlobalEnd   float64 `json:"global_end" bson:"global_end"`

	Threads       []ThreadLayout `json:"threads" bson:"threads"`
	TotalRows     int            `json:"total_rows" bson:"total_rows"`
	ContentHeight float64        `json:"content_height" bson:"content_height"`
}

// ThreadLayout is the per-lane preprocessing output.
type ThreadLayout struct {
	ID     string     `json:"id" bson:"id"`
	Header LaneHeader `json:"header" bson:"header"`

	// Assigned records the packer's row assignment per original task
	// index. Rows holds the derived geometry grouped by row, each row
	// sorted by content-space x ascending.
	Assigned []RowAssignment `json:"assigned" bson:"assigned"`
	RowCount int             `json:"rows_count" bson:"rows_count"`
	Rows     []Row           `json:"rows" bson:"rows"`

	// RowsTop is the content y of row 0 (directly under the header).
	RowsTop float64 `json:"rows_top" bson:"rows_top"`

	// Density histogram for the collapsed-lane sparkline.
	Bins       []int   `json:"density_bins" bson:"density_bins"`
	BinCount   int     `json:"bin_count" bson:"bin_count"`
	BinWidthUs float64 `json:"bin_width_us" bson:"bin_width_us"`
	BinStartUs float64 `json:"bin_start_us" bson:"bin_start_us"`
}

// LaneHeader describes the header band above a lane's rows.
type LaneHeader struct {
	ID        string  `json:"id" bson:"id"`
	Top       float64 `json:"header_top" bson:"header_top"`
	Height    float64 `json:"header_height" bson:"header_height"`
	LaneIndex int     `json:"lane_index" bson:"lane_index"`

	// BandIndex alternates 0/1 so the renderer can tint lanes in
	// alternating background bands.
	BandIndex int `json:"alternating_band_index" bson:"alternating_band_index"`

	// MiniOverviewY is the lane's vertical position in the minimap,
	// normalized to [0, 1) of total content height.
	MiniOverviewY float64 `json:"mini_overview_y" bson:"mini_overview_y"`
}

// Row is one packed row of task geometry, sorted by X ascending.
type Row []Geometry

// Geometry is the absolute content-space rectangle for one task.
type Geometry struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	Fill  string `json:"fill" bson:"fill"`
	Label string `json:"label,omitempty" bson:"label,omitempty"`

	// Original task time range and identity, kept for tooltips.
	Start     float64 `json:"start" bson:"start"`
	End       float64 `json:"end" bson:"end"`
	Row       int     `json:"row" bson:"row"`
	TaskIndex int     `json:"task_index" bson:"task_index"`

	Overheads []Fragment `json:"overheads,omitempty" bson:"overheads,omitempty"`
}

// Fragment is a content-space rectangle for one overhead interval,
// drawn inset next to its parent task.
type Fragment struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Start  float64 `json:"start" bson:"start"`
	End    float64 `json:"end" bson:"end"`
	Label  string  `json:"label,omitempty" bson:"label,omitempty"`
}

// =============================================================================
// Range Search
// =============================================================================

// FirstVisible returns the index of the first task in the row whose
// right edge reaches windowLeft, or len(r) when every task lies left of
// the window. Rows are x-sorted, so the caller can scan forward from the
// returned index and stop at the first task whose X exceeds windowRight.
func (r Row) FirstVisible(windowLeft float64) int {
	return sort.Search(len(r), func(i int) bool {
		return r[i].X+r[i].Width >= windowLeft
	})
}

// TaskAt returns the task geometry containing content x, or nil.
// Touching right edges count as inside so minimum-width tasks stay
// clickable.
func (r Row) TaskAt(x float64) *Geometry {
	i := r.FirstVisible(x)
	if i >= len(r) {
		return nil
	}
	if g := &r[i]; g.X <= x && x <= g.X+g.Width {
		return g
	}
	return nil
}

// =============================================================================
// Layout Builder
// =============================================================================

// Build runs the full preprocessing pass: packing, density binning, and
// geometry construction. Lanes are processed in document (ingestion)
// order, so re-running Build on the same input is deterministic.
func Build(doc *trace.Document, cfg Config) (*Layout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	globalStart, globalEnd := resolveRange(doc, cfg)
	mapper := NewMapper(cfg, globalStart, globalEnd)
	binWidth := BinWidth(globalStart, globalEnd, cfg.BinCount)

	l := &Layout{
		Config:      cfg,
		GlobalStart: globalStart,
		GlobalEnd:   globalEnd,
		Threads:     make([]ThreadLayout, 0, len(doc.Threads)),
	}

	cursor := 0.0
	for i, th := range doc.Threads {
		if i > 0 {
			cursor += cfg.TrackSpacing
		}

		assigned, rowCount := Pack(th.Tasks)

		tl := ThreadLayout{
			ID: th.ID,
			Header: LaneHeader{
				ID:        th.ID,
				Top:       cursor,
				Height:    cfg.HeaderHeight,
				LaneIndex: i,
				BandIndex: i % 2,
			},
			Assigned:   assigned,
			RowCount:   rowCount,
			Rows:       make([]Row, rowCount),
			RowsTop:    cursor + cfg.HeaderHeight,
			Bins:       Bins(th.Tasks, globalStart, globalEnd, cfg.BinCount),
			BinCount:   cfg.BinCount,
			BinWidthUs: binWidth,
			BinStartUs: globalStart,
		}

		for _, a := range assigned {
			g := buildGeometry(th.Tasks[a.TaskIndex], a, tl.RowsTop, mapper, cfg)
			tl.Rows[a.Row] = append(tl.Rows[a.Row], g)
		}
		for r := range tl.Rows {
			row := tl.Rows[r]
			sort.SliceStable(row, func(a, b int) bool { return row[a].X < row[b].X })
		}

		cursor = tl.RowsTop + float64(rowCount)*cfg.RowPitch()
		l.TotalRows += rowCount
		l.Threads = append(l.Threads, tl)
	}

	l.ContentHeight = cursor
	if l.ContentHeight <= 0 {
		l.ContentHeight = cfg.HeaderHeight
	}
	for i := range l.Threads {
		l.Threads[i].Header.MiniOverviewY = l.Threads[i].Header.Top / l.ContentHeight
	}

	return l, nil
}

// resolveRange applies config overrides on top of the document range.
// A degenerate override span is widened to 1 time unit.
func resolveRange(doc *trace.Document, cfg Config) (float64, float64) {
	start, end := doc.Range()
	if cfg.GlobalStart != nil {
		start = *cfg.GlobalStart
	}
	if cfg.GlobalEnd != nil {
		end = *cfg.GlobalEnd
	}
	if end <= start {
		end = start + 1
	}
	return start, end
}

// buildGeometry converts one packed task into content-space geometry,
// including its overhead fragments.
func buildGeometry(t trace.Task, a RowAssignment, rowsTop float64, m Mapper, cfg Config) Geometry {
	x := m.TimeToX(t.Start)
	w := m.TimeToX(t.End) - x
	if w < MinTaskWidth {
		w = MinTaskWidth
	}
	y := rowsTop + float64(a.Row)*cfg.RowPitch()

	g := Geometry{
		X:         x,
		Y:         y,
		Width:     w,
		Height:    cfg.RowHeight,
		Fill:      t.FillColor(a.TaskIndex),
		Label:     t.Args,
		Start:     t.Start,
		End:       t.End,
		Row:       a.Row,
		TaskIndex: a.TaskIndex,
	}
	g.Overheads = buildFragments(t, y, m, cfg)
	return g
}

// buildFragments positions explicit overhead entries and synthesizes a
// fragment from overhead_duration_us when no identical-range entry
// exists. Fragments start at the parent's end (or at their own declared
// start when it differs) and are drawn inset at 60% of the row height.
func buildFragments(t trace.Task, taskY float64, m Mapper, cfg Config) []Fragment {
	height := cfg.RowHeight * 0.6
	y := taskY + (cfg.RowHeight-height)/2

	overheads := t.Overheads
	if t.OverheadDurationUs != nil && *t.OverheadDurationUs > 0 {
		synthStart := t.End
		synthEnd := t.End + *t.OverheadDurationUs
		if !hasExactRange(overheads, synthStart, synthEnd) {
			overheads = append(append([]trace.Overhead(nil), overheads...), trace.Overhead{
				Start: synthStart,
				End:   synthEnd,
				Args:  "overhead",
			})
		}
	}

	if len(overheads) == 0 {
		return nil
	}

	frags := make([]Fragment, 0, len(overheads))
	for _, ov := range overheads {
		start := ov.Start
		if start < t.End {
			// Fragments never begin before their parent ends.
			start = t.End
		}
		x := m.TimeToX(start)
		w := m.DurationToWidth(ov.Duration())
		if w < 1 {
			w = 1
		}
		frags = append(frags, Fragment{
			X:      x,
			Y:      y,
			Width:  w,
			Height: height,
			Start:  start,
			End:    start + ov.Duration(),
			Label:  ov.Args,
		})
	}
	return frags
}

// hasExactRange reports whether an overhead entry with exactly this
// start/end already exists (dedup for synthesized fragments).
func hasExactRange(overheads []trace.Overhead, start, end float64) bool {
	for _, ov := range overheads {
		if ov.Start == start && ov.End == end {
			return true
		}
	}
	return false
}

// =============================================================================
// Lookup Helpers
// =============================================================================

// Thread returns the layout for the given lane id, or nil.
func (l *Layout) Thread(id string) *ThreadLayout {
	for i := range l.Threads {
		if l.Threads[i].ID == id {
			return &l.Threads[i]
		}
	}
	return nil
}

// RowAt returns the row index under content y, or -1 when y falls on
// the header band or outside the lane's rows.
func (tl *ThreadLayout) RowAt(y float64, cfg Config) int {
	if y < tl.RowsTop {
		return -1
	}
	row := int((y - tl.RowsTop) / cfg.RowPitch())
	if row < 0 || row >= tl.RowCount {
		return -1
	}
	// The pitch includes padding; y may fall in the gap below the row.
	if y > tl.RowsTop+float64(row)*cfg.RowPitch()+cfg.RowHeight {
		return -1
	}
	return row
}

// LaneAt returns the lane whose band (header plus rows) contains
// content y, or nil.
func (l *Layout) LaneAt(y float64) *ThreadLayout {
	for i := range l.Threads {
		tl := &l.Threads[i]
		bottom := tl.RowsTop + float64(tl.RowCount)*l.Config.RowPitch()
		if y >= tl.Header.Top && y < bottom {
			return tl
		}
	}
	return nil
}
