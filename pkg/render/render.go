// Package render draws preprocessed timeline layouts onto an abstract
// drawing surface.
//
// # Architecture
//
// There is exactly one renderer. It walks the layout in lane ingestion
// order every frame, culls to the visible window via each row's binary
// range search, and emits primitive calls on a Surface. Hosts differ
// only in their Surface implementation: the SVG surface produces a
// static artifact, the terminal viewer supplies a cell-grid surface.
// Text width questions go through a TextMeasurer so the renderer never
// assumes a font; measurement results are memoized per exact string.
package render

// =============================================================================
// Surface - Drawing Primitives
// =============================================================================

// Surface is the primitive sink the renderer draws into. Coordinates
// are screen pixels; implementations map them to their medium.
type Surface interface {
	// FillRect fills a rectangle with a solid color.
	FillRect(x, y, w, h float64, fill string)

	// StrokeRect outlines a rectangle.
	StrokeRect(x, y, w, h float64, stroke string, strokeWidth float64)

	// Line draws a straight segment.
	Line(x1, y1, x2, y2 float64, stroke string, strokeWidth float64)

	// Text draws a string with its baseline anchored at (x, y).
	Text(x, y float64, s string, size float64, fill string)
}

// =============================================================================
// Theme
// =============================================================================

// Theme holds the renderer's color palette. Colors are CSS color
// strings; cell surfaces translate them to the nearest terminal color.
type Theme struct {
	Background    string
	BandEven      string
	BandOdd       string
	LaneLabel     string
	TaskStroke    string
	TaskLabel     string
	OverheadFill  string
	Sparkline     string
	RulerLine     string
	RulerText     string
	WindowOverlay string
}

// DefaultTheme is a dark palette matching the viewer's terminal styles.
func DefaultTheme() Theme {
	return Theme{
		Background:    "#1a1b26",
		BandEven:      "#1f2335",
		BandOdd:       "#24283b",
		LaneLabel:     "#c0caf5",
		TaskStroke:    "#15161e",
		TaskLabel:     "#1a1b26",
		OverheadFill:  "#e0af68",
		Sparkline:     "#7aa2f7",
		RulerLine:     "#3b4261",
		RulerText:     "#565f89",
		WindowOverlay: "rgba(122,162,247,0.25)",
	}
}
