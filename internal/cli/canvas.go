package cli

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Cell Canvas - Terminal Surface
// =============================================================================

// cell is one terminal character with its colors.
type cell struct {
	r  rune
	fg string
	bg string
}

// cellCanvas implements render.Surface on a terminal character grid.
// One surface pixel is one cell; the renderer's float coordinates are
// truncated to cell positions. Stroke outlines are dropped because a
// one-cell border would swallow the rectangle it outlines.
type cellCanvas struct {
	w, h  int
	cells []cell

	// styles caches lipgloss styles per (fg, bg) pair; a frame reuses
	// a handful of pairs across thousands of cells.
	styles map[[2]string]lipgloss.Style
}

// newCellCanvas creates a canvas cleared to the terminal default.
func newCellCanvas(w, h int) *cellCanvas {
	c := &cellCanvas{
		w:      w,
		h:      h,
		cells:  make([]cell, w*h),
		styles: make(map[[2]string]lipgloss.Style),
	}
	for i := range c.cells {
		c.cells[i].r = ' '
	}
	return c
}

func (c *cellCanvas) set(x, y int, ch rune, fg, bg string) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	idx := y*c.w + x
	if ch != 0 {
		c.cells[idx].r = ch
	}
	if fg != "" {
		c.cells[idx].fg = fg
	}
	if bg != "" {
		c.cells[idx].bg = bg
	}
}

// FillRect paints the background color of every covered cell. Rects
// narrower or shorter than one cell still paint one, so tiny tasks stay
// visible at low zoom.
func (c *cellCanvas) FillRect(x, y, w, h float64, fill string) {
	if w <= 0 || h <= 0 {
		return
	}
	x1, y1 := int(x), int(y)
	x2, y2 := int(x+w), int(y+h)
	if x2 == x1 {
		x2 = x1 + 1
	}
	if y2 == y1 {
		y2 = y1 + 1
	}
	for cy := y1; cy < y2; cy++ {
		for cx := x1; cx < x2; cx++ {
			c.set(cx, cy, ' ', "", fill)
		}
	}
}

// StrokeRect is a no-op on the cell grid.
func (c *cellCanvas) StrokeRect(x, y, w, h float64, stroke string, strokeWidth float64) {}

// Line draws axis-aligned segments with box-drawing characters.
// Diagonals never occur in timeline frames and are ignored.
func (c *cellCanvas) Line(x1, y1, x2, y2 float64, stroke string, strokeWidth float64) {
	switch {
	case int(x1) == int(x2):
		top, bottom := int(y1), int(y2)
		if top > bottom {
			top, bottom = bottom, top
		}
		for cy := top; cy <= bottom; cy++ {
			c.set(int(x1), cy, '│', stroke, "")
		}
	case int(y1) == int(y2):
		left, right := int(x1), int(x2)
		if left > right {
			left, right = right, left
		}
		for cx := left; cx <= right; cx++ {
			c.set(cx, int(y1), '─', stroke, "")
		}
	}
}

// Text writes the string into the baseline row, clipped to the grid.
func (c *cellCanvas) Text(x, y float64, s string, size float64, fill string) {
	cx, cy := int(x), int(y)
	for _, r := range s {
		c.set(cx, cy, r, fill, "")
		cx++
	}
}

// String renders the grid to a styled terminal string, one lipgloss
// segment per run of identically colored cells.
func (c *cellCanvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		row := c.cells[y*c.w : (y+1)*c.w]
		start := 0
		for start < len(row) {
			end := start
			for end < len(row) && row[end].fg == row[start].fg && row[end].bg == row[start].bg {
				end++
			}
			var run strings.Builder
			for i := start; i < end; i++ {
				run.WriteRune(row[i].r)
			}
			b.WriteString(c.style(row[start].fg, row[start].bg).Render(run.String()))
			start = end
		}
	}
	return b.String()
}

func (c *cellCanvas) style(fg, bg string) lipgloss.Style {
	key := [2]string{fg, bg}
	if s, ok := c.styles[key]; ok {
		return s
	}
	s := lipgloss.NewStyle()
	if fg != "" {
		s = s.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		s = s.Background(lipgloss.Color(bg))
	}
	c.styles[key] = s
	return s
}

// =============================================================================
// Cell Text Measurement
// =============================================================================

// cellMeasurer measures strings in terminal cells: one rune, one cell,
// independent of font size.
type cellMeasurer struct{}

func (cellMeasurer) Width(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s))
}
