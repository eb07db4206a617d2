package cli

import (
	"strings"
	"testing"
)

func TestCanvasFillRect(t *testing.T) {
	c := newCellCanvas(10, 4)
	c.FillRect(2, 1, 4, 2, "#ff0000")

	for y := 0; y < 4; y++ {
		for x := 0; x < 10; x++ {
			cell := c.cells[y*c.w+x]
			inside := x >= 2 && x < 6 && y >= 1 && y < 3
			if inside && cell.bg != "#ff0000" {
				t.Errorf("cell (%d,%d) bg = %q, want fill", x, y, cell.bg)
			}
			if !inside && cell.bg == "#ff0000" {
				t.Errorf("cell (%d,%d) painted outside the rect", x, y)
			}
		}
	}
}

func TestCanvasSubCellRectStillPaints(t *testing.T) {
	c := newCellCanvas(10, 4)
	c.FillRect(3.2, 1.0, 0.4, 0.5, "#00ff00")

	if c.cells[1*c.w+3].bg != "#00ff00" {
		t.Error("sub-cell rect should paint at least one cell")
	}
}

func TestCanvasClipsOutOfBounds(t *testing.T) {
	c := newCellCanvas(5, 3)
	// Must not panic or wrap.
	c.FillRect(-2, -2, 20, 20, "#123456")
	c.Text(-5, 1, "abcdefghijkl", 1, "#ffffff")
	c.Line(2, -10, 2, 10, "#aaaaaa", 1)

	if c.cells[0].bg != "#123456" {
		t.Error("in-bounds part of oversized rect should paint")
	}
}

func TestCanvasText(t *testing.T) {
	c := newCellCanvas(10, 2)
	c.Text(1, 0, "héllo", 1, "#ffffff")

	got := []rune{c.cells[1].r, c.cells[2].r, c.cells[3].r}
	if string(got) != "hél" {
		t.Errorf("text runes = %q", string(got))
	}
	if c.cells[1].fg != "#ffffff" {
		t.Errorf("text fg = %q", c.cells[1].fg)
	}
}

func TestCanvasVerticalLine(t *testing.T) {
	c := newCellCanvas(6, 4)
	c.Line(3, 0, 3, 3, "#888888", 1)

	for y := 0; y < 4; y++ {
		if c.cells[y*c.w+3].r != '│' {
			t.Errorf("row %d missing line glyph", y)
		}
	}
}

func TestCanvasStringDimensions(t *testing.T) {
	c := newCellCanvas(8, 3)
	out := c.String()

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Errorf("String() has %d lines, want 3", len(lines))
	}
}

func TestCellMeasurerCountsRunes(t *testing.T) {
	m := cellMeasurer{}
	if w := m.Width("héllo", 11); w != 5 {
		t.Errorf("Width = %v, want 5 cells regardless of size", w)
	}
	if w := m.Width("", 1); w != 0 {
		t.Errorf("Width of empty = %v", w)
	}
}
