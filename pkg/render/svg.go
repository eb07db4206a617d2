package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/tracetower/pkg/timeline"
	"github.com/matzehuels/tracetower/pkg/viewport"
)

// =============================================================================
// SVG Surface & Artifact Rendering
// =============================================================================

// SVGOption customizes a static SVG render.
type SVGOption func(*svgConfig)

type svgConfig struct {
	theme      Theme
	visibility viewport.VisibilityMap
	width      float64
	height     float64
	fontFamily string
}

// WithTheme overrides the default palette.
func WithTheme(t Theme) SVGOption { return func(c *svgConfig) { c.theme = t } }

// WithVisibility renders some lanes collapsed to their sparklines.
func WithVisibility(v viewport.VisibilityMap) SVGOption {
	return func(c *svgConfig) { c.visibility = v }
}

// WithSize overrides the artifact pixel size. Default is the layout's
// content size at identity scale.
func WithSize(w, h float64) SVGOption {
	return func(c *svgConfig) { c.width, c.height = w, h }
}

// WithFontFamily overrides the label font family.
func WithFontFamily(f string) SVGOption { return func(c *svgConfig) { c.fontFamily = f } }

// RenderSVG renders a full layout as a standalone SVG document. The
// artifact always shows the entire trace: the state is fitted to the
// artifact size, there is no interactivity.
func RenderSVG(l *timeline.Layout, opts ...SVGOption) []byte {
	c := svgConfig{
		theme:      DefaultTheme(),
		visibility: viewport.NewVisibilityMap(),
		width:      l.Config.WidthPx,
		height:     l.ContentHeight,
		fontFamily: "ui-monospace, monospace",
	}
	for _, opt := range opts {
		opt(&c)
	}

	surface := newSVGSurface(c.fontFamily)
	state := viewport.NewState()
	state.Fit(l.Config.WidthPx, l.ContentHeight, c.width, c.height, 1e-9, 1e9)

	r := NewRenderer(surface)
	r.Theme = c.theme
	r.Render(Frame{
		Layout:     l,
		State:      state,
		Visibility: c.visibility,
		ViewW:      c.width,
		ViewH:      c.height,
	})

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		c.width, c.height, c.width, c.height)
	buf.Write(surface.buf.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// svgSurface implements Surface by appending SVG elements to a buffer.
type svgSurface struct {
	buf        bytes.Buffer
	fontFamily string
}

func newSVGSurface(fontFamily string) *svgSurface {
	return &svgSurface{fontFamily: fontFamily}
}

func (s *svgSurface) FillRect(x, y, w, h float64, fill string) {
	if w <= 0 || h <= 0 {
		return
	}
	fmt.Fprintf(&s.buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
		x, y, w, h, fill)
}

func (s *svgSurface) StrokeRect(x, y, w, h float64, stroke string, strokeWidth float64) {
	if w <= 0 || h <= 0 {
		return
	}
	fmt.Fprintf(&s.buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="%.2f"/>`+"\n",
		x, y, w, h, stroke, strokeWidth)
}

func (s *svgSurface) Line(x1, y1, x2, y2 float64, stroke string, strokeWidth float64) {
	fmt.Fprintf(&s.buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.2f"/>`+"\n",
		x1, y1, x2, y2, stroke, strokeWidth)
}

func (s *svgSurface) Text(x, y float64, text string, size float64, fill string) {
	fmt.Fprintf(&s.buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" font-family="%s" fill="%s">%s</text>`+"\n",
		x, y, size, s.fontFamily, fill, escapeXML(text))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
