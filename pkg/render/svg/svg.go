// Package svg serializes a laid-out diagram to SVG.
//
// The renderer is deliberately dumb: every coordinate comes from the
// layout engine, and every color from the theme or the element's own
// style bundle. Output is byte-stable - elements are emitted in dense
// index order and floats are formatted with a fixed precision.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/flowgrid/pkg/geom"
	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/layout"
	"github.com/matzehuels/flowgrid/pkg/theme"
)

// Option configures the SVG renderer.
type Option func(*renderer)

type renderer struct {
	theme   *theme.Theme
	padding float64
}

// WithTheme sets the theme; nil falls back to the default theme.
func WithTheme(t *theme.Theme) Option {
	return func(r *renderer) {
		if t != nil {
			r.theme = t
		}
	}
}

// WithPadding sets the canvas padding around the diagram content.
func WithPadding(p float64) Option {
	return func(r *renderer) { r.padding = p }
}

// Render serializes the diagram.
func Render(d *layout.Diagram, opts ...Option) []byte {
	r := renderer{theme: theme.Default(), padding: 8}
	for _, opt := range opts {
		opt(&r)
	}

	w := d.Bounds.W + 2*r.padding
	h := d.Bounds.H + 2*r.padding
	off := geom.Point{X: r.padding - d.Bounds.X, Y: r.padding - d.Bounds.Y}

	var buf bytes.Buffer
	fmt.Fprintf(&buf,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family=%q font-size="%.0f">`+"\n",
		w, h, w, h, r.theme.FontFamily, r.theme.FontSize)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill=%q/>`+"\n", w, h, r.theme.Background)
	r.renderDefs(&buf)

	for _, s := range d.Subgraphs {
		r.renderSubgraph(&buf, s, off)
	}
	for _, e := range d.Edges {
		r.renderEdge(&buf, e, off)
	}
	for _, n := range d.Nodes {
		r.renderNode(&buf, n, off)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *renderer) renderDefs(buf *bytes.Buffer) {
	fmt.Fprintf(buf, `  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill=%q/>
    </marker>
    <marker id="circle" viewBox="0 0 10 10" refX="5" refY="5" markerWidth="7" markerHeight="7" orient="auto">
      <circle cx="5" cy="5" r="4" fill="white" stroke=%q/>
    </marker>
    <marker id="cross" viewBox="0 0 10 10" refX="5" refY="5" markerWidth="8" markerHeight="8" orient="auto">
      <path d="M 1 1 L 9 9 M 9 1 L 1 9" stroke=%q stroke-width="1.5"/>
    </marker>
    <marker id="diamond" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="9" markerHeight="9" orient="auto">
      <path d="M 0 5 L 5 1 L 10 5 L 5 9 z" fill=%q/>
    </marker>
  </defs>
`, r.theme.LineColor, r.theme.LineColor, r.theme.LineColor, r.theme.LineColor)
}

func (r *renderer) renderSubgraph(buf *bytes.Buffer, s layout.SubgraphBox, off geom.Point) {
	st := r.theme.SubgraphStyle(s.Style)
	b := s.Rect
	fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill=%q stroke=%q stroke-width="%.1f"/>`+"\n",
		b.X+off.X, b.Y+off.Y, b.W, b.H, st.Fill, st.Stroke, st.StrokeWidth)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" fill=%q>%s</text>`+"\n",
		b.X+off.X+b.W/2, b.Y+off.Y+s.TitleH*0.7, st.TextColor, escape(s.Label))
}

func (r *renderer) renderNode(buf *bytes.Buffer, n layout.NodeBox, off geom.Point) {
	st := r.theme.NodeStyle(n.Style)
	b := geom.Rect{X: n.Rect.X + off.X, Y: n.Rect.Y + off.Y, W: n.Rect.W, H: n.Rect.H}

	common := fmt.Sprintf(`fill=%q stroke=%q stroke-width="%.1f"`, st.Fill, st.Stroke, st.StrokeWidth)
	switch n.Shape {
	case ir.ShapeRound:
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" %s/>`+"\n", b.X, b.Y, b.W, b.H, common)
	case ir.ShapeStadium:
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" %s/>`+"\n", b.X, b.Y, b.W, b.H, b.H/2, common)
	case ir.ShapeCircle:
		fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" %s/>`+"\n", b.X+b.W/2, b.Y+b.H/2, b.W/2, common)
	case ir.ShapeDiamond:
		fmt.Fprintf(buf, `  <polygon points="%s" %s/>`+"\n", points(
			b.X+b.W/2, b.Y, b.MaxX(), b.Y+b.H/2, b.X+b.W/2, b.MaxY(), b.X, b.Y+b.H/2), common)
	case ir.ShapeHexagon:
		in := b.W * 0.18
		fmt.Fprintf(buf, `  <polygon points="%s" %s/>`+"\n", points(
			b.X+in, b.Y, b.MaxX()-in, b.Y, b.MaxX(), b.Y+b.H/2,
			b.MaxX()-in, b.MaxY(), b.X+in, b.MaxY(), b.X, b.Y+b.H/2), common)
	case ir.ShapeParallelogram:
		sl := b.H * 0.45
		fmt.Fprintf(buf, `  <polygon points="%s" %s/>`+"\n", points(
			b.X+sl, b.Y, b.MaxX(), b.Y, b.MaxX()-sl, b.MaxY(), b.X, b.MaxY()), common)
	case ir.ShapeTrapezoid:
		sl := b.H * 0.45
		fmt.Fprintf(buf, `  <polygon points="%s" %s/>`+"\n", points(
			b.X+sl, b.Y, b.MaxX()-sl, b.Y, b.MaxX(), b.MaxY(), b.X, b.MaxY()), common)
	case ir.ShapeCylinder:
		ry := b.H * 0.12
		fmt.Fprintf(buf, `  <path d="M %.1f %.1f a %.1f %.1f 0 0 0 %.1f 0 v %.1f a %.1f %.1f 0 0 1 -%.1f 0 z" %s/>`+"\n",
			b.X, b.Y+ry, b.W/2, ry, b.W, b.H-2*ry, b.W/2, ry, b.W, common)
		fmt.Fprintf(buf, `  <ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" %s/>`+"\n",
			b.X+b.W/2, b.Y+ry, b.W/2, ry, common)
	case ir.ShapeSubroutine:
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" %s/>`+"\n", b.X, b.Y, b.W, b.H, common)
		fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke=%q/>`+"\n", b.X+6, b.Y, b.X+6, b.MaxY(), st.Stroke)
		fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke=%q/>`+"\n", b.MaxX()-6, b.Y, b.MaxX()-6, b.MaxY(), st.Stroke)
	default:
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" %s/>`+"\n", b.X, b.Y, b.W, b.H, common)
	}

	label := n.Label
	if label == "" {
		label = n.ID
	}
	lines := strings.Split(label, "\n")
	lineH := r.theme.FontSize * 1.35
	startY := b.Y + b.H/2 - lineH*float64(len(lines)-1)/2 + r.theme.FontSize*0.35
	for i, line := range lines {
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" fill=%q>%s</text>`+"\n",
			b.X+b.W/2, startY+float64(i)*lineH, st.TextColor, escape(line))
	}
}

func (r *renderer) renderEdge(buf *bytes.Buffer, e layout.RoutedEdge, off geom.Point) {
	if len(e.Points) < 2 {
		return
	}
	var d strings.Builder
	for i, p := range e.Points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&d, "%s %.1f %.1f ", cmd, p.X+off.X, p.Y+off.Y)
	}

	dash := ""
	width := 1.5
	switch e.Style {
	case ir.LineDotted:
		dash = ` stroke-dasharray="3,3"`
	case ir.LineThick:
		width = 3
	}

	markers := ""
	if m := markerID(e.EndDec); m != "" {
		markers += fmt.Sprintf(` marker-end="url(#%s)"`, m)
	}
	if m := markerID(e.StartDec); m != "" {
		markers += fmt.Sprintf(` marker-start="url(#%s)"`, m)
	}

	fmt.Fprintf(buf, `  <path d=%q fill="none" stroke=%q stroke-width="%.1f"%s%s/>`+"\n",
		strings.TrimSpace(d.String()), r.theme.LineColor, width, dash, markers)

	if e.LabelBox != nil && e.Label != "" {
		lb := *e.LabelBox
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill=%q/>`+"\n",
			lb.X+off.X, lb.Y+off.Y, lb.W, lb.H, r.theme.EdgeLabelBg)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" fill=%q>%s</text>`+"\n",
			lb.X+off.X+lb.W/2, lb.Y+off.Y+lb.H/2+r.theme.FontSize*0.35, r.theme.PrimaryTextColor, escape(e.Label))
	}
}

func markerID(d ir.Decoration) string {
	switch d {
	case ir.DecorArrow:
		return "arrow"
	case ir.DecorCircle:
		return "circle"
	case ir.DecorCross:
		return "cross"
	case ir.DecorDiamond:
		return "diamond"
	default:
		return ""
	}
}

func points(coords ...float64) string {
	var b strings.Builder
	for i := 0; i+1 < len(coords); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", coords[i], coords[i+1])
	}
	return b.String()
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
