// Package png rasterizes a laid-out diagram directly with a 2D canvas.
//
// Unlike SVG, raster output needs a concrete font; the renderer loads
// the theme's first resolvable font family through go-findfont and draws
// with it. Shapes degrade gracefully: outlines the canvas cannot express
// exactly (cylinders) are approximated with rounded rectangles.
package png

import (
	"bytes"
	"image/png"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/fogleman/gg"

	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/layout"
	"github.com/matzehuels/flowgrid/pkg/theme"
)

// Options configures PNG rendering.
type Options struct {
	// Scale multiplies the diagram resolution; 2 produces a 2x image.
	Scale float64
	// Theme supplies colors and the font; nil uses the default theme.
	Theme *theme.Theme
	// Padding is the canvas border around the content in diagram pixels.
	Padding float64
}

// Render rasterizes the diagram to PNG bytes.
func Render(d *layout.Diagram, opts Options) ([]byte, error) {
	if opts.Scale <= 0 {
		opts.Scale = 2
	}
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.Padding <= 0 {
		opts.Padding = 8
	}
	t := opts.Theme

	w := int((d.Bounds.W + 2*opts.Padding) * opts.Scale)
	h := int((d.Bounds.H + 2*opts.Padding) * opts.Scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dc := gg.NewContext(w, h)
	dc.Scale(opts.Scale, opts.Scale)
	dc.Translate(opts.Padding-d.Bounds.X, opts.Padding-d.Bounds.Y)

	dc.SetHexColor(hexOr(t.Background, "#FFFFFF"))
	dc.Clear()

	if path := findFontFile(t.FontFamily); path != "" {
		// Best effort: fall back to gg's built-in face on failure.
		_ = dc.LoadFontFace(path, t.FontSize)
	}

	for _, s := range d.Subgraphs {
		st := t.SubgraphStyle(s.Style)
		dc.DrawRoundedRectangle(s.Rect.X, s.Rect.Y, s.Rect.W, s.Rect.H, 4)
		dc.SetHexColor(hexOr(st.Fill, "#FFFFDE"))
		dc.FillPreserve()
		dc.SetHexColor(hexOr(st.Stroke, "#AAAA33"))
		dc.SetLineWidth(st.StrokeWidth)
		dc.Stroke()
		dc.SetHexColor(hexOr(st.TextColor, "#333333"))
		dc.DrawStringAnchored(s.Label, s.Rect.X+s.Rect.W/2, s.Rect.Y+s.TitleH*0.55, 0.5, 0.5)
	}

	for _, e := range d.Edges {
		if len(e.Points) < 2 {
			continue
		}
		dc.SetHexColor(hexOr(t.LineColor, "#333333"))
		width := 1.5
		switch e.Style {
		case ir.LineThick:
			width = 3
		case ir.LineDotted:
			dc.SetDash(3, 3)
		}
		dc.SetLineWidth(width)
		dc.MoveTo(e.Points[0].X, e.Points[0].Y)
		for _, p := range e.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
		dc.SetDash()

		if e.EndDec == ir.DecorArrow {
			drawArrowhead(dc, e)
		}
		if e.LabelBox != nil && e.Label != "" {
			lb := *e.LabelBox
			dc.SetHexColor(hexOr(t.EdgeLabelBg, "#E8E8E8"))
			dc.DrawRectangle(lb.X, lb.Y, lb.W, lb.H)
			dc.Fill()
			dc.SetHexColor(hexOr(t.PrimaryTextColor, "#333333"))
			dc.DrawStringAnchored(e.Label, lb.X+lb.W/2, lb.Y+lb.H/2, 0.5, 0.5)
		}
	}

	for _, n := range d.Nodes {
		st := t.NodeStyle(n.Style)
		drawShape(dc, n)
		dc.SetHexColor(hexOr(st.Fill, "#ECECFF"))
		dc.FillPreserve()
		dc.SetHexColor(hexOr(st.Stroke, "#9370DB"))
		dc.SetLineWidth(st.StrokeWidth)
		dc.Stroke()

		label := n.Label
		if label == "" {
			label = n.ID
		}
		dc.SetHexColor(hexOr(st.TextColor, "#333333"))
		lines := strings.Split(label, "\n")
		lineH := t.FontSize * 1.35
		startY := n.Rect.Y + n.Rect.H/2 - lineH*float64(len(lines)-1)/2
		for i, line := range lines {
			dc.DrawStringAnchored(line, n.Rect.X+n.Rect.W/2, startY+float64(i)*lineH, 0.5, 0.5)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawShape(dc *gg.Context, n layout.NodeBox) {
	b := n.Rect
	switch n.Shape {
	case ir.ShapeRound, ir.ShapeCylinder, ir.ShapeSubroutine:
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 6)
	case ir.ShapeStadium:
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, b.H/2)
	case ir.ShapeCircle:
		dc.DrawCircle(b.X+b.W/2, b.Y+b.H/2, b.W/2)
	case ir.ShapeDiamond:
		dc.MoveTo(b.X+b.W/2, b.Y)
		dc.LineTo(b.MaxX(), b.Y+b.H/2)
		dc.LineTo(b.X+b.W/2, b.MaxY())
		dc.LineTo(b.X, b.Y+b.H/2)
		dc.ClosePath()
	case ir.ShapeHexagon:
		in := b.W * 0.18
		dc.MoveTo(b.X+in, b.Y)
		dc.LineTo(b.MaxX()-in, b.Y)
		dc.LineTo(b.MaxX(), b.Y+b.H/2)
		dc.LineTo(b.MaxX()-in, b.MaxY())
		dc.LineTo(b.X+in, b.MaxY())
		dc.LineTo(b.X, b.Y+b.H/2)
		dc.ClosePath()
	case ir.ShapeParallelogram:
		sl := b.H * 0.45
		dc.MoveTo(b.X+sl, b.Y)
		dc.LineTo(b.MaxX(), b.Y)
		dc.LineTo(b.MaxX()-sl, b.MaxY())
		dc.LineTo(b.X, b.MaxY())
		dc.ClosePath()
	case ir.ShapeTrapezoid:
		sl := b.H * 0.45
		dc.MoveTo(b.X+sl, b.Y)
		dc.LineTo(b.MaxX()-sl, b.Y)
		dc.LineTo(b.MaxX(), b.MaxY())
		dc.LineTo(b.X, b.MaxY())
		dc.ClosePath()
	default:
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
	}
}

// drawArrowhead draws a filled triangle at the path's final point,
// oriented along the last segment.
func drawArrowhead(dc *gg.Context, e layout.RoutedEdge) {
	n := len(e.Points)
	tip := e.Points[n-1]
	prev := e.Points[n-2]
	const size = 7.0
	dx, dy := 0.0, 0.0
	switch {
	case tip.X > prev.X:
		dx = -1
	case tip.X < prev.X:
		dx = 1
	case tip.Y > prev.Y:
		dy = -1
	default:
		dy = 1
	}
	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(tip.X+dx*size-dy*size*0.5, tip.Y+dy*size-dx*size*0.5)
	dc.LineTo(tip.X+dx*size+dy*size*0.5, tip.Y+dy*size+dx*size*0.5)
	dc.ClosePath()
	dc.Fill()
}

// findFontFile resolves the first concrete family in a CSS font stack to
// a font file on the system.
func findFontFile(family string) string {
	for _, part := range strings.Split(family, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		switch strings.ToLower(name) {
		case "", "sans-serif", "serif", "monospace", "system-ui":
			continue
		}
		if path, err := findfont.Find(name + ".ttf"); err == nil {
			return path
		}
	}
	return ""
}

func hexOr(c, fallback string) string {
	if c == "" {
		return fallback
	}
	return c
}
