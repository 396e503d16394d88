package svg

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/layout"
	"github.com/matzehuels/flowgrid/pkg/textmetrics"
	"github.com/matzehuels/flowgrid/pkg/theme"
)

func renderFixture(t *testing.T) []byte {
	t.Helper()
	g := &ir.Graph{Direction: ir.DirTD}
	for _, id := range []string{"A", "B"} {
		if err := g.AddNode(ir.Node{ID: id, Label: id}); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(ir.Edge{From: "A", To: "B", Label: "go", EndDec: ir.DecorArrow})
	d, err := layout.Layout(g, layout.DefaultConfig(), textmetrics.Approx{})
	if err != nil {
		t.Fatal(err)
	}
	return Render(d)
}

func TestRenderStructure(t *testing.T) {
	out := string(renderFixture(t))
	for _, want := range []string{
		"<svg xmlns=\"http://www.w3.org/2000/svg\"",
		"marker id=\"arrow\"",
		"<rect",
		"<path d=",
		">A</text>",
		">B</text>",
		">go</text>",
		"</svg>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	a := renderFixture(t)
	b := renderFixture(t)
	if !bytes.Equal(a, b) {
		t.Errorf("SVG output is not byte-stable")
	}
}

func TestRenderEscapesLabels(t *testing.T) {
	g := &ir.Graph{}
	if err := g.AddNode(ir.Node{ID: "A", Label: "a < b & c"}); err != nil {
		t.Fatal(err)
	}
	d, err := layout.Layout(g, layout.DefaultConfig(), textmetrics.Approx{})
	if err != nil {
		t.Fatal(err)
	}
	out := string(Render(d))
	if strings.Contains(out, "a < b & c") {
		t.Errorf("label should be XML-escaped")
	}
	if !strings.Contains(out, "a &lt; b &amp; c") {
		t.Errorf("escaped label missing from output:\n%s", out)
	}
}

func TestRenderThemeColors(t *testing.T) {
	g := &ir.Graph{}
	if err := g.AddNode(ir.Node{ID: "A"}); err != nil {
		t.Fatal(err)
	}
	d, err := layout.Layout(g, layout.DefaultConfig(), textmetrics.Approx{})
	if err != nil {
		t.Fatal(err)
	}
	modern := theme.Modern()
	out := string(Render(d, WithTheme(modern)))
	if !strings.Contains(out, modern.PrimaryColor) {
		t.Errorf("modern theme fill missing")
	}
}

func TestRenderShapes(t *testing.T) {
	g := &ir.Graph{}
	shapes := []ir.Shape{ir.ShapeDiamond, ir.ShapeCircle, ir.ShapeHexagon}
	ids := []string{"d", "c", "h"}
	for i, id := range ids {
		if err := g.AddNode(ir.Node{ID: id, Label: id, Shape: shapes[i]}); err != nil {
			t.Fatal(err)
		}
	}
	d, err := layout.Layout(g, layout.DefaultConfig(), textmetrics.Approx{})
	if err != nil {
		t.Fatal(err)
	}
	out := string(Render(d))
	if !strings.Contains(out, "<polygon") {
		t.Errorf("diamond/hexagon should emit polygons")
	}
	if !strings.Contains(out, "<circle") {
		t.Errorf("circle shape should emit a circle element")
	}
}
