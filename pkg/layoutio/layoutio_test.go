package layoutio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/layout"
	"github.com/matzehuels/flowgrid/pkg/textmetrics"
)

func fixture(t *testing.T) *layout.Diagram {
	t.Helper()
	g := &ir.Graph{Direction: ir.DirTD}
	for _, id := range []string{"A", "B"} {
		if err := g.AddNode(ir.Node{ID: id, Label: id}); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(ir.Edge{From: "A", To: "B", EndDec: ir.DecorArrow})
	d, err := layout.Layout(g, layout.DefaultConfig(), textmetrics.Approx{})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestWriteContainsGeometry(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(fixture(t), &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`"direction": "TD"`,
		`"id": "A"`,
		`"shape": "rect"`,
		`"points"`,
		`"side"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestRoundTripNodeRects(t *testing.T) {
	d := fixture(t)
	var buf bytes.Buffer
	if err := Write(d, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rects, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rects) != 2 {
		t.Fatalf("expected 2 node rects, got %d", len(rects))
	}
	for _, n := range d.Nodes {
		if rects[n.ID] != n.Rect {
			t.Errorf("rect %s = %v, want %v", n.ID, rects[n.ID], n.Rect)
		}
	}
}

func TestWriteStable(t *testing.T) {
	var a, b bytes.Buffer
	if err := Write(fixture(t), &a); err != nil {
		t.Fatal(err)
	}
	if err := Write(fixture(t), &b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Errorf("layout dump is not byte-stable")
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if _, err := Read(strings.NewReader("not json")); err == nil {
		t.Errorf("expected decode error")
	}
}
