package dot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/flowgrid/pkg/ir"
)

func fixture(t *testing.T) *ir.Graph {
	t.Helper()
	g := &ir.Graph{Direction: ir.DirLR}
	for _, id := range []string{"a", "b", "c"} {
		if err := g.AddNode(ir.Node{ID: id, Label: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddSubgraph(ir.Subgraph{ID: "grp", Label: "Group", Children: []string{"b"}}); err != nil {
		t.Fatal(err)
	}
	g.AddEdge(ir.Edge{From: "a", To: "b"})
	g.AddEdge(ir.Edge{From: "b", To: "c", Style: ir.LineDotted})
	if err := g.Build(); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestExport(t *testing.T) {
	out := Export(fixture(t), Options{})
	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		`subgraph "cluster_grp" {`,
		`label="Group";`,
		`"a" -> "b";`,
		`"b" -> "c" [style=dashed];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}

func TestExportStable(t *testing.T) {
	a := Export(fixture(t), Options{})
	b := Export(fixture(t), Options{})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("DOT output not stable (-first +second):\n%s", diff)
	}
}

func TestExportDetailed(t *testing.T) {
	out := Export(fixture(t), Options{Detailed: true})
	if !strings.Contains(out, "shape: rect") {
		t.Errorf("detailed export should include shapes:\n%s", out)
	}
}

func TestRankdir(t *testing.T) {
	tests := []struct {
		dir  ir.Direction
		want string
	}{
		{ir.DirTD, "TB"},
		{ir.DirBT, "BT"},
		{ir.DirLR, "LR"},
		{ir.DirRL, "RL"},
	}
	for _, tt := range tests {
		if got := rankdir(tt.dir); got != tt.want {
			t.Errorf("rankdir(%v) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}
