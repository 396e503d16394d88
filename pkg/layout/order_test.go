package layout

import (
	"testing"

	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/textmetrics"
)

// stageContext runs the pipeline through rank assignment only, for tests
// that inspect internal layer state; ordering is left to the caller.
func stageContext(t *testing.T, g *ir.Graph, cfg Config) *context {
	t.Helper()
	if err := g.Build(); err != nil {
		t.Fatal(err)
	}
	lc := newContext(g, cfg, textmetrics.Approx{})
	lc.resolveSizes()
	if err := lc.layoutClusters(); err != nil {
		t.Fatal(err)
	}
	lc.buildUnits()
	lc.assignRanks()
	return lc
}

func TestCountLayerCrossings(t *testing.T) {
	// Two parallel edges: no crossing. Swapped lower order: one.
	g := &ir.Graph{}
	for _, id := range []string{"a", "b", "x", "y"} {
		if err := g.AddNode(ir.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(ir.Edge{From: "a", To: "x"})
	g.AddEdge(ir.Edge{From: "b", To: "y"})

	lc := stageContext(t, g, DefaultConfig())
	upper := []int{0, 1} // a, b
	lower := []int{2, 3} // x, y

	if c := lc.countLayerCrossings(upper, lower); c != 0 {
		t.Errorf("parallel edges: got %d crossings, want 0", c)
	}
	if c := lc.countLayerCrossings(upper, []int{3, 2}); c != 1 {
		t.Errorf("swapped targets: got %d crossings, want 1", c)
	}
}

func TestCountLayerCrossingsComplete(t *testing.T) {
	// K2,2 has exactly one crossing in any ordering.
	g := &ir.Graph{}
	for _, id := range []string{"a", "b", "x", "y"} {
		if err := g.AddNode(ir.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, from := range []string{"a", "b"} {
		for _, to := range []string{"x", "y"} {
			g.AddEdge(ir.Edge{From: from, To: to})
		}
	}
	lc := stageContext(t, g, DefaultConfig())
	if c := lc.countLayerCrossings([]int{0, 1}, []int{2, 3}); c != 1 {
		t.Errorf("K2,2: got %d crossings, want 1", c)
	}
}

func TestOrderingRemovesCrossing(t *testing.T) {
	// a>y and b>x would cross in declaration order; after layer building
	// (which groups by component) and ordering, no crossing may remain.
	g := &ir.Graph{}
	for _, id := range []string{"a", "b", "x", "y"} {
		if err := g.AddNode(ir.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(ir.Edge{From: "a", To: "y"})
	g.AddEdge(ir.Edge{From: "b", To: "x"})

	lc := stageContext(t, g, DefaultConfig())
	lc.orderLayers()
	if c := lc.totalCrossings(lc.layers); c != 0 {
		t.Errorf("orderer left %d crossings, want 0", c)
	}
}

func TestRankAssignment(t *testing.T) {
	g := &ir.Graph{}
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := g.AddNode(ir.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	// Diamond a>{b,c}>d plus a shortcut a>d: longest path wins.
	g.AddEdge(ir.Edge{From: "a", To: "b"})
	g.AddEdge(ir.Edge{From: "a", To: "c"})
	g.AddEdge(ir.Edge{From: "b", To: "d"})
	g.AddEdge(ir.Edge{From: "c", To: "d"})
	g.AddEdge(ir.Edge{From: "a", To: "d"})

	lc := stageContext(t, g, DefaultConfig())
	want := []int{0, 1, 1, 2}
	for ui, w := range want {
		if lc.units[ui].rank != w {
			t.Errorf("unit %d rank = %d, want %d", ui, lc.units[ui].rank, w)
		}
	}
}

func TestBackEdgeMarking(t *testing.T) {
	g := &ir.Graph{}
	for _, id := range []string{"a", "b"} {
		if err := g.AddNode(ir.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(ir.Edge{From: "a", To: "b"})
	g.AddEdge(ir.Edge{From: "b", To: "a"})

	lc := stageContext(t, g, DefaultConfig())
	if lc.edges[0].reversed {
		t.Errorf("first-declared edge should keep its direction")
	}
	if !lc.edges[1].reversed {
		t.Errorf("second edge of the 2-cycle should be reversed")
	}
	if lc.units[0].rank != 0 || lc.units[1].rank != 1 {
		t.Errorf("ranks = %d,%d, want 0,1", lc.units[0].rank, lc.units[1].rank)
	}
}
