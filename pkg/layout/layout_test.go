package layout

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/geom"
	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/textmetrics"
)

// buildGraph assembles a graph from node IDs and "a>b" edge specs.
func buildGraph(t *testing.T, nodes []string, edges []string) *ir.Graph {
	t.Helper()
	g := &ir.Graph{Direction: ir.DirTD}
	for _, id := range nodes {
		if err := g.AddNode(ir.Node{ID: id, Label: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		var from, to string
		if _, err := fmt.Sscanf(e, "%1s>%1s", &from, &to); err != nil {
			t.Fatalf("bad edge spec %q", e)
		}
		g.AddEdge(ir.Edge{From: from, To: to, EndDec: ir.DecorArrow})
	}
	return g
}

func mustLayout(t *testing.T, g *ir.Graph, cfg Config) *Diagram {
	t.Helper()
	d, err := Layout(g, cfg, textmetrics.Approx{})
	if err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	return d
}

// checkHardInvariants asserts the end-to-end guarantees from the layout
// contract: spaced node rectangles, obstacle-free paths (unless flagged
// forced), on-boundary endpoints, subgraph containment, and in-bounds
// labels.
func checkHardInvariants(t *testing.T, d *Diagram, cfg Config) {
	t.Helper()

	half := cfg.NodeSpacing/2 - geom.Eps
	for i := range d.Nodes {
		for j := i + 1; j < len(d.Nodes); j++ {
			if d.Nodes[i].Rect.Expand(half).Intersects(d.Nodes[j].Rect.Expand(half)) {
				t.Errorf("nodes %s and %s violate spacing", d.Nodes[i].ID, d.Nodes[j].ID)
			}
		}
	}

	nodeIdx := make(map[string]int)
	for i, n := range d.Nodes {
		nodeIdx[n.ID] = i
	}
	for _, e := range d.Edges {
		if len(e.Points) < 2 {
			t.Errorf("edge %s has no path", e.ID)
			continue
		}
		from := d.Nodes[nodeIdx[e.From]].Rect
		to := d.Nodes[nodeIdx[e.To]].Rect
		if !from.OnBoundary(e.Points[0]) {
			t.Errorf("edge %s start %v not on %s boundary %v", e.ID, e.Points[0], e.From, from)
		}
		if !to.OnBoundary(e.Points[len(e.Points)-1]) {
			t.Errorf("edge %s end %v not on %s boundary %v", e.ID, e.Points[len(e.Points)-1], e.To, to)
		}
		if e.Forced {
			continue
		}
		for i := 0; i+1 < len(e.Points); i++ {
			seg := geom.Segment{A: e.Points[i], B: e.Points[i+1]}
			for ni, n := range d.Nodes {
				if ni == nodeIdx[e.From] || ni == nodeIdx[e.To] {
					continue
				}
				if seg.CrossesInterior(n.Rect) {
					t.Errorf("edge %s segment %v-%v crosses node %s", e.ID, seg.A, seg.B, n.ID)
				}
			}
		}
	}

	for _, e := range d.Edges {
		if e.LabelBox != nil && !d.Bounds.ContainsRect(*e.LabelBox) {
			t.Errorf("edge %s label %v out of bounds %v", e.ID, *e.LabelBox, d.Bounds)
		}
	}
}

// checkContainment asserts every subgraph box contains its transitive
// members, using the input graph for membership.
func checkContainment(t *testing.T, g *ir.Graph, d *Diagram) {
	t.Helper()
	for si := range g.Subgraphs {
		for ni := range g.Nodes {
			member := false
			for _, a := range g.Ancestry(ni) {
				if a == si {
					member = true
				}
			}
			if !member {
				continue
			}
			if !d.Subgraphs[si].Rect.ContainsRect(d.Nodes[ni].Rect) {
				t.Errorf("subgraph %s does not contain %s: %v vs %v",
					g.Subgraphs[si].ID, g.Nodes[ni].ID, d.Subgraphs[si].Rect, d.Nodes[ni].Rect)
			}
		}
	}
}

func TestSingleNode(t *testing.T) {
	g := buildGraph(t, []string{"A"}, nil)
	d := mustLayout(t, g, DefaultConfig())

	if len(d.Nodes) != 1 || len(d.Edges) != 0 {
		t.Fatalf("unexpected diagram shape: %d nodes, %d edges", len(d.Nodes), len(d.Edges))
	}
	r := d.Nodes[0].Rect
	if r.X != 0 || r.Y != 0 {
		t.Errorf("single node should sit at the origin, got %v", r)
	}
	if r.W <= 0 || r.H <= 0 {
		t.Errorf("node has degenerate size: %v", r)
	}
}

func TestTwoNodesOneEdge(t *testing.T) {
	for _, dir := range []ir.Direction{ir.DirTD, ir.DirLR} {
		t.Run(dir.String(), func(t *testing.T) {
			g := buildGraph(t, []string{"A", "B"}, []string{"A>B"})
			cfg := DefaultConfig()
			cfg.Direction = dir
			d := mustLayout(t, g, cfg)
			checkHardInvariants(t, d, cfg)

			e := d.Edges[0]
			if len(e.Points) != 2 {
				t.Errorf("expected a straight edge, got %d points: %v", len(e.Points), e.Points)
			}
			a, b := d.Nodes[0].Rect, d.Nodes[1].Rect
			if dir == ir.DirLR && a.MaxX() >= b.X {
				t.Errorf("LR: A %v should sit left of B %v", a, b)
			}
			if dir == ir.DirTD && a.MaxY() >= b.Y {
				t.Errorf("TD: A %v should sit above B %v", a, b)
			}
		})
	}
}

func TestFanOut(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C", "D"},
		[]string{"A>B", "A>C", "A>D"})
	cfg := DefaultConfig()
	cfg.Direction = ir.DirLR
	d := mustLayout(t, g, cfg)
	checkHardInvariants(t, d, cfg)

	for _, e := range d.Edges {
		if e.Start.Side != SideE {
			t.Errorf("edge %s should leave A on the E side, got %s", e.ID, e.Start.Side)
		}
	}
	// All fan-out targets share a layer: equal x extent in LR.
	bx := d.Nodes[1].Rect.X
	for _, n := range d.Nodes[2:] {
		if n.Rect.X != bx {
			t.Errorf("fan-out targets should share a layer, %s at x=%g want %g", n.ID, n.Rect.X, bx)
		}
	}
	if s := Score(d, DefaultWeights()); s.Crossings != 0 {
		t.Errorf("fan-out should have 0 crossings, got %g", s.Crossings)
	}
	// Ports on A's E side must be distinct.
	offsets := map[float64]bool{}
	for _, e := range d.Edges {
		if offsets[e.Start.Offset] {
			t.Errorf("duplicate port offset %g on A", e.Start.Offset)
		}
		offsets[e.Start.Offset] = true
	}
}

func TestCycleReversal(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C"},
		[]string{"A>B", "B>C", "C>A"})
	cfg := DefaultConfig()
	d := mustLayout(t, g, cfg)
	checkHardInvariants(t, d, cfg)

	reversed := 0
	for _, e := range d.Edges {
		if e.Reversed {
			reversed++
			if e.From != "C" || e.To != "A" {
				t.Errorf("expected C>A to be the back-edge, got %s>%s", e.From, e.To)
			}
		}
	}
	if reversed != 1 {
		t.Errorf("expected exactly one reversed edge, got %d", reversed)
	}
}

func TestSubgraphContainment(t *testing.T) {
	g := &ir.Graph{Direction: ir.DirTD}
	for _, id := range []string{"A", "B", "C"} {
		if err := g.AddNode(ir.Node{ID: id, Label: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddSubgraph(ir.Subgraph{ID: "S", Label: "S", Children: []string{"A", "B"}}); err != nil {
		t.Fatal(err)
	}
	g.AddEdge(ir.Edge{From: "A", To: "B"})
	g.AddEdge(ir.Edge{From: "C", To: "A"})

	cfg := DefaultConfig()
	d := mustLayout(t, g, cfg)
	checkHardInvariants(t, d, cfg)
	checkContainment(t, g, d)

	// The C>A edge must terminate on A's boundary inside S.
	var ca RoutedEdge
	for _, e := range d.Edges {
		if e.From == "C" && e.To == "A" {
			ca = e
		}
	}
	end := ca.Points[len(ca.Points)-1]
	if !d.Subgraphs[0].Rect.Contains(end) {
		t.Errorf("C>A endpoint %v should lie within S %v", end, d.Subgraphs[0].Rect)
	}
}

func TestSelfLoop(t *testing.T) {
	g := buildGraph(t, []string{"A"}, []string{"A>A"})
	cfg := DefaultConfig()
	d := mustLayout(t, g, cfg)

	e := d.Edges[0]
	if len(e.Points) != 5 {
		t.Fatalf("self-loop should have 4 segments (5 points), got %d: %v", len(e.Points), e.Points)
	}
	r := d.Nodes[0].Rect
	if !r.OnBoundary(e.Points[0]) || !r.OnBoundary(e.Points[4]) {
		t.Errorf("self-loop ports must lie on A's boundary")
	}
	for i := 0; i+1 < len(e.Points); i++ {
		seg := geom.Segment{A: e.Points[i], B: e.Points[i+1]}
		if seg.CrossesInterior(r) {
			t.Errorf("self-loop segment %v-%v crosses A's interior", seg.A, seg.B)
		}
	}
}

func TestChainWrapping(t *testing.T) {
	var nodes []string
	for i := 0; i < 50; i++ {
		nodes = append(nodes, fmt.Sprintf("n%02d", i))
	}
	g := &ir.Graph{Direction: ir.DirLR}
	for _, id := range nodes {
		if err := g.AddNode(ir.Node{ID: id, Label: id}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i+1 < 50; i++ {
		g.AddEdge(ir.Edge{From: nodes[i], To: nodes[i+1]})
	}

	cfg := DefaultConfig()
	cfg.Direction = ir.DirLR
	d := mustLayout(t, g, cfg)

	aspect := d.Bounds.W / d.Bounds.H
	if aspect > cfg.WrapAspect*1.5 {
		t.Errorf("wrapped chain aspect %.1f exceeds bound %.1f", aspect, cfg.WrapAspect*1.5)
	}
	// Wrapping means more than one distinct row of nodes.
	rows := map[float64]bool{}
	for _, n := range d.Nodes {
		rows[n.Rect.Y] = true
	}
	if len(rows) < 2 {
		t.Errorf("50-node chain should wrap into multiple rows")
	}
}

func TestDisconnectedComponents(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C", "D"},
		[]string{"A>B", "C>D"})
	cfg := DefaultConfig()
	d := mustLayout(t, g, cfg)
	checkHardInvariants(t, d, cfg)

	// Components must be separated by at least the component gap along
	// the cross axis.
	ab := d.Nodes[0].Rect.Union(d.Nodes[1].Rect)
	cd := d.Nodes[2].Rect.Union(d.Nodes[3].Rect)
	gap := cd.X - ab.MaxX()
	if gap < cfg.NodeSpacing-geom.Eps {
		t.Errorf("component gap %.1f below node spacing %.1f", gap, cfg.NodeSpacing)
	}
}

func TestDeterminism(t *testing.T) {
	build := func() *ir.Graph {
		return buildGraph(t,
			[]string{"A", "B", "C", "D", "E", "F"},
			[]string{"A>B", "A>C", "B>D", "C>D", "D>E", "E>F", "F>B"})
	}
	cfg := DefaultConfig()
	first := Fingerprint(mustLayout(t, build(), cfg))
	for i := 0; i < 5; i++ {
		if fp := Fingerprint(mustLayout(t, build(), cfg)); fp != first {
			t.Fatalf("run %d produced different fingerprint:\n%s\n%s", i, first, fp)
		}
	}
}

func TestStabilityHintIdempotence(t *testing.T) {
	g1 := buildGraph(t, []string{"A", "B", "C", "D"},
		[]string{"A>B", "A>C", "B>D", "C>D"})
	cfg := DefaultConfig()
	d1 := mustLayout(t, g1, cfg)

	g2 := buildGraph(t, []string{"A", "B", "C", "D"},
		[]string{"A>B", "A>C", "B>D", "C>D"})
	cfg.Hints = d1.Hints()
	d2 := mustLayout(t, g2, cfg)

	if Fingerprint(d1) != Fingerprint(d2) {
		t.Errorf("re-layout with stability hints changed the diagram")
	}
	if rep := Diff(d1, d2); rep.Total != 0 {
		t.Errorf("expected zero displacement, got %g", rep.Total)
	}
}

func TestDirectionMirror(t *testing.T) {
	build := func(dir ir.Direction) *Diagram {
		g := buildGraph(t, []string{"A", "B", "C"},
			[]string{"A>B", "B>C"})
		cfg := DefaultConfig()
		cfg.Direction = dir
		return mustLayout(t, g, cfg)
	}
	td := build(ir.DirTD)
	bt := build(ir.DirBT)

	// Relative layer order flips: in TD, A is above C; in BT, below.
	if td.Nodes[0].Rect.Y >= td.Nodes[2].Rect.Y {
		t.Errorf("TD: A should be above C")
	}
	if bt.Nodes[0].Rect.Y <= bt.Nodes[2].Rect.Y {
		t.Errorf("BT: A should be below C")
	}

	lr := func(dir ir.Direction) *Diagram {
		g := buildGraph(t, []string{"A", "B", "C"}, []string{"A>B", "B>C"})
		cfg := DefaultConfig()
		cfg.Direction = dir
		return mustLayout(t, g, cfg)
	}
	l, r := lr(ir.DirLR), lr(ir.DirRL)
	if l.Nodes[0].Rect.X >= l.Nodes[2].Rect.X {
		t.Errorf("LR: A should be left of C")
	}
	if r.Nodes[0].Rect.X <= r.Nodes[2].Rect.X {
		t.Errorf("RL: A should be right of C")
	}
}

func TestDirectionOverrideSubgraph(t *testing.T) {
	g := &ir.Graph{Direction: ir.DirTD}
	for _, id := range []string{"A", "X", "Y", "Z", "B"} {
		if err := g.AddNode(ir.Node{ID: id, Label: id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddSubgraph(ir.Subgraph{
		ID: "S", Label: "S", Direction: ir.DirLR,
		Children: []string{"X", "Y", "Z"},
	}); err != nil {
		t.Fatal(err)
	}
	g.AddEdge(ir.Edge{From: "A", To: "X"})
	g.AddEdge(ir.Edge{From: "X", To: "Y"})
	g.AddEdge(ir.Edge{From: "Y", To: "Z"})
	g.AddEdge(ir.Edge{From: "Z", To: "B"})

	cfg := DefaultConfig()
	d := mustLayout(t, g, cfg)
	checkContainment(t, g, d)

	// Inside S the chain flows horizontally: X, Y, Z share a row.
	x, y, z := d.Nodes[1].Rect, d.Nodes[2].Rect, d.Nodes[3].Rect
	if x.Y != y.Y || y.Y != z.Y {
		t.Errorf("LR subgraph members should share a row: %v %v %v", x, y, z)
	}
	if !(x.X < y.X && y.X < z.X) {
		t.Errorf("LR subgraph members should advance left to right: %v %v %v", x, y, z)
	}
	// Outside, the TD flow holds.
	if d.Nodes[0].Rect.MaxY() > x.Y {
		t.Errorf("A should sit above the subgraph")
	}
}

func TestRandomDAGs(t *testing.T) {
	for seed := int64(1); seed <= 6; seed++ {
		t.Run(fmt.Sprintf("seed%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			n := 6 + rng.Intn(8)
			g := &ir.Graph{Direction: ir.DirTD}
			ids := make([]string, n)
			for i := 0; i < n; i++ {
				ids[i] = fmt.Sprintf("n%d", i)
				if err := g.AddNode(ir.Node{ID: ids[i], Label: ids[i]}); err != nil {
					t.Fatal(err)
				}
			}
			edges := n + rng.Intn(n)
			for i := 0; i < edges; i++ {
				a := rng.Intn(n)
				b := rng.Intn(n)
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a // forward edges keep the graph acyclic
				}
				g.AddEdge(ir.Edge{From: ids[a], To: ids[b]})
			}

			cfg := DefaultConfig()
			if seed%2 == 0 {
				cfg.Direction = ir.DirLR
			}
			if seed%3 == 0 {
				cfg.NodeSpacing = 40
				cfg.ComponentGap = 40
			}
			d := mustLayout(t, g, cfg)
			checkHardInvariants(t, d, cfg)

			// Determinism under the same seed-built graph.
			g2 := &ir.Graph{Direction: ir.DirTD}
			for _, id := range ids {
				_ = g2.AddNode(ir.Node{ID: id, Label: id})
			}
			for _, e := range g.Edges {
				g2.AddEdge(ir.Edge{From: e.From, To: e.To})
			}
			if Fingerprint(d) != Fingerprint(mustLayout(t, g2, cfg)) {
				t.Errorf("fingerprint mismatch on repeated layout")
			}
		})
	}
}

func TestInvalidInput(t *testing.T) {
	g := &ir.Graph{}
	if err := g.AddNode(ir.Node{ID: "A"}); err != nil {
		t.Fatal(err)
	}
	g.AddEdge(ir.Edge{From: "A", To: "missing"})
	if _, err := Layout(g, DefaultConfig(), textmetrics.Approx{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero spacing", func(c *Config) { c.NodeSpacing = 0 }},
		{"zero passes", func(c *Config) { c.OrderPasses = 0 }},
		{"ratio out of range", func(c *Config) { c.PortPadRatio = 1.5 }},
		{"bad pad clamp", func(c *Config) { c.PortPadMax = c.PortPadMin - 1 }},
		{"bad wrap aspect", func(c *Config) { c.WrapAspect = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, []string{"A"}, nil)
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := Layout(g, cfg, textmetrics.Approx{}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
		})
	}
}
