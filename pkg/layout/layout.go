// Package layout is the flowchart layout and orthogonal edge routing
// engine. It turns a typed [ir.Graph] into absolute node rectangles, port
// attachments, and orthogonal polyline paths.
//
// # Pipeline
//
// A single call to [Layout] runs seven stages in order, each completing
// before the next begins and each owning mutation of its outputs:
//
//  1. Size resolution - node and subgraph header extents from text metrics
//  2. Rank assignment - layering with back-edge reversal
//  3. Ordering - crossing minimization inside each layer
//  4. Coordinate assignment - absolute positions, wrapping, packing
//  5. Port assignment - a side and offset per edge endpoint
//  6. Routing - obstacle-aware orthogonal paths on an occupancy grid
//  7. Normalization - label placement, clamping, invariant re-checks
//
// # Determinism
//
// The pipeline is pure over (graph, config, metric provider version).
// Every ordering decision ties off on declaration order and then node or
// edge ID; no map iteration order or pointer identity is ever observable.
// [Fingerprint] hashes a diagram so callers can assert bit-stability.
//
// # Concurrency
//
// A render is single-threaded; stages never suspend and there are no
// cancellation points. Concurrent renders are safe as long as each call
// owns its graph - the only shared state is the text-metric cache, which
// is concurrent-safe by construction.
package layout

import (
	"fmt"

	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/geom"
	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/textmetrics"
)

// Side identifies a node boundary side. The constant order N < E < S < W
// is also the router's direction tie-break order.
type Side int

const (
	SideN Side = iota
	SideE
	SideS
	SideW
)

// String returns the compass letter for the side.
func (s Side) String() string { return [...]string{"N", "E", "S", "W"}[s] }

// Horizontal reports whether the side runs along the x axis (N or S).
func (s Side) Horizontal() bool { return s == SideN || s == SideS }

// Opposite returns the facing side.
func (s Side) Opposite() Side { return (s + 2) % 4 }

// Port is an edge attachment point on a node boundary.
type Port struct {
	Node   int // dense node index
	Side   Side
	Offset float64 // distance from the side's min corner, strictly inside
	Pos    geom.Point
}

// NodeBox is a laid-out node.
type NodeBox struct {
	ID    string
	Label string
	Shape ir.Shape
	Style ir.StyleBundle
	Rect  geom.Rect
}

// SubgraphBox is a laid-out subgraph region including its title band.
type SubgraphBox struct {
	ID        string
	Label     string
	Style     ir.StyleBundle
	Rect      geom.Rect
	TitleH    float64
	Direction ir.Direction
}

// RoutedEdge is a laid-out edge: an orthogonal polyline from the source
// port to the target port, in source→target order even when the edge was
// reversed for layering.
type RoutedEdge struct {
	ID       string
	From, To string
	Points   []geom.Point
	Start    Port
	End      Port
	Label    string
	LabelBox *geom.Rect
	Style    ir.LineStyle
	StartDec ir.Decoration
	EndDec   ir.Decoration
	Reversed bool // back-edge: layered against its drawn direction
	Forced   bool // router emitted a path that crosses obstacles
}

// Warning is a non-fatal diagnostic accumulated during layout.
type Warning struct {
	Code    errors.Code
	Subject string // originating node or edge ID
	Message string
}

// Diagram is the flat, read-only result handed to renderers. Slices are
// index-aligned with the input graph's dense node, edge, and subgraph
// order.
type Diagram struct {
	Direction ir.Direction
	Nodes     []NodeBox
	Subgraphs []SubgraphBox
	Edges     []RoutedEdge
	Bounds    geom.Rect
	Warnings  []Warning

	// MetricsVersion is the text provider version the diagram was
	// measured with; it participates in Fingerprint.
	MetricsVersion string
}

// Layout runs the full pipeline. It is a total function over valid
// inputs: it fails only with INVALID_INPUT (malformed graph),
// INVALID_CONFIG (invalid config) or UNSUPPORTED. Router fallbacks and unknown shapes surface as warnings on
// the returned diagram, and a post-pass invariant failure returns
// INVARIANT_VIOLATION.
func Layout(g *ir.Graph, cfg Config, tm textmetrics.Provider) (*Diagram, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := g.Build(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "graph validation failed")
	}
	if tm == nil || cfg.FastText {
		tm = textmetrics.Approx{}
	}

	dir := cfg.Direction
	if dir == ir.DirInherit {
		dir = ir.DirTD
	}
	cfg.Direction = dir

	lc := newContext(g, cfg, tm)

	lc.resolveSizes()
	if err := lc.layoutClusters(); err != nil {
		return nil, err
	}
	lc.buildUnits()
	lc.assignRanks()
	lc.orderLayers()
	lc.assignCoords()
	lc.placeClusters()
	lc.resolveSubgraphBoxes()
	lc.assignPorts()
	lc.route()
	if err := lc.normalize(); err != nil {
		return nil, err
	}

	return lc.diagram(), nil
}

// nodeState is the per-node scratch threaded through the stages. Extents
// and positions live in final pixel space; rank/order/cross positions are
// staged in abstract flow space until assignCoords publishes Rect.
type nodeState struct {
	w, h float64
	rect geom.Rect

	unit int // owning layout unit
}

type subState struct {
	titleH float64
	box    geom.Rect
	placed bool
}

type edgeState struct {
	reversed bool
	selfLoop bool
	internal bool // handled inside a rotated cluster's recursive layout

	labelW, labelH float64

	start, end Port
	points     []geom.Point
	labelBox   *geom.Rect
	forced     bool
}

// unit is a rank/order/coordinate participant: a plain node or a rotated
// subgraph cluster collapsed to a single box.
type unit struct {
	node    int // dense node index, or -1 for clusters
	cluster int // index into ctx.clusters, or -1

	pw, cw float64 // primary (flow) and cross extents

	rank  int
	order int

	cross, primary float64 // abstract top-left position
	comp           int
}

// cluster is a subgraph with a direction override, laid out recursively
// and embedded as a single unit.
type cluster struct {
	sub     int // subgraph index in the parent graph
	diagram *Diagram
	nodeMap []int // recursive dense index -> parent dense index
	edgeMap []int // recursive edge index -> parent edge index
	subMap  []int // recursive subgraph index -> parent subgraph index
	unit    int
}

type unitEdge struct {
	from, to int // unit indices
	edge     int // original edge index, or -1 for synthetic cohesion edges
	reversed bool
}

type context struct {
	g   *ir.Graph
	cfg Config
	tm  textmetrics.Provider
	dir ir.Direction

	nodes []nodeState
	subs  []subState
	edges []edgeState

	clusters  []cluster
	clusterOf []int // subgraph index -> cluster index or -1

	units        []unit
	unitEdges    []unitEdge
	layers       [][]int // rank -> unit indices in cross order
	totalPrimary float64 // canvas extent along the flow axis

	grid *occupancyGrid

	warnings []Warning
}

func newContext(g *ir.Graph, cfg Config, tm textmetrics.Provider) *context {
	lc := &context{
		g:         g,
		cfg:       cfg,
		tm:        tm,
		dir:       cfg.Direction,
		nodes:     make([]nodeState, len(g.Nodes)),
		subs:      make([]subState, len(g.Subgraphs)),
		edges:     make([]edgeState, len(g.Edges)),
		clusterOf: make([]int, len(g.Subgraphs)),
	}
	for i := range lc.clusterOf {
		lc.clusterOf[i] = -1
	}
	for i := range lc.nodes {
		lc.nodes[i].unit = -1
	}
	for i, e := range g.Edges {
		lc.edges[i].selfLoop = e.FromIdx == e.ToIdx
	}
	return lc
}

func (lc *context) warnf(code errors.Code, subject, format string, args ...any) {
	lc.warnings = append(lc.warnings, Warning{
		Code:    code,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	})
}

// diagram assembles the final read-only structure.
func (lc *context) diagram() *Diagram {
	d := &Diagram{
		Direction:      lc.dir,
		Nodes:          make([]NodeBox, len(lc.g.Nodes)),
		Subgraphs:      make([]SubgraphBox, len(lc.g.Subgraphs)),
		Edges:          make([]RoutedEdge, len(lc.g.Edges)),
		Warnings:       lc.warnings,
		MetricsVersion: lc.tm.Version(),
	}
	for i, n := range lc.g.Nodes {
		d.Nodes[i] = NodeBox{
			ID:    n.ID,
			Label: n.Label,
			Shape: n.Shape,
			Style: n.Style,
			Rect:  lc.nodes[i].rect.Round(),
		}
	}
	for i, s := range lc.g.Subgraphs {
		d.Subgraphs[i] = SubgraphBox{
			ID:        s.ID,
			Label:     s.Label,
			Style:     s.Style,
			Rect:      lc.subs[i].box.Round(),
			TitleH:    lc.subs[i].titleH,
			Direction: lc.g.EffectiveDirection(i),
		}
	}
	for i, e := range lc.g.Edges {
		es := &lc.edges[i]
		pts := make([]geom.Point, len(es.points))
		for j, p := range es.points {
			pts[j] = geom.RoundPoint(p)
		}
		d.Edges[i] = RoutedEdge{
			ID:       e.ID,
			From:     e.From,
			To:       e.To,
			Points:   pts,
			Start:    es.start,
			End:      es.end,
			Label:    e.Label,
			LabelBox: es.labelBox,
			Style:    e.Style,
			StartDec: e.StartDec,
			EndDec:   e.EndDec,
			Reversed: es.reversed,
			Forced:   es.forced,
		}
	}
	d.Bounds = lc.bounds(d)
	return d
}

// bounds computes the diagram bounding box over nodes, subgraph boxes,
// edge paths, and label boxes.
func (lc *context) bounds(d *Diagram) geom.Rect {
	var b geom.Rect
	first := true
	acc := func(r geom.Rect) {
		if first {
			b, first = r, false
			return
		}
		b = b.Union(r)
	}
	for _, n := range d.Nodes {
		acc(n.Rect)
	}
	for _, s := range d.Subgraphs {
		acc(s.Rect)
	}
	for _, e := range d.Edges {
		for _, p := range e.Points {
			acc(geom.Rect{X: p.X, Y: p.Y})
		}
		if e.LabelBox != nil {
			acc(*e.LabelBox)
		}
	}
	return b.Round()
}
