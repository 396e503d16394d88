// Package ir defines the typed diagram graph the layout engine consumes.
//
// A [Graph] is produced by a diagram front-end (the flowchart parser in
// pkg/parser, or any other diagram type that lowers to nodes and edges) and
// handed to pkg/layout. All cross-entity references are resolved to dense
// integer indices by [Graph.Build], so cycles in the diagram (edge cycles,
// subgraph back-references) are plain index graphs with no ownership
// entanglement.
//
// The zero Graph is usable: add nodes, edges, and subgraphs, then call
// Build once before layout. Graph is not safe for concurrent mutation.
package ir

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with
	// the same ID already exists. Node IDs are unique across the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownEndpoint is returned by [Graph.Build] when an edge refers
	// to a node ID that does not exist.
	ErrUnknownEndpoint = errors.New("edge endpoint refers to unknown node")

	// ErrSubgraphCycle is returned by [Graph.Build] when subgraph
	// containment is cyclic. Subgraphs must form a tree.
	ErrSubgraphCycle = errors.New("cyclic subgraph containment")

	// ErrDuplicateMembership is returned by [Graph.Build] when a node is
	// claimed by more than one subgraph.
	ErrDuplicateMembership = errors.New("node belongs to more than one subgraph")
)

// Direction is the primary flow axis of a diagram or subgraph.
type Direction int

const (
	// DirInherit defers to the parent scope's direction. Only meaningful
	// on subgraphs; a graph with DirInherit lays out as DirTD.
	DirInherit Direction = iota
	DirTD                // top → down
	DirBT                // bottom → top
	DirLR                // left → right
	DirRL                // right → left
)

// String returns the Mermaid keyword for the direction.
func (d Direction) String() string {
	switch d {
	case DirTD:
		return "TD"
	case DirBT:
		return "BT"
	case DirLR:
		return "LR"
	case DirRL:
		return "RL"
	default:
		return "inherit"
	}
}

// Horizontal reports whether ranks advance along the x axis.
func (d Direction) Horizontal() bool { return d == DirLR || d == DirRL }

// Reversed reports whether ranks advance against the axis (BT, RL).
func (d Direction) Reversed() bool { return d == DirBT || d == DirRL }

// ParseDirection maps a Mermaid direction keyword to a Direction.
// Unknown keywords fall back to DirTD, matching the reference renderer.
func ParseDirection(s string) Direction {
	switch s {
	case "TD", "TB":
		return DirTD
	case "BT":
		return DirBT
	case "LR":
		return DirLR
	case "RL":
		return DirRL
	default:
		return DirTD
	}
}

// Shape is a node's outline variant. Shapes affect label padding during
// size resolution and the outline emitted by renderers. Dispatch over
// shapes is by exhaustive switch so each stage handles every variant.
type Shape int

const (
	ShapeRect Shape = iota
	ShapeRound
	ShapeStadium
	ShapeCircle
	ShapeDiamond
	ShapeHexagon
	ShapeParallelogram
	ShapeTrapezoid
	ShapeCylinder
	ShapeSubroutine
)

// String returns a stable name for the shape, used in warnings and dumps.
func (s Shape) String() string {
	switch s {
	case ShapeRect:
		return "rect"
	case ShapeRound:
		return "round"
	case ShapeStadium:
		return "stadium"
	case ShapeCircle:
		return "circle"
	case ShapeDiamond:
		return "diamond"
	case ShapeHexagon:
		return "hexagon"
	case ShapeParallelogram:
		return "parallelogram"
	case ShapeTrapezoid:
		return "trapezoid"
	case ShapeCylinder:
		return "cylinder"
	case ShapeSubroutine:
		return "subroutine"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// LineStyle is an edge's stroke variant.
type LineStyle int

const (
	LineSolid LineStyle = iota
	LineDotted
	LineThick
)

// Decoration is an endpoint marker on an edge.
type Decoration int

const (
	DecorNone Decoration = iota
	DecorArrow
	DecorCircle
	DecorCross
	DecorDiamond
)

// StyleBundle carries resolved presentation attributes for a node, edge,
// or subgraph. The layout engine treats it as opaque payload except for
// nothing at all - it flows through to the renderer untouched.
type StyleBundle struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
	TextColor   string
	Classes     []string
}

// Node is a diagram vertex. Width and Height are zero until size
// resolution assigns them; after that both are positive.
type Node struct {
	ID    string
	Label string
	Shape Shape
	Style StyleBundle

	// Parent is the owning subgraph index, or -1 for top-level nodes.
	// Set by Build from subgraph child lists.
	Parent int
}

// Edge is a directed connection between two nodes. DeclIndex is the
// position of the edge in source declaration order; it is the final
// tie-break for every deterministic ordering decision in the pipeline.
type Edge struct {
	ID        string
	From, To  string
	Label     string
	Style     LineStyle
	StartDec  Decoration
	EndDec    Decoration
	DeclIndex int

	// FromIdx and ToIdx are dense node indices resolved by Build.
	FromIdx, ToIdx int
}

// Subgraph is a named region enclosing nodes and other subgraphs.
// Children lists node IDs; SubIDs lists nested subgraph IDs. Containment
// must be acyclic; Build verifies this.
type Subgraph struct {
	ID        string
	Label     string
	Direction Direction // DirInherit follows the parent scope
	Children  []string  // member node IDs, declaration order
	SubIDs    []string  // nested subgraph IDs, declaration order
	Style     StyleBundle

	// Parent is the enclosing subgraph index, or -1. Set by Build.
	Parent int
}

// Graph is the typed diagram handed to the layout engine.
type Graph struct {
	Direction Direction
	Nodes     []Node
	Edges     []Edge
	Subgraphs []Subgraph

	nodeIdx map[string]int
	subIdx  map[string]int
	built   bool
}

// AddNode appends a node, assigning it the next dense index.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if g.nodeIdx == nil {
		g.nodeIdx = make(map[string]int)
	}
	if _, exists := g.nodeIdx[n.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
	}
	n.Parent = -1
	g.nodeIdx[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	g.built = false
	return nil
}

// AddEdge appends an edge. Endpoints are resolved lazily by Build so
// forward references parse naturally.
func (g *Graph) AddEdge(e Edge) {
	e.DeclIndex = len(g.Edges)
	if e.ID == "" {
		e.ID = fmt.Sprintf("e%d", e.DeclIndex)
	}
	g.Edges = append(g.Edges, e)
	g.built = false
}

// AddSubgraph appends a subgraph. Membership and nesting are resolved
// by Build.
func (g *Graph) AddSubgraph(s Subgraph) error {
	if s.ID == "" {
		return ErrInvalidNodeID
	}
	if g.subIdx == nil {
		g.subIdx = make(map[string]int)
	}
	if _, exists := g.subIdx[s.ID]; exists {
		return fmt.Errorf("%w: subgraph %q", ErrDuplicateNodeID, s.ID)
	}
	s.Parent = -1
	g.subIdx[s.ID] = len(g.Subgraphs)
	g.Subgraphs = append(g.Subgraphs, s)
	g.built = false
	return nil
}

// NodeIndex returns the dense index for a node ID, or -1.
func (g *Graph) NodeIndex(id string) int {
	if i, ok := g.nodeIdx[id]; ok {
		return i
	}
	return -1
}

// SubgraphIndex returns the dense index for a subgraph ID, or -1.
func (g *Graph) SubgraphIndex(id string) int {
	if i, ok := g.subIdx[id]; ok {
		return i
	}
	return -1
}

// Build resolves all symbolic references to dense indices and validates
// structural invariants: edge endpoints exist, every node belongs to at
// most one subgraph, and subgraph containment forms a tree.
//
// Build is idempotent; layout calls it defensively on entry.
func (g *Graph) Build() error {
	if g.built {
		return nil
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		from, ok := g.nodeIdx[e.From]
		if !ok {
			return fmt.Errorf("%w: edge %s source %q", ErrUnknownEndpoint, e.ID, e.From)
		}
		to, ok := g.nodeIdx[e.To]
		if !ok {
			return fmt.Errorf("%w: edge %s target %q", ErrUnknownEndpoint, e.ID, e.To)
		}
		e.FromIdx, e.ToIdx = from, to
	}

	for i := range g.Nodes {
		g.Nodes[i].Parent = -1
	}
	for i := range g.Subgraphs {
		g.Subgraphs[i].Parent = -1
	}
	for si := range g.Subgraphs {
		s := &g.Subgraphs[si]
		for _, id := range s.Children {
			ni, ok := g.nodeIdx[id]
			if !ok {
				return fmt.Errorf("%w: subgraph %s member %q", ErrUnknownEndpoint, s.ID, id)
			}
			if p := g.Nodes[ni].Parent; p != -1 && p != si {
				return fmt.Errorf("%w: node %q in %s and %s",
					ErrDuplicateMembership, id, g.Subgraphs[p].ID, s.ID)
			}
			g.Nodes[ni].Parent = si
		}
		for _, id := range s.SubIDs {
			ci, ok := g.subIdx[id]
			if !ok {
				return fmt.Errorf("%w: subgraph %s child %q", ErrUnknownEndpoint, s.ID, id)
			}
			g.Subgraphs[ci].Parent = si
		}
	}

	// Containment must be a tree: walking Parent links from any subgraph
	// must terminate.
	for si := range g.Subgraphs {
		slow, fast := si, si
		for {
			fast = g.Subgraphs[fast].Parent
			if fast == -1 {
				break
			}
			fast = g.Subgraphs[fast].Parent
			if fast == -1 {
				break
			}
			slow = g.Subgraphs[slow].Parent
			if slow == fast {
				return fmt.Errorf("%w: involving subgraph %q", ErrSubgraphCycle, g.Subgraphs[si].ID)
			}
		}
	}

	g.built = true
	return nil
}

// Ancestry returns the chain of subgraph indices from the node's immediate
// parent up to the root, outermost last. Top-level nodes return nil.
func (g *Graph) Ancestry(nodeIdx int) []int {
	var chain []int
	for p := g.Nodes[nodeIdx].Parent; p != -1; p = g.Subgraphs[p].Parent {
		chain = append(chain, p)
	}
	return chain
}

// EffectiveDirection resolves a subgraph's direction, following DirInherit
// up through its ancestors to the graph direction.
func (g *Graph) EffectiveDirection(subIdx int) Direction {
	for si := subIdx; si != -1; si = g.Subgraphs[si].Parent {
		if d := g.Subgraphs[si].Direction; d != DirInherit {
			return d
		}
	}
	if g.Direction == DirInherit {
		return DirTD
	}
	return g.Direction
}
