package layout

import (
	"math"
	"sort"

	"github.com/matzehuels/flowgrid/pkg/geom"
)

// directionPrefRatio is the |dx|/|dy| threshold beyond which an edge
// prefers horizontal (E/W) attachment over vertical (N/S).
const directionPrefRatio = 1.35

// portCandidate is one endpoint awaiting a side slot on its node.
type portCandidate struct {
	edge    int
	isStart bool
	side    Side    // preferred side
	other   float64 // other endpoint's center along the side's run axis
}

// assignPorts selects a node side and offset for every edge endpoint.
//
// Endpoints are bucketed by the side whose outward normal best aligns
// with the vector to the opposite endpoint. Overloaded sides spill onto
// the next-best side once they cannot hold more ports at PortPadMin
// pitch. Within a side, ports sort by the opposite endpoint's position
// along the side's run axis and spread evenly inside the padded span,
// then snap to routing-grid cell centers so paths stay put across runs.
//
// Self-loops take their exit on the node's E side and their entry on the
// S side - adjacent sides, which guarantees the required separation.
func (lc *context) assignPorts() {
	byNodeSide := make(map[int]map[Side][]portCandidate)
	add := func(node int, c portCandidate) {
		if byNodeSide[node] == nil {
			byNodeSide[node] = make(map[Side][]portCandidate)
		}
		byNodeSide[node][c.side] = append(byNodeSide[node][c.side], c)
	}

	// Pass 1: preferred sides.
	prefs := make([][2]Side, len(lc.g.Edges))
	for ei, e := range lc.g.Edges {
		es := &lc.edges[ei]
		if es.internal {
			continue
		}
		if es.selfLoop {
			prefs[ei] = [2]Side{SideE, SideS}
			continue
		}
		from := lc.nodes[e.FromIdx].rect
		to := lc.nodes[e.ToIdx].rect
		startSide, endSide := edgeSides(from, to, lc.dir.Horizontal())
		prefs[ei] = [2]Side{startSide, endSide}
	}

	// Pass 2: load balancing. Candidates arrive in declaration order; a
	// saturated side spills the newcomer to its best remaining side.
	loads := make(map[int]*[4]int)
	capacityFor := func(node int, s Side) int {
		length := lc.sideLen(node, s)
		pad := lc.portPad(length)
		slots := int((length-2*pad)/lc.cfg.PortPadMin) + 1
		if slots < 1 {
			slots = 1
		}
		return slots
	}
	place := func(ei int, isStart bool, node, otherNode int, pref Side) {
		if loads[node] == nil {
			loads[node] = &[4]int{}
		}
		side := pref
		if loads[node][pref] >= capacityFor(node, pref) {
			side = lc.spillSide(node, otherNode, pref, loads[node], capacityFor)
		}
		loads[node][side]++
		other := lc.nodes[otherNode].rect.Center()
		run := other.X
		if !side.Horizontal() {
			run = other.Y
		}
		add(node, portCandidate{edge: ei, isStart: isStart, side: side, other: run})
	}
	for ei, e := range lc.g.Edges {
		if lc.edges[ei].internal {
			continue
		}
		place(ei, true, e.FromIdx, e.ToIdx, prefs[ei][0])
		place(ei, false, e.ToIdx, e.FromIdx, prefs[ei][1])
	}

	// Pass 3: offsets within each side.
	nodes := make([]int, 0, len(byNodeSide))
	for node := range byNodeSide {
		nodes = append(nodes, node)
	}
	sort.Ints(nodes)
	for _, node := range nodes {
		for side := SideN; side <= SideW; side++ {
			cands := byNodeSide[node][side]
			if len(cands) == 0 {
				continue
			}
			lc.layoutSide(node, side, cands)
		}
	}
}

// edgeSides picks the facing sides for an edge from the center-to-center
// vector, falling back to the diagram's primary axis when the vector is
// near-diagonal.
func edgeSides(from, to geom.Rect, horizontalDir bool) (start, end Side) {
	fc, tc := from.Center(), to.Center()
	dx, dy := tc.X-fc.X, tc.Y-fc.Y
	ratio := math.Abs(dx) / math.Max(math.Abs(dy), 1e-3)

	useHorizontal := horizontalDir
	if ratio > directionPrefRatio {
		useHorizontal = true
	} else if ratio < 1/directionPrefRatio {
		useHorizontal = false
	}

	if useHorizontal {
		if dx >= 0 {
			return SideE, SideW
		}
		return SideW, SideE
	}
	if dy >= 0 {
		return SideS, SideN
	}
	return SideN, SideS
}

// spillSide chooses the best side with remaining capacity when the
// preferred side is full, scoring by geometric alignment minus the
// configured bias per port already on the side.
func (lc *context) spillSide(node, otherNode int, pref Side, load *[4]int, capacity func(int, Side) int) Side {
	nc := lc.nodes[node].rect.Center()
	oc := lc.nodes[otherNode].rect.Center()
	dx, dy := oc.X-nc.X, oc.Y-nc.Y
	align := [4]float64{-dy, dx, dy, -dx} // outward normal · vector, N E S W

	best := pref
	bestScore := math.Inf(-1)
	for s := SideN; s <= SideW; s++ {
		if load[s] >= capacity(node, s) {
			continue
		}
		score := align[s] - lc.cfg.PortSideBias*float64(load[s])
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	if math.IsInf(bestScore, -1) {
		return pref // every side saturated: overload the preferred one
	}
	return best
}

func (lc *context) sideLen(node int, s Side) float64 {
	r := lc.nodes[node].rect
	if s.Horizontal() {
		return r.W
	}
	return r.H
}

// portPad is the reserved padding at each end of a side.
func (lc *context) portPad(sideLen float64) float64 {
	pad := lc.cfg.PortPadRatio * sideLen
	return math.Min(math.Max(pad, lc.cfg.PortPadMin), lc.cfg.PortPadMax)
}

// layoutSide distributes the side's ports: sort by the opposite
// endpoint's run-axis position (declaration order, then edge ID, on
// ties), spread evenly inside the padded span, snap to grid cell
// centers, and de-duplicate collisions produced by snapping.
func (lc *context) layoutSide(node int, side Side, cands []portCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].other != cands[j].other {
			return cands[i].other < cands[j].other
		}
		di := lc.g.Edges[cands[i].edge].DeclIndex
		dj := lc.g.Edges[cands[j].edge].DeclIndex
		if di != dj {
			return di < dj
		}
		return lc.g.Edges[cands[i].edge].ID < lc.g.Edges[cands[j].edge].ID
	})

	r := lc.nodes[node].rect
	length := lc.sideLen(node, side)
	pad := lc.portPad(length)
	usable := math.Max(length-2*pad, 1)
	cell := lc.gridCellSize()
	k := len(cands)

	prev := math.Inf(-1)
	for i, c := range cands {
		off := pad + usable*(float64(i)+0.5)/float64(k)

		// Snap the absolute coordinate to a cell center.
		base := r.X
		if !side.Horizontal() {
			base = r.Y
		}
		abs := base + off
		abs = math.Floor(abs/cell)*cell + cell/2
		off = abs - base
		off = math.Min(math.Max(off, 1), length-1)
		if off <= prev {
			off = math.Min(prev+cell, length-1)
		}
		prev = off

		p := Port{Node: node, Side: side, Offset: off, Pos: sidePoint(r, side, off)}
		if c.isStart {
			lc.edges[c.edge].start = p
		} else {
			lc.edges[c.edge].end = p
		}
	}
}

// sidePoint returns the boundary point at the given offset along a side.
// Offsets run +x on N and S, +y on E and W.
func sidePoint(r geom.Rect, side Side, off float64) geom.Point {
	switch side {
	case SideN:
		return geom.Point{X: r.X + off, Y: r.Y}
	case SideS:
		return geom.Point{X: r.X + off, Y: r.MaxY()}
	case SideE:
		return geom.Point{X: r.MaxX(), Y: r.Y + off}
	default:
		return geom.Point{X: r.X, Y: r.Y + off}
	}
}

// gridCellSize is the routing grid pitch: roughly a third of the node
// spacing, floored at 8 px and rounded to whole pixels so snapped ports
// land on integral coordinates.
func (lc *context) gridCellSize() float64 {
	return math.Max(8, math.Round(0.35*lc.cfg.NodeSpacing))
}
