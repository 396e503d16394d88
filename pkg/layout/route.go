package layout

import (
	"container/heap"
	"math"
	"sort"

	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/geom"
)

// A* cost model. Costs are scaled integers so accumulation order can
// never produce platform-dependent floating point drift.
const (
	costMove      = 1000
	costTurn      = 2000
	costOccupancy = 1500
)

// astarBudgetFactor bounds A* expansion at factor × grid cells before
// yielding to the heuristic fallback.
const astarBudgetFactor = 4

// route produces an orthogonal polyline for every edge on the shared
// occupancy grid.
//
// Edges are routed serially in priority order: back-edges and long edges
// (rank span ≠ 1) first, longest first; then the remainder in declaration
// order. Each routed path marks its cells with decaying occupancy weight
// so later edges prefer disjoint corridors. When A* exhausts its budget
// or the grid was capped, L/S/C-shaped heuristic candidates are tried;
// if even those cross obstacles the edge is emitted anyway and flagged
// forced-crossing.
func (lc *context) route() {
	lc.grid = lc.buildGrid()

	type job struct {
		edge int
		hard bool
		dist float64
	}
	var jobs []job
	for ei := range lc.g.Edges {
		es := &lc.edges[ei]
		if es.internal {
			continue
		}
		if es.selfLoop {
			lc.routeSelfLoop(ei)
			continue
		}
		d := math.Abs(es.start.Pos.X-es.end.Pos.X) + math.Abs(es.start.Pos.Y-es.end.Pos.Y)
		span := lc.rankSpan(ei)
		jobs = append(jobs, job{edge: ei, hard: es.reversed || span != 1, dist: d})
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].hard != jobs[j].hard {
			return jobs[i].hard
		}
		if jobs[i].hard && jobs[i].dist != jobs[j].dist {
			return jobs[i].dist > jobs[j].dist
		}
		return lc.g.Edges[jobs[i].edge].DeclIndex < lc.g.Edges[jobs[j].edge].DeclIndex
	})

	for _, j := range jobs {
		lc.routeEdge(j.edge)
	}
}

func (lc *context) rankSpan(ei int) int {
	e := lc.g.Edges[ei]
	fu := lc.nodes[e.FromIdx].unit
	tu := lc.nodes[e.ToIdx].unit
	if fu < 0 || tu < 0 || fu >= len(lc.units) || tu >= len(lc.units) {
		return 1
	}
	return lc.units[tu].rank - lc.units[fu].rank
}

// stubLen is the perpendicular exit length at each port.
func (lc *context) stubLen() float64 {
	return math.Min(math.Max(0.35*lc.cfg.NodeSpacing, 6), 22)
}

// sideNormal returns the outward unit normal of a side.
func sideNormal(s Side) geom.Point {
	switch s {
	case SideN:
		return geom.Point{Y: -1}
	case SideE:
		return geom.Point{X: 1}
	case SideS:
		return geom.Point{Y: 1}
	default:
		return geom.Point{X: -1}
	}
}

// allowedOwners is the soft-obstacle exception set for an edge: its two
// endpoint nodes plus every subgraph containing either endpoint.
func (lc *context) allowedOwners(ei int) map[int32]bool {
	e := lc.g.Edges[ei]
	allowed := map[int32]bool{
		int32(e.FromIdx): true,
		int32(e.ToIdx):   true,
	}
	for _, si := range lc.g.Ancestry(e.FromIdx) {
		allowed[int32(len(lc.nodes)+si)] = true
	}
	for _, si := range lc.g.Ancestry(e.ToIdx) {
		allowed[int32(len(lc.nodes)+si)] = true
	}
	return allowed
}

func (lc *context) routeEdge(ei int) {
	es := &lc.edges[ei]
	stub := lc.stubLen()
	startOut := es.start.Pos.Add(scale(sideNormal(es.start.Side), stub))
	endOut := es.end.Pos.Add(scale(sideNormal(es.end.Side), stub))

	if lc.grid != nil {
		if pts, cells, ok := lc.astar(ei, startOut, endOut); ok {
			full := append([]geom.Point{es.start.Pos}, pts...)
			full = append(full, es.end.Pos)
			es.points = smoothPath(orthogonalize(full))
			lc.grid.markPath(cells)
			return
		}
	}
	lc.routeHeuristic(ei, startOut, endOut)
}

func scale(p geom.Point, f float64) geom.Point { return geom.Point{X: p.X * f, Y: p.Y * f} }

// astar runs the deterministic orthogonal search between the two stub
// points. Ties break by (cost, depth, direction N<E<S<W); pointer order
// never matters.
func (lc *context) astar(ei int, from, to geom.Point) ([]geom.Point, [][2]int, bool) {
	g := lc.grid
	allowed := lc.allowedOwners(ei)

	sx, sy := g.cellAt(from)
	tx, ty := g.cellAt(to)
	if !g.inBounds(sx, sy) || !g.inBounds(tx, ty) {
		return nil, nil, false
	}

	// Moves in tie-break order N < E < S < W.
	dx := [4]int{0, 1, 0, -1}
	dy := [4]int{-1, 0, 1, 0}

	type state struct{ x, y, dir int }
	gScore := make(map[state]int)
	parent := make(map[state]state)

	h := func(x, y int) int {
		return costMove * (abs(x-tx) + abs(y-ty))
	}

	pq := &searchHeap{}
	heap.Init(pq)
	startDir := dirOf(lc.edges[ei].start.Side)
	start := state{sx, sy, startDir}
	gScore[start] = 0
	heap.Push(pq, searchItem{f: h(sx, sy), depth: 0, dir: startDir, st: [3]int{sx, sy, startDir}})

	budget := astarBudgetFactor * g.cols * g.rows
	var goal state
	found := false
	for pq.Len() > 0 && budget > 0 {
		budget--
		it := heap.Pop(pq).(searchItem)
		st := state{it.st[0], it.st[1], it.st[2]}
		gs, ok := gScore[st]
		if !ok || it.f-h(st.x, st.y) > gs {
			continue // stale frontier entry
		}
		if st.x == tx && st.y == ty {
			goal, found = st, true
			break
		}
		for d := 0; d < 4; d++ {
			if (d+2)%4 == st.dir {
				continue // no immediate reversal
			}
			nx, ny := st.x+dx[d], st.y+dy[d]
			if !g.passable(nx, ny, allowed) {
				// The target cell itself may sit inside the end node's
				// ring; passable already allows it via ownership.
				continue
			}
			cost := gs + costMove
			if d != st.dir {
				cost += costTurn
			}
			cost += int(costOccupancy * g.occupancy(nx, ny))
			ns := state{nx, ny, d}
			if old, seen := gScore[ns]; seen && old <= cost {
				continue
			}
			gScore[ns] = cost
			parent[ns] = st
			heap.Push(pq, searchItem{
				f:     cost + h(nx, ny),
				depth: it.depth + 1,
				dir:   d,
				st:    [3]int{nx, ny, d},
			})
		}
	}
	if !found {
		return nil, nil, false
	}

	var cells [][2]int
	for st := goal; ; {
		cells = append(cells, [2]int{st.x, st.y})
		p, ok := parent[st]
		if !ok {
			break
		}
		st = p
	}
	reverseCells(cells)

	pts := make([]geom.Point, 0, len(cells))
	for _, c := range cells {
		pts = append(pts, g.center(c[0], c[1]))
	}
	return pts, cells, true
}

func dirOf(s Side) int {
	switch s {
	case SideN:
		return 0
	case SideE:
		return 1
	case SideS:
		return 2
	default:
		return 3
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func reverseCells(cells [][2]int) {
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
}

// searchItem orders the A* frontier: lowest f first, then shallowest,
// then direction in N<E<S<W order, then insertion cell coordinates.
type searchItem struct {
	f     int
	depth int
	dir   int
	st    [3]int
}

type searchHeap []searchItem

func (h searchHeap) Len() int { return len(h) }
func (h searchHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].depth != h[j].depth {
		return h[i].depth < h[j].depth
	}
	if h[i].dir != h[j].dir {
		return h[i].dir < h[j].dir
	}
	if h[i].st[1] != h[j].st[1] {
		return h[i].st[1] < h[j].st[1]
	}
	return h[i].st[0] < h[j].st[0]
}
func (h searchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *searchHeap) Push(x any)        { *h = append(*h, x.(searchItem)) }
func (h *searchHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// routeHeuristic tries L-, S-, and C-shaped candidates in continuous
// space, picking the first obstacle-free one. If all candidates cross
// obstacles the L path is emitted and the edge flagged forced-crossing.
func (lc *context) routeHeuristic(ei int, startOut, endOut geom.Point) {
	es := &lc.edges[ei]
	a := es.start.Pos
	b := es.end.Pos

	mk := func(mids ...geom.Point) []geom.Point {
		pts := []geom.Point{a, startOut}
		pts = append(pts, mids...)
		pts = append(pts, endOut, b)
		return smoothPath(orthogonalize(pts))
	}

	var candidates [][]geom.Point
	// L shapes: bend at either corner of the stub endpoints.
	candidates = append(candidates,
		mk(geom.Point{X: endOut.X, Y: startOut.Y}),
		mk(geom.Point{X: startOut.X, Y: endOut.Y}),
	)
	// S shapes: a single mid-channel offset between the stubs.
	midX := math.Round((startOut.X + endOut.X) / 2)
	midY := math.Round((startOut.Y + endOut.Y) / 2)
	candidates = append(candidates,
		mk(geom.Point{X: midX, Y: startOut.Y}, geom.Point{X: midX, Y: endOut.Y}),
		mk(geom.Point{X: startOut.X, Y: midY}, geom.Point{X: endOut.X, Y: midY}),
	)
	// C shape: loop around the content bounding box.
	loop := lc.contentBounds().Expand(lc.gridMargin() / 2)
	candidates = append(candidates,
		mk(geom.Point{X: startOut.X, Y: loop.Y}, geom.Point{X: endOut.X, Y: loop.Y}),
		mk(geom.Point{X: startOut.X, Y: loop.MaxY()}, geom.Point{X: endOut.X, Y: loop.MaxY()}),
		mk(geom.Point{X: loop.X, Y: startOut.Y}, geom.Point{X: loop.X, Y: endOut.Y}),
		mk(geom.Point{X: loop.MaxX(), Y: startOut.Y}, geom.Point{X: loop.MaxX(), Y: endOut.Y}),
	)

	for _, cand := range candidates {
		if lc.pathClear(ei, cand) {
			es.points = cand
			return
		}
	}

	es.points = candidates[0]
	es.forced = true
	lc.warnf(errors.ErrCodeForcedCrossing, lc.g.Edges[ei].ID,
		"no clean path from %s to %s, emitting crossing route",
		lc.g.Edges[ei].From, lc.g.Edges[ei].To)
}

// contentBounds is the union of node rectangles and subgraph boxes.
func (lc *context) contentBounds() geom.Rect {
	var b geom.Rect
	first := true
	for i := range lc.nodes {
		if first {
			b, first = lc.nodes[i].rect, false
		} else {
			b = b.Union(lc.nodes[i].rect)
		}
	}
	for i := range lc.subs {
		if lc.subs[i].placed {
			b = b.Union(lc.subs[i].box)
		}
	}
	return b
}

// pathClear reports whether none of the path's segments crosses a
// non-endpoint node interior or a non-containing subgraph border region.
func (lc *context) pathClear(ei int, pts []geom.Point) bool {
	e := lc.g.Edges[ei]
	inside := make(map[int]bool)
	for _, si := range lc.g.Ancestry(e.FromIdx) {
		inside[si] = true
	}
	for _, si := range lc.g.Ancestry(e.ToIdx) {
		inside[si] = true
	}
	for i := 0; i+1 < len(pts); i++ {
		seg := geom.Segment{A: pts[i], B: pts[i+1]}
		for ni := range lc.nodes {
			if ni == e.FromIdx || ni == e.ToIdx {
				continue
			}
			if seg.CrossesInterior(lc.nodes[ni].rect) {
				return false
			}
		}
		for si := range lc.subs {
			if !lc.subs[si].placed || inside[si] {
				continue
			}
			if seg.CrossesInterior(lc.subs[si].box) {
				return false
			}
		}
	}
	return true
}

// routeSelfLoop emits the fixed four-segment loop: out the E side, down
// past the SE corner, in through the S side.
func (lc *context) routeSelfLoop(ei int) {
	es := &lc.edges[ei]
	r := lc.nodes[lc.g.Edges[ei].FromIdx].rect
	pad := math.Max(0.6*lc.cfg.NodeSpacing, 12)

	p0 := es.start.Pos // E side
	p4 := es.end.Pos   // S side
	es.points = []geom.Point{
		p0,
		{X: r.MaxX() + pad, Y: p0.Y},
		{X: r.MaxX() + pad, Y: r.MaxY() + pad},
		{X: p4.X, Y: r.MaxY() + pad},
		p4,
	}
}

// orthogonalize repairs any diagonal jump between consecutive points by
// inserting an elbow, preserving the first segment's axis.
func orthogonalize(pts []geom.Point) []geom.Point {
	if len(pts) < 2 {
		return pts
	}
	out := []geom.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		prev := out[len(out)-1]
		cur := pts[i]
		if prev.X != cur.X && prev.Y != cur.Y {
			// Continue along the previous segment's axis first.
			if len(out) >= 2 && out[len(out)-2].Y == prev.Y {
				out = append(out, geom.Point{X: cur.X, Y: prev.Y})
			} else {
				out = append(out, geom.Point{X: prev.X, Y: cur.Y})
			}
		}
		out = append(out, cur)
	}
	return out
}

// smoothPath drops repeated points and collapses collinear runs.
func smoothPath(pts []geom.Point) []geom.Point {
	if len(pts) < 3 {
		return pts
	}
	out := []geom.Point{pts[0]}
	for i := 1; i < len(pts); i++ {
		cur := pts[i]
		last := out[len(out)-1]
		if cur == last {
			continue
		}
		if len(out) >= 2 {
			prev := out[len(out)-2]
			if (prev.X == last.X && last.X == cur.X) || (prev.Y == last.Y && last.Y == cur.Y) {
				out[len(out)-1] = cur
				continue
			}
		}
		out = append(out, cur)
	}
	return out
}
