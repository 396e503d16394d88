package layout

import (
	"math"

	"github.com/matzehuels/flowgrid/pkg/geom"
)

// maxGridCells caps the router's memory. Canvases that would need more
// cells skip A* entirely and route every edge with the heuristic
// fallbacks, as the resource policy requires.
const maxGridCells = 1 << 21

// gridMargin is the border of routable space around the diagram content.
func (lc *context) gridMargin() float64 {
	return math.Max(24, lc.cfg.NodeSpacing)
}

// ownerNone marks a free cell; ownerFull a hard-blocked one. Values ≥ 0
// identify the node (or nodeCount+subgraph) whose expansion ring or
// border band covers the cell; edges touching that entity may pass.
const (
	ownerNone = -1
	ownerFull = -2
)

// occupancyGrid is the shared routing grid. Node interiors are hard
// obstacles; the expansion ring around each node and the border band of
// each subgraph are soft obstacles passable only by edges attached to
// that entity. Routed paths deposit decaying occupancy weight so later
// edges prefer untouched corridors.
type occupancyGrid struct {
	origin     geom.Point
	cell       float64
	cols, rows int

	hard   []bool
	owners [][2]int32

	occ      []float64
	occScale float64
}

func (lc *context) buildGrid() *occupancyGrid {
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
	if first {
		return nil
	}
	b = b.Expand(lc.gridMargin())

	cell := lc.gridCellSize()
	// Align the origin to the cell lattice so cell centers coincide with
	// the snapped port coordinates from the port assigner.
	alignedX := math.Floor(b.X/cell) * cell
	alignedY := math.Floor(b.Y/cell) * cell
	b.W += b.X - alignedX
	b.H += b.Y - alignedY
	b.X, b.Y = alignedX, alignedY

	cols := int(math.Ceil(b.W/cell)) + 1
	rows := int(math.Ceil(b.H/cell)) + 1
	if cols <= 0 || rows <= 0 || cols*rows > maxGridCells {
		return nil
	}

	g := &occupancyGrid{
		origin:   geom.Point{X: b.X, Y: b.Y},
		cell:     cell,
		cols:     cols,
		rows:     rows,
		hard:     make([]bool, cols*rows),
		owners:   make([][2]int32, cols*rows),
		occ:      make([]float64, cols*rows),
		occScale: 1,
	}
	for i := range g.owners {
		g.owners[i] = [2]int32{ownerNone, ownerNone}
	}

	pad := lc.cfg.NodeSpacing / 2
	for ni := range lc.nodes {
		r := lc.nodes[ni].rect
		g.stampRect(r.Expand(-geom.Eps), ownerFull)
		g.stampRing(r.Expand(pad), r, int32(ni))
	}
	for si := range lc.subs {
		if !lc.subs[si].placed {
			continue
		}
		box := lc.subs[si].box
		g.stampRing(box.Expand(pad), box.Expand(-pad), int32(len(lc.nodes)+si))
	}
	return g
}

func (g *occupancyGrid) index(cx, cy int) int { return cy*g.cols + cx }

func (g *occupancyGrid) inBounds(cx, cy int) bool {
	return cx >= 0 && cy >= 0 && cx < g.cols && cy < g.rows
}

// cellAt returns the cell containing the point.
func (g *occupancyGrid) cellAt(p geom.Point) (cx, cy int) {
	cx = int(math.Floor((p.X - g.origin.X) / g.cell))
	cy = int(math.Floor((p.Y - g.origin.Y) / g.cell))
	return cx, cy
}

// center returns the cell's center point.
func (g *occupancyGrid) center(cx, cy int) geom.Point {
	return geom.Point{
		X: g.origin.X + (float64(cx)+0.5)*g.cell,
		Y: g.origin.Y + (float64(cy)+0.5)*g.cell,
	}
}

// cellRange returns the half-open cell index range covering r.
func (g *occupancyGrid) cellRange(r geom.Rect) (x0, y0, x1, y1 int) {
	x0, y0 = g.cellAt(geom.Point{X: r.X, Y: r.Y})
	x1, y1 = g.cellAt(geom.Point{X: r.MaxX(), Y: r.MaxY()})
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= g.cols {
		x1 = g.cols - 1
	}
	if y1 >= g.rows {
		y1 = g.rows - 1
	}
	return x0, y0, x1, y1
}

// stampRect hard-blocks every cell overlapping r (owner ownerFull), or
// assigns ring ownership for owner ≥ 0.
func (g *occupancyGrid) stampRect(r geom.Rect, owner int32) {
	x0, y0, x1, y1 := g.cellRange(r)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			g.claim(g.index(cx, cy), owner)
		}
	}
}

// stampRing claims the cells inside outer but outside inner.
func (g *occupancyGrid) stampRing(outer, inner geom.Rect, owner int32) {
	x0, y0, x1, y1 := g.cellRange(outer)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			c := g.center(cx, cy)
			if inner.W > 0 && inner.H > 0 &&
				c.X > inner.X && c.X < inner.MaxX() && c.Y > inner.Y && c.Y < inner.MaxY() {
				continue
			}
			g.claim(g.index(cx, cy), owner)
		}
	}
}

func (g *occupancyGrid) claim(i int, owner int32) {
	if owner == ownerFull {
		g.hard[i] = true
		return
	}
	switch {
	case g.owners[i][0] == ownerNone || g.owners[i][0] == owner:
		g.owners[i][0] = owner
	case g.owners[i][1] == ownerNone || g.owners[i][1] == owner:
		g.owners[i][1] = owner
	default:
		// Three distinct claimants: treat as hard; the fallback router
		// handles edges that genuinely need the cell.
		g.hard[i] = true
	}
}

// passable reports whether the cell admits an edge whose exception set
// (its endpoint nodes and containing subgraphs) is allowed.
func (g *occupancyGrid) passable(cx, cy int, allowed map[int32]bool) bool {
	if !g.inBounds(cx, cy) {
		return false
	}
	i := g.index(cx, cy)
	if g.hard[i] {
		return false
	}
	for _, o := range g.owners[i] {
		if o != ownerNone && !allowed[o] {
			return false
		}
	}
	return true
}

// occupancy returns the decayed weight at the cell.
func (g *occupancyGrid) occupancy(cx, cy int) float64 {
	return g.occ[g.index(cx, cy)] * g.occScale
}

// markPath deposits weight along the cells and advances the decay so the
// freshly routed path costs later edges more than older ones.
func (g *occupancyGrid) markPath(cells [][2]int) {
	for _, c := range cells {
		if g.inBounds(c[0], c[1]) {
			g.occ[g.index(c[0], c[1])] += 1 / g.occScale
		}
	}
	g.occScale *= 0.9
}
