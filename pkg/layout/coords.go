package layout

import (
	"math"
	"sort"

	"github.com/matzehuels/flowgrid/pkg/geom"
)

// refineSweeps is the number of up/down median-alignment sweeps run after
// the initial greedy placement.
const refineSweeps = 2

// assignCoords maps (rank, order) to absolute pixel positions.
//
// Work happens in abstract flow space: the primary axis runs along the
// diagram direction and the cross axis across it. Per component, layer
// bands are the cumulative sum of per-layer maxima plus the layer gap;
// cross positions come from a greedy left-to-right placement aligned on
// neighbor medians, then refined by priority sweeps. Components pack
// side by side along the cross axis separated by the component gap.
// Dominant chains whose aspect ratio exceeds WrapAspect are wrapped into
// serpentine segments instead.
//
// The abstract positions are finally mapped into pixel space for the
// configured direction; BT and RL mirror the primary axis, which is what
// makes direction reversal produce mirror-image layouts.
func (lc *context) assignCoords() {
	compCount := 0
	for _, u := range lc.units {
		if u.comp+1 > compCount {
			compCount = u.comp + 1
		}
	}

	crossOffset := 0.0
	totalPrimary := 0.0
	for comp := 0; comp < compCount; comp++ {
		var extent geom.Point
		if lc.isWrappableChain(comp) {
			extent = lc.placeWrappedChain(comp)
		} else {
			extent = lc.placeComponent(comp)
		}
		for ui := range lc.units {
			if lc.units[ui].comp == comp {
				lc.units[ui].cross += crossOffset
			}
		}
		crossOffset += extent.X + lc.cfg.componentGap()
		totalPrimary = math.Max(totalPrimary, extent.Y)
	}
	lc.totalPrimary = totalPrimary

	for ui := range lc.units {
		u := lc.units[ui]
		if u.node >= 0 {
			lc.nodes[u.node].rect = lc.unitRect(u)
		}
	}
}

// placeComponent lays out one component and returns its (cross, primary)
// extent. Unit cross positions are normalized to start at zero.
func (lc *context) placeComponent(comp int) geom.Point {
	// Layer bands.
	bandExtent := make([]float64, len(lc.layers))
	for _, ui := range lc.compUnits(comp) {
		u := lc.units[ui]
		if u.pw > bandExtent[u.rank] {
			bandExtent[u.rank] = u.pw
		}
	}
	bandStart := make([]float64, len(lc.layers))
	cursor := 0.0
	for r := range bandExtent {
		bandStart[r] = cursor
		if bandExtent[r] > 0 {
			cursor += bandExtent[r] + lc.cfg.layerGap()
		}
	}

	// Greedy cross placement, top layer down, aligning on the median of
	// already-placed neighbors.
	adj := lc.neighborIndex()
	for r := range lc.layers {
		cross := 0.0
		for _, ui := range lc.layers[r] {
			u := &lc.units[ui]
			if u.comp != comp {
				continue
			}
			desired := cross
			if m, ok := lc.placedNeighborMedian(ui, adj, r); ok {
				desired = math.Max(cross, m-u.cw/2)
			}
			u.cross = desired
			u.primary = bandStart[u.rank] + (bandExtent[u.rank]-u.pw)/2
			cross = u.cross + u.cw + lc.cfg.NodeSpacing
		}
	}

	// Priority refinement: nudge units toward their neighbor medians
	// without violating the in-layer minimum gap. Higher-degree units
	// move last so they end where they want.
	for sweep := 0; sweep < refineSweeps; sweep++ {
		for r := 0; r < len(lc.layers); r++ {
			lc.refineLayer(comp, r, adj)
		}
		for r := len(lc.layers) - 1; r >= 0; r-- {
			lc.refineLayer(comp, r, adj)
		}
	}

	// Normalize to a zero cross origin and measure the extent.
	minCross := math.Inf(1)
	maxCross := math.Inf(-1)
	maxPrimary := 0.0
	for _, ui := range lc.compUnits(comp) {
		u := lc.units[ui]
		minCross = math.Min(minCross, u.cross)
		maxCross = math.Max(maxCross, u.cross+u.cw)
		maxPrimary = math.Max(maxPrimary, u.primary+u.pw)
	}
	if math.IsInf(minCross, 1) {
		return geom.Point{}
	}
	for _, ui := range lc.compUnits(comp) {
		lc.units[ui].cross = math.Round(lc.units[ui].cross - minCross)
		lc.units[ui].primary = math.Round(lc.units[ui].primary)
	}
	return geom.Point{X: maxCross - minCross, Y: maxPrimary}
}

func (lc *context) compUnits(comp int) []int {
	var out []int
	for ui := range lc.units {
		if lc.units[ui].comp == comp {
			out = append(out, ui)
		}
	}
	return out
}

// neighborIndex builds undirected adjacency over units.
func (lc *context) neighborIndex() [][]int {
	adj := make([][]int, len(lc.units))
	for _, ue := range lc.unitEdges {
		adj[ue.from] = append(adj[ue.from], ue.to)
		adj[ue.to] = append(adj[ue.to], ue.from)
	}
	return adj
}

// placedNeighborMedian returns the median cross center of neighbors in
// layers above r (already placed during the greedy pass).
func (lc *context) placedNeighborMedian(ui int, adj [][]int, r int) (float64, bool) {
	var centers []float64
	for _, n := range adj[ui] {
		if lc.units[n].rank < r {
			centers = append(centers, lc.units[n].cross+lc.units[n].cw/2)
		}
	}
	if len(centers) == 0 {
		return 0, false
	}
	sort.Float64s(centers)
	mid := len(centers) / 2
	if len(centers)%2 == 1 {
		return centers[mid], true
	}
	return (centers[mid-1] + centers[mid]) / 2, true
}

// refineLayer moves each unit toward the median of all its neighbors,
// clamped by the gaps to its in-layer siblings. Processing order is
// ascending degree so hubs settle last.
func (lc *context) refineLayer(comp, r int, adj [][]int) {
	var row []int
	for _, ui := range lc.layers[r] {
		if lc.units[ui].comp == comp {
			row = append(row, ui)
		}
	}
	if len(row) == 0 {
		return
	}
	byDegree := append([]int(nil), row...)
	sort.SliceStable(byDegree, func(i, j int) bool {
		return len(adj[byDegree[i]]) < len(adj[byDegree[j]])
	})

	pos := make(map[int]int, len(row))
	for i, ui := range row {
		pos[ui] = i
	}
	for _, ui := range byDegree {
		var centers []float64
		for _, n := range adj[ui] {
			if lc.units[n].rank != r {
				centers = append(centers, lc.units[n].cross+lc.units[n].cw/2)
			}
		}
		if len(centers) == 0 {
			continue
		}
		sort.Float64s(centers)
		mid := len(centers) / 2
		desired := centers[mid]
		if len(centers)%2 == 0 {
			desired = (centers[mid-1] + centers[mid]) / 2
		}
		u := &lc.units[ui]
		target := desired - u.cw/2

		// Clamp against in-layer siblings.
		i := pos[ui]
		lo := math.Inf(-1)
		hi := math.Inf(1)
		if i > 0 {
			left := lc.units[row[i-1]]
			lo = left.cross + left.cw + lc.cfg.NodeSpacing
		}
		if i < len(row)-1 {
			right := lc.units[row[i+1]]
			hi = right.cross - u.cw - lc.cfg.NodeSpacing
		}
		if hi < lo {
			continue
		}
		u.cross = math.Min(math.Max(target, lo), hi)
	}
}

// isWrappableChain reports whether the component is a plain path whose
// unwrapped aspect ratio exceeds the wrap threshold.
func (lc *context) isWrappableChain(comp int) bool {
	units := lc.compUnits(comp)
	if len(units) < 4 {
		return false
	}
	degIn := make(map[int]int)
	degOut := make(map[int]int)
	for _, ue := range lc.unitEdges {
		if lc.units[ue.from].comp != comp {
			continue
		}
		f, t := ue.from, ue.to
		if ue.reversed {
			f, t = t, f
		}
		degOut[f]++
		degIn[t]++
	}
	heads := 0
	for _, ui := range units {
		if degIn[ui] > 1 || degOut[ui] > 1 {
			return false
		}
		if degIn[ui] == 0 {
			heads++
		}
	}
	if heads != 1 {
		return false
	}

	totalPrimary := 0.0
	maxCross := 0.0
	for _, ui := range units {
		totalPrimary += lc.units[ui].pw + lc.cfg.layerGap()
		maxCross = math.Max(maxCross, lc.units[ui].cw)
	}
	return totalPrimary/math.Max(maxCross, 1) > lc.cfg.WrapAspect
}

// placeWrappedChain lays the chain out as serpentine segments: the chain
// is cut into equal segments placed in adjacent cross-axis columns, with
// every other segment running backwards so consecutive segment ends stay
// adjacent. Returns the component extent.
func (lc *context) placeWrappedChain(comp int) geom.Point {
	units := lc.compUnits(comp)

	next := make(map[int]int)
	indeg := make(map[int]int)
	for _, ue := range lc.unitEdges {
		if lc.units[ue.from].comp != comp {
			continue
		}
		f, t := ue.from, ue.to
		if ue.reversed {
			f, t = t, f
		}
		next[f] = t
		indeg[t]++
	}
	head := -1
	for _, ui := range units {
		if indeg[ui] == 0 {
			head = ui
			break
		}
	}
	chain := []int{head}
	for {
		n, ok := next[chain[len(chain)-1]]
		if !ok {
			break
		}
		chain = append(chain, n)
	}

	// Segment count: smallest k whose wrapped aspect is within bounds.
	totalPrimary := 0.0
	maxCross := 0.0
	for _, ui := range chain {
		totalPrimary += lc.units[ui].pw + lc.cfg.layerGap()
		maxCross = math.Max(maxCross, lc.units[ui].cw)
	}
	colWidth := maxCross + lc.cfg.NodeSpacing
	k := 1
	for ; k < len(chain); k++ {
		segPrimary := totalPrimary / float64(k)
		if segPrimary/(float64(k)*colWidth) <= lc.cfg.WrapAspect {
			break
		}
	}
	perSeg := (len(chain) + k - 1) / k

	maxPrimary := 0.0
	for seg := 0; seg*perSeg < len(chain); seg++ {
		start := seg * perSeg
		end := start + perSeg
		if end > len(chain) {
			end = len(chain)
		}
		segment := chain[start:end]
		cursor := 0.0
		var prims []float64
		for _, ui := range segment {
			prims = append(prims, cursor)
			cursor += lc.units[ui].pw + lc.cfg.layerGap()
		}
		if seg%2 == 1 {
			// Serpentine: odd segments run backwards.
			for i, ui := range segment {
				lc.units[ui].primary = cursor - prims[i] - lc.units[ui].pw - lc.cfg.layerGap()
				lc.units[ui].cross = float64(seg) * colWidth
			}
		} else {
			for i, ui := range segment {
				lc.units[ui].primary = prims[i]
				lc.units[ui].cross = float64(seg) * colWidth
			}
		}
		maxPrimary = math.Max(maxPrimary, cursor)
	}

	cols := (len(chain) + perSeg - 1) / perSeg
	for _, ui := range chain {
		lc.units[ui].cross = math.Round(lc.units[ui].cross)
		lc.units[ui].primary = math.Round(lc.units[ui].primary)
	}
	return geom.Point{X: float64(cols) * colWidth, Y: maxPrimary}
}

// unitRect maps a unit's abstract position into final pixel space.
func (lc *context) unitRect(u unit) geom.Rect {
	var w, h float64
	if lc.dir.Horizontal() {
		w, h = u.pw, u.cw
	} else {
		w, h = u.cw, u.pw
	}
	primary := u.primary
	if lc.dir.Reversed() {
		primary = lc.totalPrimary - u.primary - u.pw
	}
	if lc.dir.Horizontal() {
		return geom.Rect{X: primary, Y: u.cross, W: w, H: h}
	}
	return geom.Rect{X: u.cross, Y: primary, W: w, H: h}
}
