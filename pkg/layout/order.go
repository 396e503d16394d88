package layout

import (
	"sort"
)

// medianDamping blends a unit's current position with the median of its
// neighbor positions. Full medians (damping 1) oscillate on fan patterns;
// the damped blend converges within the default four passes.
const medianDamping = 0.85

// orderLayers minimizes pairwise crossings by running OrderPasses
// forward/backward sweeps of damped weighted medians, keeping the best
// configuration seen as counted by the Fenwick crossing counter.
//
// Determinism: every sort ties off on component, score, current
// position, unit index, and finally unit ID. Units sharing an inline
// subgraph parent are forced adjacent after each sweep so subgraph boxes
// stay compact (the intra-parent bias from the cohesion rule).
func (lc *context) orderLayers() {
	if len(lc.layers) <= 1 {
		lc.groupByParent()
		return
	}

	// Neighbor lists per unit, split by adjacent layer side.
	up := make([][]int, len(lc.units))   // neighbors one layer above
	down := make([][]int, len(lc.units)) // neighbors one layer below
	for _, ue := range lc.unitEdges {
		a, b := ue.from, ue.to
		ra, rb := lc.units[a].rank, lc.units[b].rank
		switch {
		case rb == ra+1:
			down[a] = append(down[a], b)
			up[b] = append(up[b], a)
		case ra == rb+1:
			down[b] = append(down[b], a)
			up[a] = append(up[a], b)
		}
	}

	best := lc.copyLayers()
	bestCrossings := lc.totalCrossings(lc.layers)

	for pass := 0; pass < lc.cfg.OrderPasses; pass++ {
		for r := 1; r < len(lc.layers); r++ {
			lc.sortBucket(lc.layers[r], up)
		}
		lc.groupByParent()
		if c := lc.totalCrossings(lc.layers); c < bestCrossings {
			bestCrossings = c
			best = lc.copyLayers()
		}

		for r := len(lc.layers) - 2; r >= 0; r-- {
			lc.sortBucket(lc.layers[r], down)
		}
		lc.groupByParent()
		if c := lc.totalCrossings(lc.layers); c < bestCrossings {
			bestCrossings = c
			best = lc.copyLayers()
		}
	}

	lc.layers = best
	for r := range lc.layers {
		for pos, ui := range lc.layers[r] {
			lc.units[ui].order = pos
		}
	}
}

func (lc *context) copyLayers() [][]int {
	out := make([][]int, len(lc.layers))
	for r := range lc.layers {
		out[r] = append([]int(nil), lc.layers[r]...)
	}
	return out
}

// sortBucket reorders one layer by the damped median of each unit's
// neighbor positions in the adjacent layer.
func (lc *context) sortBucket(bucket []int, neighbors [][]int) {
	if len(bucket) <= 1 {
		return
	}
	cur := make(map[int]int, len(bucket))
	for i, ui := range bucket {
		cur[ui] = i
	}
	score := make(map[int]float64, len(bucket))
	for _, ui := range bucket {
		m, ok := lc.neighborMedian(ui, neighbors[ui])
		if !ok {
			score[ui] = float64(cur[ui])
			continue
		}
		score[ui] = medianDamping*m + (1-medianDamping)*float64(cur[ui])
	}

	sort.SliceStable(bucket, func(i, j int) bool {
		a, b := bucket[i], bucket[j]
		if lc.units[a].comp != lc.units[b].comp {
			return lc.units[a].comp < lc.units[b].comp
		}
		if score[a] != score[b] {
			return score[a] < score[b]
		}
		if cur[a] != cur[b] {
			return cur[a] < cur[b]
		}
		if a != b {
			return a < b
		}
		return lc.unitID(a) < lc.unitID(b)
	})
	for i, ui := range bucket {
		lc.units[ui].order = i
	}
}

// neighborMedian returns the median order position of the unit's
// neighbors, or false when it has none on that side.
func (lc *context) neighborMedian(ui int, ns []int) (float64, bool) {
	if len(ns) == 0 {
		return 0, false
	}
	positions := make([]int, len(ns))
	for i, n := range ns {
		positions[i] = lc.units[n].order
	}
	sort.Ints(positions)
	mid := len(positions) / 2
	if len(positions)%2 == 1 {
		return float64(positions[mid]), true
	}
	return (float64(positions[mid-1]) + float64(positions[mid])) / 2, true
}

// unitID returns a stable identifier for final tie-breaking.
func (lc *context) unitID(ui int) string {
	u := lc.units[ui]
	if u.node >= 0 {
		return lc.g.Nodes[u.node].ID
	}
	return lc.g.Subgraphs[lc.clusters[u.cluster].sub].ID
}

// groupByParent stable-partitions every layer so units sharing an inline
// subgraph ancestor sit adjacent. Groups are ordered by the mean position
// of their members, preserving the median sweep's intent.
func (lc *context) groupByParent() {
	for r := range lc.layers {
		bucket := lc.layers[r]
		if len(bucket) <= 1 {
			continue
		}
		type group struct {
			mean    float64
			members []int
		}
		order := make([]int, 0, len(bucket))
		groups := make(map[int]*group)
		for pos, ui := range bucket {
			gk := lc.cohesionKey(ui)
			if gk < 0 {
				// Top-level units each form their own singleton group.
				gk = -(pos + 2)
			}
			g, ok := groups[gk]
			if !ok {
				g = &group{}
				groups[gk] = g
				order = append(order, gk)
			}
			g.mean += float64(pos)
			g.members = append(g.members, ui)
		}
		if len(groups) == len(bucket) {
			continue
		}
		sorted := make([]*group, 0, len(groups))
		for _, gk := range order {
			g := groups[gk]
			g.mean /= float64(len(g.members))
			sorted = append(sorted, g)
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].mean < sorted[j].mean
		})
		out := bucket[:0]
		for _, g := range sorted {
			out = append(out, g.members...)
		}
		for pos, ui := range bucket {
			lc.units[ui].order = pos
		}
	}
}

// cohesionKey returns the outermost inline subgraph the unit belongs to,
// or -1 for top-level units. Cluster units use their own subgraph's
// parent chain.
func (lc *context) cohesionKey(ui int) int {
	u := lc.units[ui]
	var chain []int
	if u.node >= 0 {
		chain = lc.g.Ancestry(u.node)
	} else {
		for p := lc.g.Subgraphs[lc.clusters[u.cluster].sub].Parent; p != -1; p = lc.g.Subgraphs[p].Parent {
			chain = append(chain, p)
		}
	}
	if len(chain) == 0 {
		return -1
	}
	return chain[len(chain)-1]
}
