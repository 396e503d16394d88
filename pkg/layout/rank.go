package layout

import (
	"sort"
)

// assignRanks partitions units into integer layers so that every forward
// edge increases the layer by at least one along the primary direction.
//
// Cycle-causing edges are detected by DFS finishing times and marked
// reversed: their endpoints swap for layering, ordering, and routing
// priority, while the drawn arrow keeps the declared direction. The
// greedy approximation of the minimum feedback arc set follows
// declaration order - DFS roots and neighbor visits are both taken in
// declaration order, so the first-declared edges keep their direction.
//
// Ranking itself is longest-path over the acyclic residual (Kahn), per
// weakly-connected component. Disconnected components each start at
// rank 0 and are packed side by side later.
func (lc *context) assignRanks() {
	n := len(lc.units)
	if n == 0 {
		return
	}

	// Deterministic adjacency: unit edges sorted by declaration order.
	type arc struct{ to, ue int }
	out := make([][]arc, n)
	for uei, ue := range lc.unitEdges {
		out[ue.from] = append(out[ue.from], arc{to: ue.to, ue: uei})
	}

	// Back-edge detection, white/gray/black DFS.
	const (
		white = iota
		gray
		black
	)
	color := make([]int, n)
	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		for _, a := range out[u] {
			switch color[a.to] {
			case white:
				dfs(a.to)
			case gray:
				lc.unitEdges[a.ue].reversed = true
				if ei := lc.unitEdges[a.ue].edge; ei >= 0 {
					lc.edges[ei].reversed = true
				}
			}
		}
		color[u] = black
	}

	inDeg := make([]int, n)
	for _, ue := range lc.unitEdges {
		inDeg[ue.to]++
	}
	for u := 0; u < n; u++ {
		if inDeg[u] == 0 && color[u] == white {
			dfs(u)
		}
	}
	for u := 0; u < n; u++ {
		if color[u] == white {
			dfs(u)
		}
	}

	lc.assignComponents()

	// Longest-path ranks on the residual DAG.
	eff := func(ue unitEdge) (from, to int) {
		if ue.reversed {
			return ue.to, ue.from
		}
		return ue.from, ue.to
	}
	resOut := make([][]int, n)
	resDeg := make([]int, n)
	for _, ue := range lc.unitEdges {
		f, t := eff(ue)
		resOut[f] = append(resOut[f], t)
		resDeg[t]++
	}

	rank := make([]int, n)
	queue := make([]int, 0, n)
	for u := 0; u < n; u++ {
		if resDeg[u] == 0 {
			queue = append(queue, u)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, t := range resOut[u] {
			if r := rank[u] + 1; r > rank[t] {
				rank[t] = r
			}
			resDeg[t]--
			if resDeg[t] == 0 {
				queue = append(queue, t)
			}
		}
	}
	for u := range lc.units {
		lc.units[u].rank = rank[u]
	}

	lc.buildLayers()
}

// assignComponents labels units by weakly-connected component, numbering
// components by their smallest unit index so packing order is stable.
func (lc *context) assignComponents() {
	n := len(lc.units)
	adj := make([][]int, n)
	for _, ue := range lc.unitEdges {
		adj[ue.from] = append(adj[ue.from], ue.to)
		adj[ue.to] = append(adj[ue.to], ue.from)
	}
	comp := 0
	for u := 0; u < n; u++ {
		if lc.units[u].comp != -1 {
			continue
		}
		stack := []int{u}
		lc.units[u].comp = comp
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, w := range adj[v] {
				if lc.units[w].comp == -1 {
					lc.units[w].comp = comp
					stack = append(stack, w)
				}
			}
		}
		comp++
	}
}

// buildLayers groups units into rank buckets in initial order: component,
// then declaration order within the component. The orderer refines the
// in-bucket sequence afterwards.
func (lc *context) buildLayers() {
	maxRank := 0
	for _, u := range lc.units {
		if u.rank > maxRank {
			maxRank = u.rank
		}
	}
	lc.layers = make([][]int, maxRank+1)
	for ui := range lc.units {
		r := lc.units[ui].rank
		lc.layers[r] = append(lc.layers[r], ui)
	}
	for r := range lc.layers {
		bucket := lc.layers[r]
		sort.Slice(bucket, func(i, j int) bool {
			a, b := bucket[i], bucket[j]
			if lc.units[a].comp != lc.units[b].comp {
				return lc.units[a].comp < lc.units[b].comp
			}
			return a < b
		})
		for pos, ui := range bucket {
			lc.units[ui].order = pos
		}
	}
}
