package layout

import "sort"

// countLayerCrossings counts edge crossings between two adjacent layers
// using a Fenwick tree for O(E log V) inversion counting. Two edges
// (u1,v1), (u2,v2) cross iff pos(u1) < pos(u2) and pos(v1) > pos(v2), so
// sorting edges by source position and counting inversions among target
// positions yields the crossing count.
func (lc *context) countLayerCrossings(upper, lower []int) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	upperPos := make(map[int]int, len(upper))
	for i, u := range upper {
		upperPos[u] = i
	}
	lowerPos := make(map[int]int, len(lower))
	for i, u := range lower {
		lowerPos[u] = i
	}

	type pair struct{ up, low int }
	var pairs []pair
	for _, ue := range lc.unitEdges {
		if up, ok := upperPos[ue.from]; ok {
			if low, ok := lowerPos[ue.to]; ok {
				pairs = append(pairs, pair{up, low})
				continue
			}
		}
		if up, ok := upperPos[ue.to]; ok {
			if low, ok := lowerPos[ue.from]; ok {
				pairs = append(pairs, pair{up, low})
			}
		}
	}
	if len(pairs) < 2 {
		return 0
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].up != pairs[j].up {
			return pairs[i].up < pairs[j].up
		}
		return pairs[i].low < pairs[j].low
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, p := range pairs {
		lessOrEqual := 0
		for q := p.low + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual
		total++
		for idx := p.low + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

// totalCrossings sums pairwise crossings over all consecutive layers.
func (lc *context) totalCrossings(layers [][]int) int {
	crossings := 0
	for r := 0; r+1 < len(layers); r++ {
		crossings += lc.countLayerCrossings(layers[r], layers[r+1])
	}
	return crossings
}
