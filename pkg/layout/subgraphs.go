package layout

import (
	"sort"

	"github.com/matzehuels/flowgrid/pkg/geom"
)

// resolveSubgraphBoxes fits a bounding box around every inline subgraph
// (clusters were already boxed when they were placed). Boxes are computed
// bottom-up so nested boxes inflate their parents, then sibling overlaps
// are resolved by shifting the later sibling along the cross axis.
func (lc *context) resolveSubgraphBoxes() {
	order := lc.subsByDepth()

	for _, si := range order {
		if lc.subs[si].placed {
			continue
		}
		var box geom.Rect
		first := true
		acc := func(r geom.Rect) {
			if first {
				box, first = r, false
				return
			}
			box = box.Union(r)
		}
		for ni := range lc.g.Nodes {
			if lc.g.Nodes[ni].Parent == si {
				acc(lc.nodes[ni].rect)
			}
		}
		for sj := range lc.g.Subgraphs {
			if lc.g.Subgraphs[sj].Parent == si {
				acc(lc.subs[sj].box)
			}
		}
		if first {
			// Empty subgraph: a title-only box at the origin.
			box = geom.Rect{W: 2 * lc.cfg.SubgraphPad, H: 2 * lc.cfg.SubgraphPad}
		}
		box = box.Expand(lc.cfg.SubgraphPad)
		box.Y -= lc.subs[si].titleH
		box.H += lc.subs[si].titleH
		lc.subs[si].box = box
		lc.subs[si].placed = true
	}

	lc.resolveSiblingOverlaps()
}

// subsByDepth returns subgraph indices deepest-first, tying on index.
func (lc *context) subsByDepth() []int {
	depth := make([]int, len(lc.g.Subgraphs))
	for si := range lc.g.Subgraphs {
		for p := lc.g.Subgraphs[si].Parent; p != -1; p = lc.g.Subgraphs[p].Parent {
			depth[si]++
		}
	}
	order := make([]int, len(lc.g.Subgraphs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return depth[order[i]] > depth[order[j]]
	})
	return order
}

// resolveSiblingOverlaps walks each nesting level in declaration order
// and pushes any subgraph that overlaps an earlier sibling along the
// cross axis until the node-spacing gap holds. The shift moves the whole
// subtree: member nodes, nested boxes, and already-routed cluster paths.
func (lc *context) resolveSiblingOverlaps() {
	levels := make(map[int][]int)
	var parents []int
	for si := range lc.g.Subgraphs {
		p := lc.g.Subgraphs[si].Parent
		if _, ok := levels[p]; !ok {
			parents = append(parents, p)
		}
		levels[p] = append(levels[p], si)
	}
	sort.Ints(parents)

	for _, p := range parents {
		siblings := levels[p]
		for i := 1; i < len(siblings); i++ {
			for j := 0; j < i; j++ {
				a := lc.subs[siblings[j]].box
				b := lc.subs[siblings[i]].box
				if !a.Expand(lc.cfg.NodeSpacing / 2).Intersects(b.Expand(lc.cfg.NodeSpacing / 2)) {
					continue
				}
				var delta geom.Point
				if lc.dir.Horizontal() {
					delta.Y = a.MaxY() + lc.cfg.NodeSpacing - b.Y
				} else {
					delta.X = a.MaxX() + lc.cfg.NodeSpacing - b.X
				}
				lc.shiftSubgraph(siblings[i], delta)
			}
		}
	}
}

// shiftSubgraph translates a subgraph subtree: its box, descendant boxes,
// member node rectangles, and any edge geometry already produced inside
// it (cluster-internal paths).
func (lc *context) shiftSubgraph(si int, delta geom.Point) {
	subs := lc.descendantSubs(si)
	inSub := make(map[int]bool, len(subs))
	for _, s := range subs {
		b := lc.subs[s].box
		lc.subs[s].box = geom.Rect{X: b.X + delta.X, Y: b.Y + delta.Y, W: b.W, H: b.H}
		inSub[s] = true
	}
	moved := make(map[int]bool)
	for ni := range lc.g.Nodes {
		if p := lc.g.Nodes[ni].Parent; p != -1 && inSub[p] {
			r := lc.nodes[ni].rect
			lc.nodes[ni].rect = geom.Rect{X: r.X + delta.X, Y: r.Y + delta.Y, W: r.W, H: r.H}
			moved[ni] = true
		}
	}
	for ei := range lc.edges {
		es := &lc.edges[ei]
		if len(es.points) == 0 {
			continue
		}
		e := lc.g.Edges[ei]
		if !moved[e.FromIdx] || !moved[e.ToIdx] {
			continue
		}
		for i := range es.points {
			es.points[i] = es.points[i].Add(delta)
		}
		es.start.Pos = es.start.Pos.Add(delta)
		es.end.Pos = es.end.Pos.Add(delta)
		if es.labelBox != nil {
			es.labelBox.X += delta.X
			es.labelBox.Y += delta.Y
		}
	}
}
