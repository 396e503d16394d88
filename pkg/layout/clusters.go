package layout

import (
	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/geom"
	"github.com/matzehuels/flowgrid/pkg/ir"
)

// A subgraph whose direction override changes the flow axis relative to
// its parent scope cannot share the parent's layering. Such subgraphs are
// laid out by a recursive Layout call on their induced graph and embedded
// in the parent as a single opaque unit (a "cluster"). Subgraphs that
// inherit the parent direction stay inline: their members participate in
// the parent's layers and the box is fitted afterwards.

// layoutClusters finds the outermost direction-overriding subgraphs,
// lays each out recursively, and records the embedding.
func (lc *context) layoutClusters() error {
	for si := range lc.g.Subgraphs {
		if !lc.isClusterRoot(si) {
			continue
		}
		cl, err := lc.layoutCluster(si)
		if err != nil {
			return err
		}
		lc.clusterOf[si] = len(lc.clusters)
		lc.clusters = append(lc.clusters, cl)
	}
	return nil
}

// isClusterRoot reports whether the subgraph rotates the flow axis and no
// ancestor already does (inner rotations are handled by recursion).
func (lc *context) isClusterRoot(si int) bool {
	s := lc.g.Subgraphs[si]
	if s.Direction == ir.DirInherit {
		return false
	}
	parentDir := lc.dir
	if s.Parent != -1 {
		parentDir = lc.g.EffectiveDirection(s.Parent)
	}
	if s.Direction == parentDir {
		return false
	}
	for p := s.Parent; p != -1; p = lc.g.Subgraphs[p].Parent {
		ps := lc.g.Subgraphs[p]
		pd := lc.dir
		if ps.Parent != -1 {
			pd = lc.g.EffectiveDirection(ps.Parent)
		}
		if ps.Direction != ir.DirInherit && ps.Direction != pd {
			return false
		}
	}
	return true
}

// descendantSubs returns si plus all subgraphs nested under it.
func (lc *context) descendantSubs(si int) []int {
	subs := []int{si}
	for i := 0; i < len(subs); i++ {
		for sj := range lc.g.Subgraphs {
			if lc.g.Subgraphs[sj].Parent == subs[i] {
				subs = append(subs, sj)
			}
		}
	}
	return subs
}

// layoutCluster builds the induced graph of the subgraph's descendants
// and lays it out with the overridden direction.
func (lc *context) layoutCluster(si int) (cluster, error) {
	subs := lc.descendantSubs(si)
	inSub := make(map[int]bool, len(subs))
	for _, s := range subs {
		inSub[s] = true
	}

	var nodeMap []int
	nodeIn := make(map[int]bool)
	for ni := range lc.g.Nodes {
		if p := lc.g.Nodes[ni].Parent; p != -1 && inSub[p] {
			nodeMap = append(nodeMap, ni)
			nodeIn[ni] = true
		}
	}

	sub := &ir.Graph{Direction: lc.g.Subgraphs[si].Direction}
	for _, ni := range nodeMap {
		n := lc.g.Nodes[ni]
		if err := sub.AddNode(ir.Node{ID: n.ID, Label: n.Label, Shape: n.Shape, Style: n.Style}); err != nil {
			return cluster{}, errors.Wrap(errors.ErrCodeInternal, err,
				"cluster %s", lc.g.Subgraphs[si].ID)
		}
	}

	var edgeMap []int
	for ei, e := range lc.g.Edges {
		if nodeIn[e.FromIdx] && nodeIn[e.ToIdx] {
			sub.AddEdge(ir.Edge{
				ID: e.ID, From: e.From, To: e.To,
				Label: e.Label, Style: e.Style,
				StartDec: e.StartDec, EndDec: e.EndDec,
			})
			edgeMap = append(edgeMap, ei)
			lc.edges[ei].internal = true
		}
	}

	// Nested subgraphs keep their structure; the cluster root itself is
	// represented by the parent's subgraph box, not re-nested.
	var subMap []int
	for _, sj := range subs[1:] {
		s := lc.g.Subgraphs[sj]
		nested := ir.Subgraph{
			ID: s.ID, Label: s.Label, Direction: s.Direction,
			Children: s.Children, Style: s.Style,
		}
		for _, childID := range s.SubIDs {
			nested.SubIDs = append(nested.SubIDs, childID)
		}
		if err := sub.AddSubgraph(nested); err != nil {
			return cluster{}, errors.Wrap(errors.ErrCodeInternal, err,
				"cluster %s", lc.g.Subgraphs[si].ID)
		}
		subMap = append(subMap, sj)
	}

	cfg := lc.cfg
	cfg.Direction = lc.g.Subgraphs[si].Direction

	d, err := Layout(sub, cfg, lc.tm)
	if err != nil {
		return cluster{}, err
	}
	return cluster{sub: si, diagram: d, nodeMap: nodeMap, edgeMap: edgeMap, subMap: subMap, unit: -1}, nil
}

// insideCluster reports whether the node is a descendant of any cluster
// root subgraph.
func (lc *context) insideCluster(nodeIdx int) (int, bool) {
	for _, si := range lc.g.Ancestry(nodeIdx) {
		if ci := lc.clusterOf[si]; ci != -1 {
			return ci, true
		}
	}
	return -1, false
}

// buildUnits creates the rank/order/coordinate participants: one unit per
// top-level node and one per cluster, plus the unit edge list with
// endpoints mapped onto units.
func (lc *context) buildUnits() {
	unitOf := make([]int, len(lc.g.Nodes))
	for i := range unitOf {
		unitOf[i] = -1
	}

	for ni := range lc.g.Nodes {
		if _, ok := lc.insideCluster(ni); ok {
			continue
		}
		u := unit{node: ni, cluster: -1, comp: -1}
		u.pw, u.cw = lc.flowExtents(lc.nodes[ni].w, lc.nodes[ni].h)
		unitOf[ni] = len(lc.units)
		lc.nodes[ni].unit = len(lc.units)
		lc.units = append(lc.units, u)
	}
	for ci := range lc.clusters {
		cl := &lc.clusters[ci]
		b := cl.diagram.Bounds
		w := b.W + 2*lc.cfg.SubgraphPad
		h := b.H + 2*lc.cfg.SubgraphPad + lc.subs[cl.sub].titleH
		u := unit{node: -1, cluster: ci, comp: -1}
		u.pw, u.cw = lc.flowExtents(w, h)
		cl.unit = len(lc.units)
		lc.units = append(lc.units, u)
	}

	for ei, e := range lc.g.Edges {
		es := &lc.edges[ei]
		if es.selfLoop || es.internal {
			continue
		}
		from, to := unitOf[e.FromIdx], unitOf[e.ToIdx]
		if from == -1 {
			ci, _ := lc.insideCluster(e.FromIdx)
			from = lc.clusters[ci].unit
		}
		if to == -1 {
			ci, _ := lc.insideCluster(e.ToIdx)
			to = lc.clusters[ci].unit
		}
		if from == to {
			continue
		}
		lc.unitEdges = append(lc.unitEdges, unitEdge{from: from, to: to, edge: ei})
	}
}

// flowExtents maps a final-space (w, h) box onto (primary, cross) extents
// for the current direction.
func (lc *context) flowExtents(w, h float64) (pw, cw float64) {
	if lc.dir.Horizontal() {
		return w, h
	}
	return h, w
}

// placeClusters translates each cluster's recursive layout into parent
// space once coordinates exist, adopting node rectangles, routed paths,
// nested subgraph boxes, and warnings.
func (lc *context) placeClusters() {
	for ci := range lc.clusters {
		cl := &lc.clusters[ci]
		u := lc.units[cl.unit]
		box := lc.unitRect(u)
		lc.subs[cl.sub].box = box
		lc.subs[cl.sub].placed = true

		d := cl.diagram
		dx := box.X + lc.cfg.SubgraphPad - d.Bounds.X
		dy := box.Y + lc.subs[cl.sub].titleH + lc.cfg.SubgraphPad - d.Bounds.Y
		shift := geom.Point{X: dx, Y: dy}

		for subIdx, parentIdx := range cl.nodeMap {
			r := d.Nodes[subIdx].Rect
			lc.nodes[parentIdx].rect = geom.Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
		}
		for subIdx, parentIdx := range cl.subMap {
			r := d.Subgraphs[subIdx].Rect
			lc.subs[parentIdx].box = geom.Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
			lc.subs[parentIdx].placed = true
		}
		for subIdx, parentIdx := range cl.edgeMap {
			re := d.Edges[subIdx]
			es := &lc.edges[parentIdx]
			es.reversed = re.Reversed
			es.forced = re.Forced
			es.points = make([]geom.Point, len(re.Points))
			for i, p := range re.Points {
				es.points[i] = p.Add(shift)
			}
			es.start = lc.remapPort(re.Start, cl, shift)
			es.end = lc.remapPort(re.End, cl, shift)
			if re.LabelBox != nil {
				lb := *re.LabelBox
				lb.X += dx
				lb.Y += dy
				es.labelBox = &lb
			}
		}
		for _, w := range d.Warnings {
			lc.warnings = append(lc.warnings, w)
		}
	}
}

func (lc *context) remapPort(p Port, cl *cluster, shift geom.Point) Port {
	p.Node = cl.nodeMap[p.Node]
	p.Pos = p.Pos.Add(shift)
	return p
}
