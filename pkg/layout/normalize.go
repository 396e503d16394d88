package layout

import (
	"math"

	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/geom"
)

// Label scoring constants. Overlaps smaller than sliverArea are ignored
// so sub-pixel font jitter cannot flip anchor decisions between runs.
const (
	sliverArea      = 10.0
	clearanceMin    = 1.0
	clearanceMax    = 6.0
	clearanceTarget = 3.5
	labelEdgeGap    = 4.0
)

// normalize is the final pass: it re-checks the hard invariants the
// earlier stages guarantee, shifts the diagram to a non-negative origin,
// and places edge labels.
//
// A detected node overlap or off-boundary endpoint at this point is an
// engine bug, not bad input, and fails the render with
// INVARIANT_VIOLATION. Label placement slides each label along its edge
// path through the candidate anchor set and keeps the anchor with the
// lowest weighted overlap and the best clearance band; labels are always
// clamped to the canvas.
func (lc *context) normalize() error {
	if err := lc.checkInvariants(); err != nil {
		return err
	}
	lc.shiftToOrigin()
	lc.placeLabels()
	return nil
}

func (lc *context) checkInvariants() error {
	// Node-node overlap, rectangles expanded by half the node spacing.
	// The expansion shrinks by Eps so rectangles exactly at spacing
	// distance do not trip the check.
	half := lc.cfg.NodeSpacing/2 - geom.Eps
	for i := range lc.nodes {
		ri := lc.nodes[i].rect.Expand(half)
		for j := i + 1; j < len(lc.nodes); j++ {
			if ri.Intersects(lc.nodes[j].rect.Expand(half)) {
				return errors.New(errors.ErrCodeInvariantViolation,
					"nodes %q and %q overlap within node spacing",
					lc.g.Nodes[i].ID, lc.g.Nodes[j].ID)
			}
		}
	}

	// Every endpoint must lie on its node's boundary at the port.
	for ei := range lc.g.Edges {
		es := &lc.edges[ei]
		if len(es.points) == 0 {
			continue
		}
		from := lc.nodes[lc.g.Edges[ei].FromIdx].rect
		to := lc.nodes[lc.g.Edges[ei].ToIdx].rect
		if !from.OnBoundary(es.points[0]) {
			return errors.New(errors.ErrCodeInvariantViolation,
				"edge %q start point is off its source boundary", lc.g.Edges[ei].ID)
		}
		if !to.OnBoundary(es.points[len(es.points)-1]) {
			return errors.New(errors.ErrCodeInvariantViolation,
				"edge %q end point is off its target boundary", lc.g.Edges[ei].ID)
		}
	}
	return nil
}

// shiftToOrigin translates all geometry so the content starts at (0, 0).
func (lc *context) shiftToOrigin() {
	minX, minY := math.Inf(1), math.Inf(1)
	for i := range lc.nodes {
		minX = math.Min(minX, lc.nodes[i].rect.X)
		minY = math.Min(minY, lc.nodes[i].rect.Y)
	}
	for i := range lc.subs {
		if lc.subs[i].placed {
			minX = math.Min(minX, lc.subs[i].box.X)
			minY = math.Min(minY, lc.subs[i].box.Y)
		}
	}
	for i := range lc.edges {
		for _, p := range lc.edges[i].points {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return
	}
	delta := geom.Point{X: math.Round(-minX), Y: math.Round(-minY)}
	if delta.X == 0 && delta.Y == 0 {
		return
	}
	for i := range lc.nodes {
		r := lc.nodes[i].rect
		lc.nodes[i].rect = geom.Rect{X: r.X + delta.X, Y: r.Y + delta.Y, W: r.W, H: r.H}
	}
	for i := range lc.subs {
		b := lc.subs[i].box
		lc.subs[i].box = geom.Rect{X: b.X + delta.X, Y: b.Y + delta.Y, W: b.W, H: b.H}
	}
	for i := range lc.edges {
		es := &lc.edges[i]
		for j := range es.points {
			es.points[j] = es.points[j].Add(delta)
		}
		if len(es.points) > 0 {
			es.start.Pos = es.start.Pos.Add(delta)
			es.end.Pos = es.end.Pos.Add(delta)
		}
		if es.labelBox != nil {
			es.labelBox.X += delta.X
			es.labelBox.Y += delta.Y
		}
	}
}

// canvas is the label clamping region: the content bounds of nodes,
// subgraphs, and paths.
func (lc *context) canvas() geom.Rect {
	b := lc.contentBounds()
	for i := range lc.edges {
		for _, p := range lc.edges[i].points {
			b = b.Union(geom.Rect{X: p.X, Y: p.Y})
		}
	}
	return b
}

// placeLabels selects an anchor for every labeled edge. Candidates are
// the longest segment's midpoint, the 0.25/0.5/0.75 path-fraction
// points, and near-endpoint anchors; each is also tried offset to either
// side of its segment. Placed labels become obstacles for later ones,
// in declaration order.
func (lc *context) placeLabels() {
	canvas := lc.canvas()
	var placed []geom.Rect

	for ei := range lc.g.Edges {
		es := &lc.edges[ei]
		if es.labelBox != nil {
			// Cluster-internal labels were placed by the recursive
			// layout; they only count as obstacles here.
			placed = append(placed, *es.labelBox)
			continue
		}
		if lc.g.Edges[ei].Label == "" || len(es.points) < 2 {
			continue
		}

		best := geom.Rect{}
		bestScore := math.Inf(1)
		for _, anchor := range lc.labelAnchors(es.points) {
			for _, box := range lc.labelBoxes(es, anchor) {
				box = clampRect(box, canvas)
				score := lc.labelScore(ei, box, placed)
				if score < bestScore {
					best, bestScore = box, score
				}
			}
		}
		if math.IsInf(bestScore, 1) {
			continue
		}
		b := best.Round()
		es.labelBox = &b
		placed = append(placed, b)
	}
}

type labelAnchor struct {
	pos geom.Point
	seg geom.Segment
}

func (lc *context) labelAnchors(pts []geom.Point) []labelAnchor {
	segs := make([]geom.Segment, 0, len(pts)-1)
	total := 0.0
	for i := 0; i+1 < len(pts); i++ {
		s := geom.Segment{A: pts[i], B: pts[i+1]}
		segs = append(segs, s)
		total += s.Length()
	}

	var anchors []labelAnchor

	// Longest segment midpoint first: it is the preferred anchor.
	longest := 0
	for i, s := range segs {
		if s.Length() > segs[longest].Length() {
			longest = i
		}
	}
	mid := geom.Point{
		X: (segs[longest].A.X + segs[longest].B.X) / 2,
		Y: (segs[longest].A.Y + segs[longest].B.Y) / 2,
	}
	anchors = append(anchors, labelAnchor{pos: mid, seg: segs[longest]})

	// Path fractions.
	for _, f := range []float64{0.25, 0.5, 0.75} {
		want := total * f
		run := 0.0
		for _, s := range segs {
			l := s.Length()
			if run+l >= want && l > 0 {
				t := (want - run) / l
				anchors = append(anchors, labelAnchor{
					pos: geom.Point{X: s.A.X + (s.B.X-s.A.X)*t, Y: s.A.Y + (s.B.Y-s.A.Y)*t},
					seg: s,
				})
				break
			}
			run += l
		}
	}

	// Near-endpoint anchors.
	if len(segs) > 0 {
		first, last := segs[0], segs[len(segs)-1]
		anchors = append(anchors,
			labelAnchor{pos: pointAlong(first, math.Min(12, first.Length()/2)), seg: first},
			labelAnchor{pos: pointAlong(reversed(last), math.Min(12, last.Length()/2)), seg: last},
		)
	}
	return anchors
}

func reversed(s geom.Segment) geom.Segment { return geom.Segment{A: s.B, B: s.A} }

func pointAlong(s geom.Segment, d float64) geom.Point {
	l := s.Length()
	if l == 0 {
		return s.A
	}
	t := d / l
	return geom.Point{X: s.A.X + (s.B.X-s.A.X)*t, Y: s.A.Y + (s.B.Y-s.A.Y)*t}
}

// labelBoxes yields candidate boxes at an anchor: centered on the path
// and offset to either side of the segment into the clearance band.
func (lc *context) labelBoxes(es *edgeState, a labelAnchor) []geom.Rect {
	w, h := es.labelW, es.labelH
	centered := geom.Rect{X: a.pos.X - w/2, Y: a.pos.Y - h/2, W: w, H: h}
	off := labelEdgeGap
	if a.seg.Horizontal() {
		return []geom.Rect{
			{X: a.pos.X - w/2, Y: a.pos.Y - h - off, W: w, H: h},
			{X: a.pos.X - w/2, Y: a.pos.Y + off, W: w, H: h},
			centered,
		}
	}
	return []geom.Rect{
		{X: a.pos.X + off, Y: a.pos.Y - h/2, W: w, H: h},
		{X: a.pos.X - w - off, Y: a.pos.Y - h/2, W: w, H: h},
		centered,
	}
}

// labelScore is the weighted overlap plus clearance-band penalty for a
// candidate box. Lower is better. Sliver overlaps are ignored.
func (lc *context) labelScore(ei int, box geom.Rect, placed []geom.Rect) float64 {
	overlap := 0.0
	for ni := range lc.nodes {
		if a := box.Intersection(lc.nodes[ni].rect).Area(); a > sliverArea {
			overlap += a
		}
	}
	for _, p := range placed {
		if a := box.Intersection(p).Area(); a > sliverArea {
			overlap += a
		}
	}
	crossed := 0.0
	for ej := range lc.edges {
		if ej == ei {
			continue
		}
		for i := 0; i+1 < len(lc.edges[ej].points); i++ {
			seg := geom.Segment{A: lc.edges[ej].points[i], B: lc.edges[ej].points[i+1]}
			if seg.CrossesInterior(box) {
				crossed++
			}
		}
	}

	// Clearance to the label's own path.
	gap := math.Inf(1)
	for i := 0; i+1 < len(lc.edges[ei].points); i++ {
		seg := geom.Segment{A: lc.edges[ei].points[i], B: lc.edges[ei].points[i+1]}
		gap = math.Min(gap, seg.DistToRect(box))
	}
	clearPenalty := 0.0
	switch {
	case math.IsInf(gap, 1):
		clearPenalty = 100
	case gap < clearanceMin || gap > clearanceMax:
		clearPenalty = 20 * math.Abs(gap-clearanceTarget)
	}

	return 2*overlap + 50*crossed + clearPenalty
}

// clampRect moves r inside canvas, preferring the top-left when the
// rectangle is larger than the canvas.
func clampRect(r, canvas geom.Rect) geom.Rect {
	if r.MaxX() > canvas.MaxX() {
		r.X = canvas.MaxX() - r.W
	}
	if r.MaxY() > canvas.MaxY() {
		r.Y = canvas.MaxY() - r.H
	}
	if r.X < canvas.X {
		r.X = canvas.X
	}
	if r.Y < canvas.Y {
		r.Y = canvas.Y
	}
	return r
}
