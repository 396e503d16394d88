package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/matzehuels/flowgrid/pkg/geom"
)

// ReadabilityScore is the weighted readability objective plus its raw
// components. It is reported, never enforced: the router and normalizer
// uphold the hard invariants, and the score tracks the soft qualities
// (crossings, bends, congestion) that make a diagram pleasant to read.
//
// Component units are heterogeneous - counts, pixels, and square pixels
// - which is why the weights are exposed for tuning rather than
// hard-coded into comparisons.
type ReadabilityScore struct {
	Crossings       float64 // intersecting segment pairs across edges
	TotalLength     float64 // summed path length, px
	Bends           float64 // interior bend points over all paths
	SideCongestion  float64 // ports beyond the first on each node side
	OverlapSegments float64 // collinear overlapping segment pairs
	Area            float64 // bounding box area, per 100×100 px block
	Displacement    float64 // from Diff when a prior layout is given

	Weighted float64
}

// Score computes the readability score of a diagram with the given
// weights. It is a pure function of the diagram. Displacement is zero;
// use [ScoreAgainst] when a prior layout exists.
func Score(d *Diagram, w ScoreWeights) ReadabilityScore {
	s := ReadabilityScore{
		Area: d.Bounds.W * d.Bounds.H / 1e4,
	}

	type seg struct {
		edge int
		s    geom.Segment
	}
	var segs []seg
	for ei, e := range d.Edges {
		for i := 0; i+1 < len(e.Points); i++ {
			segs = append(segs, seg{ei, geom.Segment{A: e.Points[i], B: e.Points[i+1]}})
			s.TotalLength += geom.Segment{A: e.Points[i], B: e.Points[i+1]}.Length()
		}
		if n := len(e.Points); n > 2 {
			s.Bends += float64(n - 2)
		}
	}

	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			if segs[i].edge == segs[j].edge {
				continue
			}
			if !geom.SegmentsIntersect(segs[i].s, segs[j].s) {
				continue
			}
			if collinearOverlap(segs[i].s, segs[j].s) {
				s.OverlapSegments++
			} else {
				s.Crossings++
			}
		}
	}

	congestion := make(map[[2]int]int)
	for _, e := range d.Edges {
		congestion[[2]int{e.Start.Node, int(e.Start.Side)}]++
		congestion[[2]int{e.End.Node, int(e.End.Side)}]++
	}
	for _, k := range congestion {
		if k > 1 {
			s.SideCongestion += float64(k - 1)
		}
	}

	s.Weighted = w.Crossings*s.Crossings +
		w.TotalLength*s.TotalLength +
		w.Bends*s.Bends +
		w.SideCongestion*s.SideCongestion +
		w.OverlapSegments*s.OverlapSegments +
		w.Area*s.Area +
		w.Displacement*s.Displacement
	return s
}

// ScoreAgainst scores a diagram that was laid out with a prior layout as
// stability hints; the displacement component comes from [Diff].
func ScoreAgainst(d, prev *Diagram, w ScoreWeights) ReadabilityScore {
	s := Score(d, w)
	s.Displacement = Diff(prev, d).Total
	s.Weighted += w.Displacement * s.Displacement
	return s
}

// collinearOverlap reports whether two parallel segments share more than
// a single point on the same line.
func collinearOverlap(a, b geom.Segment) bool {
	if a.Horizontal() && b.Horizontal() && a.A.Y == b.A.Y {
		lo := maxf(minf(a.A.X, a.B.X), minf(b.A.X, b.B.X))
		hi := minf(maxf(a.A.X, a.B.X), maxf(b.A.X, b.B.X))
		return hi > lo
	}
	if a.Vertical() && b.Vertical() && a.A.X == b.A.X {
		lo := maxf(minf(a.A.Y, a.B.Y), minf(b.A.Y, b.B.Y))
		hi := minf(maxf(a.A.Y, a.B.Y), maxf(b.A.Y, b.B.Y))
		return hi > lo
	}
	return false
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// NodeDisplacement is one node's movement between two layouts.
type NodeDisplacement struct {
	ID   string
	Dist float64
}

// DisplacementReport summarizes per-node movement between a prior and a
// current layout. Nodes present in only one layout are listed separately
// and excluded from the totals.
type DisplacementReport struct {
	PerNode []NodeDisplacement // in the current layout's node order
	Total   float64
	Mean    float64
	Missing []string // IDs present in exactly one of the two layouts
}

// Diff computes the per-node Euclidean displacement from prev to curr,
// matching nodes by ID.
func Diff(prev, curr *Diagram) DisplacementReport {
	var rep DisplacementReport
	prevByID := make(map[string]geom.Point, len(prev.Nodes))
	for _, n := range prev.Nodes {
		prevByID[n.ID] = n.Rect.Center()
	}
	seen := make(map[string]bool, len(curr.Nodes))
	for _, n := range curr.Nodes {
		seen[n.ID] = true
		p, ok := prevByID[n.ID]
		if !ok {
			rep.Missing = append(rep.Missing, n.ID)
			continue
		}
		d := n.Rect.Center().Dist(p)
		rep.PerNode = append(rep.PerNode, NodeDisplacement{ID: n.ID, Dist: d})
		rep.Total += d
	}
	for _, n := range prev.Nodes {
		if !seen[n.ID] {
			rep.Missing = append(rep.Missing, n.ID)
		}
	}
	if len(rep.PerNode) > 0 {
		rep.Mean = rep.Total / float64(len(rep.PerNode))
	}
	return rep
}

// Hints extracts a diagram's node centers as a stability-hint map for
// Config.Hints, keyed by node ID.
func (d *Diagram) Hints() map[string]geom.Point {
	h := make(map[string]geom.Point, len(d.Nodes))
	for _, n := range d.Nodes {
		h[n.ID] = n.Rect.Center()
	}
	return h
}

// Fingerprint returns a SHA-256 hex digest over a canonical rendering of
// the diagram's geometry. Identical (graph, config, metric provider)
// inputs must produce identical fingerprints across runs and machines.
func Fingerprint(d *Diagram) string {
	var b strings.Builder
	fmt.Fprintf(&b, "dir=%s metrics=%s bounds=%v\n", d.Direction, d.MetricsVersion, d.Bounds)
	for _, n := range d.Nodes {
		fmt.Fprintf(&b, "n %s %s %v\n", n.ID, n.Shape, n.Rect)
	}
	for _, s := range d.Subgraphs {
		fmt.Fprintf(&b, "s %s %v %g\n", s.ID, s.Rect, s.TitleH)
	}
	for _, e := range d.Edges {
		fmt.Fprintf(&b, "e %s %s>%s rev=%t forced=%t pts=%v", e.ID, e.From, e.To, e.Reversed, e.Forced, e.Points)
		if e.LabelBox != nil {
			fmt.Fprintf(&b, " lbl=%v", *e.LabelBox)
		}
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
