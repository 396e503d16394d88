// Package geom provides the small set of 2D primitives the layout engine
// works in: points, axis-aligned rectangles, and axis-aligned segments.
//
// All coordinates are pixels with the origin at the top-left and y growing
// downward, matching SVG conventions. The layout pipeline rounds every
// published coordinate to whole pixels, so comparisons in this package use
// exact arithmetic wherever possible and a small epsilon only for boundary
// checks.
package geom

import "math"

// Eps is the tolerance used for boundary containment checks.
// Half a pixel, per the endpoint-on-boundary invariant.
const Eps = 0.5

// Point is a position in pixel space.
type Point struct {
	X, Y float64
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point { return Point{p.X + d.X, p.Y + d.Y} }

// Dist returns the Euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned rectangle identified by its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Center returns the rectangle's center point.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Area returns W×H. Degenerate rectangles have zero area.
func (r Rect) Area() float64 {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// Expand returns the rectangle grown by pad on every side.
// A negative pad shrinks the rectangle; callers must ensure it stays valid.
func (r Rect) Expand(pad float64) Rect {
	return Rect{r.X - pad, r.Y - pad, r.W + 2*pad, r.H + 2*pad}
}

// Union returns the smallest rectangle containing both r and s.
func (r Rect) Union(s Rect) Rect {
	x := math.Min(r.X, s.X)
	y := math.Min(r.Y, s.Y)
	return Rect{
		X: x,
		Y: y,
		W: math.Max(r.MaxX(), s.MaxX()) - x,
		H: math.Max(r.MaxY(), s.MaxY()) - y,
	}
}

// Intersects reports whether the interiors of r and s overlap.
// Rectangles that merely touch along an edge do not intersect.
func (r Rect) Intersects(s Rect) bool {
	return r.X < s.MaxX() && s.X < r.MaxX() && r.Y < s.MaxY() && s.Y < r.MaxY()
}

// Intersection returns the overlap of r and s, or a zero-area rectangle
// when they are disjoint.
func (r Rect) Intersection(s Rect) Rect {
	x := math.Max(r.X, s.X)
	y := math.Max(r.Y, s.Y)
	w := math.Min(r.MaxX(), s.MaxX()) - x
	h := math.Min(r.MaxY(), s.MaxY()) - y
	if w <= 0 || h <= 0 {
		return Rect{}
	}
	return Rect{x, y, w, h}
}

// Contains reports whether p lies inside r or on its boundary, within Eps.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X-Eps && p.X <= r.MaxX()+Eps &&
		p.Y >= r.Y-Eps && p.Y <= r.MaxY()+Eps
}

// ContainsRect reports whether s lies entirely within r, within Eps.
func (r Rect) ContainsRect(s Rect) bool {
	return s.X >= r.X-Eps && s.Y >= r.Y-Eps &&
		s.MaxX() <= r.MaxX()+Eps && s.MaxY() <= r.MaxY()+Eps
}

// OnBoundary reports whether p lies on r's boundary, within Eps.
func (r Rect) OnBoundary(p Point) bool {
	if !r.Contains(p) {
		return false
	}
	onX := math.Abs(p.X-r.X) <= Eps || math.Abs(p.X-r.MaxX()) <= Eps
	onY := math.Abs(p.Y-r.Y) <= Eps || math.Abs(p.Y-r.MaxY()) <= Eps
	return onX || onY
}

// Segment is an axis-aligned line segment. Both endpoints share either an
// X or a Y coordinate; diagonal segments never appear in routed paths.
type Segment struct {
	A, B Point
}

// Horizontal reports whether the segment runs along the x axis.
func (s Segment) Horizontal() bool { return s.A.Y == s.B.Y }

// Vertical reports whether the segment runs along the y axis.
func (s Segment) Vertical() bool { return s.A.X == s.B.X }

// Length returns the segment's length.
func (s Segment) Length() float64 { return s.A.Dist(s.B) }

// Bounds returns the segment's bounding rectangle (zero width or height).
func (s Segment) Bounds() Rect {
	x := math.Min(s.A.X, s.B.X)
	y := math.Min(s.A.Y, s.B.Y)
	return Rect{x, y, math.Abs(s.A.X - s.B.X), math.Abs(s.A.Y - s.B.Y)}
}

// CrossesInterior reports whether the segment passes through the strict
// interior of r. Touching the boundary does not count: a segment that ends
// exactly on an edge (an edge terminating at its port) is not a crossing.
func (s Segment) CrossesInterior(r Rect) bool {
	inner := r.Expand(-Eps)
	if inner.W <= 0 || inner.H <= 0 {
		return false
	}
	if s.Horizontal() {
		y := s.A.Y
		if y <= inner.Y || y >= inner.MaxY() {
			return false
		}
		lo := math.Min(s.A.X, s.B.X)
		hi := math.Max(s.A.X, s.B.X)
		return lo < inner.MaxX() && hi > inner.X
	}
	x := s.A.X
	if x <= inner.X || x >= inner.MaxX() {
		return false
	}
	lo := math.Min(s.A.Y, s.B.Y)
	hi := math.Max(s.A.Y, s.B.Y)
	return lo < inner.MaxY() && hi > inner.Y
}

// DistToPoint returns the shortest distance from p to the segment.
func (s Segment) DistToPoint(p Point) float64 {
	if s.Horizontal() {
		lo := math.Min(s.A.X, s.B.X)
		hi := math.Max(s.A.X, s.B.X)
		dx := 0.0
		if p.X < lo {
			dx = lo - p.X
		} else if p.X > hi {
			dx = p.X - hi
		}
		return math.Hypot(dx, p.Y-s.A.Y)
	}
	lo := math.Min(s.A.Y, s.B.Y)
	hi := math.Max(s.A.Y, s.B.Y)
	dy := 0.0
	if p.Y < lo {
		dy = lo - p.Y
	} else if p.Y > hi {
		dy = p.Y - hi
	}
	return math.Hypot(p.X-s.A.X, dy)
}

// DistToRect returns the shortest distance from the segment to r's boundary,
// or 0 when the segment touches or overlaps the rectangle.
func (s Segment) DistToRect(r Rect) float64 {
	if s.CrossesInterior(r) || r.Contains(s.A) || r.Contains(s.B) {
		return 0
	}
	d := s.DistToPoint(Point{r.X, r.Y})
	for _, c := range []Point{{r.MaxX(), r.Y}, {r.X, r.MaxY()}, {r.MaxX(), r.MaxY()}} {
		d = math.Min(d, s.DistToPoint(c))
	}
	// Perpendicular cases: segment projects onto a rectangle side.
	if s.Horizontal() {
		lo := math.Min(s.A.X, s.B.X)
		hi := math.Max(s.A.X, s.B.X)
		if hi >= r.X && lo <= r.MaxX() {
			if s.A.Y < r.Y {
				d = math.Min(d, r.Y-s.A.Y)
			} else if s.A.Y > r.MaxY() {
				d = math.Min(d, s.A.Y-r.MaxY())
			}
		}
	} else {
		lo := math.Min(s.A.Y, s.B.Y)
		hi := math.Max(s.A.Y, s.B.Y)
		if hi >= r.Y && lo <= r.MaxY() {
			if s.A.X < r.X {
				d = math.Min(d, r.X-s.A.X)
			} else if s.A.X > r.MaxX() {
				d = math.Min(d, s.A.X-r.MaxX())
			}
		}
	}
	return d
}

// SegmentsIntersect reports whether two axis-aligned segments share a point.
func SegmentsIntersect(a, b Segment) bool {
	ab := a.Bounds()
	bb := b.Bounds()
	return ab.X <= bb.MaxX() && bb.X <= ab.MaxX() &&
		ab.Y <= bb.MaxY() && bb.Y <= ab.MaxY()
}

// RoundPoint snaps p to whole pixels. The layout pipeline publishes only
// rounded coordinates to keep output byte-stable across platforms.
func RoundPoint(p Point) Point {
	return Point{math.Round(p.X), math.Round(p.Y)}
}

// Round snaps all rectangle coordinates to whole pixels, rounding the
// extent up so content never shrinks below its measured size.
func (r Rect) Round() Rect {
	return Rect{math.Round(r.X), math.Round(r.Y), math.Ceil(r.W), math.Ceil(r.H)}
}
