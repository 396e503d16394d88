package geom

import (
	"math"
	"testing"
)

func TestRectIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want bool
	}{
		{"overlap", Rect{0, 0, 10, 10}, Rect{5, 5, 10, 10}, true},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 5, 5}, false},
		{"touching edges", Rect{0, 0, 10, 10}, Rect{10, 0, 10, 10}, false},
		{"contained", Rect{0, 0, 10, 10}, Rect{2, 2, 2, 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectIntersectionArea(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{5, 5, 10, 10}
	if got := a.Intersection(b).Area(); got != 25 {
		t.Errorf("Intersection area = %g, want 25", got)
	}
	if got := a.Intersection(Rect{20, 0, 5, 5}).Area(); got != 0 {
		t.Errorf("disjoint intersection area = %g, want 0", got)
	}
}

func TestRectExpandUnion(t *testing.T) {
	r := Rect{10, 10, 20, 20}.Expand(5)
	want := Rect{5, 5, 30, 30}
	if r != want {
		t.Errorf("Expand = %v, want %v", r, want)
	}
	u := Rect{0, 0, 10, 10}.Union(Rect{20, 20, 10, 10})
	if u != (Rect{0, 0, 30, 30}) {
		t.Errorf("Union = %v, want {0 0 30 30}", u)
	}
}

func TestOnBoundary(t *testing.T) {
	r := Rect{0, 0, 10, 10}
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"top edge", Point{5, 0}, true},
		{"right edge", Point{10, 5}, true},
		{"corner", Point{0, 0}, true},
		{"center", Point{5, 5}, false},
		{"outside", Point{15, 5}, false},
		{"within eps", Point{5, 0.4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.OnBoundary(tt.p); got != tt.want {
				t.Errorf("OnBoundary(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestSegmentCrossesInterior(t *testing.T) {
	r := Rect{10, 10, 20, 20}
	tests := []struct {
		name string
		s    Segment
		want bool
	}{
		{"through middle", Segment{Point{0, 20}, Point{40, 20}}, true},
		{"above", Segment{Point{0, 5}, Point{40, 5}}, false},
		{"along edge", Segment{Point{0, 10}, Point{40, 10}}, false},
		{"ends on edge", Segment{Point{0, 20}, Point{10, 20}}, false},
		{"vertical through", Segment{Point{20, 0}, Point{20, 40}}, true},
		{"short inside", Segment{Point{15, 15}, Point{25, 15}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.CrossesInterior(r); got != tt.want {
				t.Errorf("CrossesInterior = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentDistToPoint(t *testing.T) {
	s := Segment{Point{0, 0}, Point{10, 0}}
	if d := s.DistToPoint(Point{5, 3}); d != 3 {
		t.Errorf("perpendicular distance = %g, want 3", d)
	}
	if d := s.DistToPoint(Point{13, 4}); d != 5 {
		t.Errorf("corner distance = %g, want 5", d)
	}
}

func TestSegmentDistToRect(t *testing.T) {
	r := Rect{10, 10, 10, 10}
	touching := Segment{Point{0, 15}, Point{10, 15}}
	if d := touching.DistToRect(r); d != 0 {
		t.Errorf("touching segment distance = %g, want 0", d)
	}
	apart := Segment{Point{12, 25}, Point{18, 25}}
	if d := apart.DistToRect(r); d != 5 {
		t.Errorf("parallel segment distance = %g, want 5", d)
	}
}

func TestRoundPoint(t *testing.T) {
	p := RoundPoint(Point{1.4, 2.6})
	if p != (Point{1, 3}) {
		t.Errorf("RoundPoint = %v, want {1 3}", p)
	}
}

func TestRectRound(t *testing.T) {
	r := Rect{1.2, 3.7, 10.1, 4.0}.Round()
	if r != (Rect{1, 4, 11, 4}) {
		t.Errorf("Round = %v, want {1 4 11 4}", r)
	}
}

func TestDist(t *testing.T) {
	if d := (Point{0, 0}).Dist(Point{3, 4}); math.Abs(d-5) > 1e-12 {
		t.Errorf("Dist = %g, want 5", d)
	}
}
