package textmetrics

import "testing"

func TestApproxWidth(t *testing.T) {
	a := Approx{}
	if w := a.Width("", 14); w != 0 {
		t.Errorf("empty string width = %g, want 0", w)
	}
	narrow := a.Width("iii", 14)
	wide := a.Width("mmm", 14)
	if narrow >= wide {
		t.Errorf("narrow %g should measure below wide %g", narrow, wide)
	}
	// Width scales linearly with font size.
	if a.Width("abc", 28) != 2*a.Width("abc", 14) {
		t.Errorf("width should scale with size")
	}
}

func TestApproxLineHeight(t *testing.T) {
	a := Approx{}
	size := 14.0
	if h := a.LineHeight(size); h != size*1.35 {
		t.Errorf("line height = %g, want %g", h, size*1.35)
	}
}

func TestMeasureMultiline(t *testing.T) {
	a := Approx{}
	w1, h1 := Measure(a, "hello", 14)
	w2, h2 := Measure(a, "hello\nhi", 14)
	if h2 != 2*h1 {
		t.Errorf("two lines height = %g, want %g", h2, 2*h1)
	}
	if w2 != w1 {
		t.Errorf("block width %g should match longest line %g", w2, w1)
	}
	if w0, h0 := Measure(a, "", 14); w0 != 0 || h0 != 0 {
		t.Errorf("empty measure = %g,%g, want 0,0", w0, h0)
	}
}

func TestMeasureRoundsUp(t *testing.T) {
	a := Approx{}
	w, h := Measure(a, "x", 13)
	if w != float64(int(w)) || h != float64(int(h)) {
		t.Errorf("measure should round to whole pixels, got %g × %g", w, h)
	}
}

func TestApproxVersion(t *testing.T) {
	if v := (Approx{}).Version(); v != "approx/1" {
		t.Errorf("Version = %q", v)
	}
}

func TestShardStability(t *testing.T) {
	if shardFor("hello") != shardFor("hello") {
		t.Errorf("shardFor must be deterministic")
	}
	if s := shardFor("anything"); s >= widthCacheShards {
		t.Errorf("shard %d out of range", s)
	}
}
