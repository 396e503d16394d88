package theme

import (
	"testing"

	"github.com/matzehuels/flowgrid/pkg/ir"
)

func TestByName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"default", "default"},
		{"mermaid", "default"},
		{"base", "default"},
		{"", "default"},
		{"modern", "modern"},
		{"no-such-theme", "default"},
	}
	for _, tt := range tests {
		if got := ByName(tt.in); got.Name != tt.want {
			t.Errorf("ByName(%q).Name = %q, want %q", tt.in, got.Name, tt.want)
		}
	}
}

func TestNodeStyleDefaults(t *testing.T) {
	th := Default()
	s := th.NodeStyle(ir.StyleBundle{})
	if s.Fill != th.PrimaryColor || s.Stroke != th.PrimaryBorderColor {
		t.Errorf("empty bundle should take theme colors, got %+v", s)
	}
	if s.StrokeWidth != 1 {
		t.Errorf("default stroke width = %g, want 1", s.StrokeWidth)
	}

	custom := th.NodeStyle(ir.StyleBundle{Fill: "#123456"})
	if custom.Fill != "#123456" {
		t.Errorf("explicit fill must win, got %q", custom.Fill)
	}
}

func TestSubgraphStyleDefaults(t *testing.T) {
	th := Default()
	s := th.SubgraphStyle(ir.StyleBundle{})
	if s.Fill != th.ClusterBg || s.Stroke != th.ClusterBorder {
		t.Errorf("empty bundle should take cluster colors, got %+v", s)
	}
}

func TestApplyVariables(t *testing.T) {
	th := Default()
	fill := "#ABCDEF"
	size := 18.0
	th.Apply(&Variables{PrimaryColor: &fill, FontSize: &size})
	if th.PrimaryColor != fill {
		t.Errorf("PrimaryColor = %q, want %q", th.PrimaryColor, fill)
	}
	if th.FontSize != size {
		t.Errorf("FontSize = %g, want %g", th.FontSize, size)
	}
	// Unset variables leave fields untouched.
	before := th.LineColor
	th.Apply(&Variables{})
	if th.LineColor != before {
		t.Errorf("unset variable changed LineColor")
	}
	th.Apply(nil)
}
