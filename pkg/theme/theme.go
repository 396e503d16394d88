// Package theme resolves diagram presentation defaults.
//
// A Theme supplies the colors and font settings renderers fall back to
// when a node or edge carries no explicit style. The layout engine never
// reads a theme - styles flow through it untouched - so themes affect
// pixels, not positions, with one exception: the pipeline folds the
// theme's font size into the layout configuration.
package theme

import "github.com/matzehuels/flowgrid/pkg/ir"

// Theme is a named bundle of presentation defaults.
type Theme struct {
	Name string

	FontFamily string
	FontSize   float64

	Background         string
	PrimaryColor       string
	PrimaryTextColor   string
	PrimaryBorderColor string
	SecondaryColor     string
	TertiaryColor      string
	LineColor          string
	EdgeLabelBg        string
	ClusterBg          string
	ClusterBorder      string
}

// Default returns the mermaid-compatible default theme.
func Default() *Theme {
	return &Theme{
		Name:               "default",
		FontFamily:         `"trebuchet ms", verdana, arial, sans-serif`,
		FontSize:           14,
		Background:         "#FFFFFF",
		PrimaryColor:       "#ECECFF",
		PrimaryTextColor:   "#333333",
		PrimaryBorderColor: "#9370DB",
		SecondaryColor:     "#FFFFDE",
		TertiaryColor:      "#F2FFF2",
		LineColor:          "#333333",
		EdgeLabelBg:        "#E8E8E8",
		ClusterBg:          "#FFFFDE",
		ClusterBorder:      "#AAAA33",
	}
}

// Modern returns a flat, higher-contrast theme.
func Modern() *Theme {
	return &Theme{
		Name:               "modern",
		FontFamily:         `"Inter", "Helvetica Neue", arial, sans-serif`,
		FontSize:           14,
		Background:         "#FFFFFF",
		PrimaryColor:       "#F4F6FA",
		PrimaryTextColor:   "#1A1F2B",
		PrimaryBorderColor: "#3E63DD",
		SecondaryColor:     "#EDF2F7",
		TertiaryColor:      "#E2E8F0",
		LineColor:          "#4A5568",
		EdgeLabelBg:        "#F7FAFC",
		ClusterBg:          "#F7F8FA",
		ClusterBorder:      "#CBD5E0",
	}
}

// ByName looks a theme up by its registered name; unknown names return
// the default theme, matching the reference renderer's behavior.
func ByName(name string) *Theme {
	switch name {
	case "modern":
		return Modern()
	case "", "default", "base", "mermaid":
		return Default()
	default:
		return Default()
	}
}

// NodeStyle fills the unset fields of a node's style bundle with the
// theme defaults.
func (t *Theme) NodeStyle(s ir.StyleBundle) ir.StyleBundle {
	if s.Fill == "" {
		s.Fill = t.PrimaryColor
	}
	if s.Stroke == "" {
		s.Stroke = t.PrimaryBorderColor
	}
	if s.StrokeWidth == 0 {
		s.StrokeWidth = 1
	}
	if s.TextColor == "" {
		s.TextColor = t.PrimaryTextColor
	}
	return s
}

// SubgraphStyle fills the unset fields of a subgraph's style bundle.
func (t *Theme) SubgraphStyle(s ir.StyleBundle) ir.StyleBundle {
	if s.Fill == "" {
		s.Fill = t.ClusterBg
	}
	if s.Stroke == "" {
		s.Stroke = t.ClusterBorder
	}
	if s.StrokeWidth == 0 {
		s.StrokeWidth = 1
	}
	if s.TextColor == "" {
		s.TextColor = t.PrimaryTextColor
	}
	return s
}

// Variables is the themeVariables override block from a config file.
// Nil pointers leave the theme field unchanged.
type Variables struct {
	FontFamily         *string  `toml:"fontFamily"`
	FontSize           *float64 `toml:"fontSize"`
	Background         *string  `toml:"background"`
	PrimaryColor       *string  `toml:"primaryColor"`
	PrimaryTextColor   *string  `toml:"primaryTextColor"`
	PrimaryBorderColor *string  `toml:"primaryBorderColor"`
	SecondaryColor     *string  `toml:"secondaryColor"`
	TertiaryColor      *string  `toml:"tertiaryColor"`
	LineColor          *string  `toml:"lineColor"`
	EdgeLabelBg        *string  `toml:"edgeLabelBackground"`
	ClusterBg          *string  `toml:"clusterBkg"`
	ClusterBorder      *string  `toml:"clusterBorder"`
}

// Apply overrides the theme's fields with any set variables.
func (t *Theme) Apply(v *Variables) {
	if v == nil {
		return
	}
	setS := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setS(&t.FontFamily, v.FontFamily)
	if v.FontSize != nil {
		t.FontSize = *v.FontSize
	}
	setS(&t.Background, v.Background)
	setS(&t.PrimaryColor, v.PrimaryColor)
	setS(&t.PrimaryTextColor, v.PrimaryTextColor)
	setS(&t.PrimaryBorderColor, v.PrimaryBorderColor)
	setS(&t.SecondaryColor, v.SecondaryColor)
	setS(&t.TertiaryColor, v.TertiaryColor)
	setS(&t.LineColor, v.LineColor)
	setS(&t.EdgeLabelBg, v.EdgeLabelBg)
	setS(&t.ClusterBg, v.ClusterBg)
	setS(&t.ClusterBorder, v.ClusterBorder)
}
