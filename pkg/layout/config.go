package layout

import (
	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/geom"
	"github.com/matzehuels/flowgrid/pkg/ir"
)

// Config holds every knob the layout engine reads. No other configuration
// source is consulted; environment variables and CLI flags are mapped onto
// this struct by the caller.
//
// The zero Config is not valid - start from [DefaultConfig] and override.
type Config struct {
	// Direction is the primary flow direction. ir.DirInherit means TD.
	Direction ir.Direction

	// NodeSpacing is the minimum pixel gap between node rectangles in the
	// same layer. RankSpacing is the pixel gap between consecutive layers.
	NodeSpacing float64
	RankSpacing float64

	// OrderPasses is the number of forward/backward median sweeps used by
	// the orderer. Must be at least 1.
	OrderPasses int

	// PortPadRatio is the fraction of a node side reserved as padding when
	// distributing ports; the absolute padding is clamped to
	// [PortPadMin, PortPadMax] pixels. PortSideBias spreads crowded ports
	// onto the next-best side once a side is saturated.
	PortPadRatio float64
	PortPadMin   float64
	PortPadMax   float64
	PortSideBias float64

	// FastText selects the character-width approximation instead of exact
	// glyph metrics, regardless of the provider passed to Layout.
	FastText bool

	// FontSize is the label font size in pixels. Subgraph titles use the
	// same size with TitlePad above and below.
	FontSize float64

	// NodePadX and NodePadY are the label-to-outline paddings per side for
	// rectangular shapes; non-rectangular shapes scale them (see size.go).
	NodePadX float64
	NodePadY float64

	// SubgraphPad is the padding between a subgraph border and its member
	// bounding box. TitlePad is the extra vertical padding around a
	// subgraph's title line.
	SubgraphPad float64
	TitlePad    float64

	// WrapAspect is the aspect-ratio threshold beyond which a dominant
	// top-level chain is wrapped into multiple rows. Empirically 8.
	WrapAspect float64

	// ComponentGap separates disconnected components on the canvas.
	// Values below NodeSpacing are raised to NodeSpacing.
	ComponentGap float64

	// Weights are the readability-score weights. They are reported, never
	// enforced; exposed here for tuning.
	Weights ScoreWeights

	// Hints carries a prior layout's node center positions keyed by node
	// ID. The pipeline is pure, so re-running on the same graph already
	// reproduces the prior positions bit-for-bit. Layout does not read
	// hints, so they never override a computed position; the displacement
	// score component is computed by ScoreAgainst from the prior Diagram.
	Hints map[string]geom.Point
}

// ScoreWeights are the multipliers of the weighted readability objective.
type ScoreWeights struct {
	Crossings       float64
	TotalLength     float64
	Bends           float64
	SideCongestion  float64
	OverlapSegments float64
	Area            float64
	Displacement    float64
}

// DefaultWeights returns the documented initial readability weights.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{
		Crossings:       5,
		TotalLength:     2,
		Bends:           2,
		SideCongestion:  2,
		OverlapSegments: 1,
		Area:            1,
		Displacement:    3,
	}
}

// DefaultConfig returns the engine defaults. Spacing values follow the
// reference renderer (50 px node and rank spacing, 14 px labels).
func DefaultConfig() Config {
	return Config{
		Direction:    ir.DirTD,
		NodeSpacing:  50,
		RankSpacing:  50,
		OrderPasses:  4,
		PortPadRatio: 0.12,
		PortPadMin:   6,
		PortPadMax:   22,
		PortSideBias: 4,
		FontSize:     14,
		NodePadX:     15,
		NodePadY:     10,
		SubgraphPad:  12,
		TitlePad:     6,
		WrapAspect:   8,
		ComponentGap: 50,
		Weights:      DefaultWeights(),
	}
}

// Validate checks the configuration ranges: spacings and pads must be
// positive, ratios must lie in [0,1], and OrderPasses must be ≥ 1.
func (c Config) Validate() error {
	switch {
	case c.NodeSpacing <= 0 || c.RankSpacing <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "node and rank spacing must be positive")
	case c.OrderPasses < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "orderPasses must be at least 1, got %d", c.OrderPasses)
	case c.PortPadRatio < 0 || c.PortPadRatio > 1:
		return errors.New(errors.ErrCodeInvalidConfig, "portPadRatio must be in [0,1], got %g", c.PortPadRatio)
	case c.PortPadMin <= 0 || c.PortPadMax < c.PortPadMin:
		return errors.New(errors.ErrCodeInvalidConfig, "port padding clamp [%g,%g] is invalid", c.PortPadMin, c.PortPadMax)
	case c.FontSize <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "fontSize must be positive")
	case c.WrapAspect <= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "wrapAspect must exceed 1, got %g", c.WrapAspect)
	}
	return nil
}

// componentGap returns the effective gap between packed components.
func (c Config) componentGap() float64 {
	if c.ComponentGap < c.NodeSpacing {
		return c.NodeSpacing
	}
	return c.ComponentGap
}

// layerGap returns the effective gap between consecutive layers. It is
// raised to NodeSpacing so that rectangles expanded by half the node
// spacing can never overlap across layers.
func (c Config) layerGap() float64 {
	if c.RankSpacing < c.NodeSpacing {
		return c.NodeSpacing
	}
	return c.RankSpacing
}
