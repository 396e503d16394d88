package layout

import (
	"math"

	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/textmetrics"
)

// Shape padding multipliers relative to the rectangular base padding.
// Slanted and pointed outlines need more room so the label clears the
// outline at its narrowest point.
const (
	diamondPadFactor   = 1.9
	hexagonPadFactor   = 1.35
	slantedPadFactor   = 1.45
	cylinderPadYFactor = 1.6
	minNodeExtent      = 18.0
)

// resolveSizes assigns a width and height to every node from its label
// extent plus shape padding, and a title height to every subgraph. All
// extents are rounded up to whole pixels so later arithmetic stays
// integral across platforms.
//
// Unknown shape variants fall back to rectangle padding and record an
// UNKNOWN_SHAPE warning; the render proceeds.
func (lc *context) resolveSizes() {
	for i := range lc.g.Nodes {
		n := &lc.g.Nodes[i]
		label := n.Label
		if label == "" {
			label = n.ID
		}
		w, h := textmetrics.Measure(lc.tm, label, lc.cfg.FontSize)

		padX, padY := lc.shapePadding(n.Shape, n.ID)
		w += 2 * padX
		h += 2 * padY

		switch n.Shape {
		case ir.ShapeCircle:
			// Circles are bounded by their diagonal.
			d := math.Ceil(math.Hypot(w, h))
			w, h = d, d
		case ir.ShapeStadium:
			// Caps are half the height on each end.
			w += h
		}

		w = math.Max(math.Ceil(w), minNodeExtent)
		h = math.Max(math.Ceil(h), minNodeExtent)
		lc.nodes[i].w = w
		lc.nodes[i].h = h
	}

	for i := range lc.g.Subgraphs {
		s := &lc.g.Subgraphs[i]
		title := s.Label
		if title == "" {
			title = s.ID
		}
		_, h := textmetrics.Measure(lc.tm, title, lc.cfg.FontSize)
		lc.subs[i].titleH = math.Ceil(h + 2*lc.cfg.TitlePad)
	}

	for i := range lc.g.Edges {
		e := &lc.g.Edges[i]
		if e.Label == "" {
			continue
		}
		w, h := textmetrics.Measure(lc.tm, e.Label, lc.cfg.FontSize)
		lc.edges[i].labelW = w + 2*edgeLabelPad
		lc.edges[i].labelH = h + 2*edgeLabelPad
	}
}

// shapePadding returns per-side label padding for the shape. The switch
// is exhaustive over ir.Shape; genuinely unknown values (future variants)
// hit the default arm.
func (lc *context) shapePadding(s ir.Shape, nodeID string) (padX, padY float64) {
	padX, padY = lc.cfg.NodePadX, lc.cfg.NodePadY
	switch s {
	case ir.ShapeRect, ir.ShapeRound, ir.ShapeStadium, ir.ShapeCircle:
		return padX, padY
	case ir.ShapeSubroutine:
		// Double side bars.
		return padX + 8, padY
	case ir.ShapeDiamond:
		return padX * diamondPadFactor, padY * diamondPadFactor
	case ir.ShapeHexagon:
		return padX * hexagonPadFactor, padY
	case ir.ShapeParallelogram, ir.ShapeTrapezoid:
		return padX * slantedPadFactor, padY
	case ir.ShapeCylinder:
		return padX, padY * cylinderPadYFactor
	default:
		lc.warnf(errors.ErrCodeUnknownShape, nodeID,
			"unknown shape %s, using rectangle padding", s)
		return padX, padY
	}
}

const edgeLabelPad = 3.0
