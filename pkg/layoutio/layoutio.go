// Package layoutio serializes laid-out diagrams as JSON.
//
// The dump format is the engine's debugging and regression surface: it
// captures every geometric decision (rectangles, ports, polylines,
// label boxes) in a stable, human-readable form that diffing tools and
// the score harness can consume. [Read] recovers the node rectangles
// that [Write] recorded.
package layoutio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/flowgrid/pkg/geom"
	"github.com/matzehuels/flowgrid/pkg/layout"
)

type dump struct {
	Direction string     `json:"direction"`
	Metrics   string     `json:"metricsVersion"`
	Bounds    rect       `json:"bounds"`
	Nodes     []node     `json:"nodes"`
	Subgraphs []subgraph `json:"subgraphs,omitempty"`
	Edges     []edge     `json:"edges"`
	Warnings  []warning  `json:"warnings,omitempty"`
}

type rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type node struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Shape string `json:"shape"`
	Rect  rect   `json:"rect"`
}

type subgraph struct {
	ID     string  `json:"id"`
	Label  string  `json:"label,omitempty"`
	Rect   rect    `json:"rect"`
	TitleH float64 `json:"titleHeight"`
}

type port struct {
	Node   string  `json:"node"`
	Side   string  `json:"side"`
	Offset float64 `json:"offset"`
}

type edge struct {
	ID       string       `json:"id"`
	From     string       `json:"from"`
	To       string       `json:"to"`
	Points   [][2]float64 `json:"points"`
	Start    port         `json:"start"`
	End      port         `json:"end"`
	Label    string       `json:"label,omitempty"`
	LabelBox *rect        `json:"labelBox,omitempty"`
	Reversed bool         `json:"reversed,omitempty"`
	Forced   bool         `json:"forced,omitempty"`
}

type warning struct {
	Code    string `json:"code"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

func toRect(r geom.Rect) rect { return rect{r.X, r.Y, r.W, r.H} }

// Write encodes the diagram as indented JSON.
func Write(d *layout.Diagram, w io.Writer) error {
	out := dump{
		Direction: d.Direction.String(),
		Metrics:   d.MetricsVersion,
		Bounds:    toRect(d.Bounds),
		Nodes:     make([]node, len(d.Nodes)),
		Edges:     make([]edge, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = node{ID: n.ID, Label: n.Label, Shape: n.Shape.String(), Rect: toRect(n.Rect)}
	}
	for _, s := range d.Subgraphs {
		out.Subgraphs = append(out.Subgraphs, subgraph{
			ID: s.ID, Label: s.Label, Rect: toRect(s.Rect), TitleH: s.TitleH,
		})
	}
	for i, e := range d.Edges {
		pts := make([][2]float64, len(e.Points))
		for j, p := range e.Points {
			pts[j] = [2]float64{p.X, p.Y}
		}
		out.Edges[i] = edge{
			ID: e.ID, From: e.From, To: e.To, Points: pts,
			Start:    port{Node: d.Nodes[e.Start.Node].ID, Side: e.Start.Side.String(), Offset: e.Start.Offset},
			End:      port{Node: d.Nodes[e.End.Node].ID, Side: e.End.Side.String(), Offset: e.End.Offset},
			Label:    e.Label,
			Reversed: e.Reversed,
			Forced:   e.Forced,
		}
		if e.LabelBox != nil {
			r := toRect(*e.LabelBox)
			out.Edges[i].LabelBox = &r
		}
	}
	for _, warn := range d.Warnings {
		out.Warnings = append(out.Warnings, warning{
			Code: string(warn.Code), Subject: warn.Subject, Message: warn.Message,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode layout dump: %w", err)
	}
	return nil
}

// Read decodes a layout dump back into the geometry needed for stability
// hints and diffing: node rectangles keyed by ID. Full diagrams are not
// reconstructed - the dump is a record, not an interchange format.
func Read(r io.Reader) (map[string]geom.Rect, error) {
	var in dump
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode layout dump: %w", err)
	}
	rects := make(map[string]geom.Rect, len(in.Nodes))
	for _, n := range in.Nodes {
		rects[n.ID] = geom.Rect{X: n.Rect.X, Y: n.Rect.Y, W: n.Rect.W, H: n.Rect.H}
	}
	return rects, nil
}
