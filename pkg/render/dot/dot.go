// Package dot exports a typed graph to Graphviz DOT text.
//
// This is a debugging surface: it lets the structure of a parsed graph
// be inspected with standard Graphviz tooling independently of the
// native layout engine. Positions are intentionally not exported - DOT
// consumers run their own layout.
package dot

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/flowgrid/pkg/ir"
)

// Options configures DOT export.
type Options struct {
	// Detailed appends the node shape to node labels.
	Detailed bool
}

// Export converts a graph to DOT format.
func Export(g *ir.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(g.Direction))
	buf.WriteString("  node [shape=box, style=rounded, fontsize=12];\n\n")

	emitted := make([]bool, len(g.Nodes))
	for si, s := range g.Subgraphs {
		if s.Parent != -1 {
			continue
		}
		exportSubgraph(&buf, g, si, emitted, "  ")
	}
	for ni, n := range g.Nodes {
		if !emitted[ni] {
			fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, label(n, opts))
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		attrs := ""
		if e.Style == ir.LineDotted {
			attrs = " [style=dashed]"
		} else if e.Style == ir.LineThick {
			attrs = " [penwidth=2.5]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From, e.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func exportSubgraph(buf *bytes.Buffer, g *ir.Graph, si int, emitted []bool, indent string) {
	s := g.Subgraphs[si]
	fmt.Fprintf(buf, "%ssubgraph \"cluster_%s\" {\n", indent, s.ID)
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, s.Label)
	for _, id := range s.Children {
		ni := g.NodeIndex(id)
		if ni == -1 || emitted[ni] {
			continue
		}
		fmt.Fprintf(buf, "%s  %q;\n", indent, id)
		emitted[ni] = true
	}
	for _, id := range s.SubIDs {
		if ci := g.SubgraphIndex(id); ci != -1 {
			exportSubgraph(buf, g, ci, emitted, indent+"  ")
		}
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

func label(n ir.Node, opts Options) string {
	if !opts.Detailed {
		return n.Label
	}
	return fmt.Sprintf("%s\nshape: %s", n.Label, n.Shape)
}

func rankdir(d ir.Direction) string {
	switch d {
	case ir.DirLR:
		return "LR"
	case ir.DirRL:
		return "RL"
	case ir.DirBT:
		return "BT"
	default:
		return "TB"
	}
}
