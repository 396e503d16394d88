package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowerrors "github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/ir"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		src  string
		want ir.Direction
	}{
		{"flowchart TD\nA", ir.DirTD},
		{"flowchart LR\nA", ir.DirLR},
		{"graph RL\nA", ir.DirRL},
		{"graph BT\nA", ir.DirBT},
		{"A-->B", ir.DirTD}, // headerless defaults to TD
	}
	for _, tt := range tests {
		g, err := Parse(tt.src)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, g.Direction, tt.src)
	}
}

func TestParseSimpleEdge(t *testing.T) {
	g, err := Parse("flowchart TD\nA-->B")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "A", g.Edges[0].From)
	assert.Equal(t, "B", g.Edges[0].To)
	assert.Equal(t, ir.DecorArrow, g.Edges[0].EndDec)
}

func TestParseChain(t *testing.T) {
	g, err := Parse("flowchart LR\nA-->B-->C-->D")
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 4)
	require.Len(t, g.Edges, 3)
	assert.Equal(t, 0, g.Edges[0].DeclIndex)
	assert.Equal(t, 2, g.Edges[2].DeclIndex)
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		src       string
		wantShape ir.Shape
		wantLabel string
	}{
		{"A[Plain]", ir.ShapeRect, "Plain"},
		{"A(Rounded)", ir.ShapeRound, "Rounded"},
		{"A([Stadium])", ir.ShapeStadium, "Stadium"},
		{"A[[Routine]]", ir.ShapeSubroutine, "Routine"},
		{"A[(Store)]", ir.ShapeCylinder, "Store"},
		{"A((Ball))", ir.ShapeCircle, "Ball"},
		{"A{Choice}", ir.ShapeDiamond, "Choice"},
		{"A{{Hex}}", ir.ShapeHexagon, "Hex"},
		{"A[/Slanted/]", ir.ShapeParallelogram, "Slanted"},
		{"A[\\Trap\\]", ir.ShapeTrapezoid, "Trap"},
	}
	for _, tt := range tests {
		g, err := Parse("flowchart TD\n" + tt.src)
		require.NoError(t, err, tt.src)
		require.Len(t, g.Nodes, 1, tt.src)
		assert.Equal(t, tt.wantShape, g.Nodes[0].Shape, tt.src)
		assert.Equal(t, tt.wantLabel, g.Nodes[0].Label, tt.src)
	}
}

func TestParseEdgeVariants(t *testing.T) {
	tests := []struct {
		src       string
		wantStyle ir.LineStyle
		wantEnd   ir.Decoration
	}{
		{"A-->B", ir.LineSolid, ir.DecorArrow},
		{"A---B", ir.LineSolid, ir.DecorNone},
		{"A-.->B", ir.LineDotted, ir.DecorArrow},
		{"A==>B", ir.LineThick, ir.DecorArrow},
		{"A--oB", ir.LineSolid, ir.DecorCircle},
		{"A--xB", ir.LineSolid, ir.DecorCross},
	}
	for _, tt := range tests {
		g, err := Parse("flowchart TD\n" + tt.src)
		require.NoError(t, err, tt.src)
		require.Len(t, g.Edges, 1, tt.src)
		assert.Equal(t, tt.wantStyle, g.Edges[0].Style, tt.src)
		assert.Equal(t, tt.wantEnd, g.Edges[0].EndDec, tt.src)
	}
}

func TestParseEdgeLabels(t *testing.T) {
	g, err := Parse("flowchart TD\nA-->|yes|B")
	require.NoError(t, err)
	assert.Equal(t, "yes", g.Edges[0].Label)

	g, err = Parse("flowchart TD\nA-- maybe -->B")
	require.NoError(t, err)
	assert.Equal(t, "maybe", g.Edges[0].Label)
}

func TestParseBidirectional(t *testing.T) {
	g, err := Parse("flowchart TD\nA<-->B")
	require.NoError(t, err)
	assert.Equal(t, ir.DecorArrow, g.Edges[0].StartDec)
	assert.Equal(t, ir.DecorArrow, g.Edges[0].EndDec)
}

func TestParseSubgraph(t *testing.T) {
	src := `flowchart TD
subgraph S [My Group]
  direction LR
  A-->B
end
C-->A`
	g, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, g.Subgraphs, 1)
	s := g.Subgraphs[0]
	assert.Equal(t, "S", s.ID)
	assert.Equal(t, "My Group", s.Label)
	assert.Equal(t, ir.DirLR, s.Direction)
	assert.ElementsMatch(t, []string{"A", "B"}, s.Children)
	// C is declared outside the subgraph.
	ci := g.NodeIndex("C")
	assert.Equal(t, -1, g.Nodes[ci].Parent)
}

func TestParseNestedSubgraphs(t *testing.T) {
	src := `flowchart TD
subgraph outer
subgraph inner
  A
end
  B
end`
	g, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, g.Subgraphs, 2)
	assert.Equal(t, 0, g.Subgraphs[1].Parent)
	ai := g.NodeIndex("A")
	assert.Equal(t, 1, g.Nodes[ai].Parent)
}

func TestParseUnclosedSubgraph(t *testing.T) {
	_, err := Parse("flowchart TD\nsubgraph S\nA")
	require.Error(t, err)
	assert.True(t, flowerrors.Is(err, flowerrors.ErrCodeParse))
}

func TestParseClassDef(t *testing.T) {
	src := `flowchart TD
A-->B
classDef hot fill:#f96,stroke:#333,stroke-width:2
class A hot`
	g, err := Parse(src)
	require.NoError(t, err)
	ai := g.NodeIndex("A")
	assert.Equal(t, "#f96", g.Nodes[ai].Style.Fill)
	assert.Equal(t, "#333", g.Nodes[ai].Style.Stroke)
	assert.Equal(t, 2.0, g.Nodes[ai].Style.StrokeWidth)
	assert.Contains(t, g.Nodes[ai].Style.Classes, "hot")
}

func TestParseStyleStatement(t *testing.T) {
	src := `flowchart TD
A-->B
style B fill:#bbf,color:#fff`
	g, err := Parse(src)
	require.NoError(t, err)
	bi := g.NodeIndex("B")
	assert.Equal(t, "#bbf", g.Nodes[bi].Style.Fill)
	assert.Equal(t, "#fff", g.Nodes[bi].Style.TextColor)
}

func TestParseComments(t *testing.T) {
	src := `flowchart TD
%% full line comment
A-->B %% trailing comment`
	g, err := Parse(src)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}

func TestParseSemicolons(t *testing.T) {
	g, err := Parse("flowchart TD\nA-->B; B-->C; C-->A")
	require.NoError(t, err)
	assert.Len(t, g.Edges, 3)
}

func TestParseSelfLoop(t *testing.T) {
	g, err := Parse("flowchart TD\nA-->A")
	require.NoError(t, err)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "A", g.Edges[0].From)
	assert.Equal(t, "A", g.Edges[0].To)
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"flowchart TD\nA[unclosed",
		"flowchart TD\nend",
		"flowchart TD\ndirection LR",
		"flowchart TD\nA--",
	}
	for _, src := range tests {
		_, err := Parse(src)
		assert.Error(t, err, src)
	}
}

func TestParseQuotedLabel(t *testing.T) {
	g, err := Parse("flowchart TD\nA[\"quoted label\"]")
	require.NoError(t, err)
	assert.Equal(t, "quoted label", g.Nodes[0].Label)
}
