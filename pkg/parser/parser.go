// Package parser turns Mermaid flowchart source text into the typed
// graph the layout engine consumes.
//
// The grammar covered is the flowchart core: a header line selecting the
// diagram direction, node statements with shape brackets, edge chains
// with optional labels and stroke variants, nested subgraphs with
// per-subgraph direction overrides, and classDef/class/style statements.
// Other Mermaid diagram types have their own front-ends and are out of
// scope here.
//
// Parsing is line-oriented, matching the reference renderer: statements
// never span lines, `;` separates statements within a line, and `%%`
// starts a comment.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/ir"
)

// Parse reads flowchart source and returns the typed graph with all
// references resolved. Errors carry the 1-based source line.
func Parse(src string) (*ir.Graph, error) {
	p := &parser{
		graph:   &ir.Graph{Direction: ir.DirTD},
		classes: make(map[string]ir.StyleBundle),
	}
	if err := p.run(src); err != nil {
		return nil, err
	}
	p.applyClasses()
	if err := p.graph.Build(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid flowchart")
	}
	return p.graph, nil
}

type parser struct {
	graph     *ir.Graph
	headerOK  bool
	subStack  []string // open subgraph IDs, innermost last
	classes   map[string]ir.StyleBundle
	nodeClass map[string][]string // node ID -> class names
}

func (p *parser) run(src string) error {
	for lineNo, raw := range strings.Split(src, "\n") {
		line := stripComment(raw)
		for _, stmt := range splitStatements(line) {
			if err := p.statement(strings.TrimSpace(stmt), lineNo+1); err != nil {
				return err
			}
		}
	}
	if len(p.subStack) > 0 {
		return errors.New(errors.ErrCodeParse,
			"subgraph %q is never closed", p.subStack[len(p.subStack)-1])
	}
	return nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "%%"); i >= 0 {
		return line[:i]
	}
	return line
}

func splitStatements(line string) []string {
	return strings.Split(line, ";")
}

var headerRe = regexp.MustCompile(`^(?:flowchart|graph)\s+(\w+)\s*$`)

func (p *parser) statement(stmt string, line int) error {
	if stmt == "" {
		return nil
	}

	if m := headerRe.FindStringSubmatch(stmt); m != nil {
		if p.headerOK {
			return errors.New(errors.ErrCodeParse, "line %d: duplicate diagram header", line)
		}
		p.headerOK = true
		p.graph.Direction = ir.ParseDirection(m[1])
		return nil
	}

	switch {
	case strings.HasPrefix(stmt, "subgraph"):
		return p.openSubgraph(stmt, line)
	case stmt == "end":
		return p.closeSubgraph(line)
	case strings.HasPrefix(stmt, "direction "):
		return p.subDirection(stmt, line)
	case strings.HasPrefix(stmt, "classDef "):
		return p.classDef(stmt, line)
	case strings.HasPrefix(stmt, "class "):
		return p.classAssign(stmt, line)
	case strings.HasPrefix(stmt, "style "):
		return p.styleStmt(stmt, line)
	}

	return p.chain(stmt, line)
}

var subgraphRe = regexp.MustCompile(`^subgraph\s+([\w.-]+)(?:\s*\[(.*)\])?\s*$`)

func (p *parser) openSubgraph(stmt string, line int) error {
	m := subgraphRe.FindStringSubmatch(stmt)
	if m == nil {
		return errors.New(errors.ErrCodeParse, "line %d: malformed subgraph statement", line)
	}
	id, label := m[1], m[2]
	if label == "" {
		label = id
	}
	sub := ir.Subgraph{ID: id, Label: label, Direction: ir.DirInherit}
	if err := p.graph.AddSubgraph(sub); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "line %d", line)
	}
	if len(p.subStack) > 0 {
		parent := p.subStack[len(p.subStack)-1]
		pi := p.graph.SubgraphIndex(parent)
		p.graph.Subgraphs[pi].SubIDs = append(p.graph.Subgraphs[pi].SubIDs, id)
	}
	p.subStack = append(p.subStack, id)
	return nil
}

func (p *parser) closeSubgraph(line int) error {
	if len(p.subStack) == 0 {
		return errors.New(errors.ErrCodeParse, "line %d: end without open subgraph", line)
	}
	p.subStack = p.subStack[:len(p.subStack)-1]
	return nil
}

func (p *parser) subDirection(stmt string, line int) error {
	if len(p.subStack) == 0 {
		return errors.New(errors.ErrCodeParse, "line %d: direction outside subgraph", line)
	}
	word := strings.TrimSpace(strings.TrimPrefix(stmt, "direction"))
	si := p.graph.SubgraphIndex(p.subStack[len(p.subStack)-1])
	p.graph.Subgraphs[si].Direction = ir.ParseDirection(word)
	return nil
}

// shapeDelims maps opening brackets to (closer, shape), longest openers
// first so `[[` wins over `[`.
var shapeDelims = []struct {
	open, close string
	shape       ir.Shape
}{
	{"([", "])", ir.ShapeStadium},
	{"[[", "]]", ir.ShapeSubroutine},
	{"[(", ")]", ir.ShapeCylinder},
	{"((", "))", ir.ShapeCircle},
	{"{{", "}}", ir.ShapeHexagon},
	{"[/", "/]", ir.ShapeParallelogram},
	{"[\\", "\\]", ir.ShapeTrapezoid},
	{"{", "}", ir.ShapeDiamond},
	{"(", ")", ir.ShapeRound},
	{"[", "]", ir.ShapeRect},
}

// Node IDs allow word characters and dots. Dashes are excluded so the
// connector that follows an ID (`A-->B`) is never consumed as part of it.
var nodeIDRe = regexp.MustCompile(`^[\w.]+`)

// parseNode consumes one node reference (ID plus optional shape+label)
// from the front of s, declares it if new, and returns the remainder.
func (p *parser) parseNode(s string, line int) (id, rest string, err error) {
	id = nodeIDRe.FindString(s)
	if id == "" {
		return "", "", errors.New(errors.ErrCodeParse, "line %d: expected node ID near %q", line, s)
	}
	rest = s[len(id):]

	label := ""
	shape := ir.ShapeRect
	hasShape := false
	for _, d := range shapeDelims {
		if strings.HasPrefix(rest, d.open) {
			end := strings.Index(rest[len(d.open):], d.close)
			if end < 0 {
				return "", "", errors.New(errors.ErrCodeParse,
					"line %d: unclosed %q on node %s", line, d.open, id)
			}
			label = unquote(rest[len(d.open) : len(d.open)+end])
			shape = d.shape
			hasShape = true
			rest = rest[len(d.open)+end+len(d.close):]
			break
		}
	}

	if p.graph.NodeIndex(id) == -1 {
		n := ir.Node{ID: id, Label: id, Shape: ir.ShapeRect}
		if hasShape {
			n.Label = label
			n.Shape = shape
		}
		if err := p.graph.AddNode(n); err != nil {
			return "", "", errors.Wrap(errors.ErrCodeParse, err, "line %d", line)
		}
		p.claimForSubgraph(id)
	} else if hasShape {
		ni := p.graph.NodeIndex(id)
		p.graph.Nodes[ni].Label = label
		p.graph.Nodes[ni].Shape = shape
	}
	return id, rest, nil
}

func (p *parser) claimForSubgraph(nodeID string) {
	if len(p.subStack) == 0 {
		return
	}
	si := p.graph.SubgraphIndex(p.subStack[len(p.subStack)-1])
	p.graph.Subgraphs[si].Children = append(p.graph.Subgraphs[si].Children, nodeID)
}

// arrowRe matches one connector: stroke body, endpoint decorations, and
// an optional pipe label (`-->|text|`). Inline labels (`-- text -->`)
// are matched by inlineLabelRe.
var arrowRe = regexp.MustCompile(`^\s*(<)?(-{2,}|={2,}|-\.+-?)(>|o|x)?(\|[^|]*\|)?\s*`)

var inlineLabelRe = regexp.MustCompile(`^\s*(--|==)\s+([^-=]*?)\s+(-->|---|==>|===)\s*`)

func (p *parser) chain(stmt string, line int) error {
	from, rest, err := p.parseNode(stmt, line)
	if err != nil {
		return err
	}
	for strings.TrimSpace(rest) != "" {
		label := ""
		var style ir.LineStyle
		var startDec, endDec ir.Decoration

		if m := inlineLabelRe.FindStringSubmatch(rest); m != nil {
			label = strings.TrimSpace(m[2])
			style = strokeStyle(m[3])
			if strings.HasSuffix(m[3], ">") {
				endDec = ir.DecorArrow
			}
			rest = rest[len(m[0]):]
		} else if m := arrowRe.FindStringSubmatch(rest); m != nil {
			style = strokeStyle(m[2])
			if m[1] == "<" {
				startDec = ir.DecorArrow
			}
			endDec = decoration(m[3])
			if m[4] != "" {
				label = strings.TrimSpace(m[4][1 : len(m[4])-1])
			}
			rest = rest[len(m[0]):]
		} else {
			return errors.New(errors.ErrCodeParse, "line %d: expected connector near %q", line, rest)
		}

		var to string
		to, rest, err = p.parseNode(strings.TrimSpace(rest), line)
		if err != nil {
			return err
		}
		p.graph.AddEdge(ir.Edge{
			From: from, To: to,
			Label: label, Style: style,
			StartDec: startDec, EndDec: endDec,
		})
		from = to
	}
	return nil
}

func strokeStyle(body string) ir.LineStyle {
	switch {
	case strings.Contains(body, "."):
		return ir.LineDotted
	case strings.HasPrefix(body, "="):
		return ir.LineThick
	default:
		return ir.LineSolid
	}
}

func decoration(s string) ir.Decoration {
	switch s {
	case ">":
		return ir.DecorArrow
	case "o":
		return ir.DecorCircle
	case "x":
		return ir.DecorCross
	default:
		return ir.DecorNone
	}
}

var classDefRe = regexp.MustCompile(`^classDef\s+([\w-]+)\s+(.+)$`)

func (p *parser) classDef(stmt string, line int) error {
	m := classDefRe.FindStringSubmatch(stmt)
	if m == nil {
		return errors.New(errors.ErrCodeParse, "line %d: malformed classDef", line)
	}
	p.classes[m[1]] = parseStyleProps(m[2])
	return nil
}

func (p *parser) classAssign(stmt string, line int) error {
	fields := strings.Fields(stmt)
	if len(fields) != 3 {
		return errors.New(errors.ErrCodeParse, "line %d: malformed class statement", line)
	}
	if p.nodeClass == nil {
		p.nodeClass = make(map[string][]string)
	}
	for _, id := range strings.Split(fields[1], ",") {
		p.nodeClass[id] = append(p.nodeClass[id], fields[2])
	}
	return nil
}

func (p *parser) styleStmt(stmt string, line int) error {
	rest := strings.TrimSpace(strings.TrimPrefix(stmt, "style"))
	sp := strings.IndexByte(rest, ' ')
	if sp < 0 {
		return errors.New(errors.ErrCodeParse, "line %d: malformed style statement", line)
	}
	id := rest[:sp]
	bundle := parseStyleProps(rest[sp+1:])
	if ni := p.graph.NodeIndex(id); ni != -1 {
		mergeStyle(&p.graph.Nodes[ni].Style, bundle)
		return nil
	}
	if si := p.graph.SubgraphIndex(id); si != -1 {
		mergeStyle(&p.graph.Subgraphs[si].Style, bundle)
		return nil
	}
	return errors.New(errors.ErrCodeParse, "line %d: style for unknown node %q", line, id)
}

// applyClasses resolves class statements after all declarations.
func (p *parser) applyClasses() {
	for id, names := range p.nodeClass {
		ni := p.graph.NodeIndex(id)
		if ni == -1 {
			continue
		}
		for _, name := range names {
			if bundle, ok := p.classes[name]; ok {
				mergeStyle(&p.graph.Nodes[ni].Style, bundle)
			}
			p.graph.Nodes[ni].Style.Classes = append(p.graph.Nodes[ni].Style.Classes, name)
		}
	}
}

func parseStyleProps(s string) ir.StyleBundle {
	var b ir.StyleBundle
	for _, prop := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(prop), ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.TrimSpace(k) {
		case "fill":
			b.Fill = v
		case "stroke":
			b.Stroke = v
		case "stroke-width":
			fmt.Sscanf(v, "%f", &b.StrokeWidth)
		case "color":
			b.TextColor = v
		}
	}
	return b
}

func mergeStyle(dst *ir.StyleBundle, src ir.StyleBundle) {
	if src.Fill != "" {
		dst.Fill = src.Fill
	}
	if src.Stroke != "" {
		dst.Stroke = src.Stroke
	}
	if src.StrokeWidth != 0 {
		dst.StrokeWidth = src.StrokeWidth
	}
	if src.TextColor != "" {
		dst.TextColor = src.TextColor
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
