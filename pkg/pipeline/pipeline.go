// Package pipeline provides the parse → layout → render pipeline.
//
// This package joins the front-end parser, the layout engine, and the
// render sinks behind one entry point so the CLI and embedding callers
// share identical behavior. Each stage can also be run independently.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  src,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowgrid/pkg/errors"
	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/layout"
	"github.com/matzehuels/flowgrid/pkg/layoutio"
	"github.com/matzehuels/flowgrid/pkg/observability"
	"github.com/matzehuels/flowgrid/pkg/parser"
	"github.com/matzehuels/flowgrid/pkg/render/dot"
	"github.com/matzehuels/flowgrid/pkg/render/png"
	"github.com/matzehuels/flowgrid/pkg/render/svg"
	"github.com/matzehuels/flowgrid/pkg/textmetrics"
	"github.com/matzehuels/flowgrid/pkg/theme"
)

// Output format identifiers.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// Options controls a pipeline run.
type Options struct {
	// Source is the diagram source text.
	Source string

	// Formats selects the artifacts to produce. Defaults to SVG.
	Formats []string

	// Layout is the engine configuration; the zero value means
	// layout.DefaultConfig with the theme's font size applied.
	Layout *layout.Config

	// Theme selects presentation defaults by name.
	Theme string

	// FontName names a TrueType font for exact text metrics (for
	// example "DejaVuSans.ttf"). Empty, or Layout.FastText, selects the
	// character-width approximation.
	FontName string

	// Prev supplies a prior layout for stability hints and the
	// displacement score component.
	Prev *layout.Diagram
}

// Stats records per-stage timings and counts for a run.
type Stats struct {
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
	NodeCount  int
	EdgeCount  int
}

// Result is the output of a pipeline run.
type Result struct {
	// RunID uniquely identifies the run in logs and reports.
	RunID string

	Graph     *ir.Graph
	Diagram   *layout.Diagram
	Score     layout.ReadabilityScore
	Artifacts map[string][]byte
	Stats     Stats
}

// Runner executes the pipeline. A Runner is stateless apart from its
// logger; one Runner may serve concurrent runs.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Execute runs parse → layout → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatSVG}
	}
	for _, f := range opts.Formats {
		if !ValidFormats[f] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown output format %q", f)
		}
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: parse.
	parseStart := time.Now()
	observability.Render().OnParseStart(ctx, len(opts.Source))
	g, err := parser.Parse(opts.Source)
	result.Stats.ParseTime = time.Since(parseStart)
	observability.Render().OnParseComplete(ctx, nodeCount(g), edgeCount(g), result.Stats.ParseTime, err)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	r.Logger.Info("parsed diagram",
		"run", result.RunID,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration", result.Stats.ParseTime.Round(time.Microsecond))

	// Stage 2: layout.
	th := theme.ByName(opts.Theme)
	cfg := layout.DefaultConfig()
	if opts.Layout != nil {
		cfg = *opts.Layout
	}
	if opts.Layout == nil || opts.Layout.FontSize == 0 {
		cfg.FontSize = th.FontSize
	}
	if opts.Prev != nil {
		cfg.Hints = opts.Prev.Hints()
	}

	var tm textmetrics.Provider = textmetrics.Approx{}
	if opts.FontName != "" && !cfg.FastText {
		tt, err := textmetrics.LoadTrueType(opts.FontName)
		if err != nil {
			r.Logger.Warn("font unavailable, using approximate metrics",
				"font", opts.FontName, "err", err)
		} else {
			tm = tt
		}
	}

	layoutStart := time.Now()
	observability.Render().OnLayoutStart(ctx, len(g.Nodes), len(g.Edges))
	d, err := layout.Layout(g, cfg, tm)
	result.Stats.LayoutTime = time.Since(layoutStart)
	warnCount := 0
	if d != nil {
		warnCount = len(d.Warnings)
	}
	observability.Render().OnLayoutComplete(ctx, result.Stats.LayoutTime, warnCount, err)
	if err != nil {
		return nil, err
	}
	result.Diagram = d
	if opts.Prev != nil {
		result.Score = layout.ScoreAgainst(d, opts.Prev, cfg.Weights)
	} else {
		result.Score = layout.Score(d, cfg.Weights)
	}
	r.Logger.Info("layout complete",
		"run", result.RunID,
		"bounds", d.Bounds,
		"warnings", warnCount,
		"score", result.Score.Weighted,
		"duration", result.Stats.LayoutTime.Round(time.Microsecond))
	for _, w := range d.Warnings {
		r.Logger.Warn("layout warning", "code", w.Code, "subject", w.Subject, "msg", w.Message)
	}

	// Stage 3: render.
	renderStart := time.Now()
	observability.Render().OnRenderStart(ctx, opts.Formats)
	err = r.renderFormats(result, opts, th)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Render().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("render complete",
		"run", result.RunID,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime.Round(time.Microsecond))
	return result, nil
}

func (r *Runner) renderFormats(result *Result, opts Options, th *theme.Theme) error {
	for _, f := range opts.Formats {
		switch f {
		case FormatSVG:
			result.Artifacts[f] = svg.Render(result.Diagram, svg.WithTheme(th))
		case FormatPNG:
			data, err := png.Render(result.Diagram, png.Options{Theme: th})
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "png render")
			}
			result.Artifacts[f] = data
		case FormatDOT:
			result.Artifacts[f] = []byte(dot.Export(result.Graph, dot.Options{}))
		case FormatJSON:
			var buf bytes.Buffer
			if err := layoutio.Write(result.Diagram, &buf); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "layout dump")
			}
			result.Artifacts[f] = buf.Bytes()
		}
	}
	return nil
}

func nodeCount(g *ir.Graph) int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

func edgeCount(g *ir.Graph) int {
	if g == nil {
		return 0
	}
	return len(g.Edges)
}
