package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgrid/pkg/geom"
	"github.com/matzehuels/flowgrid/pkg/ir"
	"github.com/matzehuels/flowgrid/pkg/layoutio"
	"github.com/matzehuels/flowgrid/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string // output file path (or base path for multiple formats)
	formats   []string
	themeName string
	config    string // TOML config file path
	direction string // primary direction override
	font      string // TrueType font for exact metrics
	fastText  bool
	prev      string // prior layout dump for stability hints
}

// newRenderCmd creates the render command.
//
// Default settings:
//   - format: svg
//   - theme: default
//   - direction: from the diagram header
func newRenderCmd() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram to SVG, PNG, DOT, or a JSON layout dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			for _, f := range opts.formats {
				if !pipeline.ValidFormats[f] {
					return fmt.Errorf("unknown format %q (valid: svg, png, dot, json)", f)
				}
			}
			return runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path (default: input name with format extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "svg", "comma-separated output formats")
	cmd.Flags().StringVar(&opts.themeName, "theme", "", "theme name (default, modern)")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "TOML config file")
	cmd.Flags().StringVarP(&opts.direction, "direction", "d", "", "override flow direction (TD, BT, LR, RL)")
	cmd.Flags().StringVar(&opts.font, "font", "", "TrueType font file name for exact text metrics")
	cmd.Flags().BoolVar(&opts.fastText, "fast-text", false, "use approximate text metrics")
	cmd.Flags().StringVar(&opts.prev, "stable-against", "", "prior JSON layout dump used as stability hints")
	return cmd
}

func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func runRender(cmd *cobra.Command, inputPath string, opts *renderOpts) error {
	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)

	src, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	fc, cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.fastText {
		cfg.FastText = true
	}
	if opts.direction != "" {
		cfg.Direction = ir.ParseDirection(strings.ToUpper(opts.direction))
	}
	themeName := opts.themeName
	if themeName == "" {
		themeName = fc.Theme
	}
	font := opts.font
	if font == "" {
		font = fc.Font
	}

	pipeOpts := pipeline.Options{
		Source:   string(src),
		Formats:  opts.formats,
		Layout:   &cfg,
		Theme:    themeName,
		FontName: font,
	}

	if opts.prev != "" {
		prev, err := readPrevLayout(opts.prev)
		if err != nil {
			return err
		}
		cfg.Hints = prev
	}

	runner := pipeline.NewRunner(logger)
	result, err := runner.Execute(cmd.Context(), pipeOpts)
	if err != nil {
		printError(cmd.ErrOrStderr(), "%v", err)
		return err
	}

	for _, f := range opts.formats {
		path := outputPath(inputPath, opts.output, f)
		if err := os.WriteFile(path, result.Artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess(cmd.OutOrStdout(), "wrote %s", path)
	}
	for _, w := range result.Diagram.Warnings {
		printWarning(cmd.ErrOrStderr(), "%s %s: %s", w.Code, w.Subject, w.Message)
	}
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(opts.formats)))
	return nil
}

// readPrevLayout loads a prior layout dump and converts node rectangles
// into stability-hint centers.
func readPrevLayout(path string) (map[string]geom.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prior layout: %w", err)
	}
	defer f.Close()
	rects, err := layoutio.Read(f)
	if err != nil {
		return nil, err
	}
	hints := make(map[string]geom.Point, len(rects))
	for id, r := range rects {
		hints[id] = r.Center()
	}
	return hints, nil
}

func outputPath(input, output, format string) string {
	if output != "" {
		if filepath.Ext(output) != "" {
			return output
		}
		return output + "." + format
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "." + format
}
