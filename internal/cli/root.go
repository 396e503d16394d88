// Package cli implements the flowgrid command-line interface.
//
// The CLI wraps the render pipeline for editor previews and CI use:
//   - render: parse a diagram file and emit SVG, PNG, DOT, or a JSON
//     layout dump
//   - score: report the readability score of a diagram
//   - check: parse and lay out without writing output, for CI linting
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// are passed through context.Context.
package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgrid/pkg/buildinfo"
)

// Execute runs the flowgrid CLI and returns an error if any command
// fails. This is the main entry point for the CLI application.
func Execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:          "flowgrid",
		Short:        "flowgrid renders Mermaid-style diagrams without a browser",
		Long:         `flowgrid parses Mermaid-style flowchart source and renders deterministic vector graphics using its native layout and orthogonal routing engine.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newCheckCmd())

	return root.ExecuteContext(context.Background())
}
