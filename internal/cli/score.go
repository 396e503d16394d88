package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgrid/pkg/layout"
	"github.com/matzehuels/flowgrid/pkg/parser"
	"github.com/matzehuels/flowgrid/pkg/textmetrics"
)

// newScoreCmd creates the score command, which lays a diagram out and
// prints the readability score components. Useful for benchmarking
// layout changes and for CI regression guards.
func newScoreCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Report the readability score of a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			g, err := parser.Parse(string(src))
			if err != nil {
				return err
			}
			_, cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			d, err := layout.Layout(g, cfg, textmetrics.Approx{})
			if err != nil {
				return err
			}
			s := layout.Score(d, cfg.Weights)

			out := cmd.OutOrStdout()
			printKV(out, "crossings", s.Crossings)
			printKV(out, "total length", fmt.Sprintf("%.1f px", s.TotalLength))
			printKV(out, "bends", s.Bends)
			printKV(out, "side congestion", s.SideCongestion)
			printKV(out, "overlap segments", s.OverlapSegments)
			printKV(out, "area", fmt.Sprintf("%.1f", s.Area))
			printKV(out, "weighted score", fmt.Sprintf("%.1f", s.Weighted))
			printKV(out, "fingerprint", layout.Fingerprint(d))
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	return cmd
}

// newCheckCmd creates the check command: parse and lay out without
// writing artifacts, failing on any error. Warnings print but do not
// fail unless --strict is set.
func newCheckCmd() *cobra.Command {
	var strict bool
	var configPath string

	cmd := &cobra.Command{
		Use:   "check [file...]",
		Short: "Validate diagrams by parsing and laying them out",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					printError(cmd.ErrOrStderr(), "%s: %v", path, err)
					failed++
					continue
				}
				g, err := parser.Parse(string(src))
				if err != nil {
					printError(cmd.ErrOrStderr(), "%s: %v", path, err)
					failed++
					continue
				}
				d, err := layout.Layout(g, cfg, textmetrics.Approx{})
				if err != nil {
					printError(cmd.ErrOrStderr(), "%s: %v", path, err)
					failed++
					continue
				}
				for _, w := range d.Warnings {
					printWarning(cmd.ErrOrStderr(), "%s: %s %s: %s", path, w.Code, w.Subject, w.Message)
				}
				if strict && len(d.Warnings) > 0 {
					failed++
					continue
				}
				printSuccess(cmd.OutOrStdout(), "%s", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d diagram(s) failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	return cmd
}
