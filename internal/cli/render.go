package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/export"
	"github.com/loci-dev/loci/pkg/implicit"
)

// renderCommand creates the render command: draw the construction scene
// or its dependency graph.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		format      string
		output      string
		labels      bool
		detailed    bool
		lociTargets []int
		noCache     bool
		getViewport func() implicit.BoundingBox
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a construction as a scene SVG or dependency graph",
		Long: `Render draws a construction file. The scene format draws lines,
circles and points in world coordinates; the graph formats draw the
dependency structure with Graphviz. Locus curves are computed through
the engine and overlaid when --locus names target elements.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cons, err := construction.ReadFile(args[0])
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "scene":
				data, err = c.renderScene(cmd, cons, getViewport(), labels, lociTargets, noCache)
			case "dot":
				data = []byte(export.ToDOT(cons, export.DOTOptions{Detailed: detailed}))
			case "graph":
				data, err = export.RenderDOTSVG(export.ToDOT(cons, export.DOTOptions{Detailed: detailed}))
			default:
				err = errors.New(errors.ErrCodeInvalidInput,
					"format %q must be scene, dot, or graph", format)
			}
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			printSuccess("Rendered %s", format)
			printFile(output)
			return nil
		},
	}

	getViewport = viewportFlags(cmd)

	cmd.Flags().StringVarP(&format, "format", "f", "scene", "output format: scene, dot, or graph")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&labels, "labels", false, "annotate points with element ids")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include positions in graph labels")
	cmd.Flags().IntSliceVar(&lociTargets, "locus", nil, "overlay locus curves for these element ids")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the cache")
	return cmd
}

// renderScene draws the scene SVG, computing locus curves on demand.
func (c *CLI) renderScene(cmd *cobra.Command, cons *construction.Construction, viewport implicit.BoundingBox, labels bool, lociTargets []int, noCache bool) ([]byte, error) {
	opts := []export.SVGOption{export.WithViewport(viewport)}
	if labels {
		opts = append(opts, export.WithLabels())
	}

	if len(lociTargets) > 0 {
		cfg, err := c.loadConfig()
		if err != nil {
			return nil, err
		}
		runner, err := c.newRunner(cmd.Context(), cfg, noCache)
		if err != nil {
			return nil, err
		}
		defer runner.Cache.Close()

		for _, t := range lociTargets {
			id := construction.ID(t)
			ctx, cancel := timeoutContext(cmd.Context(), cfg.Engine.Timeout.Duration)
			res, err := runner.Refresh(ctx, cons, id, viewport)
			cancel()
			if err != nil {
				return nil, err
			}
			if res.Stale {
				printWarning("locus %d unavailable: %s", t, errors.UserMessage(res.Err))
				continue
			}
			opts = append(opts, export.WithCurve(id, res.Curve))
		}
	}

	return export.RenderSVG(cons, opts...), nil
}
