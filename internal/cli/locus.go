package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/implicit"
)

// locusCommand creates the locus command: compute the locus curve of a
// dependent point through the elimination engine.
func (c *CLI) locusCommand() *cobra.Command {
	var (
		target      int
		output      string
		noCache     bool
		getViewport func() implicit.BoundingBox
	)

	cmd := &cobra.Command{
		Use:   "locus <file>",
		Short: "Compute the locus curve of a dependent point",
		Long: `Locus collects the construction's constraint polynomials, normalizes
the coordinate frame, eliminates every variable except the target's
coordinates through the engine, and traces the resulting implicit curve.

Results are cached by the system's structural signature: dragging free
points does not change the signature, so repeated runs over the same
construction shape hit the cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cons, err := construction.ReadFile(args[0])
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			ctx, cancel := timeoutContext(cmd.Context(), cfg.Engine.Timeout.Duration)
			defer cancel()

			viewport := getViewport()
			prog := newProgress(c.Logger)
			spin := newSpinnerWithContext(ctx, fmt.Sprintf("eliminating for target %d", target))
			spin.Start()
			res, err := runner.Refresh(ctx, cons, construction.ID(target), viewport)
			spin.Stop()
			if err != nil {
				return err
			}

			if res.Stale {
				printWarning("locus unavailable: %s", errors.UserMessage(res.Err))
				printDetail("signature: %s", res.Signature)
				return nil
			}

			prog.done(fmt.Sprintf("Locus of element %d computed", target))
			printCurveStats(len(res.Curve.Branches), res.Curve.Points(), res.CacheHit)
			printDetail("signature: %s", res.Signature)

			if output != "" {
				if err := os.WriteFile(output, runner.CurveBytes(construction.ID(target)), 0o644); err != nil {
					return fmt.Errorf("write curve: %w", err)
				}
				printFile(output)
			}
			return nil
		},
	}

	getViewport = viewportFlags(cmd)

	cmd.Flags().IntVarP(&target, "target", "t", 0, "dependent point element id")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the curve JSON to a file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the cache")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
