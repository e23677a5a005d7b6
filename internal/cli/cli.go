// Package cli implements the loci command-line interface.
//
// This package provides commands for evaluating construction files,
// computing locus curves through the elimination engine, rendering
// scenes and dependency graphs, serving the HTTP API, and managing the
// local cache. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/loci-dev/loci/pkg/buildinfo"
	"github.com/loci-dev/loci/pkg/cache"
	"github.com/loci-dev/loci/pkg/config"
	"github.com/loci-dev/loci/pkg/eliminate"
	"github.com/loci-dev/loci/pkg/implicit"
	"github.com/loci-dev/loci/pkg/locus"
	"github.com/loci-dev/loci/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "loci",
		Short:        "Loci explores geometric constructions and their locus curves",
		Long:         `Loci is a tool for dynamic geometric constructions: free points drive dependent points through a dependency graph, and the locus of any dependent point is discovered algebraically through an elimination engine and traced as an implicit curve.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file path")

	// Register all subcommands
	root.AddCommand(c.evalCommand())
	root.AddCommand(c.locusCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// loadConfig loads the configured or default config file.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newCache builds the configured cache backend.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	case "none":
		return cache.NewNullCache(), nil
	default:
		return cache.NewFileCache(cfg.Cache.CacheDir())
	}
}

// newStore builds the configured store backend.
func (c *CLI) newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Store.Backend == "mongo" {
		return store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database, cfg.Store.Collection)
	}
	return store.NewMemoryStore(), nil
}

// newRunner creates a locus runner against the configured engine.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*locus.Runner, error) {
	cch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	engine := eliminate.NewClient(cfg.Engine.URL, cfg.Engine.Timeout.Duration, c.Logger)
	runner := locus.NewRunner(cch, nil, engine, c.Logger)
	runner.TraceOpts = implicit.Options{
		GridSize: cfg.Trace.GridSize,
		MaxSteps: cfg.Trace.MaxSteps,
	}
	runner.TTL = cfg.Cache.TTL.Duration
	return runner, nil
}

// =============================================================================
// Shared Flags
// =============================================================================

// viewportFlags binds the viewport flags and returns a builder.
func viewportFlags(cmd *cobra.Command) func() implicit.BoundingBox {
	var minX, minY, maxX, maxY float64
	cmd.Flags().Float64Var(&minX, "min-x", -10, "viewport left edge")
	cmd.Flags().Float64Var(&minY, "min-y", -10, "viewport bottom edge")
	cmd.Flags().Float64Var(&maxX, "max-x", 10, "viewport right edge")
	cmd.Flags().Float64Var(&maxY, "max-y", 10, "viewport top edge")
	return func() implicit.BoundingBox {
		return implicit.BoundingBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	}
}

// timeoutContext derives a bounded context for one engine round trip.
func timeoutContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
