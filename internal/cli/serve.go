package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/loci-dev/loci/internal/api"
	"github.com/loci-dev/loci/pkg/eliminate"
	"github.com/loci-dev/loci/pkg/implicit"
)

// serveCommand creates the serve command: run the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve constructions over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			cch, err := c.newCache(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer cch.Close()

			st, err := c.newStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			engine := eliminate.NewClient(cfg.Engine.URL, cfg.Engine.Timeout.Duration, c.Logger)
			srv := api.NewServer(api.Options{
				Store:  st,
				Cache:  cch,
				Engine: engine,
				Logger: c.Logger,
				TraceOpts: implicit.Options{
					GridSize: cfg.Trace.GridSize,
					MaxSteps: cfg.Trace.MaxSteps,
				},
				CacheTTL: cfg.Cache.TTL.Duration,
			})

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("listening", "addr", cfg.Server.Addr, "engine", cfg.Engine.URL)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				c.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
