package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bandorder/pkg/server"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reorder API over HTTP",
		Long: `Serve the reorder API over HTTP.

Endpoints:
  POST /v1/reorder   reorder a JSON graph document
  GET  /healthz      liveness probe
  GET  /metrics      Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	reg := c.enableMetrics()
	srv := server.New(runner, reg, c.Logger, server.Config{
		Addr:      addr,
		Workers:   c.cfg.Workers,
		SpinLimit: c.cfg.SpinLimit,
		MaxNodes:  c.cfg.MaxNodes,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}
	printSuccess("Serving on %s", srv.Addr())

	<-ctx.Done()
	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
