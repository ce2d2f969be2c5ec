package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bandorder/pkg/buildinfo"
	"github.com/matzehuels/bandorder/pkg/cache"
	"github.com/matzehuels/bandorder/pkg/observability"
	"github.com/matzehuels/bandorder/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "bandorder"
)

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
	cfg        Config

	registry *prometheus.Registry
	metrics  *observability.PromHooks
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "bandorder reorders sparse graphs to reduce matrix bandwidth",
		Long: `bandorder computes Cuthill–McKee orderings of sparse graphs in parallel.

Relabelling the nodes in the computed order clusters the non-zeros of the
adjacency matrix around the diagonal, which shrinks its bandwidth and profile.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.flushMetrics()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/bandorder/config.toml)")

	root.AddCommand(c.reorderCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// versionCommand prints build information, including the Go toolchain.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

// setup loads the config file and installs metric hooks when requested.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	path, explicit := c.configPath, c.configPath != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return nil
		}
		path = p
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("configuration", "path", path, "cache", cfg.Cache, "workers", cfg.Workers)

	if cfg.MetricsFile != "" {
		c.enableMetrics()
	}
	return nil
}

// enableMetrics routes pipeline, cache and HTTP hooks into a Prometheus
// registry owned by the CLI.
func (c *CLI) enableMetrics() *prometheus.Registry {
	if c.registry != nil {
		return c.registry
	}
	c.registry = prometheus.NewRegistry()
	c.metrics = observability.NewPromHooks(c.registry)
	observability.SetPipelineHooks(c.metrics)
	observability.SetCacheHooks(c.metrics)
	observability.SetHTTPHooks(c.metrics)
	return c.registry
}

func (c *CLI) flushMetrics() error {
	if c.metrics == nil || c.cfg.MetricsFile == "" {
		return nil
	}
	if err := c.metrics.WriteToTextfile(c.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	c.Logger.Debug("wrote metrics", "path", c.cfg.MetricsFile)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	runner.TTL = c.cfg.CacheTTL
	return runner, nil
}

// newCache opens the configured cache backend. Redis keys are prefixed with
// the application name since the instance may be shared.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), nil, nil
	}
	switch c.cfg.Cache {
	case cacheNone:
		return cache.NewNullCache(), nil, nil
	case cacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{URL: c.cfg.RedisURL, Addr: c.cfg.RedisAddr})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return rc, cache.NewScopedKeyer(nil, appName+":"), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, nil, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/bandorder/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultConfigPath returns ~/.config/bandorder/config.toml, honoring
// XDG_CONFIG_HOME.
func defaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
