package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bandorder/pkg/errors"
	gio "github.com/matzehuels/bandorder/pkg/io"
	"github.com/matzehuels/bandorder/pkg/pipeline"
)

// sourceAuto selects a minimum-degree start node.
const sourceAuto = "auto"

// orderingFlags are the load and ordering flags shared by reorder, stats and
// render.
type orderingFlags struct {
	format   string
	source   string
	noCache  bool
	complete bool
	opts     pipeline.Options
}

func (f *orderingFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.format, "input-format", "", "input format: json, edgelist, mtx (default: from extension)")
	fl.BoolVar(&f.opts.Directed, "directed", false, "keep edge direction instead of symmetrizing")
	fl.StringVarP(&f.source, "source", "s", "0", `start node id, or "auto" for a minimum-degree node`)
	fl.BoolVarP(&f.opts.Reverse, "reverse", "r", false, "reverse the ordering (RCM)")
	fl.BoolVar(&f.complete, "complete", false, "append nodes unreachable from the source")
	fl.IntVarP(&f.opts.Workers, "workers", "w", 0, "worker goroutines (default: GOMAXPROCS)")
	fl.IntVar(&f.opts.SpinLimit, "spin-limit", 0, "fail after this many spins waiting on a level (0 = unlimited)")
	fl.IntVar(&f.opts.MaxNodes, "max-nodes", 0, "reject inputs with more nodes (default: 10000000)")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fl.BoolVar(&f.opts.Refresh, "refresh", false, "recompute even if a cached result exists")
}

// options resolves the flags against the loaded configuration.
func (f *orderingFlags) options(c *CLI, cmd *cobra.Command, input string) (pipeline.Options, error) {
	opts := f.opts
	opts.Input = input
	opts.Complete = f.complete
	opts.Logger = c.Logger

	if f.format != "" {
		format, err := gio.ParseFormat(f.format)
		if err != nil {
			return opts, err
		}
		opts.Format = format
	}

	if f.source == sourceAuto {
		opts.AutoSource = true
	} else {
		src, err := strconv.Atoi(f.source)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidSource, "invalid source %q (want a node id or %q)", f.source, sourceAuto)
		}
		opts.Source = src
	}

	if !cmd.Flags().Changed("workers") {
		opts.Workers = c.cfg.Workers
	}
	if !cmd.Flags().Changed("spin-limit") {
		opts.SpinLimit = c.cfg.SpinLimit
	}
	if !cmd.Flags().Changed("max-nodes") {
		opts.MaxNodes = c.cfg.MaxNodes
	}
	return opts, opts.Validate()
}
