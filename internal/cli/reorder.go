package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	gio "github.com/matzehuels/bandorder/pkg/io"
	"github.com/matzehuels/bandorder/pkg/pipeline"
)

// reorderCommand creates the reorder command.
func (c *CLI) reorderCommand() *cobra.Command {
	var (
		flags  orderingFlags
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "reorder [graph]",
		Short: "Compute a Cuthill–McKee ordering",
		Long: `Compute a Cuthill–McKee ordering of a graph.

The graph is read from a JSON document, an edge list or a Matrix Market file.
The permutation lists node ids in their new order; it is written to stdout
unless --output is given.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(c, cmd, args[0])
			if err != nil {
				return err
			}
			permFormat, err := gio.ParsePermFormat(format)
			if err != nil {
				return err
			}
			return c.runReorder(cmd.Context(), opts, flags.noCache, output, permFormat)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", string(gio.PermJSON), "permutation format: json, text")

	return cmd
}

func (c *CLI) runReorder(ctx context.Context, opts pipeline.Options, noCache bool, output string, format gio.PermFormat) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Ordered %d of %d nodes", res.Stats.Reachable, res.Stats.Nodes))

	perm := gio.Permutation{
		Source:      res.Source,
		Reverse:     res.Reverse,
		Permutation: res.Permutation,
	}
	if output == "" {
		return gio.WritePermutation(os.Stdout, perm, format)
	}
	if err := gio.ExportPermutation(output, perm, format); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Reordered %s", filepath.Base(opts.Input))
	printFile(output)
	printStats(res.Stats.Nodes, res.Stats.Edges, res.Stats.Reachable, res.CacheHit)
	printDetail("bandwidth %d → %d", res.Stats.BandwidthBefore, res.Stats.BandwidthAfter)
	if res.Stats.Reachable < res.Stats.Nodes && !opts.Complete {
		printWarning("%d nodes are unreachable from source %d; use --complete to include them",
			res.Stats.Nodes-res.Stats.Reachable, res.Source)
	}
	printNewline()
	printNextStep("Render", appName+" render "+quoteArg(opts.Input))
	return nil
}

// quoteArg quotes s for display in a suggested command line.
func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t'\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
