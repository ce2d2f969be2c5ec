package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bandorder/pkg/pipeline"
)

// statsReport is the --json form of the stats command.
type statsReport struct {
	Input           string  `json:"input"`
	Fingerprint     string  `json:"fingerprint"`
	Nodes           int     `json:"nodes"`
	Edges           int     `json:"edges"`
	Source          uint32  `json:"source"`
	Reachable       int     `json:"reachable"`
	Levels          int     `json:"levels"`
	BandwidthBefore int     `json:"bandwidth_before"`
	BandwidthAfter  int     `json:"bandwidth_after"`
	ProfileBefore   int64   `json:"profile_before"`
	ProfileAfter    int64   `json:"profile_after"`
	Cached          bool    `json:"cached"`
	LoadSeconds     float64 `json:"load_seconds"`
	ReorderSeconds  float64 `json:"reorder_seconds"`
}

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		flags   orderingFlags
		asJSON  bool
		showLvl bool
	)

	cmd := &cobra.Command{
		Use:   "stats [graph]",
		Short: "Report bandwidth and profile before and after reordering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(c, cmd, args[0])
			if err != nil {
				return err
			}
			return c.runStats(cmd.Context(), opts, flags.noCache, asJSON, showLvl)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&showLvl, "levels", false, "print the node count of every BFS level")

	return cmd
}

func (c *CLI) runStats(ctx context.Context, opts pipeline.Options, noCache, asJSON, showLevels bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	st := res.Stats

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(statsReport{
			Input:           opts.Input,
			Fingerprint:     res.Fingerprint,
			Nodes:           st.Nodes,
			Edges:           st.Edges,
			Source:          uint32(res.Source),
			Reachable:       st.Reachable,
			Levels:          st.Levels,
			BandwidthBefore: st.BandwidthBefore,
			BandwidthAfter:  st.BandwidthAfter,
			ProfileBefore:   st.ProfileBefore,
			ProfileAfter:    st.ProfileAfter,
			Cached:          res.CacheHit,
			LoadSeconds:     st.LoadTime.Seconds(),
			ReorderSeconds:  st.ReorderTime.Seconds(),
		})
	}

	printHeading(opts.Describe())
	printKeyValue("nodes", fmt.Sprint(st.Nodes))
	printKeyValue("edges", fmt.Sprint(st.Edges))
	printKeyValue("source", fmt.Sprint(res.Source))
	printKeyValue("reachable", fmt.Sprint(st.Reachable))
	printKeyValue("levels", fmt.Sprint(st.Levels))
	printKeyValue("bandwidth", formatChange(int64(st.BandwidthBefore), int64(st.BandwidthAfter)))
	printKeyValue("profile", formatChange(st.ProfileBefore, st.ProfileAfter))
	printNewline()
	printKeyValue("load", formatDuration(st.LoadTime))
	printKeyValue("bfs", formatDuration(st.DistanceTime))
	printKeyValue("histogram", formatDuration(st.LevelTime))
	printKeyValue("place", formatDuration(st.PlaceTime))
	printKeyValue("total", formatDuration(st.ReorderTime))
	printStats(st.Nodes, st.Edges, st.Reachable, res.CacheHit)

	if showLevels {
		printNewline()
		for d, n := range res.LevelCounts {
			printDetail("level %4d  %d", d, n)
		}
	}
	return nil
}
