// Package cli implements the bandorder command-line interface.
//
// The commands load a graph, compute its Cuthill–McKee ordering through
// [pipeline.Runner] and report the result:
//   - reorder: write the permutation as JSON or one id per line
//   - stats: print bandwidth, profile and phase timings
//   - render: draw the graph or its sparsity pattern
//   - serve: expose the pipeline over HTTP
//   - cache: manage the local result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Log output
// goes to stderr so that stdout stays usable for permutations.
//
// [pipeline.Runner]: github.com/matzehuels/bandorder/pkg/pipeline.Runner
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Reordered 42 nodes (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
