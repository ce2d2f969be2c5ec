// Package pipeline runs the load → reorder → report sequence shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Load: read a graph file ([io.Import]) or accept an in-memory graph
//  2. Reorder: compute the Cuthill–McKee permutation ([reorder.Reorder]),
//     going through the cache keyed by the graph fingerprint and options
//  3. Render (optional): draw the graph or its sparsity pattern
//
// Every stage emits observability hooks and an OpenTelemetry span.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "bcsstk01.mtx",
//	    Reverse: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.BandwidthBefore, "->", result.Stats.BandwidthAfter)
//
// [io.Import]: github.com/matzehuels/bandorder/pkg/io.Import
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
	gio "github.com/matzehuels/bandorder/pkg/io"
	"github.com/matzehuels/bandorder/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultLayout is the Graphviz engine used for node-link renders.
	DefaultLayout = render.LayoutNeato

	// MaxRenderNodes bounds node-link renders; Graphviz layouts of larger
	// graphs take too long to be useful.
	MaxRenderNodes = 2000
)

// Render formats.
const (
	FormatSVG = "svg"
	FormatDOT = "dot"
	FormatSpy = "spy"
)

// ValidRenderFormats is the set of supported render formats.
var ValidRenderFormats = map[string]bool{
	FormatSVG: true,
	FormatDOT: true,
	FormatSpy: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It supports JSON for API requests.
type Options struct {
	// Load options
	Input    string     `json:"-"`
	Format   gio.Format `json:"format,omitempty"`
	Directed bool       `json:"directed,omitempty"`
	MaxNodes int        `json:"max_nodes,omitempty"` // 0 = io.DefaultMaxNodes

	// Ordering options
	Source     int  `json:"source"`
	AutoSource bool `json:"auto_source,omitempty"` // choose a minimum-degree node
	Reverse    bool `json:"reverse,omitempty"`     // Reverse Cuthill–McKee
	Complete   bool `json:"complete,omitempty"`    // append unreachable nodes
	Workers    int  `json:"workers,omitempty"`
	SpinLimit  int  `json:"spin_limit,omitempty"`
	Refresh    bool `json:"refresh,omitempty"` // skip the cache lookup

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// RenderOptions configures the render stage.
type RenderOptions struct {
	Format string `json:"format"`
	Layout string `json:"layout,omitempty"`
	Band   bool   `json:"band,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// Graph is the loaded graph.
	Graph *graph.CSR

	// Fingerprint is the content hash of the graph.
	Fingerprint string

	// Source is the node the ordering started from.
	Source graph.NodeID

	// Reverse and Complete echo the options the permutation was built with.
	Reverse  bool
	Complete bool

	// Permutation is the computed ordering, reversed and completed as
	// requested.
	Permutation []graph.NodeID

	// LevelCounts[d] is the number of nodes at distance d from Source.
	LevelCounts []uint32

	Stats Stats

	// CacheHit reports whether the permutation came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes     int
	Edges     int
	Reachable int
	Levels    int

	BandwidthBefore int
	BandwidthAfter  int
	ProfileBefore   int64
	ProfileAfter    int64

	LoadTime    time.Duration
	ReorderTime time.Duration

	// Phase timings are zero on a cache hit.
	DistanceTime time.Duration
	LevelTime    time.Duration
	PlaceTime    time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateRenderFormat checks that a render format is valid.
func ValidateRenderFormat(format string) error {
	if !ValidRenderFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid render format: %q (must be one of: svg, dot, spy)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset fields. Format is detected from Input when empty.
func (o *Options) SetDefaults() error {
	if o.Format == "" && o.Input != "" {
		f, err := gio.DetectFormat(o.Input)
		if err != nil {
			return err
		}
		o.Format = f
	}
	return nil
}

// Validate checks the ordering options.
func (o *Options) Validate() error {
	if o.Source < 0 {
		return errors.New(errors.ErrCodeInvalidSource, "source must not be negative (got %d)", o.Source)
	}
	if o.SpinLimit < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "spin limit must not be negative (got %d)", o.SpinLimit)
	}
	if o.MaxNodes < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max nodes must not be negative (got %d)", o.MaxNodes)
	}
	return errors.ValidateWorkers(o.Workers)
}

// ValidateForLoad checks the options needed to read the input file.
func (o *Options) ValidateForLoad() error {
	if err := errors.ValidatePath(o.Input); err != nil {
		return err
	}
	return o.SetDefaults()
}

// SetDefaults fills unset render fields.
func (o *RenderOptions) SetDefaults() {
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
}

// Validate checks the render options.
func (o *RenderOptions) Validate() error {
	o.SetDefaults()
	if err := ValidateRenderFormat(o.Format); err != nil {
		return err
	}
	if o.Format == FormatSpy {
		return nil
	}
	return render.ValidateLayout(o.Layout)
}

// Describe returns a one-line summary of the ordering options for logs.
func (o *Options) Describe() string {
	src := fmt.Sprint(o.Source)
	if o.AutoSource {
		src = "auto"
	}
	kind := "cm"
	if o.Reverse {
		kind = "rcm"
	}
	return fmt.Sprintf("%s source=%s complete=%v", kind, src, o.Complete)
}
