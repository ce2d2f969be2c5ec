package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/bandorder/pkg/cache"
	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
	gio "github.com/matzehuels/bandorder/pkg/io"
	"github.com/matzehuels/bandorder/pkg/observability"
	"github.com/matzehuels/bandorder/pkg/reorder"
)

// Runner executes pipeline stages with caching. It holds no per-run state,
// so one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached permutations. Zero means
	// [cache.TTLPermutation].
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute loads opts.Input and reorders it.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	g, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(start)

	res, err := r.Reorder(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("reorder: %w", err)
	}
	res.Stats.LoadTime = loadTime
	return res, nil
}

// Load reads the graph named by opts.Input.
func (r *Runner) Load(ctx context.Context, opts Options) (*graph.CSR, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "pipeline.Load", trace.WithAttributes(
		attribute.String("input", opts.Input),
		attribute.String("format", string(opts.Format)),
	))
	defer span.End()

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Input)
	start := time.Now()

	g, err := gio.Import(opts.Input, gio.ReadOptions{
		Format:   opts.Format,
		Directed: opts.Directed,
		MaxNodes: opts.MaxNodes,
	})
	if err != nil {
		traceError(span, err)
		hooks.OnLoadComplete(ctx, opts.Input, 0, 0, time.Since(start), err)
		return nil, err
	}

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("graph.nodes", g.NodeCount()), attribute.Int("graph.edges", g.EdgeCount()))
	hooks.OnLoadComplete(ctx, opts.Input, g.NodeCount(), g.EdgeCount(), elapsed, nil)
	r.logger(opts).Info("loaded graph",
		"input", opts.Input,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", elapsed)
	return g, nil
}

// cachedOrdering is the cached form of a permutation result.
type cachedOrdering struct {
	Source      graph.NodeID   `json:"source"`
	Permutation []graph.NodeID `json:"permutation"`
	LevelCounts []uint32       `json:"level_counts"`
}

// fits reports whether c is a valid ordering of a graph with n nodes: every
// id in range and none repeated.
func (c cachedOrdering) fits(n int) bool {
	if len(c.Permutation) > n || int(c.Source) >= n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range c.Permutation {
		if int(v) >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Reorder computes the ordering of g, consulting the cache first.
func (r *Runner) Reorder(ctx context.Context, g *graph.CSR, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	res := &Result{
		RunID:       uuid.NewString(),
		Graph:       g,
		Fingerprint: graph.Fingerprint(g),
		Reverse:     opts.Reverse,
		Complete:    opts.Complete,
	}
	res.Stats.Nodes = g.NodeCount()
	res.Stats.Edges = g.EdgeCount()

	source, err := resolveSource(g, opts)
	if err != nil {
		return nil, err
	}
	res.Source = source

	ctx, span := tracer.Start(ctx, "pipeline.Reorder", trace.WithAttributes(
		attribute.String("run_id", res.RunID),
		attribute.String("fingerprint", res.Fingerprint),
		attribute.Int("graph.nodes", g.NodeCount()),
		attribute.Int("source", int(source)),
		attribute.Bool("reverse", opts.Reverse),
	))
	defer span.End()

	key := r.Keyer.PermutationKey(res.Fingerprint, cache.PermutationKeyOpts{
		Source:   uint32(source),
		Reverse:  opts.Reverse,
		Complete: opts.Complete,
	})

	start := time.Now()
	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, key, g.NodeCount()); ok {
			res.Permutation = cached.Permutation
			res.LevelCounts = cached.LevelCounts
			res.CacheHit = true
			span.SetAttributes(attribute.Bool("cache_hit", true))
			logger.Debug("permutation cache hit", "run_id", res.RunID, "key", key)
		}
	}

	if !res.CacheHit {
		if err := r.compute(ctx, span, g, source, opts, res); err != nil {
			traceError(span, err)
			return nil, err
		}
		r.store(ctx, key, cachedOrdering{Source: source, Permutation: res.Permutation, LevelCounts: res.LevelCounts})
	}
	res.Stats.ReorderTime = time.Since(start)

	r.fillStats(res)
	logger.Info("reordered graph",
		"run_id", res.RunID,
		"ordering", opts.Describe(),
		"reachable", res.Stats.Reachable,
		"bandwidth", fmt.Sprintf("%d -> %d", res.Stats.BandwidthBefore, res.Stats.BandwidthAfter),
		"cached", res.CacheHit,
		"duration", res.Stats.ReorderTime)
	return res, nil
}

func (r *Runner) compute(ctx context.Context, span trace.Span, g *graph.CSR, source graph.NodeID, opts Options, res *Result) error {
	hooks := observability.Pipeline()
	hooks.OnReorderStart(ctx, g.NodeCount(), opts.Workers)
	start := time.Now()

	out, err := reorder.Reorder(g, source, reorder.Options{
		Workers:   opts.Workers,
		SpinLimit: opts.SpinLimit,
		Observer:  phaseObserver{ctx: ctx, span: span},
	})
	if err != nil {
		hooks.OnReorderComplete(ctx, 0, time.Since(start), err)
		return err
	}
	hooks.OnReorderComplete(ctx, len(out.Permutation), time.Since(start), nil)

	perm := out.Permutation
	if opts.Complete {
		perm = reorder.Complete(perm, g.NodeCount())
	}
	if opts.Reverse {
		perm = reorder.Reverse(perm)
	}
	res.Permutation = perm
	res.LevelCounts = out.LevelCounts
	res.Stats.DistanceTime = out.Timings.Distances
	res.Stats.LevelTime = out.Timings.Levels
	res.Stats.PlaceTime = out.Timings.Place
	return nil
}

// lookup returns a cached ordering. Entries that fail to decode or do not
// fit the graph are treated as misses.
func (r *Runner) lookup(ctx context.Context, key string, n int) (cachedOrdering, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "perm")
		return cachedOrdering{}, false
	}
	var c cachedOrdering
	if err := json.Unmarshal(data, &c); err != nil || !c.fits(n) {
		observability.Cache().OnCacheMiss(ctx, "perm")
		return cachedOrdering{}, false
	}
	observability.Cache().OnCacheHit(ctx, "perm")
	return c, true
}

func (r *Runner) store(ctx context.Context, key string, c cachedOrdering) {
	data, err := json.Marshal(c)
	if err != nil {
		return
	}
	ttl := r.TTL
	if ttl == 0 {
		ttl = cache.TTLPermutation
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "perm", len(data))
}

func (r *Runner) fillStats(res *Result) {
	g := res.Graph
	res.Stats.Reachable = len(res.Permutation)
	res.Stats.Levels = len(res.LevelCounts)
	res.Stats.BandwidthBefore = graph.Bandwidth(g, nil)
	res.Stats.ProfileBefore = graph.Profile(g, nil)
	res.Stats.BandwidthAfter = graph.Bandwidth(g, res.Permutation)
	res.Stats.ProfileAfter = graph.Profile(g, res.Permutation)
}

// resolveSource picks the start node from the options.
func resolveSource(g graph.Graph, opts Options) (graph.NodeID, error) {
	if opts.AutoSource {
		v, _ := graph.MinDegreeNode(g)
		return v, nil
	}
	if err := errors.ValidateSource(opts.Source, g.NodeCount()); err != nil {
		return 0, err
	}
	return graph.NodeID(opts.Source), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
