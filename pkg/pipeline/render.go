package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/bandorder/pkg/cache"
	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/observability"
	"github.com/matzehuels/bandorder/pkg/render"
)

// Render draws res in the requested format. It reports whether the artifact
// came from the cache.
func (r *Runner) Render(ctx context.Context, res *Result, ropts RenderOptions) ([]byte, bool, error) {
	if res == nil || res.Graph == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "nothing to render")
	}
	if err := ropts.Validate(); err != nil {
		return nil, false, err
	}

	ctx, span := tracer.Start(ctx, "pipeline.Render", trace.WithAttributes(
		attribute.String("run_id", res.RunID),
		attribute.String("format", ropts.Format),
		attribute.String("layout", ropts.Layout),
	))
	defer span.End()

	key := r.Keyer.RenderKey(res.Fingerprint, cache.RenderKeyOpts{
		Source:   uint32(res.Source),
		Reverse:  res.Reverse,
		Complete: res.Complete,
		Format:   ropts.Format,
		Layout:   ropts.Layout,
		Band:     ropts.Band,
	})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "render")
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, ropts.Format)
	start := time.Now()

	data, err := r.draw(ctx, res, ropts)
	hooks.OnRenderComplete(ctx, ropts.Format, time.Since(start), err)
	if err != nil {
		traceError(span, err)
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}
	r.Logger.Debug("rendered graph", "run_id", res.RunID, "format", ropts.Format, "bytes", len(data), "duration", time.Since(start))
	return data, false, nil
}

func (r *Runner) draw(ctx context.Context, res *Result, ropts RenderOptions) ([]byte, error) {
	g := res.Graph
	switch ropts.Format {
	case FormatSpy:
		var opts []render.SpyOption
		if ropts.Band {
			opts = append(opts, render.WithBand())
		}
		return render.SpySVG(g, res.Permutation, opts...), nil
	case FormatDOT:
		return []byte(render.ToDOT(g, res.Permutation, render.DOTOptions{})), nil
	default:
		if g.NodeCount() > MaxRenderNodes {
			return nil, errors.New(errors.ErrCodeUnsupported,
				"graph has %d nodes; node-link renders are limited to %d (use the spy format)", g.NodeCount(), MaxRenderNodes)
		}
		dot := render.ToDOT(g, res.Permutation, render.DOTOptions{})
		return render.RenderSVG(ctx, dot, ropts.Layout)
	}
}
