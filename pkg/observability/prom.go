package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bandorder"

// PromHooks records pipeline, cache and HTTP events as Prometheus metrics.
// It implements [PipelineHooks], [CacheHooks] and [HTTPHooks].
type PromHooks struct {
	reg prometheus.Gatherer

	loads          *prometheus.CounterVec
	graphNodes     prometheus.Histogram
	reorders       *prometheus.CounterVec
	reorderSeconds prometheus.Histogram
	phaseSeconds   *prometheus.HistogramVec
	reachable      prometheus.Histogram
	renders        *prometheus.CounterVec
	cacheOps       *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
}

// NewPromHooks registers the metrics with reg.
func NewPromHooks(reg *prometheus.Registry) *PromHooks {
	f := promauto.With(reg)
	sizeBuckets := prometheus.ExponentialBuckets(1, 4, 14)

	return &PromHooks{
		reg: reg,
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_loads_total",
			Help:      "Graph loads by result.",
		}, []string{"result"}),
		graphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Node count of loaded graphs.",
			Buckets:   sizeBuckets,
		}),
		reorders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorders_total",
			Help:      "Reordering runs by result.",
		}, []string{"result"}),
		reorderSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reorder_duration_seconds",
			Help:      "Wall-clock time of a reordering run.",
			Buckets:   prometheus.DefBuckets,
		}),
		phaseSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reorder_phase_duration_seconds",
			Help:      "Wall-clock time per engine phase.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		reachable: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reorder_reachable_nodes",
			Help:      "Number of nodes placed per run.",
			Buckets:   sizeBuckets,
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Renders by format and result.",
		}, []string{"format", "result"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and outcome.",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by route and status code.",
		}, []string{"method", "route", "code"}),
		requestSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// WriteToTextfile writes the current metrics in the text exposition format,
// for collection by node_exporter's textfile collector.
func (p *PromHooks) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.reg)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *PromHooks) OnLoadStart(context.Context, string) {}

func (p *PromHooks) OnLoadComplete(_ context.Context, _ string, nodes, _ int, _ time.Duration, err error) {
	p.loads.WithLabelValues(result(err)).Inc()
	if err == nil {
		p.graphNodes.Observe(float64(nodes))
	}
}

func (p *PromHooks) OnReorderStart(context.Context, int, int) {}

func (p *PromHooks) OnPhaseComplete(_ context.Context, phase string, d time.Duration) {
	p.phaseSeconds.WithLabelValues(phase).Observe(d.Seconds())
}

func (p *PromHooks) OnReorderComplete(_ context.Context, reachable int, d time.Duration, err error) {
	p.reorders.WithLabelValues(result(err)).Inc()
	if err == nil {
		p.reorderSeconds.Observe(d.Seconds())
		p.reachable.Observe(float64(reachable))
	}
}

func (p *PromHooks) OnRenderStart(context.Context, string) {}

func (p *PromHooks) OnRenderComplete(_ context.Context, format string, _ time.Duration, err error) {
	p.renders.WithLabelValues(format, result(err)).Inc()
}

func (p *PromHooks) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *PromHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *PromHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *PromHooks) OnRequest(context.Context, string, string) {}

func (p *PromHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.requestSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PromHooks)(nil)
	_ CacheHooks    = (*PromHooks)(nil)
	_ HTTPHooks     = (*PromHooks)(nil)
)
