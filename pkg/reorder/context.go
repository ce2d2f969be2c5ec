package reorder

import (
	"math"
	"sync/atomic"

	"github.com/matzehuels/bandorder/pkg/graph"
	"github.com/matzehuels/bandorder/pkg/sched"
)

// Infinity is the distance of a node not reachable from the source.
const Infinity = math.MaxUint32 - 1

// Context holds the per-node state of one reordering run. It is created by
// [Reorder] and never shared between runs.
type Context struct {
	g         graph.Graph
	workers   int
	spinLimit int

	dist    []atomic.Uint32
	degree  []uint32
	visited []bool // written only by the owner of level dist-1

	levels  []uint32 // node count per distance, 0..maxDist
	maxDist uint32
	offsets *OffsetTable
	perm    []graph.NodeID

	stalled atomic.Bool
}

func newContext(g graph.Graph, opts Options) *Context {
	n := g.NodeCount()
	ctx := &Context{
		g:         g,
		workers:   sched.Workers(opts.Workers),
		spinLimit: opts.SpinLimit,
		dist:      make([]atomic.Uint32, n),
		degree:    make([]uint32, n),
		visited:   make([]bool, n),
	}
	sched.ForRange(ctx.workers, n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			ctx.dist[i].Store(Infinity)
			ctx.degree[i] = uint32(g.Degree(graph.NodeID(i)))
		}
	})
	return ctx
}

// distances returns a snapshot of the distance of every node.
func (ctx *Context) distances() []uint32 {
	out := make([]uint32, len(ctx.dist))
	for i := range ctx.dist {
		out[i] = ctx.dist[i].Load()
	}
	return out
}
