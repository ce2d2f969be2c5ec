package reorder

import (
	"runtime"

	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
	"github.com/matzehuels/bandorder/pkg/sched"
)

// spinBurst is the number of empty polls before a waiting worker yields.
const spinBurst = 64

// ErrStalled is returned when a worker polled an unpublished level longer
// than Options.SpinLimit allows.
var ErrStalled = errors.New(errors.ErrCodeStalled, "placement stalled waiting for a level to be published")

// place fills ctx.perm. Level n is owned by worker n mod T; its owner waits
// for nodes of level n to be published, discovers their unvisited children on
// level n+1 and publishes them for the owner of level n+1.
func place(ctx *Context, source graph.NodeID) error {
	ctx.perm = make([]graph.NodeID, ctx.offsets.Write(len(ctx.levels)))
	ctx.perm[0] = source
	ctx.visited[source] = true
	ctx.offsets.publish(0, 1)

	levels := len(ctx.levels)
	sched.OnEach(min(ctx.workers, levels), func(id, total int) {
		for n := id; n < levels; n += total {
			if !placeLevel(ctx, n) {
				return
			}
		}
	})

	if ctx.stalled.Load() {
		return ErrStalled
	}
	return nil
}

// placeLevel consumes level n and appends level n+1. It returns false if the
// run was abandoned because some worker stalled.
func placeLevel(ctx *Context, n int) bool {
	start := ctx.offsets.Read[n]
	end := start + ctx.levels[n]
	tail := ctx.offsets.Write(n + 1)
	next := uint32(n) + 1

	spins := 0
	for start < end {
		ready := ctx.offsets.Write(n)
		if ready == start {
			if !ctx.wait(&spins) {
				return false
			}
			continue
		}
		spins = 0

		for ; start < ready; start++ {
			batch := tail
			for _, m := range ctx.g.Neighbors(ctx.perm[start]) {
				// distance first: visited[m] belongs to the owner of level dist[m]-1
				if ctx.dist[m].Load() == next && !ctx.visited[m] {
					ctx.visited[m] = true
					ctx.perm[tail] = m
					tail++
				}
			}
			sortBatch(ctx.perm[batch:tail], ctx.degree)
			ctx.offsets.publish(n+1, tail)
		}
	}
	return true
}

// wait backs off one poll. It reports false once the run is stalled.
func (ctx *Context) wait(spins *int) bool {
	if ctx.stalled.Load() {
		return false
	}
	*spins++
	if ctx.spinLimit > 0 && *spins > ctx.spinLimit {
		ctx.stalled.Store(true)
		return false
	}
	if *spins%spinBurst == 0 {
		runtime.Gosched()
	}
	return true
}
