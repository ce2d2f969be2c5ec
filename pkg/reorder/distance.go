package reorder

import (
	"cmp"

	"github.com/matzehuels/bandorder/pkg/graph"
	"github.com/matzehuels/bandorder/pkg/sched"
)

// casValue is satisfied by the sync/atomic value types.
type casValue[T cmp.Ordered] interface {
	Load() T
	CompareAndSwap(old, new T) bool
}

// atomicMin lowers v to x if x is smaller than the current value. It reports
// whether this call changed v.
func atomicMin[T cmp.Ordered, A casValue[T]](v A, x T) bool {
	for {
		old := v.Load()
		if old <= x {
			return false
		}
		if v.CompareAndSwap(old, x) {
			return true
		}
	}
}

// assignDistances sets dist to the breadth-first distance from source.
// Unreachable nodes keep Infinity.
func assignDistances(ctx *Context, source graph.NodeID) {
	ctx.dist[source].Store(0)
	seeds := []sched.Item[graph.NodeID]{{Value: source, Priority: 0}}

	sched.ForEachOrdered(ctx.workers, seeds, func(it sched.Item[graph.NodeID], push func(sched.Item[graph.NodeID])) {
		n := it.Value
		d := ctx.dist[n].Load()
		if uint64(d) < it.Priority {
			// a shorter path was found after this entry was queued; the
			// newer entry relaxes the neighbors
			return
		}
		for _, m := range ctx.g.Neighbors(n) {
			if atomicMin(&ctx.dist[m], d+1) {
				push(sched.Item[graph.NodeID]{Value: m, Priority: uint64(d + 1)})
			}
		}
	})
}
