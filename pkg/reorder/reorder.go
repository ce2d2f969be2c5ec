package reorder

import (
	"time"

	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
)

// Phase names reported to an [Observer] and used as timing labels.
const (
	PhaseDistances = "bfs"
	PhaseLevels    = "levels"
	PhasePlace     = "place"
)

// Observer receives phase boundaries of a reordering run. Calls are made from
// the goroutine that called [Reorder].
type Observer interface {
	PhaseStarted(phase string)
	PhaseFinished(phase string, elapsed time.Duration)
}

// Options configures a reordering run.
type Options struct {
	// Workers is the number of goroutines per phase. Zero means GOMAXPROCS.
	Workers int

	// SpinLimit bounds how many consecutive empty polls a placement worker
	// makes while waiting for its level. Zero waits forever. When exceeded,
	// Reorder returns ErrStalled.
	SpinLimit int

	// Observer, if set, is told when each phase starts and ends.
	Observer Observer
}

// PhaseTimings records wall-clock time spent in each phase.
type PhaseTimings struct {
	Distances time.Duration
	Levels    time.Duration
	Place     time.Duration
}

// Total returns the sum of all phases.
func (t PhaseTimings) Total() time.Duration {
	return t.Distances + t.Levels + t.Place
}

// Result is the outcome of [Reorder].
type Result struct {
	// Permutation lists the reachable nodes in their new order:
	// Permutation[i] is the node placed at position i.
	Permutation []graph.NodeID

	// Distances holds the breadth-first distance of every node from the
	// source, Infinity for unreachable nodes.
	Distances []uint32

	// LevelCounts[d] is the number of nodes at distance d.
	LevelCounts []uint32

	// MaxDistance is the largest finite distance.
	MaxDistance uint32

	Timings PhaseTimings
}

// Reachable returns the number of nodes reachable from the source.
func (r Result) Reachable() int { return len(r.Permutation) }

// Reorder computes the Cuthill–McKee permutation of the nodes reachable from
// source. The graph must not change while Reorder runs.
//
// The empty graph yields an empty permutation. On a non-empty graph, a source
// outside [0, NodeCount) returns an INVALID_SOURCE error.
func Reorder(g graph.Graph, source graph.NodeID, opts Options) (Result, error) {
	n := g.NodeCount()
	if n == 0 {
		return Result{Permutation: []graph.NodeID{}, Distances: []uint32{}}, nil
	}
	if uint64(n) > graph.MaxNodes {
		return Result{}, errors.New(errors.ErrCodeInvalidGraph, "graph has %d nodes (max %d)", n, uint64(graph.MaxNodes))
	}
	if err := errors.ValidateSource(int(source), n); err != nil {
		return Result{}, err
	}
	if err := errors.ValidateWorkers(opts.Workers); err != nil {
		return Result{}, err
	}

	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	ctx := newContext(g, opts)

	var res Result
	res.Timings.Distances = timed(obs, PhaseDistances, func() { assignDistances(ctx, source) })
	res.Timings.Levels = timed(obs, PhaseLevels, func() { countLevels(ctx) })

	var err error
	res.Timings.Place = timed(obs, PhasePlace, func() { err = place(ctx, source) })
	if err != nil {
		return Result{}, err
	}

	res.Permutation = ctx.perm
	res.Distances = ctx.distances()
	res.LevelCounts = ctx.levels
	res.MaxDistance = ctx.maxDist
	return res, nil
}

// Permutation is a shorthand for [Reorder] with default options. It returns
// nil if the source is invalid.
func Permutation(g graph.Graph, source graph.NodeID) []graph.NodeID {
	res, err := Reorder(g, source, Options{})
	if err != nil {
		return nil
	}
	return res.Permutation
}

// Reverse returns perm in reverse order, turning a Cuthill–McKee ordering into
// a Reverse Cuthill–McKee one. perm is not modified.
func Reverse(perm []graph.NodeID) []graph.NodeID {
	out := make([]graph.NodeID, len(perm))
	for i, v := range perm {
		out[len(perm)-1-i] = v
	}
	return out
}

// Complete returns perm followed by every node of an n-node graph that perm
// does not contain, in ascending id order.
func Complete(perm []graph.NodeID, n int) []graph.NodeID {
	placed := make([]bool, n)
	for _, v := range perm {
		placed[v] = true
	}
	out := make([]graph.NodeID, len(perm), n)
	copy(out, perm)
	for v := range n {
		if !placed[v] {
			out = append(out, graph.NodeID(v))
		}
	}
	return out
}

func timed(obs Observer, phase string, fn func()) time.Duration {
	obs.PhaseStarted(phase)
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	obs.PhaseFinished(phase, elapsed)
	return elapsed
}

type nopObserver struct{}

func (nopObserver) PhaseStarted(string)                 {}
func (nopObserver) PhaseFinished(string, time.Duration) {}
