package graph

import (
	"cmp"
	"slices"

	"github.com/matzehuels/bandorder/pkg/errors"
)

type edge struct{ from, to NodeID }

// Builder accumulates edges and produces a [CSR].
//
// A Builder is not safe for concurrent use.
type Builder struct {
	// Undirected stores every edge in both directions. Bandwidth reduction is
	// normally applied to structurally symmetric matrices, so readers enable
	// this unless the input says otherwise.
	Undirected bool

	// Limit caps the node count AddEdge accepts. Zero or anything above
	// [MaxNodes] means MaxNodes.
	Limit int

	n     int
	edges []edge
}

// NewBuilder returns a builder for a graph with at least n nodes.
func NewBuilder(n int) *Builder {
	return &Builder{n: max(n, 0)}
}

// NodeCount returns the number of nodes the built graph will have.
func (b *Builder) NodeCount() int { return b.n }

// Grow raises the node count to at least n.
func (b *Builder) Grow(n int) {
	b.n = max(b.n, n)
}

// AddEdge records the edge from→to, growing the node count when either
// endpoint lies past the current end. It returns an INVALID_GRAPH error for
// negative ids or ids at or beyond the node limit.
func (b *Builder) AddEdge(from, to int) error {
	if from < 0 || to < 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "negative node id in edge %d->%d", from, to)
	}
	if lim := b.limit(); uint64(from) >= lim || uint64(to) >= lim {
		return errors.New(errors.ErrCodeInvalidGraph, "node id in edge %d->%d exceeds %d", from, to, lim-1)
	}
	b.Grow(max(from, to) + 1)
	b.edges = append(b.edges, edge{NodeID(from), NodeID(to)})
	return nil
}

func (b *Builder) limit() uint64 {
	if b.Limit > 0 && uint64(b.Limit) < MaxNodes {
		return uint64(b.Limit)
	}
	return MaxNodes
}

// Build produces the CSR. Adjacency lists are sorted by target id, duplicate
// edges are collapsed and self loops are dropped. The builder may be reused
// afterwards; later edges do not affect graphs already built.
func (b *Builder) Build() *CSR {
	edges := make([]edge, 0, len(b.edges)*2)
	for _, e := range b.edges {
		if e.from == e.to {
			continue
		}
		edges = append(edges, e)
		if b.Undirected {
			edges = append(edges, edge{e.to, e.from})
		}
	}
	slices.SortFunc(edges, func(x, y edge) int {
		if c := cmp.Compare(x.from, y.from); c != 0 {
			return c
		}
		return cmp.Compare(x.to, y.to)
	})
	edges = slices.Compact(edges)

	g := &CSR{
		offsets: make([]int, b.n+1),
		targets: make([]NodeID, len(edges)),
	}
	for i, e := range edges {
		g.offsets[e.from+1]++
		g.targets[i] = e.to
	}
	for n := range b.n {
		g.offsets[n+1] += g.offsets[n]
	}
	return g
}
