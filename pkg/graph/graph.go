package graph

import (
	"iter"
	"math"
)

// NodeID identifies a node. Ids are dense: a graph with n nodes uses 0..n-1.
type NodeID uint32

// MaxNodes is the largest node count a graph may hold. The top two uint32
// values are reserved as distance sentinels by the reordering engine.
const MaxNodes = math.MaxUint32 - 2

// Graph is the read-only view of a graph required by the reordering engine.
// Implementations must be safe for concurrent readers.
type Graph interface {
	// NodeCount returns the number of nodes.
	NodeCount() int
	// Neighbors returns the out-neighbors of n in a stable order.
	// The returned slice must not be modified.
	Neighbors(n NodeID) []NodeID
	// Degree returns len(Neighbors(n)).
	Degree(n NodeID) int
}

// CSR is an immutable graph in compressed sparse row form.
//
// The zero value is an empty graph. Use [Builder] or [FromAdjacency] to
// construct a populated one.
type CSR struct {
	offsets []int    // len NodeCount()+1; row n spans targets[offsets[n]:offsets[n+1]]
	targets []NodeID // concatenated adjacency lists
}

// NodeCount returns the number of nodes.
func (g *CSR) NodeCount() int {
	if len(g.offsets) == 0 {
		return 0
	}
	return len(g.offsets) - 1
}

// EdgeCount returns the number of stored (directed) edges. An undirected edge
// built with [Builder.Undirected] counts twice.
func (g *CSR) EdgeCount() int { return len(g.targets) }

// Neighbors returns the adjacency list of n, sorted by target id.
func (g *CSR) Neighbors(n NodeID) []NodeID {
	return g.targets[g.offsets[n]:g.offsets[n+1]]
}

// Degree returns the out-degree of n.
func (g *CSR) Degree(n NodeID) int {
	return g.offsets[n+1] - g.offsets[n]
}

// MaxDegree returns the largest out-degree in the graph, or 0 when empty.
func (g *CSR) MaxDegree() int {
	best := 0
	for n := range g.NodeCount() {
		best = max(best, g.Degree(NodeID(n)))
	}
	return best
}

// Edges yields every stored edge as (from, to) in row order.
func (g *CSR) Edges() iter.Seq2[NodeID, NodeID] {
	return func(yield func(NodeID, NodeID) bool) {
		for n := range g.NodeCount() {
			for _, m := range g.Neighbors(NodeID(n)) {
				if !yield(NodeID(n), m) {
					return
				}
			}
		}
	}
}

// FromAdjacency builds a CSR directly from adjacency lists. The lists are
// copied as given: no sorting, deduplication or symmetrization is applied.
// Targets must lie in [0, len(adj)); FromAdjacency panics otherwise.
func FromAdjacency(adj [][]NodeID) *CSR {
	g := &CSR{offsets: make([]int, len(adj)+1)}
	for n, row := range adj {
		g.offsets[n+1] = g.offsets[n] + len(row)
	}
	g.targets = make([]NodeID, 0, g.offsets[len(adj)])
	for _, row := range adj {
		for _, m := range row {
			if int(m) >= len(adj) {
				panic("graph: adjacency target out of range")
			}
		}
		g.targets = append(g.targets, row...)
	}
	return g
}

// Ensure CSR implements Graph.
var _ Graph = (*CSR)(nil)
