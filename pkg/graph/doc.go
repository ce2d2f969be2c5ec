// Package graph provides the immutable sparse graph consumed by the reordering
// engine, plus the metrics used to judge an ordering.
//
// # Overview
//
// Graphs are stored in compressed sparse row (CSR) form: a single offsets
// array indexed by node id and a single targets array holding every adjacency
// list back to back. Node ids are dense integers 0..NodeCount()-1, so they can
// be used directly as indices into per-node arrays. Once built, a [CSR] is never
// mutated and may be shared freely between goroutines.
//
// # Building
//
// Use a [Builder] to accumulate edges, then call [Builder.Build]:
//
//	b := graph.NewBuilder(4)
//	b.Undirected = true
//	_ = b.AddEdge(0, 1)
//	_ = b.AddEdge(1, 2)
//	_ = b.AddEdge(2, 3)
//	g := b.Build()
//
// The builder sorts each adjacency list by target id, removes duplicate edges
// and drops self loops. Edge endpoints beyond the declared node count grow the
// graph.
//
// # The Graph Interface
//
// The reordering engine depends only on [Graph], which exposes neighbors,
// degrees and the node count. [CSR] is the canonical implementation.
//
// # Metrics
//
// [Bandwidth] and [Profile] measure how far edges stray from the diagonal of
// the adjacency matrix under a given permutation. [Permute] materializes the
// relabelled graph and [Fingerprint] produces a stable content hash used as a
// cache key.
package graph
