// Package render draws graphs and their orderings.
//
// # Node-link Diagrams
//
// [ToDOT] converts a graph to Graphviz DOT, labelling each node with its
// original id and its rank in a permutation. Nodes missing from the
// permutation (unreachable from the source) are drawn dashed. [RenderSVG]
// lays the DOT out in-process with [github.com/goccy/go-graphviz].
//
//	dot := render.ToDOT(g, perm, render.DOTOptions{})
//	svg, err := render.RenderSVG(ctx, dot, render.LayoutNeato)
//
// # Sparsity Plots
//
// [SpySVG] draws the adjacency matrix of a graph under a permutation, one
// square per nonzero, the usual way to show the effect of a bandwidth
// reduction. The band of the permuted matrix is shaded.
//
//	before := render.SpySVG(g, nil)
//	after := render.SpySVG(g, perm, render.WithBand())
package render
