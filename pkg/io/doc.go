// Package io reads graphs from and writes graphs and permutations to the
// file formats accepted by bandorder.
//
// # Graph Formats
//
// Three input formats are supported, selected explicitly or by file extension
// through [DetectFormat]:
//
//   - JSON (.json): a node count and a list of [from, to] pairs.
//
//     {
//     "nodes": 4,
//     "edges": [[0, 1], [1, 2], [2, 3]],
//     "directed": false
//     }
//
//   - Edge list (.txt, .el, .edges, .edgelist): one "from to" pair per line,
//     0-based. Further columns (weights) are ignored. Lines starting with '#'
//     or '%' are comments.
//
//   - Matrix Market (.mtx): the coordinate format with 1-based indices. The
//     matrix must be square; each nonzero (i, j) becomes an edge. Values are
//     ignored, so pattern, integer, real and complex matrices are all accepted.
//
// Unless [ReadOptions.Directed] is set (or the JSON document says
// "directed": true), every edge is stored in both directions. Cuthill–McKee
// orders the symmetric structure of a matrix, so this is the usual choice.
// Self loops and duplicate edges are dropped.
//
// # Import
//
// Use [Import] to read a graph from a file path, or [Read] to read from any
// io.Reader:
//
//	g, err := io.Import("bcsstk01.mtx", io.ReadOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Parse failures are reported with the INVALID_FORMAT code and the offending
// line number.
//
// # Export
//
// [WriteJSON] writes a graph in the JSON format, storing every edge as
// directed so that re-reading it yields the same adjacency. [WritePermutation]
// writes a computed ordering either as a JSON document or as plain text with
// one node id per line.
package io
