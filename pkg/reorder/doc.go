// Package reorder computes a bandwidth-reducing node permutation of a graph
// with a parallel Cuthill–McKee algorithm.
//
// Nodes are renumbered so that edges connect nearby indices: nodes are
// grouped by breadth-first distance from a source node, and within the group
// of children discovered from a single parent, nodes of lower degree come
// first.
//
// # Phases
//
// [Reorder] runs three phases, each parallel over the configured workers:
//
//  1. Distance assignment. A breadth-first search driven by a priority
//     worklist ordered by tentative distance. Distances are relaxed with a
//     lock-free atomic minimum, so a node may be reached several times before
//     its final distance settles.
//  2. Level histogram. Node distances are counted per level in parallel and
//     prefix-summed into the slot where each level begins in the output.
//  3. Placement. Levels are striped across workers. The owner of level n
//     waits until nodes of level n are published, scans their neighbors for
//     undiscovered nodes of level n+1, appends them sorted by degree and
//     publishes the new end of level n+1 for its owner.
//
// Only nodes reachable from the source are placed. [Complete] appends the
// remainder when every node must appear, and [Reverse] turns the result into
// a Reverse Cuthill–McKee ordering.
//
// # Example
//
//	res, err := reorder.Reorder(g, 0, reorder.Options{Workers: 8})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(graph.Bandwidth(g, res.Permutation))
package reorder
