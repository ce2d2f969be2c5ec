package reorder

import (
	"cmp"
	"slices"

	"github.com/matzehuels/bandorder/pkg/graph"
)

// sortBatch orders a batch of newly discovered nodes by ascending degree.
// Nodes of equal degree keep their discovery order.
func sortBatch(batch []graph.NodeID, degree []uint32) {
	if len(batch) < 2 {
		return
	}
	slices.SortStableFunc(batch, func(a, b graph.NodeID) int {
		return cmp.Compare(degree[a], degree[b])
	})
}
