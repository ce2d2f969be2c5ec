package graph

// Rank inverts a permutation: rank[perm[i]] = i. Nodes of an n-node graph
// that do not appear in perm get rank -1.
func Rank(perm []NodeID, n int) []int {
	rank := make([]int, n)
	for i := range rank {
		rank[i] = -1
	}
	for i, v := range perm {
		rank[v] = i
	}
	return rank
}

// Identity returns the permutation [0, 1, ..., n-1].
func Identity(n int) []NodeID {
	perm := make([]NodeID, n)
	for i := range perm {
		perm[i] = NodeID(i)
	}
	return perm
}

// Bandwidth returns the largest |rank(u) - rank(v)| over all edges whose
// endpoints both appear in perm. A nil perm measures the graph's own labelling.
func Bandwidth(g Graph, perm []NodeID) int {
	if perm == nil {
		perm = Identity(g.NodeCount())
	}
	rank := Rank(perm, g.NodeCount())
	bw := 0
	for _, u := range perm {
		ru := rank[u]
		for _, v := range g.Neighbors(u) {
			if rv := rank[v]; rv >= 0 {
				bw = max(bw, abs(ru-rv))
			}
		}
	}
	return bw
}

// Profile returns the envelope size of the permuted adjacency matrix: for each
// placed node, the distance from its rank back to its lowest-ranked neighbor,
// summed. A nil perm measures the graph's own labelling.
func Profile(g Graph, perm []NodeID) int64 {
	if perm == nil {
		perm = Identity(g.NodeCount())
	}
	rank := Rank(perm, g.NodeCount())
	var total int64
	for _, u := range perm {
		ru := rank[u]
		lowest := ru
		for _, v := range g.Neighbors(u) {
			if rv := rank[v]; rv >= 0 && rv < lowest {
				lowest = rv
			}
		}
		total += int64(ru - lowest)
	}
	return total
}

// Permute relabels g so that node perm[i] becomes node i. Nodes missing from
// perm are dropped together with their edges. Adjacency lists of the result
// are sorted by the new ids.
func Permute(g Graph, perm []NodeID) *CSR {
	rank := Rank(perm, g.NodeCount())
	b := NewBuilder(len(perm))
	for _, u := range perm {
		for _, v := range g.Neighbors(u) {
			if rank[v] >= 0 {
				_ = b.AddEdge(rank[u], rank[v])
			}
		}
	}
	return b.Build()
}

// MinDegreeNode returns a node of smallest non-zero degree, the usual starting
// point for Cuthill–McKee. Ties go to the lowest id. If every node is isolated
// it returns node 0; ok is false only for an empty graph.
func MinDegreeNode(g Graph) (n NodeID, ok bool) {
	if g.NodeCount() == 0 {
		return 0, false
	}
	best := -1
	for v := range g.NodeCount() {
		d := g.Degree(NodeID(v))
		if d > 0 && (best < 0 || d < g.Degree(NodeID(best))) {
			best = v
		}
	}
	if best < 0 {
		return 0, true
	}
	return NodeID(best), true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
