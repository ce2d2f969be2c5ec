package reorder

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var workerCounts = []int{1, 2, 3, 8}

func undirected(n int, edges ...[2]int) *graph.CSR {
	b := graph.NewBuilder(n)
	b.Undirected = true
	for _, e := range edges {
		if err := b.AddEdge(e[0], e[1]); err != nil {
			panic(err)
		}
	}
	return b.Build()
}

func randomGraph(seed uint64, n, m int) *graph.CSR {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b := graph.NewBuilder(n)
	b.Undirected = true
	for range m {
		_ = b.AddEdge(r.IntN(n), r.IntN(n))
	}
	return b.Build()
}

func grid(w, h int) *graph.CSR {
	b := graph.NewBuilder(w * h)
	b.Undirected = true
	for y := range h {
		for x := range w {
			v := y*w + x
			if x+1 < w {
				_ = b.AddEdge(v, v+1)
			}
			if y+1 < h {
				_ = b.AddEdge(v, v+w)
			}
		}
	}
	return b.Build()
}

// bfs is a sequential reference for distances.
func bfs(g graph.Graph, source graph.NodeID) []uint32 {
	dist := make([]uint32, g.NodeCount())
	for i := range dist {
		dist[i] = Infinity
	}
	dist[source] = 0
	queue := []graph.NodeID{source}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range g.Neighbors(n) {
			if dist[m] == Infinity {
				dist[m] = dist[n] + 1
				queue = append(queue, m)
			}
		}
	}
	return dist
}

// checkOrdering verifies the structural properties every Cuthill–McKee
// permutation must have.
func checkOrdering(t *testing.T, g graph.Graph, source graph.NodeID, res Result) {
	t.Helper()
	want := bfs(g, source)
	if !slices.Equal(res.Distances, want) {
		t.Fatalf("Distances = %v, want %v", res.Distances, want)
	}

	reachable := 0
	for _, d := range want {
		if d != Infinity {
			reachable++
		}
	}
	perm := res.Permutation
	if len(perm) != reachable {
		t.Fatalf("len(Permutation) = %d, want %d reachable nodes", len(perm), reachable)
	}
	if perm[0] != source {
		t.Errorf("Permutation[0] = %d, want source %d", perm[0], source)
	}

	rank := graph.Rank(perm, g.NodeCount())
	for i, v := range perm {
		if rank[v] != i {
			t.Fatalf("node %d appears more than once", v)
		}
		if want[v] == Infinity {
			t.Fatalf("unreachable node %d was placed", v)
		}
	}

	parent := make([]int, len(perm))
	for i := 1; i < len(perm); i++ {
		v := perm[i]
		if want[v] < want[perm[i-1]] {
			t.Fatalf("distance decreases at %d: %d after %d", i, want[v], want[perm[i-1]])
		}
		// the batch producer is the earliest placed neighbor one level up
		parent[i] = -1
		for _, u := range g.Neighbors(v) {
			if r := rank[u]; r >= 0 && want[u]+1 == want[v] && (parent[i] < 0 || r < parent[i]) {
				parent[i] = r
			}
		}
		if parent[i] < 0 || parent[i] >= i {
			t.Fatalf("node %d at %d has no earlier placed parent", v, i)
		}
		if i > 1 && parent[i] < parent[i-1] && want[v] == want[perm[i-1]] {
			t.Fatalf("batches out of order at %d", i)
		}
		if i > 1 && parent[i] == parent[i-1] && g.Degree(v) < g.Degree(perm[i-1]) {
			t.Errorf("batch of parent %d not sorted by degree at %d", parent[i], i)
		}
	}

	var sum uint32
	for _, c := range res.LevelCounts {
		sum += c
	}
	if int(sum) != reachable {
		t.Errorf("LevelCounts sum = %d, want %d", sum, reachable)
	}
	if int(res.MaxDistance) != len(res.LevelCounts)-1 {
		t.Errorf("MaxDistance = %d with %d levels", res.MaxDistance, len(res.LevelCounts))
	}
}

func TestReorderScenarios(t *testing.T) {
	tests := []struct {
		name     string
		g        *graph.CSR
		source   graph.NodeID
		wantPerm []graph.NodeID
		wantDist []uint32
	}{
		{
			name:     "Path",
			g:        undirected(4, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}),
			source:   0,
			wantPerm: []graph.NodeID{0, 1, 2, 3},
			wantDist: []uint32{0, 1, 2, 3},
		},
		{
			name:     "Star",
			g:        undirected(4, [2]int{3, 0}, [2]int{3, 1}, [2]int{3, 2}),
			source:   3,
			wantPerm: []graph.NodeID{3, 0, 1, 2},
			wantDist: []uint32{1, 1, 1, 0},
		},
		{
			name: "TwoTriangles",
			g: undirected(6,
				[2]int{0, 1}, [2]int{1, 2}, [2]int{2, 0},
				[2]int{3, 4}, [2]int{4, 5}, [2]int{5, 3}),
			source:   1,
			wantPerm: []graph.NodeID{1, 0, 2},
			wantDist: []uint32{1, 0, 1, Infinity, Infinity, Infinity},
		},
		{
			name:     "IsolatedNode",
			g:        graph.NewBuilder(1).Build(),
			source:   0,
			wantPerm: []graph.NodeID{0},
			wantDist: []uint32{0},
		},
		{
			name: "DegreeTieBreak",
			// node 1 has degree 5, node 2 has degree 2; both children of 0
			g: undirected(8,
				[2]int{0, 1}, [2]int{0, 2},
				[2]int{1, 3}, [2]int{1, 4}, [2]int{1, 5}, [2]int{1, 6},
				[2]int{2, 7}),
			source:   0,
			wantPerm: []graph.NodeID{0, 2, 1, 7, 3, 4, 5, 6},
			wantDist: []uint32{0, 1, 1, 2, 2, 2, 2, 2},
		},
	}

	for _, tt := range tests {
		for _, workers := range workerCounts {
			t.Run(fmt.Sprintf("%s/workers=%d", tt.name, workers), func(t *testing.T) {
				res, err := Reorder(tt.g, tt.source, Options{Workers: workers})
				if err != nil {
					t.Fatalf("Reorder: %v", err)
				}
				if !slices.Equal(res.Permutation, tt.wantPerm) {
					t.Errorf("Permutation = %v, want %v", res.Permutation, tt.wantPerm)
				}
				if !slices.Equal(res.Distances, tt.wantDist) {
					t.Errorf("Distances = %v, want %v", res.Distances, tt.wantDist)
				}
				checkOrdering(t, tt.g, tt.source, res)
			})
		}
	}
}

func TestReorderProperties(t *testing.T) {
	graphs := []struct {
		name string
		g    *graph.CSR
	}{
		{"Grid", grid(17, 13)},
		{"Sparse", randomGraph(1, 500, 600)},
		{"Dense", randomGraph(2, 300, 3000)},
		{"Fragmented", randomGraph(3, 400, 250)},
	}

	for _, tt := range graphs {
		t.Run(tt.name, func(t *testing.T) {
			source, ok := graph.MinDegreeNode(tt.g)
			if !ok {
				t.Fatal("graph is empty")
			}
			var first []graph.NodeID
			for _, workers := range workerCounts {
				res, err := Reorder(tt.g, source, Options{Workers: workers})
				if err != nil {
					t.Fatalf("workers=%d: Reorder: %v", workers, err)
				}
				checkOrdering(t, tt.g, source, res)
				if first == nil {
					first = res.Permutation
				} else if !slices.Equal(first, res.Permutation) {
					t.Errorf("workers=%d: permutation differs from single worker run", workers)
				}
			}
		})
	}
}

func TestReorderReducesBandwidth(t *testing.T) {
	g := grid(20, 20)
	// scramble labels so the input ordering is poor
	r := rand.New(rand.NewPCG(7, 7))
	shuffled := graph.Identity(g.NodeCount())
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	g = graph.Permute(g, shuffled)

	before := graph.Bandwidth(g, nil)
	source, _ := graph.MinDegreeNode(g)
	res, err := Reorder(g, source, Options{Workers: 4})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	after := graph.Bandwidth(g, res.Permutation)
	if after >= before {
		t.Errorf("bandwidth %d -> %d, want a reduction", before, after)
	}
	if after > 2*20 {
		t.Errorf("bandwidth after reordering a 20x20 grid = %d, want <= 40", after)
	}
}

func TestDistancesIndependentOfWorkers(t *testing.T) {
	g := randomGraph(11, 2000, 5000)
	var want []uint32
	for _, workers := range []int{1, 2, 4, 16} {
		ctx := newContext(g, Options{Workers: workers})
		assignDistances(ctx, 0)
		got := ctx.distances()
		if want == nil {
			want = bfs(g, 0)
		}
		if !slices.Equal(got, want) {
			t.Errorf("workers=%d: distances differ from sequential BFS", workers)
		}
	}
}

func TestReorderEmptyGraph(t *testing.T) {
	res, err := Reorder(&graph.CSR{}, 0, Options{})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if res.Permutation == nil || len(res.Permutation) != 0 {
		t.Errorf("Permutation = %v, want empty non-nil slice", res.Permutation)
	}
}

func TestReorderInvalidInput(t *testing.T) {
	g := undirected(3, [2]int{0, 1})

	_, err := Reorder(g, 3, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidSource) {
		t.Errorf("source out of range: error = %v, want INVALID_SOURCE", err)
	}
	if got := Permutation(g, 7); got != nil {
		t.Errorf("Permutation() with bad source = %v, want nil", got)
	}

	_, err = Reorder(g, 0, Options{Workers: -1})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative workers: error = %v, want INVALID_INPUT", err)
	}
}

func TestPlaceStalls(t *testing.T) {
	// Node 1 claims distance 1 without any edge from level 0, so the owner of
	// level 1 waits for a node that is never published.
	g := graph.FromAdjacency([][]graph.NodeID{{}, {}})
	for _, workers := range []int{1, 2} {
		ctx := newContext(g, Options{Workers: workers, SpinLimit: 1000})
		ctx.dist[0].Store(0)
		ctx.dist[1].Store(1)
		countLevels(ctx)

		err := place(ctx, 0)
		if !errors.Is(err, errors.ErrCodeStalled) {
			t.Errorf("workers=%d: place() error = %v, want STALLED", workers, err)
		}
	}
}

func TestCountLevels(t *testing.T) {
	g := undirected(6, [2]int{0, 1}, [2]int{0, 2}, [2]int{2, 3})
	for _, workers := range workerCounts {
		ctx := newContext(g, Options{Workers: workers})
		assignDistances(ctx, 0)
		countLevels(ctx)

		if want := []uint32{1, 2, 1}; !slices.Equal(ctx.levels, want) {
			t.Errorf("workers=%d: levels = %v, want %v", workers, ctx.levels, want)
		}
		if ctx.maxDist != 2 {
			t.Errorf("workers=%d: maxDist = %d, want 2", workers, ctx.maxDist)
		}
		if want := []uint32{0, 1, 3}; !slices.Equal(ctx.offsets.Read, want) {
			t.Errorf("workers=%d: Read = %v, want %v", workers, ctx.offsets.Read, want)
		}
		if got := ctx.offsets.Write(3); got != 4 {
			t.Errorf("workers=%d: trailing write cursor = %d, want 4", workers, got)
		}

		if err := place(ctx, 0); err != nil {
			t.Fatalf("workers=%d: place() error = %v", workers, err)
		}
		for n, count := range ctx.levels {
			if got, want := ctx.offsets.Write(n), ctx.offsets.Read[n]+count; got != want {
				t.Errorf("workers=%d: Write(%d) = %d after placement, want Read+count = %d", workers, n, got, want)
			}
		}
	}
}

func TestAtomicMin(t *testing.T) {
	var v atomic.Uint32
	v.Store(10)
	if !atomicMin(&v, uint32(4)) {
		t.Error("atomicMin(10, 4) should lower the value")
	}
	if atomicMin(&v, uint32(4)) {
		t.Error("atomicMin(4, 4) should not report a change")
	}
	if atomicMin(&v, uint32(9)) {
		t.Error("atomicMin(4, 9) should not report a change")
	}
	if v.Load() != 4 {
		t.Errorf("value = %d, want 4", v.Load())
	}

	// concurrent callers: exactly the smallest value wins
	v.Store(Infinity)
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			atomicMin(&v, uint32(100+i))
		}()
	}
	wg.Wait()
	if v.Load() != 100 {
		t.Errorf("value after concurrent updates = %d, want 100", v.Load())
	}
}

func TestSortBatch(t *testing.T) {
	degree := []uint32{3, 1, 2, 1, 5}
	batch := []graph.NodeID{0, 4, 1, 2, 3}
	sortBatch(batch, degree)
	want := []graph.NodeID{1, 3, 2, 0, 4}
	if !slices.Equal(batch, want) {
		t.Errorf("sortBatch() = %v, want %v", batch, want)
	}
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) PhaseStarted(phase string) {
	o.events = append(o.events, "start:"+phase)
}

func (o *recordingObserver) PhaseFinished(phase string, _ time.Duration) {
	o.events = append(o.events, "end:"+phase)
}

func TestReorderObserver(t *testing.T) {
	obs := &recordingObserver{}
	res, err := Reorder(grid(5, 5), 0, Options{Workers: 2, Observer: obs})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	want := []string{
		"start:bfs", "end:bfs",
		"start:levels", "end:levels",
		"start:place", "end:place",
	}
	if !slices.Equal(obs.events, want) {
		t.Errorf("events = %v, want %v", obs.events, want)
	}
	if res.Timings.Total() < res.Timings.Place {
		t.Errorf("Total() = %v smaller than Place = %v", res.Timings.Total(), res.Timings.Place)
	}
}

func TestReverseAndComplete(t *testing.T) {
	perm := []graph.NodeID{2, 0, 4}

	if got, want := Reverse(perm), []graph.NodeID{4, 0, 2}; !slices.Equal(got, want) {
		t.Errorf("Reverse() = %v, want %v", got, want)
	}
	if perm[0] != 2 {
		t.Error("Reverse() modified its input")
	}

	if got, want := Complete(perm, 6), []graph.NodeID{2, 0, 4, 1, 3, 5}; !slices.Equal(got, want) {
		t.Errorf("Complete() = %v, want %v", got, want)
	}
	if got := Complete(nil, 0); len(got) != 0 {
		t.Errorf("Complete(nil, 0) = %v, want empty", got)
	}
}
