// Package pkg provides the libraries behind bandorder, a parallel
// Cuthill–McKee reordering tool.
//
// # Overview
//
// Cuthill–McKee relabels the nodes of a sparse graph in breadth-first order
// from a source node, visiting the children of each node in ascending degree.
// Relabelling a matrix this way gathers its non-zeros near the diagonal.
//
//  1. [graph] - CSR graphs, builders, bandwidth and profile metrics
//  2. [sched] - worker fan-out and the ordered worklist
//  3. [reorder] - the parallel ordering engine
//  4. [io] - JSON, edge list and Matrix Market readers; permutation writers
//  5. [pipeline] - load → reorder → render with caching and tracing
//  6. [server] - HTTP API
//
// # Architecture
//
//	graph file (json | edgelist | mtx)
//	         ↓
//	    [io] package (parse into a CSR graph)
//	         ↓
//	    [reorder] package (distances → level histogram → placement)
//	         ↓
//	    [pipeline] package (cache, stats, optional [render])
//	         ↓
//	    permutation (json | text), SVG or DOT
//
// Supporting packages: [cache] (file and Redis result cache),
// [observability] (hooks and Prometheus metrics), [errors] (coded errors)
// and [buildinfo].
//
// # Quick Start
//
//	g, _ := io.Import("bcsstk01.mtx", io.ReadOptions{Format: io.FormatMatrixMarket})
//	res, err := reorder.Reorder(g, 0, reorder.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(graph.Bandwidth(g, nil), "->", graph.Bandwidth(g, res.Permutation))
package pkg
