// Package server exposes the reorder pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/reorder   reorder a JSON graph document
//	GET  /healthz      liveness probe
//	GET  /metrics      Prometheus metrics (when a gatherer is configured)
//
// A reorder request is a graph document (see [io.Document]) plus ordering
// options:
//
//	{"nodes": 4, "edges": [[0,3],[3,1],[1,2]], "source": 0, "reverse": true}
//
// The response carries the permutation, the level histogram and bandwidth
// statistics. Errors are JSON objects {"error": ..., "code": ...} whose HTTP
// status follows the error code.
//
// [io.Document]: github.com/matzehuels/bandorder/pkg/io.Document
package server
