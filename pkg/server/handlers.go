package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/bandorder/pkg/errors"
	"github.com/matzehuels/bandorder/pkg/graph"
	gio "github.com/matzehuels/bandorder/pkg/io"
	"github.com/matzehuels/bandorder/pkg/pipeline"
)

// ReorderRequest is the body of POST /v1/reorder.
type ReorderRequest struct {
	gio.Document

	Source     int  `json:"source"`
	AutoSource bool `json:"auto_source,omitempty"`
	Reverse    bool `json:"reverse,omitempty"`
	Complete   bool `json:"complete,omitempty"`
	Workers    int  `json:"workers,omitempty"`
	Refresh    bool `json:"refresh,omitempty"`
}

// ReorderResponse is the body of a successful reorder.
type ReorderResponse struct {
	RunID       string         `json:"run_id"`
	Fingerprint string         `json:"fingerprint"`
	Source      graph.NodeID   `json:"source"`
	Reverse     bool           `json:"reverse,omitempty"`
	Permutation []graph.NodeID `json:"permutation"`
	LevelCounts []uint32       `json:"level_counts"`
	Cached      bool           `json:"cached"`
	Stats       StatsResponse  `json:"stats"`
}

// StatsResponse summarizes the ordering.
type StatsResponse struct {
	Nodes           int   `json:"nodes"`
	Edges           int   `json:"edges"`
	Reachable       int   `json:"reachable"`
	Levels          int   `json:"levels"`
	BandwidthBefore int   `json:"bandwidth_before"`
	BandwidthAfter  int   `json:"bandwidth_after"`
	ProfileBefore   int64 `json:"profile_before"`
	ProfileAfter    int64 `json:"profile_after"`
	ReorderMicros   int64 `json:"reorder_us"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req ReorderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "decode request: %v", err))
		return
	}

	g, err := req.BuildWith(gio.ReadOptions{MaxNodes: s.cfg.MaxNodes})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{
		Directed:   req.Directed,
		Source:     req.Source,
		AutoSource: req.AutoSource,
		Reverse:    req.Reverse,
		Complete:   req.Complete,
		Workers:    req.Workers,
		SpinLimit:  s.cfg.SpinLimit,
		Refresh:    req.Refresh,
	}
	if opts.Workers == 0 {
		opts.Workers = s.cfg.Workers
	}

	res, err := s.runner.Reorder(r.Context(), g, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReorderResponse(res))
}

func newReorderResponse(res *pipeline.Result) ReorderResponse {
	perm := res.Permutation
	if perm == nil {
		perm = []graph.NodeID{}
	}
	levels := res.LevelCounts
	if levels == nil {
		levels = []uint32{}
	}
	st := res.Stats
	return ReorderResponse{
		RunID:       res.RunID,
		Fingerprint: res.Fingerprint,
		Source:      res.Source,
		Reverse:     res.Reverse,
		Permutation: perm,
		LevelCounts: levels,
		Cached:      res.CacheHit,
		Stats: StatsResponse{
			Nodes:           st.Nodes,
			Edges:           st.Edges,
			Reachable:       st.Reachable,
			Levels:          st.Levels,
			BandwidthBefore: st.BandwidthBefore,
			BandwidthAfter:  st.BandwidthAfter,
			ProfileBefore:   st.ProfileBefore,
			ProfileAfter:    st.ProfileAfter,
			ReorderMicros:   st.ReorderTime.Microseconds(),
		},
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
