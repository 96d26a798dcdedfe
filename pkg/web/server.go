package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/cdaps/hidef/pkg/cluster"
	"github.com/cdaps/hidef/pkg/graph"
	"github.com/cdaps/hidef/pkg/hierarchy"
	"github.com/cdaps/hidef/pkg/logging"
	"github.com/cdaps/hidef/pkg/pipeline"
)

// Server exposes the detection pipeline over HTTP. POST /v1/detect takes an
// edge list body plus optional query parameter overrides and responds with
// the CDAPS COMMUNITYDETECTRESULT stream in a JSON envelope.
type Server struct {
	router *mux.Router
	base   pipeline.Config
}

// DetectResponse is the envelope for a successful detection run.
type DetectResponse struct {
	ID                       string `json:"id"`
	CommunityDetectionResult string `json:"communityDetectionResult"`
	Communities              int    `json:"communities"`
	Edges                    int    `json:"edges"`
	Roots                    int    `json:"roots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a server whose runs start from the given base config.
// Output sinks in the base config are ignored; results go to the response.
func NewServer(base pipeline.Config) *Server {
	base.OutPrefix = ""
	base.CDAPS = nil
	s := &Server{
		router: mux.NewRouter(),
		base:   base,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/v1/detect", s.handleDetect).Methods("POST")
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("detection service listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	cfg, err := s.configFor(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var cdaps strings.Builder
	cfg.CDAPS = &cdaps
	result, err := pipeline.Run(r.Context(), r.Body, cfg)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	logging.Info("detection request served",
		"runID", result.RunID,
		"communities", len(result.Hierarchy.Communities),
		"durationMs", time.Since(start).Milliseconds())
	writeJSON(w, http.StatusOK, DetectResponse{
		ID:                       result.RunID,
		CommunityDetectionResult: cdaps.String(),
		Communities:              len(result.Hierarchy.Communities),
		Edges:                    len(result.Hierarchy.Edges),
		Roots:                    len(result.Hierarchy.Roots),
	})
}

// configFor applies query parameter overrides to the base config.
func (s *Server) configFor(r *http.Request) (pipeline.Config, error) {
	cfg := s.base
	q := r.URL.Query()

	var err error
	if v := q.Get("algorithm"); v != "" {
		cfg.Sweep.Algorithm = v
	}
	if v := q.Get("minres"); v != "" {
		if cfg.Sweep.MinRes, err = strconv.ParseFloat(v, 64); err != nil {
			return cfg, fmt.Errorf("bad minres %q", v)
		}
	}
	if v := q.Get("maxres"); v != "" {
		if cfg.Sweep.MaxRes, err = strconv.ParseFloat(v, 64); err != nil {
			return cfg, fmt.Errorf("bad maxres %q", v)
		}
	}
	if v := q.Get("steps"); v != "" {
		if cfg.Sweep.Steps, err = strconv.Atoi(v); err != nil {
			return cfg, fmt.Errorf("bad steps %q", v)
		}
	}
	if v := q.Get("seed"); v != "" {
		if cfg.Sweep.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return cfg, fmt.Errorf("bad seed %q", v)
		}
	}
	if v := q.Get("jaccard"); v != "" {
		if cfg.Jaccard, err = strconv.ParseFloat(v, 64); err != nil {
			return cfg, fmt.Errorf("bad jaccard %q", v)
		}
	}
	if v := q.Get("minsize"); v != "" {
		if cfg.MinSize, err = strconv.Atoi(v); err != nil {
			return cfg, fmt.Errorf("bad minsize %q", v)
		}
	}
	return cfg, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrMalformedInput),
		errors.Is(err, cluster.ErrInvalidRange),
		errors.Is(err, cluster.ErrClusteringFailed):
		return http.StatusBadRequest
	case errors.Is(err, cluster.ErrSweepTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, hierarchy.ErrInconsistentHierarchy):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to write response", "error", err.Error())
	}
}
