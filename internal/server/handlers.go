package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/capacity"
	"github.com/haskel/planfox/internal/learning"
	"github.com/haskel/planfox/internal/storage"
)

type InfoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, InfoResponse{
		Name:    "planfox",
		Version: s.version,
		Endpoints: []string{
			"POST /optimize",
			"POST /simulate",
			"POST /analyze",
			"GET /runs",
			"GET /runs/{id}",
			"GET /capacity",
			"GET /status",
			"GET /stats",
			"GET /health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.State.GetState())
}

// handleCapacity answers whether an analysis of the described size may run
// now. All query parameters are optional.
func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := capacity.AskRequest{Kind: learning.Kind(q.Get("kind"))}
	switch req.Kind {
	case "", learning.KindOptimize, learning.KindSimulate:
	default:
		s.writeError(w, apperr.Input("capacity", "kind", "must be optimize or simulate, got %q", req.Kind))
		return
	}

	var err error
	if req.Tasks, err = intParam(q.Get("tasks"), 0); err != nil {
		s.writeError(w, apperr.Input("capacity", "tasks", "%v", err))
		return
	}
	if req.Resources, err = intParam(q.Get("resources"), 0); err != nil {
		s.writeError(w, apperr.Input("capacity", "resources", "%v", err))
		return
	}
	if req.Trials, err = intParam(q.Get("trials"), 0); err != nil {
		s.writeError(w, apperr.Input("capacity", "trials", "%v", err))
		return
	}

	resp := s.deps.Capacity.Ask(req, q.Get("reason") != "false")
	if resp.Allowed {
		s.writeJSON(w, http.StatusOK, resp)
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Engine == nil {
		s.writeJSON(w, http.StatusOK, &learning.AllStats{Kinds: map[learning.Kind]*learning.KindStats{}})
		return
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		stats := s.deps.Engine.Model().GetKindStats(learning.Kind(kind))
		if stats == nil {
			s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no runs of kind " + kind})
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
		return
	}

	s.writeJSON(w, http.StatusOK, s.deps.Engine.GetStats())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "run history is disabled"})
		return
	}

	limit, err := intParam(r.URL.Query().Get("limit"), 20)
	if err != nil || limit < 1 {
		s.writeError(w, apperr.Input("list runs", "limit", "must be a positive integer"))
		return
	}

	runs, err := s.deps.History.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "run history is disabled"})
		return
	}

	run, err := s.deps.History.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("failed to load run", "id", r.PathValue("id"), "error", err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if v < 0 {
		return 0, errors.New("must not be negative")
	}
	return v, nil
}

// writeJSON encodes before writing the header so an unencodable value turns
// into a 500 instead of a success status with a truncated body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status,
		)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "failed to encode response", Kind: apperr.KindComputation.String()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// writeError maps an error to its HTTP status: input 400, solver 422,
// capacity 503, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var rejected *capacity.RejectedError
	if errors.As(err, &rejected) {
		s.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   err.Error(),
			Kind:    "capacity",
			Reasons: rejected.Reasons,
		})
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Kind: apperr.KindInput.String()})
		return
	}

	kind := apperr.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindInput:
		status = http.StatusBadRequest
	case apperr.KindSolver:
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "kind", kind)
	}

	resp := ErrorResponse{Error: err.Error()}
	if kind != apperr.KindUnknown {
		resp.Kind = kind.String()
	}
	s.writeJSON(w, status, resp)
}
