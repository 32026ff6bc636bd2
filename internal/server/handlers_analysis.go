package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/haskel/planfox/internal/analysis"
	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/optimizer"
	"github.com/haskel/planfox/internal/project"
	"github.com/haskel/planfox/internal/simulator"
)

type OptimizeResponse struct {
	RunID string `json:"run_id"`
	*optimizer.Result
}

type SimulateResponse struct {
	RunID string `json:"run_id"`
	*simulator.Report
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	table, err := s.readTable(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, runID, err := s.deps.Service.Optimize(r.Context(), table)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, OptimizeResponse{RunID: runID, Result: res})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	trials, err := s.trialsParam(q.Get("num_simulations"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	seed, err := seedParam(q.Get("seed"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	table, err := s.readTable(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rep, runID, err := s.deps.Service.Simulate(r.Context(), table, trials, seed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SimulateResponse{RunID: runID, Report: rep})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := analysis.Request{}
	var err error
	if req.Optimize, err = boolParam(q.Get("enable_optimization"), true); err != nil {
		s.writeError(w, apperr.Input("analyze", "enable_optimization", "%v", err))
		return
	}
	if req.Simulate, err = boolParam(q.Get("enable_simulation"), true); err != nil {
		s.writeError(w, apperr.Input("analyze", "enable_simulation", "%v", err))
		return
	}
	if req.Trials, err = s.trialsParam(q.Get("num_simulations")); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Seed, err = seedParam(q.Get("seed")); err != nil {
		s.writeError(w, err)
		return
	}

	table, err := s.readTable(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.deps.Service.Analyze(r.Context(), table, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// readTable reads the CSV table from a raw body or from the "file" field of
// a multipart form.
func (s *Server) readTable(r *http.Request) (*project.Table, error) {
	var body io.Reader = r.Body

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, apperr.Input("read upload", "file", "multipart field is missing: %v", err)
		}
		defer file.Close()
		body = file
	}

	if body == nil || body == http.NoBody {
		return nil, apperr.Input("read upload", "body", "CSV body is empty")
	}

	return s.deps.Service.Load(body)
}

// trialsParam parses num_simulations. Zero means the configured default.
func (s *Server) trialsParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Input("simulate", "num_simulations", "must be an integer, got %q", raw)
	}
	if err := s.currentConfig().Simulator.TrialsInRange(n); err != nil {
		return 0, apperr.Input("simulate", "num_simulations", "%v", err)
	}
	return n, nil
}

func seedParam(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	seed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.Input("simulate", "seed", "must be a non-negative integer, got %q", raw)
	}
	return seed, nil
}

func boolParam(raw string, fallback bool) (bool, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, errors.New("must be true or false")
	}
	return v, nil
}
