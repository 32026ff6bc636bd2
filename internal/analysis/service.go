// Package analysis runs the full project analysis pipeline: parsing,
// predecessor checks, capacity admission, optimization, simulation, runtime
// learning and run history.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/capacity"
	"github.com/haskel/planfox/internal/config"
	"github.com/haskel/planfox/internal/learning"
	"github.com/haskel/planfox/internal/optimizer"
	"github.com/haskel/planfox/internal/project"
	"github.com/haskel/planfox/internal/report"
	"github.com/haskel/planfox/internal/simulator"
	"github.com/haskel/planfox/internal/storage"
)

// Run kinds stored in history.
const (
	KindOptimize = "optimize"
	KindSimulate = "simulate"
	KindAnalyze  = "analyze"
)

// Admitter decides whether a run may start.
type Admitter interface {
	Admit(req capacity.AskRequest) error
}

// Recorder persists finished runs.
type Recorder interface {
	Save(ctx context.Context, run *storage.Run, samples []learning.Observation) error
	// Prune deletes all but the newest keep runs.
	Prune(ctx context.Context, keep int) (int64, error)
}

// Request selects what an analysis computes.
type Request struct {
	Optimize bool
	Simulate bool
	// Trials overrides the configured default when positive.
	Trials int
	// Seed overrides the configured simulator seed when non-zero.
	Seed uint64
}

// Result is the combined outcome of one analysis.
type Result struct {
	Status       string            `json:"status"`
	RunID        string            `json:"run_id"`
	Timestamp    time.Time         `json:"timestamp"`
	ElapsedMS    float64           `json:"elapsed_ms"`
	Metrics      *project.Metrics  `json:"metrics"`
	Optimization *optimizer.Result `json:"optimization,omitempty"`
	Simulation   *simulator.Report `json:"simulation,omitempty"`
}

// Summary is a one-line description of the result.
func (r *Result) Summary() string {
	var parts []string
	if r.Optimization != nil {
		parts = append(parts, "optimization: "+report.OptimizationSummary(r.Optimization))
	}
	if r.Simulation != nil {
		parts = append(parts, "simulation: "+report.SimulationSummary(r.Simulation))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("metrics: %d tasks", r.Metrics.TotalTasks)
	}
	return strings.Join(parts, "; ")
}

// Service runs analyses. It is safe for concurrent use.
type Service struct {
	mu        sync.RWMutex
	cfg       *config.Config
	optimizer *optimizer.Optimizer

	admitter Admitter
	engine   *learning.Engine
	history  Recorder
	logger   *slog.Logger

	// source replaces the seeded trial source, for tests.
	source simulator.SourceFunc
}

// NewService creates a Service. admitter, engine and history may be nil.
func NewService(cfg *config.Config, admitter Admitter, engine *learning.Engine, history Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		admitter: admitter,
		engine:   engine,
		history:  history,
		logger:   logger,
	}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig applies a reloaded configuration to subsequent runs.
func (s *Service) UpdateConfig(cfg *config.Config) {
	opt := optimizer.New(
		optimizer.NewBranchAndBound(cfg.Optimizer.NodeLimit),
		optimizer.Options{TimeLimit: cfg.SolverTimeLimit()},
		s.logger.With("component", "optimizer"),
	)

	s.mu.Lock()
	s.cfg = cfg
	s.optimizer = opt
	s.mu.Unlock()
}

func (s *Service) snapshot() (*config.Config, *optimizer.Optimizer) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.optimizer
}

// Load parses a CSV project table and applies the predecessor policy.
func (s *Service) Load(r io.Reader) (*project.Table, error) {
	cfg, _ := s.snapshot()

	table, err := project.ParseCSV(r)
	if err != nil {
		return nil, err
	}

	if dangling := table.DanglingPredecessors(); len(dangling) > 0 {
		if cfg.Input.StrictPredecessors {
			return nil, table.CheckPredecessors()
		}
		s.logger.Warn("table references unknown predecessors",
			"tasks_affected", len(dangling),
		)
	}

	return table, nil
}

// Optimize runs the allocation optimizer alone and records the run.
func (s *Service) Optimize(ctx context.Context, table *project.Table) (*optimizer.Result, string, error) {
	res, err := s.Analyze(ctx, table, Request{Optimize: true})
	if err != nil {
		return nil, "", err
	}
	return res.Optimization, res.RunID, nil
}

// Simulate runs the risk simulator alone and records the run.
func (s *Service) Simulate(ctx context.Context, table *project.Table, trials int, seed uint64) (*simulator.Report, string, error) {
	res, err := s.Analyze(ctx, table, Request{Simulate: true, Trials: trials, Seed: seed})
	if err != nil {
		return nil, "", err
	}
	return res.Simulation, res.RunID, nil
}

// Analyze computes metrics and, as requested, an optimization and a
// simulation for table.
func (s *Service) Analyze(ctx context.Context, table *project.Table, req Request) (*Result, error) {
	cfg, opt := s.snapshot()

	trials := req.Trials
	if trials <= 0 {
		trials = cfg.Simulator.DefaultTrials
	}
	if req.Simulate {
		if err := cfg.Simulator.TrialsInRange(trials); err != nil {
			return nil, apperr.Input("simulate", "num_simulations", "%v", err)
		}
	}

	if err := s.admit(table, req, trials); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{
		Status:    "success",
		RunID:     uuid.NewString(),
		Timestamp: start.UTC(),
		Metrics:   project.ComputeMetrics(table),
	}
	var samples []learning.Observation

	if req.Optimize {
		units := learning.OptimizeUnits(table.Len(), len(table.Resources()))
		began := time.Now()
		optimized, err := opt.Optimize(ctx, table)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s.observe(learning.KindOptimize, units, time.Since(began)))
		result.Optimization = optimized
	}

	if req.Simulate {
		sim := simulator.New(simulator.Options{
			Workers: cfg.Simulator.Workers,
			Seed:    s.seed(cfg, req),
			Source:  s.source,
		}, s.logger.With("component", "simulator"))

		units := learning.SimulateUnits(table.Len(), trials)
		began := time.Now()
		rep, err := sim.Simulate(ctx, table, trials)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s.observe(learning.KindSimulate, units, time.Since(began)))
		result.Simulation = rep
	}

	result.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000

	s.record(ctx, result, kindOf(req), table.Len(), samples)

	s.logger.Info("analysis finished",
		"run_id", result.RunID,
		"kind", kindOf(req),
		"tasks", table.Len(),
		"elapsed_ms", result.ElapsedMS,
	)

	return result, nil
}

func (s *Service) admit(table *project.Table, req Request, trials int) error {
	if s.admitter == nil {
		return nil
	}
	if req.Optimize {
		ask := capacity.AskRequest{
			Kind:      learning.KindOptimize,
			Tasks:     table.Len(),
			Resources: len(table.Resources()),
		}
		if err := s.admitter.Admit(ask); err != nil {
			return err
		}
	}
	if req.Simulate {
		ask := capacity.AskRequest{
			Kind:   learning.KindSimulate,
			Tasks:  table.Len(),
			Trials: trials,
		}
		if err := s.admitter.Admit(ask); err != nil {
			return err
		}
	}
	if !req.Optimize && !req.Simulate {
		return s.admitter.Admit(capacity.AskRequest{Tasks: table.Len()})
	}
	return nil
}

func (s *Service) seed(cfg *config.Config, req Request) uint64 {
	if req.Seed != 0 {
		return req.Seed
	}
	return cfg.Simulator.Seed
}

func (s *Service) observe(kind learning.Kind, units float64, elapsed time.Duration) learning.Observation {
	obs := learning.Observation{Kind: kind, Units: units, Elapsed: elapsed}
	if s.engine != nil {
		s.engine.Record(obs)
	}
	return obs
}

// record stores the run. History failures are logged, not returned: the
// analysis itself succeeded.
func (s *Service) record(ctx context.Context, result *Result, kind string, tasks int, samples []learning.Observation) {
	if s.history == nil {
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("failed to encode run", "run_id", result.RunID, "error", err)
		return
	}

	run := &storage.Run{
		ID:        result.RunID,
		Kind:      kind,
		CreatedAt: result.Timestamp,
		Tasks:     tasks,
		ElapsedMS: result.ElapsedMS,
		Status:    runStatus(result),
		Summary:   result.Summary(),
		Result:    body,
	}

	ctx = context.WithoutCancel(ctx)
	if err := s.history.Save(ctx, run, samples); err != nil {
		s.logger.Error("failed to record run", "run_id", result.RunID, "error", err)
		return
	}

	cfg, _ := s.snapshot()
	if keep := cfg.History.MaxRuns; keep > 0 {
		removed, err := s.history.Prune(ctx, keep)
		if err != nil {
			s.logger.Warn("failed to prune run history", "keep", keep, "error", err)
		} else if removed > 0 {
			s.logger.Debug("pruned run history", "removed", removed, "keep", keep)
		}
	}
}

func kindOf(req Request) string {
	switch {
	case req.Optimize && !req.Simulate:
		return KindOptimize
	case req.Simulate && !req.Optimize:
		return KindSimulate
	default:
		return KindAnalyze
	}
}

func runStatus(r *Result) string {
	if r.Optimization != nil && r.Optimization.Status != optimizer.StatusSuccess {
		return string(r.Optimization.Status)
	}
	return r.Status
}
