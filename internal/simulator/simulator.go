// Package simulator forecasts total project duration and cost by Monte Carlo
// sampling of per-task duration multipliers.
//
// Every trial draws one multiplier per task from the uniform range of the
// task's risk level and sums the scaled durations sequentially. Tasks are
// sampled independently of each other.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/sourcegraph/conc/pool"

	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/project"
)

// ctxCheckInterval is how many trials a worker runs between context checks.
const ctxCheckInterval = 256

// SourceFunc returns the random source used by one trial.
type SourceFunc func(trial int) rand.Source

// SeededSource derives an independent PCG stream per trial from seed, so a
// run is reproducible regardless of how trials are spread over workers.
func SeededSource(seed uint64) SourceFunc {
	return func(trial int) rand.Source {
		return rand.NewPCG(seed, uint64(trial))
	}
}

// Options configures a Simulator.
type Options struct {
	// Workers bounds concurrent trial batches. Zero uses the logical CPU count.
	Workers int
	// Seed feeds SeededSource when Source is nil. Zero derives one from the clock.
	Seed uint64
	// Source overrides the per-trial random source.
	Source SourceFunc
}

// Report is the outcome of one simulation.
type Report struct {
	Status           string   `json:"status"`
	Result           Result   `json:"simulation_result"`
	BaselineDuration float64  `json:"baseline_duration"`
	BaselineCost     float64  `json:"baseline_cost"`
	RiskAssessment   string   `json:"risk_assessment"`
	ConfidenceLevel  float64  `json:"confidence_level"`
	RiskLevel        Category `json:"risk_level"`
	Trials           int      `json:"trials"`
	Seed             uint64   `json:"seed,omitempty"`
	MinDuration      float64  `json:"min_duration"`
	MaxDuration      float64  `json:"max_duration"`
}

// Simulator runs Monte Carlo trials over a task table.
type Simulator struct {
	workers int
	seed    uint64
	source  SourceFunc
	logger  *slog.Logger
}

// New creates a Simulator.
func New(opts Options, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	s := &Simulator{
		workers: workers,
		source:  opts.Source,
		logger:  logger,
	}
	if s.source == nil {
		s.seed = opts.Seed
		if s.seed == 0 {
			s.seed = uint64(time.Now().UnixNano())
		}
		s.source = SeededSource(s.seed)
	}
	return s
}

// DefaultWorkers returns the logical CPU count reported by the host.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Workers returns the configured worker bound.
func (s *Simulator) Workers() int {
	return s.workers
}

// Simulate runs trials scenarios over table and aggregates them.
func (s *Simulator) Simulate(ctx context.Context, table *project.Table, trials int) (*Report, error) {
	if trials <= 0 {
		return nil, apperr.Input("simulate", "trials", "must be positive, got %d", trials)
	}

	var tasks []project.Task
	var baseline, baselineCost float64
	if table != nil {
		tasks = table.Tasks()
		baseline = table.SequentialBaseline()
		baselineCost = table.BaselineCost()
	}

	durations := make([]float64, trials)
	costs := make([]float64, trials)

	start := time.Now()
	if err := s.run(ctx, tasks, durations, costs); err != nil {
		return nil, apperr.Computation("simulate", fmt.Errorf("trials interrupted: %w", err))
	}

	res := summarize(durations, costs, baseline)
	lo, hi := observedRange(durations)

	report := &Report{
		Status:           "success",
		Result:           res,
		BaselineDuration: baseline,
		BaselineCost:     baselineCost,
		ConfidenceLevel:  Confidence(trials, res.MeanDuration, res.StdDuration),
		RiskLevel:        Categorize(res.RiskProbability),
		Trials:           trials,
		Seed:             s.seed,
		MinDuration:      lo,
		MaxDuration:      hi,
	}
	report.RiskAssessment = Assessment(report)

	s.logger.Debug("simulation finished",
		"trials", trials,
		"tasks", len(tasks),
		"workers", s.workers,
		"mean_duration", res.MeanDuration,
		"risk_probability", res.RiskProbability,
		"elapsed", time.Since(start),
	)

	return report, nil
}

// run fills durations and costs, one slot per trial. Trials are split into
// contiguous batches, one batch per worker.
func (s *Simulator) run(ctx context.Context, tasks []project.Task, durations, costs []float64) error {
	trials := len(durations)
	workers := min(s.workers, trials)
	batch := (trials + workers - 1) / workers

	p := pool.New().
		WithMaxGoroutines(workers).
		WithContext(ctx).
		WithCancelOnError()

	for lo := 0; lo < trials; lo += batch {
		hi := min(lo+batch, trials)
		p.Go(func(ctx context.Context) error {
			for i := lo; i < hi; i++ {
				if (i-lo)%ctxCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				durations[i], costs[i] = trial(tasks, rand.New(s.source(i)))
			}
			return nil
		})
	}

	return p.Wait()
}

// trial simulates one scenario.
func trial(tasks []project.Task, rng *rand.Rand) (duration, cost float64) {
	for _, t := range tasks {
		r := MultiplierRange(t.Risk)
		m := r.Min + rng.Float64()*(r.Max-r.Min)
		d := t.Duration * m
		duration += d
		cost += d * t.CostPerDay
	}
	return duration, cost
}
