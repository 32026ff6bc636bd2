// Package optimizer reassigns tasks to resources so that the busiest
// resource finishes as early as possible.
//
// The problem is stated as a binary assignment model (see Model) and handed
// to a Solver. Task dependencies are not modeled: every task is assumed to be
// able to run in parallel with every other task given a free resource.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/project"
)

// Status is the outcome reported to callers.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusSuboptimal Status = "suboptimal"
	StatusInfeasible Status = "infeasible"
)

// Assignment places one task on one resource.
type Assignment struct {
	TaskID   int     `json:"task_id"`
	TaskName string  `json:"task_name"`
	Resource string  `json:"resource"`
	Duration float64 `json:"duration"`
	Cost     float64 `json:"cost"`
}

// Result is the outcome of one optimization. It is not modified after
// Optimize returns.
type Result struct {
	Status                Status       `json:"status"`
	BaselineDuration      float64      `json:"baseline_duration"`
	OptimizedDuration     float64      `json:"optimized_duration"`
	ImprovementPercentage float64      `json:"improvement_percentage"`
	Allocation            []Assignment `json:"optimized_allocation"`
	Recommendations       string       `json:"recommendations"`
	Capacity              int          `json:"capacity"`
	Solver                string       `json:"solver"`
	Nodes                 int64        `json:"nodes"`
}

// Workloads returns the total assigned duration per resource.
func (r *Result) Workloads() map[string]float64 {
	loads := make(map[string]float64)
	for _, a := range r.Allocation {
		loads[a.Resource] += a.Duration
	}
	return loads
}

// Options configures an Optimizer.
type Options struct {
	// TimeLimit is an external deadline on the solve step. Zero means none.
	TimeLimit time.Duration
}

// Optimizer runs the allocation model against a Solver.
type Optimizer struct {
	solver  Solver
	options Options
	logger  *slog.Logger
}

// New creates an Optimizer. A nil solver selects BranchAndBound with the
// default node limit.
func New(solver Solver, opts Options, logger *slog.Logger) *Optimizer {
	if solver == nil {
		solver = NewBranchAndBound(DefaultNodeLimit)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Optimizer{
		solver:  solver,
		options: opts,
		logger:  logger,
	}
}

// Optimize computes a minimum-makespan allocation for table.
func (o *Optimizer) Optimize(ctx context.Context, table *project.Table) (*Result, error) {
	if table == nil || table.Len() == 0 {
		return nil, apperr.Input("optimize", "tasks", "at least one task is required")
	}
	table = table.Clone()

	tasks := table.Tasks()
	resources := table.Resources()
	baseline := table.ParallelBaseline()

	// Task-id order makes ties between equal weights resolve by id.
	byID := make([]project.Task, len(tasks))
	copy(byID, tasks)
	sort.SliceStable(byID, func(i, j int) bool { return byID[i].ID < byID[j].ID })

	model := &Model{
		Weights:   make([]float64, len(byID)),
		Resources: len(resources),
		Capacity:  Capacity(len(byID), len(resources)),
	}
	for i, t := range byID {
		model.Weights[i] = t.Duration
	}

	solveCtx := ctx
	if o.options.TimeLimit > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, o.options.TimeLimit)
		defer cancel()
	}

	start := time.Now()
	sol, err := o.solver.Solve(solveCtx, model)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, apperr.Solver("optimize", fmt.Errorf("no usable solution before deadline: %w", err))
		}
		return nil, apperr.Solver("optimize", err)
	}

	o.logger.Debug("solver finished",
		"solver", o.solver.Name(),
		"status", sol.Status,
		"nodes", sol.Nodes,
		"tasks", model.NumTasks(),
		"resources", model.Resources,
		"capacity", model.Capacity,
		"elapsed", time.Since(start),
	)

	if sol.Status == SolveFeasible && solveCtx.Err() != nil {
		o.logger.Warn("deadline stopped the search before the node limit; makespan may vary between runs",
			"time_limit", o.options.TimeLimit,
			"nodes", sol.Nodes,
			"makespan", sol.Makespan,
		)
	}

	result := &Result{
		BaselineDuration: baseline,
		Capacity:         model.Capacity,
		Solver:           o.solver.Name(),
		Nodes:            sol.Nodes,
	}

	if sol.Status == SolveInfeasible {
		result.Status = StatusInfeasible
		result.OptimizedDuration = baseline
		result.Allocation = []Assignment{}
		result.Recommendations = infeasibleRecommendations(model)
		return result, nil
	}

	if len(sol.Assignment) != len(byID) {
		return nil, apperr.Solver("optimize", fmt.Errorf("solver returned %d assignments for %d tasks", len(sol.Assignment), len(byID)))
	}

	resourceOf := make(map[int]string, len(byID))
	for i, t := range byID {
		r := sol.Assignment[i]
		if r < 0 || r >= len(resources) {
			return nil, apperr.Solver("optimize", fmt.Errorf("solver assigned task %d to unknown resource %d", t.ID, r))
		}
		resourceOf[t.ID] = resources[r]
	}

	result.Allocation = make([]Assignment, 0, len(tasks))
	for _, t := range tasks {
		result.Allocation = append(result.Allocation, Assignment{
			TaskID:   t.ID,
			TaskName: t.Name,
			Resource: resourceOf[t.ID],
			Duration: t.Duration,
			Cost:     t.CostPerDay,
		})
	}

	for _, load := range result.Workloads() {
		result.OptimizedDuration = math.Max(result.OptimizedDuration, load)
	}
	result.ImprovementPercentage = (baseline - result.OptimizedDuration) / baseline * 100

	result.Status = StatusSuccess
	if sol.Status == SolveFeasible {
		result.Status = StatusSuboptimal
	}

	result.Recommendations = Recommendations(result)

	return result, nil
}
