package optimizer

import "context"

// Model is a binary assignment problem: x[t,r] = 1 when task t runs on
// resource r. The objective is the makespan, subject to
//
//	makespan >= sum_t x[t,r] * Weights[t]   for every r
//	sum_r x[t,r] = 1                        for every t
//	sum_t x[t,r] <= Capacity                for every r
type Model struct {
	Weights   []float64
	Resources int
	Capacity  int
}

// NumTasks returns the number of tasks in the model.
func (m *Model) NumTasks() int {
	return len(m.Weights)
}

// SolveStatus is the backend's verdict on a model.
type SolveStatus string

const (
	// SolveOptimal means the makespan is proven minimal.
	SolveOptimal SolveStatus = "optimal"
	// SolveFeasible means a valid assignment was found but a limit stopped the
	// search before optimality was proven.
	SolveFeasible SolveStatus = "feasible"
	// SolveInfeasible means no assignment satisfies the constraints.
	SolveInfeasible SolveStatus = "infeasible"
)

// Solution is a backend result. Assignment maps task index to resource index
// and is nil when Status is SolveInfeasible.
type Solution struct {
	Status     SolveStatus
	Assignment []int
	Makespan   float64
	Nodes      int64
}

// Solver solves binary assignment models. Implementations must return the
// same Solution for the same Model.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// Capacity is the per-resource task limit: floor(tasks/resources) + 2.
func Capacity(numTasks, numResources int) int {
	if numResources <= 0 {
		return 0
	}
	return numTasks/numResources + 2
}
