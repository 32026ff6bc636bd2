package project

import (
	"fmt"
	"math"
	"slices"

	"github.com/haskel/planfox/internal/apperr"
)

// Table is a validated, ordered task list. Construct it with NewTable or the
// CSV loaders; it is not modified afterwards.
type Table struct {
	tasks []Task
	index map[int]int
}

// NewTable validates tasks and returns a table holding a copy of them.
func NewTable(tasks []Task) (*Table, error) {
	t := &Table{
		tasks: make([]Task, 0, len(tasks)),
		index: make(map[int]int, len(tasks)),
	}

	for i, task := range tasks {
		if err := validateTask(task); err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		if _, dup := t.index[task.ID]; dup {
			return nil, apperr.Input("build table", "Task_ID", "duplicate task id %d", task.ID)
		}
		task.Predecessors = slices.Clone(task.Predecessors)
		t.index[task.ID] = len(t.tasks)
		t.tasks = append(t.tasks, task)
	}

	return t, nil
}

func validateTask(task Task) error {
	if !isFinite(task.Duration) {
		return apperr.Input("validate task", "Duration_Days", "must be a finite number, got %v", task.Duration)
	}
	if !isFinite(task.CostPerDay) {
		return apperr.Input("validate task", "Cost_Per_Day", "must be a finite number, got %v", task.CostPerDay)
	}
	if !(task.Duration > 0) {
		return apperr.Input("validate task", "Duration_Days", "must be positive, got %v", task.Duration)
	}
	if task.CostPerDay < 0 {
		return apperr.Input("validate task", "Cost_Per_Day", "must be non-negative, got %v", task.CostPerDay)
	}
	if !task.Risk.IsValid() {
		return apperr.Input("validate task", "Risk_Level", "unknown risk level %q", task.Risk)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Len returns the number of tasks.
func (t *Table) Len() int {
	return len(t.tasks)
}

// Tasks returns a copy of the tasks in table order.
func (t *Table) Tasks() []Task {
	out := make([]Task, len(t.tasks))
	for i, task := range t.tasks {
		task.Predecessors = slices.Clone(task.Predecessors)
		out[i] = task
	}
	return out
}

// Task returns the task with the given id.
func (t *Table) Task(id int) (Task, bool) {
	i, ok := t.index[id]
	if !ok {
		return Task{}, false
	}
	return t.tasks[i], true
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c, _ := NewTable(t.tasks)
	return c
}

// Resources returns distinct resource labels in first-appearance order.
func (t *Table) Resources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, task := range t.tasks {
		if !seen[task.Resource] {
			seen[task.Resource] = true
			out = append(out, task.Resource)
		}
	}
	return out
}

// Workloads returns the total duration per resource under the current assignment.
func (t *Table) Workloads() map[string]float64 {
	loads := make(map[string]float64)
	for _, task := range t.tasks {
		loads[task.Resource] += task.Duration
	}
	return loads
}

// ParallelBaseline is the workload of the busiest resource under the current
// assignment: resources work in parallel, so the busiest one bounds the project.
func (t *Table) ParallelBaseline() float64 {
	var busiest float64
	for _, load := range t.Workloads() {
		if load > busiest {
			busiest = load
		}
	}
	return busiest
}

// SequentialBaseline is the sum of all planned durations, as if every task
// ran one after another.
func (t *Table) SequentialBaseline() float64 {
	var sum float64
	for _, task := range t.tasks {
		sum += task.Duration
	}
	return sum
}

// BaselineCost is the planned cost of all tasks.
func (t *Table) BaselineCost() float64 {
	var sum float64
	for _, task := range t.tasks {
		sum += task.PlannedCost()
	}
	return sum
}

// DanglingPredecessors returns, per task id, predecessor ids that do not
// exist in the table. Nil when every reference resolves.
func (t *Table) DanglingPredecessors() map[int][]int {
	var out map[int][]int
	for _, task := range t.tasks {
		for _, p := range task.Predecessors {
			if _, ok := t.Task(p); ok {
				continue
			}
			if out == nil {
				out = make(map[int][]int)
			}
			out[task.ID] = append(out[task.ID], p)
		}
	}
	return out
}

// CheckPredecessors returns an input error when any predecessor id is unknown.
func (t *Table) CheckPredecessors() error {
	dangling := t.DanglingPredecessors()
	if len(dangling) == 0 {
		return nil
	}
	ids := make([]int, 0, len(dangling))
	for id := range dangling {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	first := ids[0]
	return apperr.Input("check predecessors", "Predecessors",
		"task %d references unknown task(s) %v (%d task(s) affected)", first, dangling[first], len(ids))
}
