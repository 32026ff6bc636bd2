package learning

import "time"

// Kind names an analysis whose runtime is learned.
type Kind string

const (
	KindOptimize Kind = "optimize"
	KindSimulate Kind = "simulate"
)

// Observation is one finished analysis run.
type Observation struct {
	Kind    Kind          `json:"kind"`
	Units   float64       `json:"units"`
	Elapsed time.Duration `json:"elapsed"`
}

// NsPerUnit returns the observed cost of one work unit.
func (o Observation) NsPerUnit() float64 {
	if o.Units <= 0 {
		return 0
	}
	return float64(o.Elapsed.Nanoseconds()) / o.Units
}

// KindStats holds aggregated runtime statistics for one analysis kind.
type KindStats struct {
	Kind          Kind    `json:"kind"`
	Count         int64   `json:"count"`
	AvgNsPerUnit  float64 `json:"avg_ns_per_unit"`
	LastElapsedMS float64 `json:"last_elapsed_ms"`
	// FixedMS is the per-run overhead, reported by models that fit one.
	FixedMS float64 `json:"fixed_ms,omitempty"`
}

// AllStats holds statistics for all kinds.
type AllStats struct {
	Kinds     map[Kind]*KindStats `json:"kinds"`
	TotalRuns int64               `json:"total_runs"`
}

// OptimizeUnits is the work size of an allocation run.
func OptimizeUnits(tasks, resources int) float64 {
	return float64(tasks) * float64(max(resources, 1))
}

// SimulateUnits is the work size of a simulation run.
func SimulateUnits(tasks, trials int) float64 {
	return float64(max(tasks, 1)) * float64(trials)
}
