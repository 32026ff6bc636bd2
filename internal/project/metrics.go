package project

import "slices"

// ResourceStats summarizes one resource under the current assignment.
type ResourceStats struct {
	Resource   string  `json:"resource"`
	TaskCount  int     `json:"task_count"`
	TotalDays  float64 `json:"total_days"`
	CostPerDay float64 `json:"cost_per_day"`
	TotalCost  float64 `json:"total_cost"`
}

// Metrics are deterministic project statistics computed from the table alone.
type Metrics struct {
	TotalTasks          int             `json:"total_tasks"`
	TotalDuration       float64         `json:"total_duration"`
	TotalCost           float64         `json:"total_cost"`
	NumResources        int             `json:"num_resources"`
	NumDependent        int             `json:"num_dependencies"`
	NumIndependent      int             `json:"num_independent"`
	HighRiskCount       int             `json:"high_risk_count"`
	MedRiskCount        int             `json:"med_risk_count"`
	LowRiskCount        int             `json:"low_risk_count"`
	ComplexTaskCount    int             `json:"complex_task_count"`
	AvgTasksPerResource float64         `json:"avg_tasks_per_resource"`
	AvgDaysPerResource  float64         `json:"avg_days_per_resource"`
	Resources           []ResourceStats `json:"resource_stats"`
	Overloaded          []string        `json:"overloaded_resources"`
	Underutilized       []string        `json:"underutilized_resources"`
	HighRiskTasks       []int           `json:"high_risk_tasks"`
	ComplexTasks        []int           `json:"complex_tasks"`
	DanglingRefs        map[int][]int   `json:"dangling_predecessors,omitempty"`
}

// Overload and underuse thresholds, relative to the average task count.
const (
	overloadFactor  = 1.5
	underuseFactor  = 0.5
	complexPredsMin = 2
)

// ComputeMetrics derives project metrics. TotalCost uses each task's own
// rate; ResourceStats.TotalCost multiplies total days by the first rate seen
// for that resource, which is how the resource summary has always been shown.
func ComputeMetrics(t *Table) *Metrics {
	m := &Metrics{
		TotalTasks:    t.Len(),
		TotalDuration: t.SequentialBaseline(),
		TotalCost:     t.BaselineCost(),
		Overloaded:    []string{},
		Underutilized: []string{},
		HighRiskTasks: []int{},
		ComplexTasks:  []int{},
		DanglingRefs:  t.DanglingPredecessors(),
	}

	byResource := make(map[string]*ResourceStats)
	var order []string

	for _, task := range t.tasks {
		if len(task.Predecessors) > 0 {
			m.NumDependent++
		} else {
			m.NumIndependent++
		}
		if len(task.Predecessors) >= complexPredsMin {
			m.ComplexTaskCount++
			m.ComplexTasks = append(m.ComplexTasks, task.ID)
		}

		switch task.Risk {
		case RiskHigh:
			m.HighRiskCount++
			m.HighRiskTasks = append(m.HighRiskTasks, task.ID)
		case RiskMedium:
			m.MedRiskCount++
		case RiskLow:
			m.LowRiskCount++
		}

		rs, ok := byResource[task.Resource]
		if !ok {
			rs = &ResourceStats{Resource: task.Resource, CostPerDay: task.CostPerDay}
			byResource[task.Resource] = rs
			order = append(order, task.Resource)
		}
		rs.TaskCount++
		rs.TotalDays += task.Duration
	}

	slices.Sort(order)
	m.NumResources = len(order)
	m.Resources = make([]ResourceStats, 0, len(order))

	var taskSum, daySum float64
	for _, name := range order {
		rs := byResource[name]
		rs.TotalCost = rs.TotalDays * rs.CostPerDay
		m.Resources = append(m.Resources, *rs)
		taskSum += float64(rs.TaskCount)
		daySum += rs.TotalDays
	}

	if len(order) > 0 {
		m.AvgTasksPerResource = taskSum / float64(len(order))
		m.AvgDaysPerResource = daySum / float64(len(order))
	}

	for _, rs := range m.Resources {
		count := float64(rs.TaskCount)
		if count > m.AvgTasksPerResource*overloadFactor {
			m.Overloaded = append(m.Overloaded, rs.Resource)
		}
		if count < m.AvgTasksPerResource*underuseFactor {
			m.Underutilized = append(m.Underutilized, rs.Resource)
		}
	}

	return m
}
