// Package report renders analysis results as text.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/haskel/planfox/internal/optimizer"
	"github.com/haskel/planfox/internal/project"
	"github.com/haskel/planfox/internal/simulator"
)

// Renderer turns analysis results into human-readable text.
type Renderer interface {
	Metrics(m *project.Metrics) string
	Optimization(r *optimizer.Result) string
	Simulation(r *simulator.Report) string
}

// New returns the styled terminal renderer when styled is set and the plain
// one otherwise.
func New(styled bool) Renderer {
	if styled {
		return NewStyled(0)
	}
	return Plain{}
}

// Plain renders unstyled text suitable for logs and API clients.
type Plain struct{}

// Metrics renders project statistics.
func (Plain) Metrics(m *project.Metrics) string {
	var b strings.Builder

	b.WriteString("PROJECT METRICS\n")
	fmt.Fprintf(&b, "  Tasks:           %d (%d dependent, %d independent)\n", m.TotalTasks, m.NumDependent, m.NumIndependent)
	fmt.Fprintf(&b, "  Total Duration:  %g days\n", m.TotalDuration)
	fmt.Fprintf(&b, "  Total Cost:      $%s\n", project.FormatMoney(m.TotalCost))
	fmt.Fprintf(&b, "  Resources:       %d\n", m.NumResources)
	fmt.Fprintf(&b, "  Risk:            High %d, Med %d, Low %d\n", m.HighRiskCount, m.MedRiskCount, m.LowRiskCount)
	fmt.Fprintf(&b, "  Complex Tasks:   %d\n", m.ComplexTaskCount)

	if len(m.Resources) > 0 {
		b.WriteString("\nRESOURCES\n")
		fmt.Fprintf(&b, "  %-20s %6s %10s %14s\n", "Resource", "Tasks", "Days", "Cost")
		for _, r := range m.Resources {
			fmt.Fprintf(&b, "  %-20s %6d %10g %14s\n", truncate(r.Resource, 20), r.TaskCount, r.TotalDays, project.FormatMoney(r.TotalCost))
		}
		fmt.Fprintf(&b, "  Average: %.1f tasks, %.1f days per resource\n", m.AvgTasksPerResource, m.AvgDaysPerResource)
	}

	if len(m.Overloaded) > 0 {
		fmt.Fprintf(&b, "  Overloaded: %s\n", strings.Join(m.Overloaded, ", "))
	}
	if len(m.Underutilized) > 0 {
		fmt.Fprintf(&b, "  Underutilized: %s\n", strings.Join(m.Underutilized, ", "))
	}
	for _, id := range sortedKeys(m.DanglingRefs) {
		fmt.Fprintf(&b, "  Warning: task %d references unknown predecessors %v\n", id, m.DanglingRefs[id])
	}

	return b.String()
}

// Optimization renders an allocation result.
func (Plain) Optimization(r *optimizer.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OPTIMIZATION: %s\n", OptimizationSummary(r))
	b.WriteString(r.Recommendations)
	return b.String()
}

// Simulation renders a risk simulation report.
func (Plain) Simulation(r *simulator.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SIMULATION: %s\n", SimulationSummary(r))
	b.WriteString(r.RiskAssessment)
	return b.String()
}

// OptimizationSummary is a one-line description of r.
func OptimizationSummary(r *optimizer.Result) string {
	if r.Status == optimizer.StatusInfeasible {
		return fmt.Sprintf("%s, baseline %g days kept", r.Status, r.BaselineDuration)
	}
	return fmt.Sprintf("%s, %g -> %g days (%.1f%%)", r.Status, r.BaselineDuration, r.OptimizedDuration, r.ImprovementPercentage)
}

// SimulationSummary is a one-line description of r.
func SimulationSummary(r *simulator.Report) string {
	return fmt.Sprintf("%s risk, mean %.1f days, p90 %.1f days, delay probability %.1f%%, confidence %.1f%%",
		r.RiskLevel, r.Result.MeanDuration, r.Result.Percentile90, r.Result.RiskProbability*100, r.ConfidenceLevel)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func sortedKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
