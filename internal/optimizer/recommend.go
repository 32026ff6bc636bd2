package optimizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/haskel/planfox/internal/project"
)

const (
	improvementTarget   = 10.0
	maxListedTaskNames  = 5
	recommendationsRule = "═══════════════════════════════════════════════════════════════"
)

// ResourceSummary aggregates the optimized allocation for one resource.
type ResourceSummary struct {
	Resource  string
	Tasks     []Assignment
	TotalDays float64
	TotalCost float64
}

// Summaries groups the allocation by resource, sorted by resource name.
func (r *Result) Summaries() []ResourceSummary {
	byResource := make(map[string]*ResourceSummary)
	for _, a := range r.Allocation {
		s, ok := byResource[a.Resource]
		if !ok {
			s = &ResourceSummary{Resource: a.Resource}
			byResource[a.Resource] = s
		}
		s.Tasks = append(s.Tasks, a)
		s.TotalDays += a.Duration
		s.TotalCost += a.Duration * a.Cost
	}

	out := make([]ResourceSummary, 0, len(byResource))
	for _, s := range byResource {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out
}

// Recommendations renders the plain-text recommendation block for a result.
func Recommendations(r *Result) string {
	var b strings.Builder

	b.WriteString("\nOPTIMIZATION RECOMMENDATIONS\n")
	b.WriteString(recommendationsRule + "\n\n")

	fmt.Fprintf(&b, "PERFORMANCE IMPROVEMENT: %.1f%%\n", r.ImprovementPercentage)
	if r.ImprovementPercentage > 0 {
		b.WriteString("[OK] SUCCESSFUL OPTIMIZATION\n")
	} else {
		b.WriteString("[!] NO IMPROVEMENT - Original allocation is already optimal or better\n")
	}
	if r.ImprovementPercentage >= improvementTarget {
		b.WriteString("[OK] Meets 10% target\n")
	}

	b.WriteString("\nDURATION COMPARISON:\n")
	fmt.Fprintf(&b, "  Original Critical Path: %g days\n", r.BaselineDuration)
	fmt.Fprintf(&b, "  Optimized Critical Path: %g days (longest resource)\n", r.OptimizedDuration)

	b.WriteString("\nOPTIMIZED RESOURCE ALLOCATION:\n")
	for _, s := range r.Summaries() {
		names := make([]string, 0, maxListedTaskNames)
		for i, a := range s.Tasks {
			if i == maxListedTaskNames {
				break
			}
			names = append(names, a.TaskName)
		}
		more := ""
		if len(s.Tasks) > maxListedTaskNames {
			more = "..."
		}

		fmt.Fprintf(&b, "\n  %s:\n", s.Resource)
		fmt.Fprintf(&b, "    - Assigned Tasks: %d\n", len(s.Tasks))
		fmt.Fprintf(&b, "    - Total Duration: %g days\n", s.TotalDays)
		fmt.Fprintf(&b, "    - Total Cost: $%s\n", project.FormatMoney(s.TotalCost))
		fmt.Fprintf(&b, "    - Tasks: %s%s\n", strings.Join(names, ", "), more)
	}

	b.WriteString("\nKEY ACTIONS:\n")
	if r.ImprovementPercentage > 0 {
		b.WriteString("  1. Implement the optimized allocation to reduce project duration\n")
	} else {
		b.WriteString("  1. Keep current allocation - it is already optimal\n")
	}
	b.WriteString("  2. Monitor critical path (longest resource workload) during execution\n")
	b.WriteString("  3. Rebalance if new tasks are added or durations change\n")
	b.WriteString("  4. Consider hiring if all resources are at capacity\n")
	b.WriteString("  5. Implement parallel task execution where dependencies allow\n")

	b.WriteString("\nOPTIMIZATION DETAILS:\n")
	fmt.Fprintf(&b, "  - Algorithm: Makespan minimization (%s)\n", r.Solver)
	b.WriteString("  - Objective: Minimize project critical path (longest resource workload)\n")
	fmt.Fprintf(&b, "  - Constraints: Task-resource assignment, capacity limit of %d tasks per resource, makespan constraints\n", r.Capacity)
	switch r.Status {
	case StatusSuccess:
		b.WriteString("  - Status: Optimal solution found\n")
	default:
		fmt.Fprintf(&b, "  - Status: %s (search stopped after %d nodes before optimality was proven)\n", r.Status, r.Nodes)
	}

	b.WriteString("\nIMPORTANT NOTES:\n")
	b.WriteString("  - This optimization ignores task dependencies (assumes all can run in parallel)\n")
	b.WriteString("  - Actual project duration may be longer due to dependency chains\n")
	b.WriteString("  - Consider critical path method (CPM) for dependency-aware scheduling\n")

	return b.String()
}

func infeasibleRecommendations(m *Model) string {
	return fmt.Sprintf("\nOPTIMIZATION RECOMMENDATIONS\n%s\n\n"+
		"[!] NO FEASIBLE ALLOCATION\n"+
		"  %d tasks cannot be placed on %d resources with at most %d tasks each.\n"+
		"  Keep the current allocation or add resources.\n",
		recommendationsRule, m.NumTasks(), m.Resources, m.Capacity)
}
