package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haskel/planfox/internal/optimizer"
	"github.com/haskel/planfox/internal/project"
	"github.com/haskel/planfox/internal/simulator"
)

// Styled renders results for a terminal using lipgloss.
type Styled struct {
	// Width wraps boxed output. Zero leaves lines unwrapped.
	Width int
}

// NewStyled creates a Styled renderer.
func NewStyled(width int) *Styled {
	return &Styled{Width: width}
}

func (s *Styled) box(content string) string {
	style := boxStyle
	if s.Width > 4 {
		style = style.Width(s.Width - 2)
	}
	return style.Render(content)
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

// Metrics renders project statistics.
func (s *Styled) Metrics(m *project.Metrics) string {
	var sections []string

	sections = append(sections, titleStyle.Render("Project Metrics"))
	sections = append(sections, s.box(strings.Join([]string{
		field("Tasks", fmt.Sprintf("%d (%d dependent, %d independent)", m.TotalTasks, m.NumDependent, m.NumIndependent)),
		field("Total Duration", fmt.Sprintf("%g days", m.TotalDuration)),
		field("Total Cost", "$"+project.FormatMoney(m.TotalCost)),
		field("Resources", fmt.Sprintf("%d", m.NumResources)),
		field("Risk", fmt.Sprintf("High %d  Med %d  Low %d", m.HighRiskCount, m.MedRiskCount, m.LowRiskCount)),
		field("Complex Tasks", fmt.Sprintf("%d", m.ComplexTaskCount)),
	}, "\n")))

	if len(m.Resources) > 0 {
		lines := []string{
			sectionHeaderStyle.Render("Resources"),
			tableHeaderStyle.Render(fmt.Sprintf("%-20s │ %6s │ %8s │ %14s", "Resource", "Tasks", "Days", "Cost")),
		}
		for _, r := range m.Resources {
			row := fmt.Sprintf("%-20s │ %6d │ %8g │ %14s", truncate(r.Resource, 20), r.TaskCount, r.TotalDays, project.FormatMoney(r.TotalCost))
			style := tableCellStyle
			switch {
			case slices.Contains(m.Overloaded, r.Resource):
				style = style.Foreground(colorWarning)
			case slices.Contains(m.Underutilized, r.Resource):
				style = style.Foreground(colorMuted)
			}
			lines = append(lines, style.Render(row))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(m.DanglingRefs) > 0 {
		var warn []string
		for _, id := range sortedKeys(m.DanglingRefs) {
			warn = append(warn, fmt.Sprintf("task %d -> %v", id, m.DanglingRefs[id]))
		}
		sections = append(sections, lipgloss.NewStyle().Foreground(colorWarning).
			Render("Unknown predecessors: "+strings.Join(warn, "; ")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Optimization renders an allocation result.
func (s *Styled) Optimization(r *optimizer.Result) string {
	var sections []string

	status := lipgloss.NewStyle().Bold(true).Foreground(statusColor(string(r.Status))).Render(strings.ToUpper(string(r.Status)))
	sections = append(sections, titleStyle.Render("Allocation Optimization")+"  "+status)

	improvement := fmt.Sprintf("%.1f%%", r.ImprovementPercentage)
	if r.ImprovementPercentage > 0 {
		improvement = lipgloss.NewStyle().Foreground(colorSuccess).Render(improvement)
	}
	sections = append(sections, s.box(strings.Join([]string{
		field("Baseline", fmt.Sprintf("%g days", r.BaselineDuration)),
		field("Optimized", fmt.Sprintf("%g days", r.OptimizedDuration)),
		field("Improvement", improvement),
		field("Capacity", fmt.Sprintf("%d tasks per resource", r.Capacity)),
		field("Solver", fmt.Sprintf("%s (%d nodes)", r.Solver, r.Nodes)),
	}, "\n")))

	if summaries := r.Summaries(); len(summaries) > 0 {
		lines := []string{
			sectionHeaderStyle.Render("Allocation"),
			tableHeaderStyle.Render(fmt.Sprintf("%-20s │ %6s │ %8s │ %14s", "Resource", "Tasks", "Days", "Cost")),
		}
		for _, rs := range summaries {
			row := fmt.Sprintf("%-20s │ %6d │ %8g │ %14s", truncate(rs.Resource, 20), len(rs.Tasks), rs.TotalDays, project.FormatMoney(rs.TotalCost))
			style := tableCellStyle
			if rs.TotalDays == r.OptimizedDuration {
				style = style.Bold(true)
			}
			lines = append(lines, style.Render(row))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	sections = append(sections, mutedStyle.Render("Task dependencies are not considered by this allocation."))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Simulation renders a risk simulation report.
func (s *Styled) Simulation(r *simulator.Report) string {
	res := r.Result
	var sections []string

	risk := lipgloss.NewStyle().Bold(true).Foreground(riskColor(string(r.RiskLevel))).Render(string(r.RiskLevel) + " RISK")
	sections = append(sections, titleStyle.Render("Risk Simulation")+"  "+risk)

	sections = append(sections, s.box(strings.Join([]string{
		field("Iterations", project.FormatCount(r.Trials)),
		field("Baseline", fmt.Sprintf("%.0f days, $%s", r.BaselineDuration, project.FormatMoney(r.BaselineCost))),
		field("Expected", fmt.Sprintf("%.1f ± %.1f days (%+.1f%%)", res.MeanDuration, res.StdDuration, simulator.Overrun(res.MeanDuration, r.BaselineDuration))),
		field("Expected Cost", fmt.Sprintf("$%s ± $%s", project.FormatMoney(res.MeanCost), project.FormatMoney(res.StdCost))),
		field("Delay Chance", fmt.Sprintf("%.1f%%", res.RiskProbability*100)),
		field("Confidence", fmt.Sprintf("%.1f%%", r.ConfidenceLevel)),
	}, "\n")))

	lines := []string{
		sectionHeaderStyle.Render("Percentiles"),
		tableHeaderStyle.Render(fmt.Sprintf("%-6s │ %10s", "P", "Days")),
	}
	for _, p := range []struct {
		label string
		value float64
	}{
		{"p50", res.Percentile50},
		{"p75", res.Percentile75},
		{"p90", res.Percentile90},
		{"p95", res.Percentile95},
	} {
		lines = append(lines, tableCellStyle.Render(fmt.Sprintf("%-6s │ %10.1f", p.label, p.value)))
	}
	sections = append(sections, strings.Join(lines, "\n"))

	sections = append(sections, sectionHeaderStyle.Render("Recommendations"))
	sections = append(sections, strings.Join([]string{
		fmt.Sprintf("  Buffer:  %.0f days for 90%% confidence", max(0, r.BufferDays())),
		fmt.Sprintf("  Budget:  $%s (mean + 1σ)", project.FormatMoney(r.BudgetRecommendation())),
	}, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
