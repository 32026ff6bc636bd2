package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haskel/planfox/internal/report"
)

// chromeLines is the height taken by the title, tabs, status bar and footer.
const chromeLines = 6

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sections := []string{
		m.renderTitleBar(),
		m.renderTabs(),
	}

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	sections = append(sections, m.visibleBody())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitleBar() string {
	title := titleStyle.Render("PLANFOX")
	if m.config.Name != "" {
		title += helpStyle.Render("  " + m.config.Name)
	}

	state := ""
	if m.analyzing {
		state = "analyzing... | "
	}
	help := helpStyle.Render(state + "q:quit r:rerun tab:switch ↑↓:scroll")

	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(help) - 1
	if spacing < 1 {
		spacing = 1
	}
	return title + strings.Repeat(" ", spacing) + help
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for i, name := range tabNames {
		if tab(i) == m.active {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// body renders the full content of the active tab.
func (m Model) body() string {
	if m.result == nil {
		if m.analyzing {
			return helpStyle.Render("  Running analysis...")
		}
		return helpStyle.Render("  No result. Press r to run again.")
	}

	r := report.NewStyled(m.width)
	switch m.active {
	case tabOptimization:
		if m.result.Optimization == nil {
			return helpStyle.Render("  Optimization was not run.")
		}
		return r.Optimization(m.result.Optimization)
	case tabSimulation:
		if m.result.Simulation == nil {
			return helpStyle.Render("  Simulation was not run.")
		}
		return r.Simulation(m.result.Simulation)
	default:
		return r.Metrics(m.result.Metrics)
	}
}

func (m Model) bodyHeight() int {
	h := m.height - chromeLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) maxScroll() int {
	if m.height == 0 {
		return 0
	}
	lines := strings.Count(m.body(), "\n") + 1
	if lines <= m.bodyHeight() {
		return 0
	}
	return lines - m.bodyHeight()
}

func (m Model) visibleBody() string {
	lines := strings.Split(m.body(), "\n")
	if m.height == 0 {
		return strings.Join(lines, "\n")
	}

	start := min(m.scroll, len(lines))
	end := min(start+m.bodyHeight(), len(lines))
	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderStatusBar() string {
	if m.status == nil {
		if m.statusErr != nil {
			return errorStyle.Render(fmt.Sprintf("  Host: %v", m.statusErr))
		}
		return ""
	}

	cpuBar := renderProgressBar("CPU", m.status.CPU.UsagePercent, 20)
	memBar := renderProgressBar("Memory", m.status.Memory.UsagePercent, 20)
	return fmt.Sprintf("  %s    %s", cpuBar, memBar)
}

func renderProgressBar(label string, percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))

	color := getProgressColor(percent)
	filledBar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	emptyBar := progressBarEmptyStyle.Render(strings.Repeat("░", width-filled))

	return fmt.Sprintf("%s [%s%s] %5.1f%%", labelStyle.Render(label), filledBar, emptyBar, percent)
}

func (m Model) renderFooter() string {
	if m.result == nil {
		return ""
	}

	return helpStyle.Render(fmt.Sprintf(
		"  Run %s │ %.1f ms │ %s",
		m.result.RunID,
		m.result.ElapsedMS,
		m.result.Timestamp.Local().Format("15:04:05"),
	))
}
