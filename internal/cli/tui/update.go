package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init starts the first analysis and the host status poll.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		runAnalysis(m.config),
		fetchStatus(m.config),
		tick(m.config.RefreshInterval),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll = 0
		return m, nil

	case analysisMsg:
		m.analyzing = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.result = msg.result
			m.scroll = 0
		}
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.statusErr = msg.err
		} else {
			m.statusErr = nil
			m.status = msg.data
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(
			fetchStatus(m.config),
			tick(m.config.RefreshInterval),
		)
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r":
		if m.analyzing {
			return m, nil
		}
		m.analyzing = true
		return m, runAnalysis(m.config)

	case "tab", "right", "l":
		m.active = (m.active + 1) % tabCount
		m.scroll = 0
		return m, nil

	case "shift+tab", "left", "h":
		m.active = (m.active + tabCount - 1) % tabCount
		m.scroll = 0
		return m, nil

	case "up", "k":
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil

	case "down", "j":
		if m.scroll < m.maxScroll() {
			m.scroll++
		}
		return m, nil
	}

	return m, nil
}
