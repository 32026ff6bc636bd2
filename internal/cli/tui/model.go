package tui

import (
	"time"

	"github.com/haskel/planfox/internal/analysis"
	"github.com/haskel/planfox/internal/monitor"
)

// Config holds TUI configuration
type Config struct {
	ServerURL       string
	RefreshInterval time.Duration
	User            string
	Password        string

	// Name labels the title bar, usually the CSV path.
	Name   string
	CSV    []byte
	Trials int
	Seed   uint64
}

type tab int

const (
	tabMetrics tab = iota
	tabOptimization
	tabSimulation
	tabCount
)

var tabNames = [tabCount]string{"Metrics", "Optimization", "Simulation"}

// Model represents the TUI state
type Model struct {
	config Config

	result *analysis.Result
	status *monitor.SystemState

	width     int
	height    int
	analyzing bool
	err       error
	statusErr error

	active tab
	// scroll is the first visible line of the active tab.
	scroll int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Second
	}
	return Model{
		config:    cfg,
		analyzing: true,
	}
}
