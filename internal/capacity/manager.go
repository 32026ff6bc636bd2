package capacity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/haskel/planfox/internal/config"
	"github.com/haskel/planfox/internal/learning"
	"github.com/haskel/planfox/internal/monitor"
)

// StateProvider supplies the latest host sample.
type StateProvider interface {
	GetState() *monitor.SystemState
}

// Predictor estimates the runtime of an analysis.
type Predictor interface {
	Predict(kind learning.Kind, units float64) (time.Duration, bool)
}

// Manager decides whether an analysis request may run now.
type Manager struct {
	state     StateProvider
	predictor Predictor
	checker   *ThresholdChecker
	cfg       config.CapacityConfig
	mu        sync.RWMutex
}

// AskRequest describes the analysis about to run.
type AskRequest struct {
	Kind      learning.Kind `json:"kind"`
	Tasks     int           `json:"tasks"`
	Resources int           `json:"resources,omitempty"`
	Trials    int           `json:"trials,omitempty"`
}

// Units returns the work size used for runtime prediction.
func (r AskRequest) Units() float64 {
	switch r.Kind {
	case learning.KindSimulate:
		return learning.SimulateUnits(r.Tasks, r.Trials)
	default:
		return learning.OptimizeUnits(r.Tasks, r.Resources)
	}
}

type AskResponse struct {
	Allowed     bool     `json:"allowed"`
	Reasons     []string `json:"reasons,omitempty"`
	PredictedMS float64  `json:"predicted_ms,omitempty"`
}

// RejectedError is returned when an analysis is refused for capacity reasons.
type RejectedError struct {
	Reasons []string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("capacity exceeded: %s", strings.Join(e.Reasons, ", "))
}

// NewManager creates a Manager. predictor may be nil, which disables the
// runtime check.
func NewManager(state StateProvider, predictor Predictor, cfg config.CapacityConfig) *Manager {
	return &Manager{
		state:     state,
		predictor: predictor,
		checker:   NewThresholdChecker(cfg),
		cfg:       cfg,
	}
}

// Ask checks host thresholds and, when configured, the predicted runtime of
// req. A disabled gate allows everything.
func (m *Manager) Ask(req AskRequest, withReasons bool) AskResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var resp AskResponse
	var reasons []Reason

	if m.predictor != nil && req.Kind != "" {
		if predicted, ok := m.predictor.Predict(req.Kind, req.Units()); ok {
			resp.PredictedMS = float64(predicted.Microseconds()) / 1000
			if m.cfg.MaxPredictedMS > 0 && predicted > time.Duration(m.cfg.MaxPredictedMS)*time.Millisecond {
				reasons = append(reasons, ReasonRuntimeExceeded)
			}
		}
	}

	if m.cfg.Enabled {
		reasons = append(m.checker.Check(m.state.GetState()), reasons...)
	} else {
		reasons = nil
	}

	resp.Allowed = len(reasons) == 0

	if withReasons && !resp.Allowed {
		resp.Reasons = make([]string, len(reasons))
		for i, r := range reasons {
			resp.Reasons[i] = string(r)
		}
	}

	return resp
}

// Admit is Ask with reasons, returning a RejectedError when refused.
func (m *Manager) Admit(req AskRequest) error {
	resp := m.Ask(req, true)
	if resp.Allowed {
		return nil
	}
	return &RejectedError{Reasons: resp.Reasons}
}

func (m *Manager) UpdateThresholds(cfg config.CapacityConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.checker.UpdateThresholds(cfg)
}
