package learning

import (
	"sync"
	"time"
)

// LinearModel implements Model with online least squares per kind:
// elapsed = slope*units + intercept. The intercept captures fixed per-run
// overhead that a pure per-unit average spreads over small runs.
type LinearModel struct {
	minObservations int
	mu              sync.RWMutex
	stats           map[Kind]*linearState
	observer        StatsObserver
}

// linearState holds running statistics for incremental regression, updated
// with Welford's method.
type linearState struct {
	count       int64
	meanX       float64 // units
	meanY       float64 // elapsed ns
	varX        float64 // sum of (x-meanX)^2
	cov         float64 // sum of (x-meanX)(y-meanY)
	meanRate    float64 // mean ns per unit
	lastElapsed time.Duration
}

// NewLinearModel creates a LinearModel that switches from the mean rate to
// the fitted line after minObs runs of a kind.
func NewLinearModel(minObs int) *LinearModel {
	if minObs < 2 {
		minObs = 2
	}
	return &LinearModel{
		minObservations: minObs,
		stats:           make(map[Kind]*linearState),
	}
}

func (m *LinearModel) Name() string {
	return "linear"
}

func (m *LinearModel) Observe(obs Observation) {
	if obs.Units <= 0 || obs.Elapsed < 0 {
		return
	}
	x := obs.Units
	y := float64(obs.Elapsed.Nanoseconds())

	m.mu.Lock()

	s, exists := m.stats[obs.Kind]
	if !exists {
		s = &linearState{}
		m.stats[obs.Kind] = s
	}

	n := float64(s.count + 1)
	dx := x - s.meanX
	s.meanX += dx / n
	s.meanY += (y - s.meanY) / n
	s.varX += dx * (x - s.meanX)
	s.cov += dx * (y - s.meanY)
	s.meanRate += (obs.NsPerUnit() - s.meanRate) / n
	s.count++
	s.lastElapsed = obs.Elapsed

	stats := m.export(obs.Kind, s)
	observer := m.observer

	m.mu.Unlock()

	if observer != nil {
		observer(obs.Kind, stats)
	}
}

// coefficients returns the fitted line, and false while the kind has too few
// runs or every run had the same size.
func (m *LinearModel) coefficients(s *linearState) (slope, intercept float64, ok bool) {
	if s.count < int64(m.minObservations) || s.varX < 1e-9 {
		return 0, 0, false
	}
	slope = s.cov / s.varX
	intercept = s.meanY - slope*s.meanX
	return slope, intercept, slope > 0
}

func (m *LinearModel) Predict(kind Kind, units float64) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.stats[kind]
	if !exists {
		return 0, false
	}

	if slope, intercept, ok := m.coefficients(s); ok {
		return time.Duration(max(slope*units+intercept, 0)), true
	}
	return time.Duration(s.meanRate * units), true
}

func (m *LinearModel) export(kind Kind, s *linearState) *KindStats {
	ks := &KindStats{
		Kind:          kind,
		Count:         s.count,
		AvgNsPerUnit:  s.meanRate,
		LastElapsedMS: float64(s.lastElapsed.Microseconds()) / 1000,
	}
	if slope, intercept, ok := m.coefficients(s); ok {
		ks.AvgNsPerUnit = slope
		ks.FixedMS = intercept / float64(time.Millisecond)
	}
	return ks
}

func (m *LinearModel) GetStats() *AllStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := &AllStats{
		Kinds: make(map[Kind]*KindStats),
	}
	for kind, s := range m.stats {
		result.Kinds[kind] = m.export(kind, s)
		result.TotalRuns += s.count
	}
	return result
}

func (m *LinearModel) GetKindStats(kind Kind) *KindStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.stats[kind]
	if !exists {
		return nil
	}
	return m.export(kind, s)
}

func (m *LinearModel) SetObserver(observer StatsObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = observer
}

// LoadStats restores per-kind rates. Regression sums are not part of
// AllStats, so predictions use the rate until new runs arrive.
func (m *LinearModel) LoadStats(stats *AllStats) {
	if stats == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for kind, ks := range stats.Kinds {
		m.stats[kind] = &linearState{
			meanRate:    ks.AvgNsPerUnit,
			lastElapsed: time.Duration(ks.LastElapsedMS * float64(time.Millisecond)),
		}
	}
}
