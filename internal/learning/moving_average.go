package learning

import (
	"sync"
	"time"
)

// MovingAverageModel implements Model with an exponential moving average of
// nanoseconds per work unit.
type MovingAverageModel struct {
	mu       sync.RWMutex
	stats    map[Kind]*kindState
	alpha    float64 // smoothing factor (0 < alpha <= 1)
	observer StatsObserver
}

type kindState struct {
	count        int64
	avgNsPerUnit float64
	lastElapsed  time.Duration
}

func (s *kindState) export(kind Kind) *KindStats {
	return &KindStats{
		Kind:          kind,
		Count:         s.count,
		AvgNsPerUnit:  s.avgNsPerUnit,
		LastElapsedMS: float64(s.lastElapsed.Microseconds()) / 1000,
	}
}

// NewMovingAverageModel creates a new MovingAverageModel.
// Higher alpha gives more weight to recent runs. Typical values are 0.1-0.3.
func NewMovingAverageModel(alpha float64) *MovingAverageModel {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2 // default
	}
	return &MovingAverageModel{
		stats: make(map[Kind]*kindState),
		alpha: alpha,
	}
}

func (m *MovingAverageModel) Name() string {
	return "moving_average"
}

func (m *MovingAverageModel) Observe(obs Observation) {
	if obs.Units <= 0 || obs.Elapsed < 0 {
		return
	}
	sample := obs.NsPerUnit()

	m.mu.Lock()

	state, exists := m.stats[obs.Kind]
	if !exists {
		state = &kindState{avgNsPerUnit: sample}
		m.stats[obs.Kind] = state
	} else {
		// new_avg = alpha * value + (1 - alpha) * old_avg
		state.avgNsPerUnit = m.alpha*sample + (1-m.alpha)*state.avgNsPerUnit
	}
	state.count++
	state.lastElapsed = obs.Elapsed

	stats := state.export(obs.Kind)
	observer := m.observer

	m.mu.Unlock()

	// Notify observer outside of lock
	if observer != nil {
		observer(obs.Kind, stats)
	}
}

func (m *MovingAverageModel) Predict(kind Kind, units float64) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.stats[kind]
	if !exists {
		return 0, false
	}
	return time.Duration(state.avgNsPerUnit * units), true
}

func (m *MovingAverageModel) GetStats() *AllStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := &AllStats{
		Kinds: make(map[Kind]*KindStats),
	}
	for kind, state := range m.stats {
		result.Kinds[kind] = state.export(kind)
		result.TotalRuns += state.count
	}
	return result
}

func (m *MovingAverageModel) GetKindStats(kind Kind) *KindStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.stats[kind]
	if !exists {
		return nil
	}
	return state.export(kind)
}

func (m *MovingAverageModel) SetObserver(observer StatsObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = observer
}

func (m *MovingAverageModel) LoadStats(stats *AllStats) {
	if stats == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for kind, ks := range stats.Kinds {
		m.stats[kind] = &kindState{
			count:        ks.Count,
			avgNsPerUnit: ks.AvgNsPerUnit,
			lastElapsed:  time.Duration(ks.LastElapsedMS * float64(time.Millisecond)),
		}
	}
}
