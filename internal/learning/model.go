package learning

import (
	"fmt"
	"time"
)

// Model learns how long analysis runs take per unit of work.
type Model interface {
	// Name returns the model name.
	Name() string

	// Observe records a finished run.
	Observe(obs Observation)

	// Predict returns the expected runtime for units of work, and false when
	// the kind has never been observed.
	Predict(kind Kind, units float64) (time.Duration, bool)

	// GetStats returns statistics for all observed kinds.
	GetStats() *AllStats

	// GetKindStats returns statistics for one kind, or nil.
	GetKindStats(kind Kind) *KindStats

	// SetObserver sets a callback that will be called when stats change.
	SetObserver(observer StatsObserver)

	// LoadStats loads previously saved statistics into the model.
	LoadStats(stats *AllStats)
}

// StatsObserver is called when kind statistics are updated.
type StatsObserver func(kind Kind, stats *KindStats)

// Model names accepted by NewModel.
const (
	ModelMovingAverage = "moving_average"
	ModelLinear        = "linear"
)

// NewModel creates the runtime model called name.
func NewModel(name string, alpha float64, minObs int) (Model, error) {
	switch name {
	case "", ModelMovingAverage:
		return NewMovingAverageModel(alpha), nil
	case ModelLinear:
		return NewLinearModel(minObs), nil
	default:
		return nil, fmt.Errorf("unknown learning model %q", name)
	}
}
