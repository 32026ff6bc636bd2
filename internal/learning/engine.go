package learning

import (
	"log/slog"
	"time"
)

// Engine records analysis runtimes and predicts the runtime of new requests.
type Engine struct {
	model  Model
	logger *slog.Logger
}

// NewEngine creates a new learning engine.
func NewEngine(model Model, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		model:  model,
		logger: logger,
	}
}

// Record feeds one finished run to the model.
func (e *Engine) Record(obs Observation) {
	e.model.Observe(obs)

	e.logger.Debug("runtime observed",
		"kind", obs.Kind,
		"units", obs.Units,
		"elapsed", obs.Elapsed,
		"ns_per_unit", obs.NsPerUnit(),
	)
}

// Seed replays past runs, oldest first, and returns how many were applied.
func (e *Engine) Seed(history []Observation) int {
	applied := 0
	for _, obs := range history {
		if obs.Units <= 0 {
			continue
		}
		e.model.Observe(obs)
		applied++
	}

	if applied > 0 {
		e.logger.Info("runtime model seeded from history", "runs", applied)
	}
	return applied
}

// Predict returns the expected runtime, and false when nothing is known yet.
func (e *Engine) Predict(kind Kind, units float64) (time.Duration, bool) {
	return e.model.Predict(kind, units)
}

// GetStats returns statistics for all kinds.
func (e *Engine) GetStats() *AllStats {
	return e.model.GetStats()
}

// Model returns the underlying model.
func (e *Engine) Model() Model {
	return e.model
}
