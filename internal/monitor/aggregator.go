package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Aggregator polls its monitors on an interval and keeps the latest
// SystemState.
type Aggregator struct {
	monitors []Monitor
	state    *SystemState
	interval time.Duration
	mu       sync.RWMutex
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

func NewAggregator(monitors []Monitor, interval time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		monitors: monitors,
		state:    &SystemState{Storage: make(StorageState)},
		interval: interval,
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// DefaultMonitors returns the host monitors planfox uses. paths are the
// filesystems whose free space is tracked.
func DefaultMonitors(paths []string) []Monitor {
	return []Monitor{
		NewCPUMonitor(),
		NewMemoryMonitor(),
		NewStorageMonitor(paths),
		NewProcessMonitor(),
	}
}

func (a *Aggregator) Start(ctx context.Context) error {
	a.Refresh()

	go a.runLoop(ctx)

	a.logger.Info("aggregator started", "interval", a.interval, "monitors", len(a.monitors))
	return nil
}

func (a *Aggregator) Stop() error {
	a.stopOnce.Do(func() {
		close(a.done)
		a.logger.Info("aggregator stopped")
	})
	return nil
}

// GetState returns a copy of the latest sample.
func (a *Aggregator) GetState() *SystemState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Clone()
}

func (a *Aggregator) runLoop(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.Refresh()
		case <-ctx.Done():
			return
		case <-a.done:
			return
		}
	}
}

// Refresh collects from every monitor now. A failing monitor leaves its part
// of the state zeroed.
func (a *Aggregator) Refresh() {
	newState := &SystemState{
		Timestamp: time.Now(),
		Storage:   make(StorageState),
	}

	for _, m := range a.monitors {
		data, err := m.Collect()
		if err != nil {
			a.logger.Warn("monitor collection failed",
				"monitor", m.Name(),
				"error", err,
			)
			continue
		}

		switch v := data.(type) {
		case *CPUState:
			newState.CPU = *v
		case *MemoryState:
			newState.Memory = *v
		case StorageState:
			newState.Storage = v
		case *ProcessState:
			newState.Process = *v
		default:
			a.logger.Warn("unknown monitor sample", "monitor", m.Name())
		}
	}

	a.mu.Lock()
	a.state = newState
	a.mu.Unlock()
}
