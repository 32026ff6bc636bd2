package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Optimizer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("optimizer: %w", err))
	}

	if err := c.Simulator.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulator: %w", err))
	}

	if err := c.Capacity.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("capacity: %w", err))
	}

	if err := c.Monitoring.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("monitoring: %w", err))
	}

	if err := c.History.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("history: %w", err))
	}

	if err := c.Learning.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("learning: %w", err))
	}

	return errors.Join(errs...)
}

func (s *ServerConfig) Validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeoutSec < 1 {
		errs = append(errs, fmt.Errorf("read_timeout_sec must be at least 1"))
	}
	if s.WriteTimeoutSec < 1 {
		errs = append(errs, fmt.Errorf("write_timeout_sec must be at least 1"))
	}
	if s.MaxBodyBytes < 1024 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be at least 1024, got %d", s.MaxBodyBytes))
	}
	if s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.requests_per_second must be positive"))
		}
		if s.RateLimit.Burst < 1 {
			errs = append(errs, fmt.Errorf("rate_limit.burst must be at least 1"))
		}
	}

	return errors.Join(errs...)
}

func (a *AuthConfig) Validate() error {
	if a.Enabled {
		if a.User == "" {
			return fmt.Errorf("user cannot be empty when auth is enabled")
		}
		if a.Password == "" {
			return fmt.Errorf("password cannot be empty when auth is enabled")
		}
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", l.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[l.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", l.Format)
	}

	return nil
}

func (o *OptimizerConfig) Validate() error {
	var errs []error

	if o.NodeLimit < 1000 {
		errs = append(errs, fmt.Errorf("node_limit must be at least 1000, got %d", o.NodeLimit))
	}
	if o.TimeLimitMS < 10 {
		errs = append(errs, fmt.Errorf("time_limit_ms must be at least 10, got %d", o.TimeLimitMS))
	}

	return errors.Join(errs...)
}

func (s *SimulatorConfig) Validate() error {
	var errs []error

	if s.MinTrials < 1 {
		errs = append(errs, fmt.Errorf("min_trials must be at least 1, got %d", s.MinTrials))
	}
	if s.MaxTrials < s.MinTrials {
		errs = append(errs, fmt.Errorf("max_trials (%d) must not be below min_trials (%d)", s.MaxTrials, s.MinTrials))
	}
	if s.DefaultTrials < s.MinTrials || s.DefaultTrials > s.MaxTrials {
		errs = append(errs, fmt.Errorf("default_trials must be between %d and %d, got %d", s.MinTrials, s.MaxTrials, s.DefaultTrials))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be non-negative"))
	}

	return errors.Join(errs...)
}

// TrialsInRange reports whether n is an accepted trial count.
func (s *SimulatorConfig) TrialsInRange(n int) error {
	if n < s.MinTrials || n > s.MaxTrials {
		return fmt.Errorf("must be between %d and %d, got %d", s.MinTrials, s.MaxTrials, n)
	}
	return nil
}

func (c *CapacityConfig) Validate() error {
	var errs []error

	if c.CPU.MaxPercent < 0 || c.CPU.MaxPercent > 100 {
		errs = append(errs, fmt.Errorf("cpu.max_percent must be between 0 and 100"))
	}

	if c.Memory.MaxPercent < 0 || c.Memory.MaxPercent > 100 {
		errs = append(errs, fmt.Errorf("memory.max_percent must be between 0 and 100"))
	}

	if c.Storage.MinFreeGB < 0 {
		errs = append(errs, fmt.Errorf("storage.min_free_gb must be non-negative"))
	}

	if c.MaxPredictedMS < 0 {
		errs = append(errs, fmt.Errorf("max_predicted_ms must be non-negative"))
	}

	return errors.Join(errs...)
}

func (m *MonitoringConfig) Validate() error {
	if m.IntervalMS < 100 {
		return fmt.Errorf("interval_ms must be at least 100, got %d", m.IntervalMS)
	}
	return nil
}

func (h *HistoryConfig) Validate() error {
	var errs []error

	if h.Enabled && h.DBPath == "" {
		errs = append(errs, fmt.Errorf("db_path cannot be empty when history is enabled"))
	}
	if h.MaxRuns < 0 {
		errs = append(errs, fmt.Errorf("max_runs must not be negative, got %d", h.MaxRuns))
	}

	return errors.Join(errs...)
}

func (l *LearningConfig) Validate() error {
	var errs []error

	switch l.Model {
	case "moving_average", "linear":
	default:
		errs = append(errs, fmt.Errorf("model must be moving_average or linear, got %q", l.Model))
	}
	if l.Alpha <= 0 || l.Alpha > 1 {
		errs = append(errs, fmt.Errorf("alpha must be in (0, 1], got %g", l.Alpha))
	}
	if l.MinObservations < 2 {
		errs = append(errs, fmt.Errorf("min_observations must be at least 2, got %d", l.MinObservations))
	}

	return errors.Join(errs...)
}
