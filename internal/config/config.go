package config

import "time"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Simulator  SimulatorConfig  `yaml:"simulator"`
	Input      InputConfig      `yaml:"input"`
	Capacity   CapacityConfig   `yaml:"capacity"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	History    HistoryConfig    `yaml:"history"`
	Learning   LearningConfig   `yaml:"learning"`
}

type ServerConfig struct {
	Host            string          `yaml:"host"`
	Port            int             `yaml:"port"`
	PIDFile         string          `yaml:"pid_file"`
	ReadTimeoutSec  int             `yaml:"read_timeout_sec"`
	WriteTimeoutSec int             `yaml:"write_timeout_sec"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig limits the request rate, shared or per client IP.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	PerIP             bool    `yaml:"per_ip"`
}

type AuthConfig struct {
	Enabled  bool   `yaml:"enabled"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OptimizerConfig bounds the allocation search.
type OptimizerConfig struct {
	// NodeLimit caps explored branch-and-bound nodes per request.
	NodeLimit int64 `yaml:"node_limit"`
	// TimeLimitMS is the deadline for a single solve.
	TimeLimitMS int `yaml:"time_limit_ms"`
}

// SimulatorConfig holds Monte Carlo defaults and the accepted trial range.
type SimulatorConfig struct {
	DefaultTrials int `yaml:"default_trials"`
	MinTrials     int `yaml:"min_trials"`
	MaxTrials     int `yaml:"max_trials"`
	// Workers bounds concurrent trial batches. 0 means one per logical CPU.
	Workers int `yaml:"workers"`
	// Seed makes runs reproducible. 0 derives a seed per request from the clock.
	Seed uint64 `yaml:"seed"`
}

type InputConfig struct {
	// StrictPredecessors rejects tables that reference unknown task ids.
	StrictPredecessors bool `yaml:"strict_predecessors"`
}

// CapacityConfig gates analysis requests on host load and predicted runtime.
type CapacityConfig struct {
	Enabled        bool             `yaml:"enabled"`
	CPU            CPUThreshold     `yaml:"cpu"`
	Memory         MemoryThreshold  `yaml:"memory"`
	Storage        StorageThreshold `yaml:"storage"`
	MaxPredictedMS int              `yaml:"max_predicted_ms"`
}

type CPUThreshold struct {
	MaxPercent float64 `yaml:"max_percent"`
}

type MemoryThreshold struct {
	MaxPercent float64 `yaml:"max_percent"`
}

type StorageThreshold struct {
	MinFreeGB float64 `yaml:"min_free_gb"`
}

type MonitoringConfig struct {
	IntervalMS int      `yaml:"interval_ms"`
	Paths      []string `yaml:"paths"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
	// MaxRuns is how many runs are kept; older ones are pruned. Zero keeps all.
	MaxRuns int    `yaml:"max_runs"`
}

type LearningConfig struct {
	// Model is moving_average or linear.
	Model string `yaml:"model"`
	// Alpha is the smoothing factor of the runtime moving average.
	Alpha float64 `yaml:"alpha"`
	// MinObservations is how many runs the linear model needs before fitting.
	MinObservations int `yaml:"min_observations"`
}

func (c *Config) MonitoringInterval() time.Duration {
	return time.Duration(c.Monitoring.IntervalMS) * time.Millisecond
}

func (c *Config) SolverTimeLimit() time.Duration {
	return time.Duration(c.Optimizer.TimeLimitMS) * time.Millisecond
}

func (c *Config) MaxPredicted() time.Duration {
	return time.Duration(c.Capacity.MaxPredictedMS) * time.Millisecond
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSec) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSec) * time.Second
}
