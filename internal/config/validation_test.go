package config

import (
	"strings"
	"testing"
)

func TestValidateDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ServerConfig)
		wantErr bool
	}{
		{"valid defaults", func(s *ServerConfig) {}, false},
		{"port zero", func(s *ServerConfig) { s.Port = 0 }, true},
		{"port too high", func(s *ServerConfig) { s.Port = 65536 }, true},
		{"port max", func(s *ServerConfig) { s.Port = 65535 }, false},
		{"read timeout zero", func(s *ServerConfig) { s.ReadTimeoutSec = 0 }, true},
		{"write timeout zero", func(s *ServerConfig) { s.WriteTimeoutSec = 0 }, true},
		{"tiny body limit", func(s *ServerConfig) { s.MaxBodyBytes = 10 }, true},
		{
			name: "rate limit without rate",
			modify: func(s *ServerConfig) {
				s.RateLimit.Enabled = true
				s.RateLimit.RequestsPerSecond = 0
			},
			wantErr: true,
		},
		{
			name: "rate limit without burst",
			modify: func(s *ServerConfig) {
				s.RateLimit.Enabled = true
				s.RateLimit.Burst = 0
			},
			wantErr: true,
		},
		{
			name: "disabled rate limit ignores values",
			modify: func(s *ServerConfig) {
				s.RateLimit.RequestsPerSecond = 0
				s.RateLimit.Burst = 0
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Server)
			err := cfg.Server.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateCapacity(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*CapacityConfig)
		wantErr bool
	}{
		{"valid defaults", func(c *CapacityConfig) {}, false},
		{"cpu over 100", func(c *CapacityConfig) { c.CPU.MaxPercent = 101 }, true},
		{"cpu negative", func(c *CapacityConfig) { c.CPU.MaxPercent = -1 }, true},
		{"memory over 100", func(c *CapacityConfig) { c.Memory.MaxPercent = 150 }, true},
		{"storage negative", func(c *CapacityConfig) { c.Storage.MinFreeGB = -5 }, true},
		{"negative prediction limit", func(c *CapacityConfig) { c.MaxPredictedMS = -1 }, true},
		{"prediction limit set", func(c *CapacityConfig) { c.MaxPredictedMS = 2000 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Capacity)
			err := cfg.Capacity.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSimulator(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SimulatorConfig)
		wantErr bool
	}{
		{"valid defaults", func(s *SimulatorConfig) {}, false},
		{"min zero", func(s *SimulatorConfig) { s.MinTrials = 0 }, true},
		{"max below min", func(s *SimulatorConfig) { s.MaxTrials = 50 }, true},
		{"default above max", func(s *SimulatorConfig) { s.DefaultTrials = 200_000 }, true},
		{"default below min", func(s *SimulatorConfig) { s.DefaultTrials = 10 }, true},
		{"negative workers", func(s *SimulatorConfig) { s.Workers = -2 }, true},
		{"fixed seed", func(s *SimulatorConfig) { s.Seed = 42 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg.Simulator)
			err := cfg.Simulator.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTrialsInRange(t *testing.T) {
	cfg := Default()

	tests := []struct {
		trials  int
		wantErr bool
	}{
		{99, true},
		{100, false},
		{1000, false},
		{100_000, false},
		{100_001, true},
		{0, true},
	}

	for _, tt := range tests {
		err := cfg.Simulator.TrialsInRange(tt.trials)
		if (err != nil) != tt.wantErr {
			t.Errorf("trials=%d: wantErr=%v, got %v", tt.trials, tt.wantErr, err)
		}
	}
}

func TestValidateOptimizer(t *testing.T) {
	tests := []struct {
		nodeLimit int64
		timeLimit int
		wantErr   bool
	}{
		{5_000_000, 30_000, false},
		{1000, 10, false},
		{999, 30_000, true},
		{5_000_000, 9, true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Optimizer.NodeLimit = tt.nodeLimit
		cfg.Optimizer.TimeLimitMS = tt.timeLimit
		err := cfg.Optimizer.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("node_limit=%d time_limit_ms=%d: wantErr=%v, got %v", tt.nodeLimit, tt.timeLimit, tt.wantErr, err)
		}
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"debug", "json", false},
		{"info", "json", false},
		{"warn", "json", false},
		{"error", "json", false},
		{"info", "text", false},
		{"invalid", "json", true},
		{"info", "invalid", true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Logging.Level = tt.level
		cfg.Logging.Format = tt.format
		err := cfg.Logging.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("level=%s format=%s: wantErr=%v, got %v", tt.level, tt.format, tt.wantErr, err)
		}
	}
}

func TestValidateAuth(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		user     string
		password string
		wantErr  bool
	}{
		{"disabled no creds", false, "", "", false},
		{"enabled with creds", true, "admin", "secret", false},
		{"enabled no user", true, "", "secret", true},
		{"enabled no password", true, "admin", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.Enabled = tt.enabled
			cfg.Auth.User = tt.user
			cfg.Auth.Password = tt.password
			err := cfg.Auth.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateLearning(t *testing.T) {
	tests := []struct {
		alpha   float64
		wantErr bool
	}{
		{0.2, false},
		{1, false},
		{0, true},
		{-0.1, true},
		{1.5, true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Learning.Alpha = tt.alpha
		err := cfg.Learning.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("alpha=%g: wantErr=%v, got %v", tt.alpha, tt.wantErr, err)
		}
	}
}

func TestValidateLearning_Model(t *testing.T) {
	tests := []struct {
		model   string
		minObs  int
		wantErr bool
	}{
		{"moving_average", 5, false},
		{"linear", 2, false},
		{"linear", 1, true},
		{"gradient_boost", 5, true},
		{"", 5, true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Learning.Model = tt.model
		cfg.Learning.MinObservations = tt.minObs
		err := cfg.Learning.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("model=%q min_observations=%d: wantErr=%v, got %v", tt.model, tt.minObs, tt.wantErr, err)
		}
	}
}

func TestValidateHistory(t *testing.T) {
	cfg := Default()
	cfg.History.DBPath = ""
	if err := cfg.History.Validate(); err == nil {
		t.Error("expected error for empty db_path with history enabled")
	}

	cfg.History.Enabled = false
	if err := cfg.History.Validate(); err != nil {
		t.Errorf("disabled history should not need a path: %v", err)
	}

	cfg.History.MaxRuns = -1
	if err := cfg.History.Validate(); err == nil {
		t.Error("expected error for negative max_runs")
	}
}

func TestValidateMonitoring(t *testing.T) {
	tests := []struct {
		interval int
		wantErr  bool
	}{
		{1000, false},
		{100, false},
		{99, true},
		{0, true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Monitoring.IntervalMS = tt.interval
		err := cfg.Monitoring.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("interval=%d: wantErr=%v, got %v", tt.interval, tt.wantErr, err)
		}
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Learning.Alpha = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"server: port", "learning: alpha"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}
