package config

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			PIDFile:         "/var/run/planfox.pid",
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 120,
			MaxBodyBytes:    10 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 10,
				Burst:             20,
				PerIP:             true,
			},
		},
		Auth: AuthConfig{
			Enabled:  false,
			User:     "",
			Password: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Optimizer: OptimizerConfig{
			NodeLimit:   5_000_000,
			TimeLimitMS: 30_000,
		},
		Simulator: SimulatorConfig{
			DefaultTrials: 1000,
			MinTrials:     100,
			MaxTrials:     100_000,
			Workers:       0,
			Seed:          0,
		},
		Input: InputConfig{
			StrictPredecessors: false,
		},
		Capacity: CapacityConfig{
			Enabled: true,
			CPU: CPUThreshold{
				MaxPercent: 90.0,
			},
			Memory: MemoryThreshold{
				MaxPercent: 90.0,
			},
			Storage: StorageThreshold{
				MinFreeGB: 1.0,
			},
			MaxPredictedMS: 0,
		},
		Monitoring: MonitoringConfig{
			IntervalMS: 1000,
			Paths:      []string{"/"},
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "/var/lib/planfox/history.db",
			MaxRuns: 10_000,
		},
		Learning: LearningConfig{
			Model:           "moving_average",
			Alpha:           0.2,
			MinObservations: 5,
		},
	}
}
