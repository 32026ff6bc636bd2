package capacity

import (
	"github.com/haskel/planfox/internal/config"
	"github.com/haskel/planfox/internal/monitor"
)

type Reason string

const (
	ReasonCPUOverload     Reason = "cpu_overload"
	ReasonMemoryOverload  Reason = "memory_overload"
	ReasonStorageLow      Reason = "storage_low"
	ReasonRuntimeExceeded Reason = "predicted_runtime_exceeded"
)

// ThresholdChecker compares a host sample with the configured limits.
type ThresholdChecker struct {
	thresholds config.CapacityConfig
}

func NewThresholdChecker(thresholds config.CapacityConfig) *ThresholdChecker {
	return &ThresholdChecker{thresholds: thresholds}
}

func (c *ThresholdChecker) Check(state *monitor.SystemState) []Reason {
	var reasons []Reason

	if state.CPU.UsagePercent > c.thresholds.CPU.MaxPercent {
		reasons = append(reasons, ReasonCPUOverload)
	}

	if state.Memory.UsagePercent > c.thresholds.Memory.MaxPercent {
		reasons = append(reasons, ReasonMemoryOverload)
	}

	for _, disk := range state.Storage {
		if disk.FreeGB() < c.thresholds.Storage.MinFreeGB {
			reasons = append(reasons, ReasonStorageLow)
			break
		}
	}

	return reasons
}

func (c *ThresholdChecker) UpdateThresholds(thresholds config.CapacityConfig) {
	c.thresholds = thresholds
}
