package monitor

import (
	"github.com/shirou/gopsutil/v4/cpu"
)

type CPUMonitor struct{}

func NewCPUMonitor() *CPUMonitor {
	return &CPUMonitor{}
}

func (m *CPUMonitor) Name() string {
	return "cpu"
}

func (m *CPUMonitor) Collect() (any, error) {
	percentages, err := cpu.Percent(0, false)
	if err != nil {
		return nil, err
	}

	var overall float64
	if len(percentages) > 0 {
		overall = percentages[0]
	}

	corePercentages, err := cpu.Percent(0, true)
	if err != nil {
		return nil, err
	}

	logical, err := cpu.Counts(true)
	if err != nil {
		logical = len(corePercentages)
	}

	return &CPUState{
		UsagePercent: overall,
		LogicalCores: logical,
		Cores:        corePercentages,
	}, nil
}
