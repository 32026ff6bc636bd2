// Package monitor samples host load. The samples feed the analysis admission
// gate and the /status endpoint.
package monitor

import (
	"maps"
	"slices"
	"time"
)

// Monitor collects one kind of host sample.
type Monitor interface {
	Name() string
	Collect() (any, error)
}

type CPUState struct {
	UsagePercent float64   `json:"usage_percent"`
	LogicalCores int       `json:"logical_cores"`
	Cores        []float64 `json:"cores"`
}

type MemoryState struct {
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	TotalBytes     uint64  `json:"total_bytes"`
	UsagePercent   float64 `json:"usage_percent"`
}

type DiskState struct {
	UsedBytes    uint64  `json:"used_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
	TotalBytes   uint64  `json:"total_bytes"`
	UsagePercent float64 `json:"usage_percent"`
}

// FreeGB returns free space in GiB.
func (d DiskState) FreeGB() float64 {
	return float64(d.FreeBytes) / (1 << 30)
}

type StorageState map[string]DiskState

// ProcessState describes the host process table and the planfox process itself.
type ProcessState struct {
	Processes      int     `json:"processes"`
	SelfRSSBytes   uint64  `json:"self_rss_bytes"`
	SelfCPUPercent float64 `json:"self_cpu_percent"`
	SelfThreads    int32   `json:"self_threads"`
	Goroutines     int     `json:"goroutines"`
}

type SystemState struct {
	CPU       CPUState     `json:"cpu"`
	Memory    MemoryState  `json:"memory"`
	Storage   StorageState `json:"storage"`
	Process   ProcessState `json:"process"`
	Timestamp time.Time    `json:"timestamp"`
}

func (s *SystemState) Clone() *SystemState {
	clone := *s
	clone.CPU.Cores = slices.Clone(s.CPU.Cores)
	clone.Storage = maps.Clone(s.Storage)
	if clone.Storage == nil {
		clone.Storage = make(StorageState)
	}
	return &clone
}
