package monitor

import (
	"os"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessMonitor counts host processes and samples the current process.
type ProcessMonitor struct {
	mu   sync.Mutex
	self *process.Process
}

func NewProcessMonitor() *ProcessMonitor {
	self, _ := process.NewProcess(int32(os.Getpid()))
	return &ProcessMonitor{self: self}
}

func (m *ProcessMonitor) Name() string {
	return "process"
}

func (m *ProcessMonitor) Collect() (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pids, err := process.Pids()
	if err != nil {
		return nil, err
	}

	state := &ProcessState{
		Processes:  len(pids),
		Goroutines: runtime.NumGoroutine(),
	}

	if m.self != nil {
		if info, err := m.self.MemoryInfo(); err == nil {
			state.SelfRSSBytes = info.RSS
		}
		// A zero interval measures since the previous call on the same handle.
		if pct, err := m.self.Percent(0); err == nil {
			state.SelfCPUPercent = pct
		}
		if threads, err := m.self.NumThreads(); err == nil {
			state.SelfThreads = threads
		}
	}

	return state, nil
}
