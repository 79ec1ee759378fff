package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	// Above these, the host is considered busy
	BusyCPUPercent = 80.0
	BusyRAMPercent = 90.0
	// CPU usage is averaged over this window
	DefaultSampleWindow = 500 * time.Millisecond
)

// HostStats Current load of the host running ffmpeg
type HostStats struct {
	CPUPercent float64 `json:"cpuPercent"`
	RAMPercent float64 `json:"ramPercent"`
	Busy       bool    `json:"busy"`
}

// SystemMonitor Sample host usage
type SystemMonitor struct {
	window time.Duration
}

func NewSystemMonitor(window time.Duration) *SystemMonitor {
	return &SystemMonitor{window: window}
}

// GetStats gathers real-time CPU and RAM usage
func (m *SystemMonitor) GetStats(ctx context.Context) (HostStats, error) {
	stats := HostStats{}
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get mem stats : %w", err)
	}
	stats.RAMPercent = v.UsedPercent

	cpuPct, err := cpu.PercentWithContext(ctx, m.window, false)
	if err != nil {
		return stats, fmt.Errorf("failed to get cpu stats : %w", err)
	}
	if len(cpuPct) > 0 {
		stats.CPUPercent = cpuPct[0]
	}
	stats.Busy = IsBusy(stats.CPUPercent, stats.RAMPercent)
	return stats, nil
}

// IsBusy Whether a new encoding should rather be scheduled elsewhere
func IsBusy(cpuPercent float64, ramPercent float64) bool {
	return cpuPercent > BusyCPUPercent || ramPercent > BusyRAMPercent
}
