package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is the bot's own footprint, shown by /heartbeat.
type ProcessStats struct {
	RSS        uint64
	CPUPercent float64
	Goroutines int
	HostUptime time.Duration
}

func readProcessStats() (ProcessStats, error) {
	stats := ProcessStats{Goroutines: runtime.NumGoroutine()}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats, fmt.Errorf("open process: %w", err)
	}
	if mi, err := p.MemoryInfo(); err == nil && mi != nil {
		stats.RSS = mi.RSS
	}
	if pct, err := p.CPUPercent(); err == nil {
		stats.CPUPercent = pct
	}
	if up, err := host.Uptime(); err == nil {
		stats.HostUptime = time.Duration(up) * time.Second
	}
	return stats, nil
}
