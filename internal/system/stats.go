package system

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is the host snapshot reported by the health endpoint
type SystemStats struct {
	Hostname  string      `json:"hostname"`
	CPU       CPUStats    `json:"cpu"`
	Memory    MemoryStats `json:"memory"`
	Disk      DiskStats   `json:"disk"`
	Timestamp time.Time   `json:"timestamp"`
}

// CPUStats represents CPU usage statistics
type CPUStats struct {
	UsagePercent float64 `json:"usage_percent"`
	Cores        int     `json:"cores"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Total        uint64  `json:"total_bytes"`
	Used         uint64  `json:"used_bytes"`
	Available    uint64  `json:"available_bytes"`
	UsagePercent float64 `json:"usage_percent"`
}

// DiskStats describes the volume uploads are written to
type DiskStats struct {
	Total        uint64  `json:"total_bytes"`
	Free         uint64  `json:"free_bytes"`
	UsagePercent float64 `json:"usage_percent"`
	Path         string  `json:"path"`
}

// Collector gathers host statistics
type Collector struct {
	uploadDir string
}

// NewCollector creates a collector reporting disk usage for uploadDir
func NewCollector(uploadDir string) *Collector {
	return &Collector{uploadDir: uploadDir}
}

// GetSystemStats collects CPU, memory and disk figures concurrently.
// Individual probe failures are logged and reported as zero values.
func (c *Collector) GetSystemStats() *SystemStats {
	var cpuStats CPUStats
	var memStats MemoryStats
	var diskStats DiskStats

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		cpuStats = c.getCPUStats()
	}()

	go func() {
		defer wg.Done()
		memStats = c.getMemoryStats()
	}()

	go func() {
		defer wg.Done()
		diskStats = c.getDiskStats(c.diskPath())
	}()

	wg.Wait()

	return &SystemStats{
		Hostname:  hostname(),
		CPU:       cpuStats,
		Memory:    memStats,
		Disk:      diskStats,
		Timestamp: time.Now().UTC(),
	}
}

// diskPath falls back to the working directory until the upload dir exists
func (c *Collector) diskPath() string {
	if c.uploadDir != "" {
		if _, err := os.Stat(c.uploadDir); err == nil {
			return c.uploadDir
		}
	}
	return "."
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		slog.Warn("failed to get hostname", "error", err)
		return "unknown"
	}
	return name
}

func (c *Collector) getCPUStats() CPUStats {
	cores, err := cpu.Counts(true)
	if err != nil {
		slog.Warn("failed to get CPU count", "error", err)
		cores = 1
	}

	// 0 interval compares against the previous call instead of blocking
	percentages, err := cpu.Percent(0, false)
	if err != nil {
		slog.Warn("failed to get CPU usage", "error", err)
		return CPUStats{Cores: cores}
	}

	usage := 0.0
	if len(percentages) > 0 {
		usage = percentages[0]
	}
	return CPUStats{UsagePercent: usage, Cores: cores}
}

func (c *Collector) getMemoryStats() MemoryStats {
	vm, err := mem.VirtualMemory()
	if err != nil {
		slog.Warn("failed to get memory stats", "error", err)
		return MemoryStats{}
	}
	return MemoryStats{
		Total:        vm.Total,
		Used:         vm.Used,
		Available:    vm.Available,
		UsagePercent: vm.UsedPercent,
	}
}

func (c *Collector) getDiskStats(path string) DiskStats {
	usage, err := disk.Usage(path)
	if err != nil {
		slog.Warn("failed to get disk stats", "path", path, "error", err)
		return DiskStats{Path: path}
	}
	return DiskStats{
		Total:        usage.Total,
		Free:         usage.Free,
		UsagePercent: usage.UsedPercent,
		Path:         path,
	}
}
