// Package diagnostics collects host resource information for the doctor
// command and the pre-run resource check. Collection is best-effort: a
// metric that cannot be read is left at its zero value.
package diagnostics

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot describes host resources at one point in time.
type Snapshot struct {
	MemoryTotalMB     uint64
	MemoryAvailableMB uint64
	MemoryUsedPercent float64
	DiskFreeMB        uint64
	DiskUsedPercent   float64
	LoadAvg1          float64
	CPUCores          int
}

// Collect takes a snapshot of the host. path anchors the disk usage query,
// normally the run directory.
func Collect(path string) Snapshot {
	var s Snapshot

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemoryTotalMB = vm.Total / 1024 / 1024
		s.MemoryAvailableMB = vm.Available / 1024 / 1024
		s.MemoryUsedPercent = vm.UsedPercent
	}
	if path != "" {
		if usage, err := disk.Usage(path); err == nil {
			s.DiskFreeMB = usage.Free / 1024 / 1024
			s.DiskUsedPercent = usage.UsedPercent
		}
	}
	if avg, err := load.Avg(); err == nil {
		s.LoadAvg1 = avg.Load1
	}
	if cores, err := cpu.Counts(false); err == nil {
		s.CPUCores = cores
	}

	return s
}

// PreflightResult contains the result of the pre-run resource check.
type PreflightResult struct {
	Warnings []string
	Snapshot Snapshot
}

const (
	// minFreeMemoryMB below which a warning is emitted before the run.
	minFreeMemoryMB = 512
	// minFreeDiskMB below which a warning is emitted; archives and the
	// progress log need headroom.
	minFreeDiskMB = 256
)

// RunPreflight checks host resources before the loop starts. Shortages warn
// but never abort: an unattended session should keep trying rather than
// refuse to start.
func RunPreflight(path string) PreflightResult {
	result := PreflightResult{Snapshot: Collect(path)}

	if result.Snapshot.MemoryTotalMB > 0 && result.Snapshot.MemoryAvailableMB < minFreeMemoryMB {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("low free memory: %d MB available (recommended minimum: %d MB)",
				result.Snapshot.MemoryAvailableMB, minFreeMemoryMB))
	}
	if result.Snapshot.DiskFreeMB > 0 && result.Snapshot.DiskFreeMB < minFreeDiskMB {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("low free disk space: %d MB free (recommended minimum: %d MB)",
				result.Snapshot.DiskFreeMB, minFreeDiskMB))
	}

	return result
}
