// Package health samples host-level metrics for the dashboard's server
// health card and the health API endpoint.
package health

import (
	"errors"
	"log"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStatus is a point-in-time sample of the host the collector runs on.
type HostStatus struct {
	CPUPercent     float64 `json:"cpu_percent"`
	MemUsedPercent float64 `json:"mem_used_percent"`
	MemTotalBytes  uint64  `json:"mem_total_bytes"`
	MemUsedBytes   uint64  `json:"mem_used_bytes"`
	DiskPercent    float64 `json:"disk_used_percent"`
}

// Collect samples CPU, memory and root-filesystem usage. Individual probe
// failures are logged and leave their fields zero; only a fully failed
// sample returns an error.
func Collect() (*HostStatus, error) {
	status := &HostStatus{}
	failures := 0

	if percentages, err := cpu.Percent(0, false); err != nil || len(percentages) == 0 {
		log.Printf("Warning: could not sample CPU usage: %v", err)
		failures++
	} else {
		status.CPUPercent = percentages[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Printf("Warning: could not sample memory usage: %v", err)
		failures++
	} else {
		status.MemUsedPercent = vm.UsedPercent
		status.MemTotalBytes = vm.Total
		status.MemUsedBytes = vm.Used
	}

	if du, err := disk.Usage("/"); err != nil {
		log.Printf("Warning: could not sample disk usage: %v", err)
		failures++
	} else {
		status.DiskPercent = du.UsedPercent
	}

	if failures == 3 {
		return nil, errAllProbesFailed
	}
	return status, nil
}

var errAllProbesFailed = errors.New("all host probes failed")
