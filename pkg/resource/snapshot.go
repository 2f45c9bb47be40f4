package resource

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Collector produces live Snapshots from the host. Network utilization is
// estimated from byte deltas between collections against a configured link
// capacity, since the OS does not expose a utilization percentage directly.
type Collector struct {
	linkCapacityBps float64
	lastSample      time.Time
	lastBytes       uint64
}

// DefaultLinkCapacityBps assumes a 1 Gbit/s link when none is configured
const DefaultLinkCapacityBps = 1e9 / 8

// NewCollector creates a collector. linkCapacityBps may be 0 to use the default.
func NewCollector(linkCapacityBps float64) *Collector {
	if linkCapacityBps <= 0 {
		linkCapacityBps = DefaultLinkCapacityBps
	}
	return &Collector{linkCapacityBps: linkCapacityBps}
}

// Collect gathers a live snapshot. The first call reports zero network
// utilization because there is no previous sample to diff against.
func (c *Collector) Collect() (Snapshot, error) {
	var snap Snapshot

	percents, err := cpu.Percent(0, false)
	if err != nil {
		return snap, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percents) > 0 {
		snap.CPUUsage = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return snap, fmt.Errorf("failed to read memory usage: %w", err)
	}
	snap.MemoryUsage = vm.UsedPercent

	counters, err := psnet.IOCounters(false)
	if err != nil {
		return snap, fmt.Errorf("failed to read network counters: %w", err)
	}
	if len(counters) > 0 {
		total := counters[0].BytesSent + counters[0].BytesRecv
		now := time.Now()
		if !c.lastSample.IsZero() && total >= c.lastBytes {
			elapsed := now.Sub(c.lastSample).Seconds()
			if elapsed > 0 {
				rate := float64(total-c.lastBytes) / elapsed
				snap.NetworkUtilization = rate / c.linkCapacityBps * 100
				if snap.NetworkUtilization > 100 {
					snap.NetworkUtilization = 100
				}
			}
		}
		c.lastSample = now
		c.lastBytes = total
	}

	return snap, nil
}
