// Package hostmetrics samples resource usage of the machines involved in a benchmark run.
package hostmetrics

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"k8s.io/utils/clock"

	log "github.com/armadaproject/tpccbench/internal/common/logging"
)

const mib = 1024 * 1024

// Sampler returns a flat map of named readings. Implementations never fail: readings that cannot be taken are
// left out.
type Sampler interface {
	Collect(ctx context.Context) map[string]any
}

// SamplerFunc adapts a plain function, e.g. an adapter's SQL-visible host probes, to Sampler.
type SamplerFunc func(ctx context.Context) map[string]any

func (f SamplerFunc) Collect(ctx context.Context) map[string]any {
	return f(ctx)
}

type merged []Sampler

// Merge combines samplers into one. Where two samplers report the same key the later one wins.
func Merge(samplers ...Sampler) Sampler {
	return merged(samplers)
}

func (m merged) Collect(ctx context.Context) map[string]any {
	out := map[string]any{}
	for _, s := range m {
		if s == nil {
			continue
		}
		for k, v := range s.Collect(ctx) {
			out[k] = v
		}
	}
	return out
}

type ioTotals struct {
	diskRead  uint64
	diskWrite uint64
	netRecv   uint64
	netSent   uint64
}

// OSSampler reports CPU, memory, load, disk and network figures for the local host. Byte counters are reported
// both as totals and as per-second rates since the previous Collect.
type OSSampler struct {
	clock    clock.PassiveClock
	readIO   func(ctx context.Context) (ioTotals, error)
	mu       sync.Mutex
	previous ioTotals
	lastRead time.Time
}

func NewOSSampler(clock clock.PassiveClock) *OSSampler {
	s := &OSSampler{clock: clock, readIO: readIOTotals}
	if totals, err := s.readIO(context.Background()); err == nil {
		s.previous = totals
	} else {
		log.WithError(err).Warn("Unable to read initial disk and network counters")
	}
	s.lastRead = clock.Now()
	return s
}

func (s *OSSampler) Collect(ctx context.Context) map[string]any {
	metrics := map[string]any{}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		metrics["cpuUsage"] = round2(percents[0])
	}
	if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
		metrics["cpuCores"] = cores
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm.Total > 0 {
		used := vm.Total - vm.Available
		metrics["memoryTotal"] = vm.Total / mib
		metrics["memoryUsed"] = used / mib
		metrics["memoryFree"] = vm.Available / mib
		metrics["memoryUsage"] = round2(float64(used) * 100 / float64(vm.Total))
	}
	if swap, err := mem.SwapMemoryWithContext(ctx); err == nil {
		metrics["swapTotal"] = swap.Total / mib
		metrics["swapUsed"] = swap.Used / mib
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		metrics["loadAvg1"] = round2(avg.Load1)
		metrics["loadAvg5"] = round2(avg.Load5)
		metrics["loadAvg15"] = round2(avg.Load15)
	}
	if misc, err := load.MiscWithContext(ctx); err == nil {
		metrics["processCount"] = misc.ProcsTotal
	}

	s.collectIO(ctx, metrics)
	return metrics
}

func (s *OSSampler) collectIO(ctx context.Context, metrics map[string]any) {
	totals, err := s.readIO(ctx)
	if err != nil {
		log.WithError(err).Debug("Unable to read disk and network counters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	seconds := now.Sub(s.lastRead).Seconds()
	if seconds <= 0 {
		seconds = 1
	}

	metrics["diskReadBytes"] = totals.diskRead
	metrics["diskWriteBytes"] = totals.diskWrite
	metrics["diskReadBytesPerSec"] = rate(totals.diskRead, s.previous.diskRead, seconds)
	metrics["diskWriteBytesPerSec"] = rate(totals.diskWrite, s.previous.diskWrite, seconds)
	metrics["networkRecvBytes"] = totals.netRecv
	metrics["networkSentBytes"] = totals.netSent
	metrics["networkRecvBytesPerSec"] = rate(totals.netRecv, s.previous.netRecv, seconds)
	metrics["networkSentBytesPerSec"] = rate(totals.netSent, s.previous.netSent, seconds)

	s.previous = totals
	s.lastRead = now
}

func readIOTotals(ctx context.Context) (ioTotals, error) {
	var totals ioTotals
	disks, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return totals, err
	}
	for _, d := range disks {
		totals.diskRead += d.ReadBytes
		totals.diskWrite += d.WriteBytes
	}
	nics, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return totals, err
	}
	for _, n := range nics {
		totals.netRecv += n.BytesRecv
		totals.netSent += n.BytesSent
	}
	return totals, nil
}

// rate is zero when a counter went backwards, e.g. after a device reset.
func rate(current, previous uint64, seconds float64) int64 {
	if current < previous {
		return 0
	}
	return int64(math.Round(float64(current-previous) / seconds))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
