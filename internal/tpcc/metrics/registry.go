// Package metrics records per-transaction-type outcomes and latencies for a benchmark run and keeps a bounded
// history of periodic snapshots.
package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codahale/hdrhistogram"
	"k8s.io/utils/clock"

	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

const (
	// HistoryCapacity is one hour of snapshots at one per second.
	HistoryCapacity = 3600

	sigFigs    = 1
	minLatency = 100 * time.Microsecond
	maxLatency = 60 * time.Second
)

type typeMetrics struct {
	count          atomic.Int64
	success        atomic.Int64
	failure        atomic.Int64
	totalLatencyNs atomic.Int64
	minLatencyNs   atomic.Int64
	maxLatencyNs   atomic.Int64

	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
}

func newTypeMetrics() *typeMetrics {
	m := &typeMetrics{histogram: hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), sigFigs)}
	m.minLatencyNs.Store(math.MaxInt64)
	return m
}

func (m *typeMetrics) record(success bool, elapsed time.Duration) {
	ns := elapsed.Nanoseconds()
	m.count.Add(1)
	if success {
		m.success.Add(1)
	} else {
		m.failure.Add(1)
	}
	m.totalLatencyNs.Add(ns)
	for {
		current := m.minLatencyNs.Load()
		if ns >= current || m.minLatencyNs.CompareAndSwap(current, ns) {
			break
		}
	}
	for {
		current := m.maxLatencyNs.Load()
		if ns <= current || m.maxLatencyNs.CompareAndSwap(current, ns) {
			break
		}
	}

	clamped := elapsed
	if clamped < minLatency {
		clamped = minLatency
	} else if clamped > maxLatency {
		clamped = maxLatency
	}
	m.mu.Lock()
	// Values are clamped to the trackable range so this cannot fail.
	_ = m.histogram.RecordValue(clamped.Nanoseconds())
	m.mu.Unlock()
}

func (m *typeMetrics) reset() {
	m.count.Store(0)
	m.success.Store(0)
	m.failure.Store(0)
	m.totalLatencyNs.Store(0)
	m.minLatencyNs.Store(math.MaxInt64)
	m.maxLatencyNs.Store(0)
	m.mu.Lock()
	m.histogram.Reset()
	m.mu.Unlock()
}

func (m *typeMetrics) percentilesMs() (p50, p95, p99 float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.histogram.TotalCount() == 0 {
		return 0, 0, 0
	}
	return nsToMs(m.histogram.ValueAtQuantile(50)),
		nsToMs(m.histogram.ValueAtQuantile(95)),
		nsToMs(m.histogram.ValueAtQuantile(99))
}

// Registry is safe for concurrent use. Recording is lock free apart from the per-type histogram.
type Registry struct {
	clock clock.PassiveClock
	types map[model.TransactionType]*typeMetrics

	mu      sync.Mutex
	start   time.Time
	end     time.Time
	history []Snapshot
}

func NewRegistry(clock clock.PassiveClock) *Registry {
	types := make(map[model.TransactionType]*typeMetrics, len(model.TransactionTypes))
	for _, t := range model.TransactionTypes {
		types[t] = newTypeMetrics()
	}
	return &Registry{
		clock: clock,
		types: types,
		start: clock.Now(),
	}
}

// Record adds one transaction outcome. Unknown transaction types are ignored.
func (r *Registry) Record(t model.TransactionType, success bool, elapsed time.Duration) {
	if m, ok := r.types[t]; ok {
		m.record(success, elapsed)
	}
}

// Reset zeroes every counter, clears the history and restarts the measurement window.
func (r *Registry) Reset() {
	for _, m := range r.types {
		m.reset()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = nil
	r.start = r.clock.Now()
	r.end = time.Time{}
}

// MarkEnd closes the measurement window; elapsed time stops growing until the next Reset.
func (r *Registry) MarkEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.end = r.clock.Now()
}

func (r *Registry) elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	end := r.end
	if end.IsZero() {
		end = r.clock.Now()
	}
	return end.Sub(r.start)
}

// CurrentMetrics aggregates the counters recorded since the last Reset.
func (r *Registry) CurrentMetrics() Summary {
	summary := Summary{Transactions: []TransactionSummary{}}
	var totalLatencyMs float64
	for _, t := range model.TransactionTypes {
		m := r.types[t]
		count := m.count.Load()
		if count == 0 {
			continue
		}
		success := m.success.Load()
		avg := nsToMs(m.totalLatencyNs.Load()) / float64(count)
		minNs := m.minLatencyNs.Load()
		if minNs == math.MaxInt64 {
			minNs = 0
		}
		p50, p95, p99 := m.percentilesMs()
		summary.Transactions = append(summary.Transactions, TransactionSummary{
			Name:         t,
			Count:        count,
			Success:      success,
			Failure:      m.failure.Load(),
			SuccessRate:  round2(float64(success) * 100 / float64(count)),
			AvgLatencyMs: round2(avg),
			MinLatencyMs: round2(nsToMs(minNs)),
			MaxLatencyMs: round2(nsToMs(m.maxLatencyNs.Load())),
			P50LatencyMs: round2(p50),
			P95LatencyMs: round2(p95),
			P99LatencyMs: round2(p99),
		})
		summary.TotalTransactions += count
		summary.TotalSuccess += success
		totalLatencyMs += avg * float64(count)
	}
	summary.TotalFailure = summary.TotalTransactions - summary.TotalSuccess
	if summary.TotalTransactions > 0 {
		summary.OverallSuccessRate = round2(float64(summary.TotalSuccess) * 100 / float64(summary.TotalTransactions))
		summary.AvgLatencyMs = round2(totalLatencyMs / float64(summary.TotalTransactions))
	}

	elapsedMs := r.elapsed().Milliseconds()
	summary.ElapsedSeconds = elapsedMs / 1000
	if elapsedMs > 0 {
		summary.TPS = round2(float64(summary.TotalTransactions) * 1000 / float64(elapsedMs))
	}
	return summary
}

// TakeSnapshot appends the current metrics, together with copies of db and os, to the history. Once the
// history holds HistoryCapacity snapshots the oldest is evicted.
func (r *Registry) TakeSnapshot(db map[string]any, os map[string]any) Snapshot {
	snapshot := Snapshot{
		Timestamp:    r.clock.Now().UnixMilli(),
		Transactions: r.CurrentMetrics(),
		Database:     copyMap(db),
		OS:           copyMap(os),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) >= HistoryCapacity {
		copy(r.history, r.history[1:])
		r.history[len(r.history)-1] = snapshot
	} else {
		r.history = append(r.history, snapshot)
	}
	return snapshot
}

// History returns the retained snapshots, oldest first.
func (r *Registry) History() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.history))
	copy(out, r.history)
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func nsToMs(ns int64) float64 {
	return float64(ns) / float64(time.Millisecond)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
