package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/common/util"
	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
	"github.com/armadaproject/tpccbench/internal/tpcc/hostmetrics"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/random"
	"github.com/armadaproject/tpccbench/internal/tpcc/transaction"
)

const (
	flushInterval = time.Second
	stopTimeout   = 5 * time.Second
	minThinkTime  = 50
	maxThinkTime  = 150
)

type run struct {
	cancel context.CancelFunc
	// done is closed once every terminal and the scheduler have returned.
	done chan struct{}
}

// Start launches the configured number of terminals and returns immediately. The run stops by itself once the
// configured duration has elapsed, or earlier through Stop. Starting while a run is in progress does nothing.
func (e *Engine) Start(ctx context.Context) error {
	if e.loading.Load() {
		return e.illegalState("start benchmark", "cannot start a benchmark while data is loading")
	}
	if e.running.Load() {
		e.log.Warn("Benchmark already running")
		return nil
	}
	adapter, err := e.connected(ctx)
	if err != nil {
		return err
	}
	hasData, err := adapter.HasData(ctx)
	if err != nil {
		return err
	}
	if !hasData {
		return errors.WithStack(&tpccerrors.ErrNoData{Message: "No TPC-C data found. Please load data first."})
	}
	config := e.Config()
	if config.Database.Pool.Size < config.Benchmark.Terminals {
		return errors.WithStack(&tpccerrors.ErrInvalidArgument{
			Name:    "database.pool.size",
			Value:   config.Database.Pool.Size,
			Message: "pool size must be at least the number of terminals",
		})
	}
	if !e.running.CompareAndSwap(false, true) {
		e.log.Warn("Benchmark already running")
		return nil
	}

	e.registry.Reset()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{cancel: cancel, done: make(chan struct{})}
	runID := util.NewULID()
	e.mu.Lock()
	e.runID = runID
	e.run = r
	e.mu.Unlock()

	b := config.Benchmark
	e.log.WithField("runId", runID).Infof(
		"Starting benchmark: %d terminals, %d warehouses, duration %s, ramp-up %s, think time %t",
		b.Terminals, b.Warehouses, b.Duration, b.RampUp, b.ThinkTime)
	m := config.TransactionMix
	e.log.Infof("Transaction mix: NewOrder=%d, Payment=%d, OrderStatus=%d, Delivery=%d, StockLevel=%d",
		m.NewOrder, m.Payment, m.OrderStatus, m.Delivery, m.StockLevel)
	e.setStatus(StatusRunning)

	seed := b.Seed
	if seed == 0 {
		seed = uint64(e.clock.Now().UnixNano())
	}
	dbHost := hostmetrics.Merge(hostmetrics.SamplerFunc(adapter.CollectHostMetrics), e.remoteSampler)

	var wg sync.WaitGroup
	for i := 0; i < b.Terminals; i++ {
		t := e.newTerminal(i, adapter, config, seed)
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.run(runCtx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.schedule(runCtx, config.Benchmark, adapter, dbHost)
	}()
	go func() {
		wg.Wait()
		close(r.done)
	}()
	return nil
}

// schedule flushes metrics every second, resets them when the ramp-up ends and stops the run once its duration
// has elapsed.
func (e *Engine) schedule(ctx context.Context, config configuration.BenchmarkConfig, adapter *dialect.Adapter, dbHost hostmetrics.Sampler) {
	ticker := e.clock.NewTicker(flushInterval)
	defer ticker.Stop()
	deadline := e.clock.NewTimer(config.Duration)
	defer deadline.Stop()

	var rampUp <-chan time.Time
	if config.RampUp > 0 {
		timer := e.clock.NewTimer(config.RampUp)
		defer timer.Stop()
		rampUp = timer.C()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			e.flush(ctx, adapter, dbHost)
		case <-rampUp:
			e.registry.Reset()
			e.log.Info("Ramp-up complete, measurement started")
			rampUp = nil
		case <-deadline.C():
			e.log.Info("Benchmark duration elapsed")
			// Stop waits for this goroutine, so it cannot be called inline.
			go e.Stop()
			return
		}
	}
}

func (e *Engine) flush(ctx context.Context, adapter *dialect.Adapter, dbHost hostmetrics.Sampler) {
	database := adapter.CollectDatabaseMetrics(ctx)
	os := e.hostSampler.Collect(ctx)
	snapshot := e.registry.TakeSnapshot(database, os)
	if e.sink != nil {
		e.sink.Publish(snapshot)
	}
	e.emit(EventMetrics, MetricsUpdate{
		Transaction: e.registry.CurrentMetrics(),
		Database:    database,
		OS:          os,
		DBHost:      dbHost.Collect(ctx),
		Status:      e.Status(),
	})
}

// Stop ends the current run. Terminals finish the transaction they are executing, whose result is discarded.
// Calling Stop when nothing is running does nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	r := e.run
	adapter := e.adapter
	e.run = nil
	e.mu.Unlock()
	if r == nil {
		return
	}

	e.log.Info("Stopping benchmark")
	e.setStatus(StatusStopping)
	r.cancel()
	select {
	case <-r.done:
	case <-e.clock.After(stopTimeout):
		e.log.Warnf("Terminals did not stop within %s", stopTimeout)
	}
	e.registry.MarkEnd()
	e.running.Store(false)

	if adapter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		e.flush(ctx, adapter, hostmetrics.Merge(hostmetrics.SamplerFunc(adapter.CollectHostMetrics), e.remoteSampler))
		cancel()
	}
	s := e.registry.CurrentMetrics()
	e.log.Infof("Final Results: TPS=%.2f, Total=%d, Success=%.2f%%, AvgLatency=%.2fms",
		s.TPS, s.TotalTransactions, s.OverallSuccessRate, s.AvgLatencyMs)
	e.setStatus(StatusStopped)
}

// terminal is one simulated user, bound to a home warehouse and district for the whole run.
type terminal struct {
	engine    *Engine
	source    transaction.ConnectionSource
	mix       mix
	rng       *random.Generator
	warehouse int
	district  int
	thinkTime bool
}

// newTerminal builds the i-th terminal of a run. Terminals are spread round-robin over warehouses and districts.
func (e *Engine) newTerminal(i int, source transaction.ConnectionSource, config configuration.Config, seed uint64) *terminal {
	return &terminal{
		engine:    e,
		source:    source,
		mix:       newMix(config.TransactionMix),
		rng:       random.New(seed + uint64(i)),
		warehouse: i%config.Benchmark.Warehouses + 1,
		district:  i%model.DistrictsPerWarehouse + 1,
		thinkTime: config.Benchmark.ThinkTime,
	}
}

func (t *terminal) run(ctx context.Context) {
	e := t.engine
	env := transaction.Env{
		Rng:     t.rng,
		Scale:   e.scale,
		Clock:   e.clock,
		OnError: t.onError,
	}
	// In-flight statements are allowed to finish after Stop.
	txCtx := context.WithoutCancel(ctx)
	for ctx.Err() == nil {
		typ := t.mix.pick(t.rng.Uniform())
		txn, err := transaction.New(typ, t.source, t.warehouse, t.district, env)
		if err != nil {
			e.log.WithError(err).Errorf("Terminal for warehouse %d district %d stopped", t.warehouse, t.district)
			return
		}
		start := e.clock.Now()
		ok := txn.Execute(txCtx)
		elapsed := e.clock.Since(start)
		if ctx.Err() != nil {
			return
		}
		e.registry.Record(typ, ok, elapsed)

		if t.thinkTime {
			pause := time.Duration(t.rng.Int(minThinkTime, maxThinkTime)) * time.Millisecond
			select {
			case <-ctx.Done():
				return
			case <-e.clock.After(pause):
			}
		}
	}
}

func (t *terminal) onError(typ model.TransactionType, err error) {
	t.engine.log.WithError(err).Warnf("%s transaction failed", typ)
}
