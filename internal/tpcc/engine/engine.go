// Package engine drives a benchmark through its lifecycle: connecting to the database, loading data, running
// terminals against it for a fixed duration and publishing metrics while it does so. Every state change, log
// line, load step and one-second metrics snapshot is also pushed as an Event for live observers.
package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"k8s.io/utils/clock"

	log "github.com/armadaproject/tpccbench/internal/common/logging"
	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
	"github.com/armadaproject/tpccbench/internal/tpcc/hostmetrics"
	"github.com/armadaproject/tpccbench/internal/tpcc/loader"
	"github.com/armadaproject/tpccbench/internal/tpcc/metrics"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

type Options struct {
	// Clock defaults to the real clock.
	Clock clock.WithTicker
	// Events receives engine events. Sends never block, so a slow consumer loses events.
	Events chan<- Event
	// Sink, if set, is fed every metrics snapshot.
	Sink *metrics.PrometheusSink
	// HostSampler reports on the machine running the benchmark. Defaults to a gopsutil sampler.
	HostSampler hostmetrics.Sampler
	// RemoteSampler, if set, is merged over the database's own view of its host.
	RemoteSampler hostmetrics.Sampler
	// Scale defaults to the full TPC-C cardinalities.
	Scale model.Scale
}

type Engine struct {
	clock         clock.WithTicker
	events        chan<- Event
	sink          *metrics.PrometheusSink
	hostSampler   hostmetrics.Sampler
	remoteSampler hostmetrics.Sampler
	scale         model.Scale
	registry      *metrics.Registry
	history       *logHistory
	log           *log.Logger

	running atomic.Bool
	loading atomic.Bool

	mu       sync.Mutex
	config   configuration.Config
	adapter  *dialect.Adapter
	status   Status
	runID    string
	run      *run
	loader   *loader.Loader
	// Set by a CancelLoad that arrives before the loader exists.
	cancelPending bool
	progress LoadProgress
}

func New(config configuration.Config, options Options) *Engine {
	if options.Clock == nil {
		options.Clock = clock.RealClock{}
	}
	if options.HostSampler == nil {
		options.HostSampler = hostmetrics.NewOSSampler(options.Clock)
	}
	if options.Scale == (model.Scale{}) {
		options.Scale = model.DefaultScale()
	}
	e := &Engine{
		clock:         options.Clock,
		events:        options.Events,
		sink:          options.Sink,
		hostSampler:   options.HostSampler,
		remoteSampler: options.RemoteSampler,
		scale:         options.Scale,
		registry:      metrics.NewRegistry(options.Clock),
		history:       &logHistory{},
		config:        config,
		status:        StatusIdle,
	}
	e.log = log.NewLogger(zapcore.NewTee(log.StdLogger().Core(), newEventCore(e.recordLog)))
	return e
}

func (e *Engine) recordLog(entry LogEntry) {
	e.history.add(entry)
	e.emit(EventLog, entry)
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

func (e *Engine) IsLoading() bool {
	return e.loading.Load()
}

func (e *Engine) Config() configuration.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// LoadProgress returns the most recent load progress report.
func (e *Engine) LoadProgress() LoadProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// LogHistory returns the most recent engine log lines, oldest first.
func (e *Engine) LogHistory() []LogEntry {
	return e.history.list()
}

func (e *Engine) ClearLogs() {
	e.history.clear()
}

func (e *Engine) setStatus(status Status) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
	e.emit(EventStatus, StatusChange{Status: status, Loading: e.loading.Load(), Running: e.running.Load()})
}

func (e *Engine) illegalState(operation, message string) error {
	return errors.WithStack(&tpccerrors.ErrIllegalState{
		Operation: operation,
		State:     string(e.Status()),
		Message:   message,
	})
}

// UpdateConfig merges a partial configuration into the current one. The database connection is closed so that
// the next operation reconnects with the new settings.
func (e *Engine) UpdateConfig(update map[string]any) error {
	if e.running.Load() || e.loading.Load() {
		return e.illegalState("update configuration", "cannot update configuration while a benchmark or load is in progress")
	}
	e.mu.Lock()
	updated, err := e.config.Apply(update)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.config = updated
	adapter := e.adapter
	e.adapter = nil
	e.mu.Unlock()

	if adapter != nil {
		if err := adapter.Close(); err != nil {
			e.log.WithError(err).Warn("Error closing database connection")
		}
	}
	e.log.Infof("Configuration updated: database=%s, warehouses=%d, terminals=%d, duration=%s",
		updated.Database.Type, updated.Benchmark.Warehouses, updated.Benchmark.Terminals, updated.Benchmark.Duration)
	e.setStatus(StatusIdle)
	return nil
}

// Initialize (re)connects to the configured database. It is rejected while a benchmark or load is using the
// current connection.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.running.Load() {
		return e.illegalState("initialize", "cannot reinitialize while a benchmark is running")
	}
	if e.loading.Load() {
		return e.illegalState("initialize", "cannot reinitialize while data is loading")
	}
	return e.initialize(ctx)
}

func (e *Engine) initialize(ctx context.Context) error {
	e.setStatus(StatusInitializing)
	e.mu.Lock()
	config := e.config.Database
	previous := e.adapter
	e.adapter = nil
	e.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
	e.log.Infof("Initializing %s database connection", config.Type)
	adapter, err := dialect.NewAdapter(config.Type, config.ConnectionConfig())
	if err == nil {
		err = adapter.Initialize(ctx)
	}
	if err != nil {
		e.log.WithError(err).Error("Failed to initialize database connection")
		e.setStatus(StatusError)
		return err
	}

	e.mu.Lock()
	e.adapter = adapter
	e.mu.Unlock()
	e.log.Infof("Connected to %s database", adapter.Family())
	e.setStatus(StatusInitialized)
	return nil
}

// connected returns a live adapter, initializing one if there is none or the existing one has gone away.
func (e *Engine) connected(ctx context.Context) (*dialect.Adapter, error) {
	e.mu.Lock()
	adapter := e.adapter
	e.mu.Unlock()
	if adapter != nil && adapter.DB().PingContext(ctx) == nil {
		return adapter, nil
	}
	if err := e.initialize(ctx); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.adapter, nil
}

// Shutdown stops any run or load in progress and releases the database connection.
func (e *Engine) Shutdown() {
	e.Stop()
	e.mu.Lock()
	l := e.loader
	adapter := e.adapter
	e.adapter = nil
	e.mu.Unlock()
	if l != nil && e.loading.Load() {
		l.Cancel()
	}
	if adapter != nil {
		if err := adapter.Close(); err != nil {
			e.log.WithError(err).Warn("Error closing database connection")
		}
	}
	e.log.Info("Benchmark engine shut down")
	e.setStatus(StatusShutdown)
}

type Results struct {
	Status       Status          `json:"status"`
	RunID        string          `json:"runId,omitempty"`
	DatabaseType string          `json:"databaseType"`
	Metrics      metrics.Summary `json:"metrics"`
}

// Results returns the metrics of the current or most recent run.
func (e *Engine) Results() Results {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Results{
		Status:       e.status,
		RunID:        e.runID,
		DatabaseType: e.config.Database.Type,
		Metrics:      e.registry.CurrentMetrics(),
	}
}

// MetricsHistory returns the per-second snapshots of the current or most recent run.
func (e *Engine) MetricsHistory() []metrics.Snapshot {
	return e.registry.History()
}
