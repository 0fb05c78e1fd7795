package engine

import (
	"context"

	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/loader"
)

// LoadData drops and recreates the schema, then populates it. It returns once the load has finished.
func (e *Engine) LoadData(ctx context.Context) error {
	if err := e.beginLoad(); err != nil {
		return err
	}
	return e.load(ctx)
}

// LoadDataAsync is LoadData in the background. Progress is reported through LoadProgress and progress events;
// cancelling ctx does not stop the load, CancelLoad does.
func (e *Engine) LoadDataAsync(ctx context.Context) error {
	if err := e.beginLoad(); err != nil {
		return err
	}
	go func() {
		_ = e.load(context.WithoutCancel(ctx))
	}()
	return nil
}

func (e *Engine) beginLoad() error {
	if e.running.Load() {
		return e.illegalState("load data", "cannot load data while a benchmark is running")
	}
	if !e.loading.CompareAndSwap(false, true) {
		return e.illegalState("load data", "data loading already in progress")
	}
	e.mu.Lock()
	e.cancelPending = false
	e.mu.Unlock()
	return nil
}

// CancelLoad stops a load in progress at its next batch boundary. A load still dropping or creating the schema
// is cancelled as soon as it starts inserting rows.
func (e *Engine) CancelLoad() error {
	if !e.loading.Load() {
		return e.illegalState("cancel load", "no data loading in progress")
	}
	e.log.Info("Cancelling data load")
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loader == nil {
		e.cancelPending = true
		return nil
	}
	e.loader.Cancel()
	return nil
}

func (e *Engine) load(ctx context.Context) (err error) {
	defer func() {
		e.mu.Lock()
		e.loader = nil
		e.cancelPending = false
		e.mu.Unlock()
		e.loading.Store(false)
		if err == nil {
			e.reportProgress(100, "Data load completed", StatusLoaded)
			e.setStatus(StatusLoaded)
			return
		}
		status := StatusError
		if tpccerrors.IsCancelled(err) {
			status = StatusCancelled
			e.log.Warn("Data load cancelled")
		} else {
			e.log.WithError(err).Error("Data load failed")
		}
		e.reportProgress(-1, err.Error(), status)
		e.setStatus(status)
	}()

	adapter, err := e.connected(ctx)
	if err != nil {
		return err
	}
	config := e.Config()
	e.setStatus(StatusLoading)

	e.reportProgress(0, "Dropping existing schema", StatusLoading)
	if err := adapter.DropSchema(ctx); err != nil {
		return err
	}
	e.reportProgress(5, "Creating schema", StatusLoading)
	if err := adapter.CreateSchema(ctx); err != nil {
		return err
	}

	l := loader.New(adapter, loader.Config{
		Warehouses:  config.Benchmark.Warehouses,
		Concurrency: config.Benchmark.LoadConcurrency,
		Scale:       e.scale,
		Seed:        config.Benchmark.Seed,
		Clock:       e.clock,
		Logger:      e.log,
		Progress:    e.loaderProgress,
	})
	e.mu.Lock()
	e.loader = l
	if e.cancelPending {
		l.Cancel()
	}
	e.mu.Unlock()
	return l.Load(ctx)
}

func (e *Engine) loaderProgress(p loader.Progress) {
	switch p.Phase {
	case loader.PhaseStarted:
		e.reportProgress(5, p.Message, StatusLoading)
	case loader.PhaseItemBatch:
		e.reportProgress(5+p.LoadedItems*10/p.TotalItems, p.Message, StatusLoading)
	case loader.PhaseItems:
		e.reportProgress(15, p.Message, StatusLoading)
	case loader.PhaseWarehouse:
		e.reportProgress(15+p.CompletedWarehouses*80/p.TotalWarehouses, p.Message, StatusLoading)
	}
}

func (e *Engine) reportProgress(progress int, message string, status Status) {
	p := LoadProgress{Progress: progress, Message: message, Status: status}
	e.mu.Lock()
	e.progress = p
	e.mu.Unlock()
	e.emit(EventProgress, p)
}

// CleanData drops every benchmark table.
func (e *Engine) CleanData(ctx context.Context) error {
	if e.running.Load() || e.loading.Load() {
		return e.illegalState("clean data", "cannot clean data while a benchmark or load is in progress")
	}
	adapter, err := e.connected(ctx)
	if err != nil {
		return err
	}
	e.log.Info("Cleaning benchmark data")
	if err := adapter.DropSchema(ctx); err != nil {
		e.log.WithError(err).Error("Failed to clean benchmark data")
		return err
	}
	e.log.Info("Benchmark data cleaned")
	e.setStatus(StatusInitialized)
	return nil
}
