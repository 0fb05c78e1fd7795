// Package loader populates an empty TPC-C schema. Items are loaded first; warehouses, with everything that
// hangs off them, are then loaded concurrently.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	log "github.com/armadaproject/tpccbench/internal/common/logging"
	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
	"github.com/armadaproject/tpccbench/internal/tpcc/random"
)

// Target is the database being loaded. *dialect.Adapter implements it.
type Target interface {
	DB() *sql.DB
	Definition() dialect.Definition
	Queries() querybuilder.Builder
}

type Phase int

const (
	PhaseStarted Phase = iota
	PhaseItemBatch
	PhaseItems
	PhaseWarehouse
	PhaseDone
)

// Progress is reported after each step of a load. LoadedItems only advances in PhaseItemBatch and
// CompletedWarehouses only in PhaseWarehouse.
type Progress struct {
	Phase               Phase
	Message             string
	LoadedItems         int
	TotalItems          int
	CompletedWarehouses int
	TotalWarehouses     int
}

type Config struct {
	Warehouses  int
	Concurrency int
	Scale       model.Scale
	// Seed makes a load reproducible. Each warehouse derives its own generator from it.
	Seed     uint64
	Clock    clock.PassiveClock
	Logger   *log.Logger
	Progress func(Progress)
}

type Loader struct {
	target      Target
	config      Config
	concurrency int
	writer      *batchWriter
	cancelled   atomic.Bool
	completed   atomic.Int32
}

func New(target Target, config Config) *Loader {
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.Logger == nil {
		config.Logger = log.StdLogger()
	}
	if config.Scale == (model.Scale{}) {
		config.Scale = model.DefaultScale()
	}
	concurrency := config.Concurrency
	if concurrency > config.Warehouses {
		concurrency = config.Warehouses
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		target:      target,
		config:      config,
		concurrency: concurrency,
		writer: &batchWriter{
			db:         target.DB(),
			definition: target.Definition(),
			queries:    target.Queries(),
			log:        config.Logger,
		},
	}
}

// Concurrency is the number of warehouses loaded at once.
func (l *Loader) Concurrency() int {
	return l.concurrency
}

// Cancel asks a running Load to stop at the next batch boundary. Load then returns ErrCancelled.
func (l *Loader) Cancel() {
	l.cancelled.Store(true)
}

func (l *Loader) checkCancelled() error {
	if l.cancelled.Load() {
		return errors.WithStack(&tpccerrors.ErrCancelled{Operation: "data load"})
	}
	return nil
}

func (l *Loader) report(p Progress) {
	p.TotalItems = l.config.Scale.Items
	p.TotalWarehouses = l.config.Warehouses
	l.config.Logger.Info(p.Message)
	if l.config.Progress != nil {
		l.config.Progress(p)
	}
}

func (l *Loader) Load(ctx context.Context) error {
	start := l.config.Clock.Now()
	l.completed.Store(0)
	l.report(Progress{
		Phase: PhaseStarted,
		Message: fmt.Sprintf("Starting TPC-C data load for %d warehouse(s) with %d concurrent workers",
			l.config.Warehouses, l.concurrency),
	})

	if err := l.loadItems(ctx); err != nil {
		return err
	}
	l.report(Progress{Phase: PhaseItems, Message: fmt.Sprintf("Items loaded: %d", l.config.Scale.Items)})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for w := 1; w <= l.config.Warehouses; w++ {
		w := w
		if err := l.checkCancelled(); err != nil {
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			if err := l.loadWarehouse(ctx, w); err != nil {
				if !tpccerrors.IsCancelled(err) {
					l.config.Logger.WithError(err).Errorf("Failed to load warehouse %d", w)
				}
				return err
			}
			completed := int(l.completed.Add(1))
			l.report(Progress{
				Phase:               PhaseWarehouse,
				Message:             fmt.Sprintf("Warehouse %d completed (%d/%d)", w, completed, l.config.Warehouses),
				CompletedWarehouses: completed,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := l.config.Clock.Since(start).Truncate(time.Second)
	l.report(Progress{
		Phase:               PhaseDone,
		Message:             fmt.Sprintf("Data load completed in %s", elapsed),
		CompletedWarehouses: l.config.Warehouses,
	})
	return nil
}

func (l *Loader) rng(stream int) *random.Generator {
	seed := l.config.Seed
	if seed == 0 {
		seed = uint64(l.config.Clock.Now().UnixNano())
	}
	return random.New(seed + uint64(stream))
}

func (l *Loader) loadItems(ctx context.Context) error {
	l.config.Logger.Info("Loading items")
	rng := l.rng(0)
	batchSize := l.writer.definition.ItemBatchSize
	batch := make([][]any, 0, batchSize)
	for i := 1; i <= l.config.Scale.Items; i++ {
		batch = append(batch, itemRow(rng, i))
		if len(batch) == batchSize || i == l.config.Scale.Items {
			if err := l.checkCancelled(); err != nil {
				return err
			}
			if err := l.writer.write(ctx, itemTable, batch); err != nil {
				return err
			}
			l.report(Progress{Phase: PhaseItemBatch, Message: fmt.Sprintf("Loaded %d items", i), LoadedItems: i})
			batch = batch[:0]
		}
	}
	return nil
}

func (l *Loader) loadWarehouse(ctx context.Context, w int) error {
	rng := l.rng(w)
	now := l.config.Clock.Now()
	scale := l.config.Scale

	if err := l.writer.write(ctx, warehouseTable, [][]any{warehouseRow(rng, w)}); err != nil {
		return err
	}
	districts := make([][]any, 0, model.DistrictsPerWarehouse)
	for d := 1; d <= model.DistrictsPerWarehouse; d++ {
		districts = append(districts, districtRow(rng, w, d, scale))
	}
	if err := l.writer.write(ctx, districtTable, districts); err != nil {
		return err
	}

	if err := l.loadCustomers(ctx, rng, w, now); err != nil {
		return err
	}
	if err := l.loadStock(ctx, rng, w); err != nil {
		return err
	}
	return l.loadOrders(ctx, rng, w, now)
}

func (l *Loader) loadCustomers(ctx context.Context, rng *random.Generator, w int, now time.Time) error {
	scale := l.config.Scale
	batchSize := l.writer.definition.CustomerBatchSize
	customers := make([][]any, 0, batchSize)
	history := make([][]any, 0, batchSize)
	flush := func() error {
		if err := l.checkCancelled(); err != nil {
			return err
		}
		if err := l.writer.write(ctx, customerTable, customers); err != nil {
			return err
		}
		if err := l.writer.write(ctx, historyTable, history); err != nil {
			return err
		}
		customers, history = customers[:0], history[:0]
		return nil
	}

	for d := 1; d <= model.DistrictsPerWarehouse; d++ {
		for c := 1; c <= scale.CustomersPerDistrict; c++ {
			customers = append(customers, customerRow(rng, w, d, c, scale, now))
			history = append(history, historyRow(rng, w, d, c, now))
			if len(customers) == batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func (l *Loader) loadStock(ctx context.Context, rng *random.Generator, w int) error {
	batchSize := l.writer.definition.ItemBatchSize
	batch := make([][]any, 0, batchSize)
	for i := 1; i <= l.config.Scale.Items; i++ {
		batch = append(batch, stockRow(rng, w, i))
		if len(batch) == batchSize || i == l.config.Scale.Items {
			if err := l.checkCancelled(); err != nil {
				return err
			}
			if err := l.writer.write(ctx, stockTable, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return nil
}

func (l *Loader) loadOrders(ctx context.Context, rng *random.Generator, w int, now time.Time) error {
	scale := l.config.Scale
	batchSize := l.writer.definition.CustomerBatchSize
	var orders, newOrders, lines [][]any
	flush := func() error {
		if err := l.checkCancelled(); err != nil {
			return err
		}
		if err := l.writer.write(ctx, orderTable, orders); err != nil {
			return err
		}
		if err := l.writer.write(ctx, newOrderTable, newOrders); err != nil {
			return err
		}
		if err := l.writer.write(ctx, orderLineTable, lines); err != nil {
			return err
		}
		orders, newOrders, lines = orders[:0], newOrders[:0], lines[:0]
		return nil
	}

	customerIDs := make([]int, scale.CustomersPerDistrict)
	for d := 1; d <= model.DistrictsPerWarehouse; d++ {
		for i := range customerIDs {
			customerIDs[i] = i + 1
		}
		rng.Shuffle(customerIDs)
		for o := 1; o <= scale.OrdersPerDistrict; o++ {
			order, newOrder, orderLines := orderRows(rng, w, d, o, customerIDs[(o-1)%len(customerIDs)], scale, now)
			orders = append(orders, order)
			if newOrder != nil {
				newOrders = append(newOrders, newOrder)
			}
			lines = append(lines, orderLines...)
			if len(orders) == batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}
