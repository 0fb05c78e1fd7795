package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/tpccbench/internal/common/database"
	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/hostmetrics"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/testfixtures"
)

var noHostMetrics = hostmetrics.SamplerFunc(func(ctx context.Context) map[string]any {
	return map[string]any{"cpuUsage": 12.5}
})

// recorder drains an engine's event channel.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func newRecorder() (*recorder, chan Event) {
	r := &recorder{}
	ch := make(chan Event, 4096)
	go func() {
		for event := range ch {
			r.mu.Lock()
			r.events = append(r.events, event)
			r.mu.Unlock()
		}
	}()
	return r, ch
}

func (r *recorder) ofType(eventType EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func (r *recorder) statuses() []Status {
	var out []Status
	for _, event := range r.ofType(EventStatus) {
		out = append(out, event.Payload.(StatusChange).Status)
	}
	return out
}

func testConfig(dsn string) configuration.Config {
	config := configuration.Default()
	config.Database = configuration.DatabaseConfig{
		Type: "sqlite",
		DSN:  dsn,
		Pool: configuration.PoolConfig{Size: 8, MinIdle: 2, AcquireTimeout: 10 * time.Second},
	}
	config.Benchmark = configuration.BenchmarkConfig{
		Warehouses:      1,
		Terminals:       2,
		Duration:        2 * time.Second,
		LoadConcurrency: 1,
		Seed:            testfixtures.Seed,
	}
	return config
}

func withEngine(t *testing.T, mutate func(*configuration.Config), action func(ctx context.Context, e *Engine, events *recorder)) {
	t.Helper()
	err := database.WithTestSqliteDb(func(dsn string) error {
		config := testConfig(dsn)
		if mutate != nil {
			mutate(&config)
		}
		events, ch := newRecorder()
		e := New(config, Options{Events: ch, HostSampler: noHostMetrics, Scale: testfixtures.SmallScale})
		defer e.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		action(ctx, e, events)
		return nil
	})
	require.NoError(t, err)
}

func hasLog(e *Engine, prefix string) bool {
	for _, entry := range e.LogHistory() {
		if strings.HasPrefix(entry.Message, prefix) {
			return true
		}
	}
	return false
}

func TestInitialize(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, events *recorder) {
		assert.Equal(t, StatusIdle, e.Status())
		require.NoError(t, e.Initialize(ctx))
		assert.Equal(t, StatusInitialized, e.Status())
		assert.Eventually(t, func() bool {
			s := events.statuses()
			return len(s) == 2 && s[0] == StatusInitializing && s[1] == StatusInitialized
		}, time.Second, 10*time.Millisecond)
	})
}

func TestInitialize_UnknownDatabase(t *testing.T) {
	withEngine(t, func(c *configuration.Config) { c.Database.Type = "informix" }, func(ctx context.Context, e *Engine, _ *recorder) {
		err := e.Initialize(ctx)
		require.Error(t, err)
		assert.Equal(t, StatusError, e.Status())
	})
}

func TestStart_WithoutData(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, _ *recorder) {
		err := e.Start(ctx)
		assert.True(t, tpccerrors.IsNoData(err), "expected no data error, got %v", err)
		assert.False(t, e.IsRunning())
	})
}

func TestStart_PoolSmallerThanTerminals(t *testing.T) {
	withEngine(t, func(c *configuration.Config) { c.Database.Pool.Size = 1 }, func(ctx context.Context, e *Engine, _ *recorder) {
		require.NoError(t, e.LoadData(ctx))
		err := e.Start(ctx)
		var invalid *tpccerrors.ErrInvalidArgument
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "database.pool.size", invalid.Name)
		assert.False(t, e.IsRunning())
	})
}

func TestLoadData(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, events *recorder) {
		require.NoError(t, e.LoadData(ctx))
		assert.Equal(t, StatusLoaded, e.Status())
		assert.False(t, e.IsLoading())
		assert.Equal(t, LoadProgress{Progress: 100, Message: "Data load completed", Status: StatusLoaded}, e.LoadProgress())
		assert.True(t, hasLog(e, "Loaded 200 items"))
		assert.True(t, hasLog(e, "Items loaded: 200"))
		assert.True(t, hasLog(e, "Warehouse 1 completed (1/1)"))

		assert.Eventually(t, func() bool {
			var seen []int
			for _, event := range events.ofType(EventProgress) {
				seen = append(seen, event.Payload.(LoadProgress).Progress)
			}
			return assert.ObjectsAreEqual([]int{0, 5, 5, 15, 15, 95, 100}, seen)
		}, time.Second, 10*time.Millisecond)
	})
}

func TestLoadDataAsync(t *testing.T) {
	withEngine(t, func(c *configuration.Config) { c.Benchmark.Warehouses = 2 }, func(ctx context.Context, e *Engine, _ *recorder) {
		require.NoError(t, e.LoadDataAsync(ctx))
		assert.Eventually(t, func() bool {
			return e.Status() == StatusLoaded
		}, 30*time.Second, 20*time.Millisecond)
		assert.Equal(t, 100, e.LoadProgress().Progress)
		assert.True(t, hasLog(e, "Warehouse 2 completed"))
	})
}

func TestCancelLoad_NothingLoading(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, _ *recorder) {
		err := e.CancelLoad()
		assert.True(t, tpccerrors.IsIllegalState(err), "expected illegal state, got %v", err)
	})
}

func TestCancelLoad_BeforeRowsAreInserted(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, _ *recorder) {
		require.NoError(t, e.beginLoad())
		assert.True(t, e.IsLoading())
		assert.True(t, tpccerrors.IsIllegalState(e.Initialize(ctx)))
		require.NoError(t, e.CancelLoad())

		err := e.load(ctx)
		assert.True(t, tpccerrors.IsCancelled(err), "expected cancellation, got %v", err)
		assert.Equal(t, StatusCancelled, e.Status())
		assert.Equal(t, -1, e.LoadProgress().Progress)
		assert.False(t, e.IsLoading())

		// The cancellation does not leak into the next load.
		require.NoError(t, e.LoadData(ctx))
		assert.Equal(t, StatusLoaded, e.Status())
	})
}

func TestCleanData(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, _ *recorder) {
		require.NoError(t, e.LoadData(ctx))
		require.NoError(t, e.CleanData(ctx))
		assert.Equal(t, StatusInitialized, e.Status())

		err := e.Start(ctx)
		assert.True(t, tpccerrors.IsNoData(err), "expected no data error, got %v", err)
	})
}

func TestUpdateConfig(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, _ *recorder) {
		require.NoError(t, e.Initialize(ctx))
		require.NoError(t, e.UpdateConfig(map[string]any{
			"benchmark": map[string]any{"terminals": 4, "duration": 30},
		}))
		assert.Equal(t, StatusIdle, e.Status())
		assert.Equal(t, 4, e.Config().Benchmark.Terminals)
		assert.Equal(t, 30*time.Second, e.Config().Benchmark.Duration)

		err := e.UpdateConfig(map[string]any{"benchmark": map[string]any{"terminals": 0}})
		var invalid *tpccerrors.ErrInvalidArgument
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 4, e.Config().Benchmark.Terminals)

		// The closed connection is reopened on demand.
		require.NoError(t, e.LoadData(ctx))
	})
}

func TestStop_NotRunning(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, _ *recorder) {
		e.Stop()
		assert.Equal(t, StatusIdle, e.Status())
		assert.False(t, hasLog(e, "Final Results"))
	})
}

func TestRun(t *testing.T) {
	withEngine(t, nil, func(ctx context.Context, e *Engine, events *recorder) {
		require.NoError(t, e.LoadData(ctx))
		require.NoError(t, e.Start(ctx))
		assert.True(t, e.IsRunning())
		assert.Equal(t, StatusRunning, e.Status())

		require.NoError(t, e.Start(ctx))
		assert.True(t, hasLog(e, "Benchmark already running"))

		err := e.UpdateConfig(map[string]any{"benchmark": map[string]any{"terminals": 1}})
		assert.True(t, tpccerrors.IsIllegalState(err), "expected illegal state, got %v", err)
		assert.True(t, tpccerrors.IsIllegalState(e.LoadData(ctx)))
		assert.True(t, tpccerrors.IsIllegalState(e.CleanData(ctx)))
		assert.True(t, tpccerrors.IsIllegalState(e.Initialize(ctx)))
		assert.Equal(t, StatusRunning, e.Status())

		require.Eventually(t, func() bool {
			return e.Status() == StatusStopped
		}, 30*time.Second, 50*time.Millisecond)
		assert.False(t, e.IsRunning())

		results := e.Results()
		assert.Equal(t, StatusStopped, results.Status)
		assert.Equal(t, "sqlite", results.DatabaseType)
		assert.NotEmpty(t, results.RunID)
		assert.Positive(t, results.Metrics.TotalTransactions)
		assert.Equal(t, results.Metrics.TotalTransactions, results.Metrics.TotalSuccess+results.Metrics.TotalFailure)
		assert.True(t, hasLog(e, "Final Results: TPS="))
		assert.NotEmpty(t, e.MetricsHistory())

		assert.Eventually(t, func() bool {
			updates := events.ofType(EventMetrics)
			if len(updates) == 0 {
				return false
			}
			last := updates[len(updates)-1].Payload.(MetricsUpdate)
			return last.OS["cpuUsage"] == 12.5 && last.Database != nil
		}, time.Second, 10*time.Millisecond)
		assert.Contains(t, events.statuses(), StatusStopping)

		// A finished run can be followed by another.
		require.NoError(t, e.Start(ctx))
		e.Stop()
		assert.Equal(t, StatusStopped, e.Status())
		assert.NotEqual(t, results.RunID, e.Results().RunID)
	})
}

func TestNewTerminal_RoundRobin(t *testing.T) {
	config := testConfig("unused")
	config.Benchmark.Warehouses = 3
	config.Benchmark.Terminals = 12
	config.Benchmark.ThinkTime = true
	e := New(config, Options{HostSampler: noHostMetrics, Scale: testfixtures.SmallScale})

	var warehouses, districts []int
	for i := 0; i < config.Benchmark.Terminals; i++ {
		terminal := e.newTerminal(i, nil, config, testfixtures.Seed)
		warehouses = append(warehouses, terminal.warehouse)
		districts = append(districts, terminal.district)
		assert.True(t, terminal.thinkTime)
	}
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2, 3}, warehouses)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 1, 2}, districts)
}

func TestRun_ThinkTime(t *testing.T) {
	mutate := func(c *configuration.Config) {
		c.Benchmark.ThinkTime = true
		c.Benchmark.Duration = time.Second
	}
	withEngine(t, mutate, func(ctx context.Context, e *Engine, _ *recorder) {
		require.NoError(t, e.LoadData(ctx))
		require.NoError(t, e.Start(ctx))
		require.Eventually(t, func() bool {
			return e.Status() == StatusStopped
		}, 30*time.Second, 50*time.Millisecond)

		// Each terminal pauses at least 50ms after every transaction.
		terminals := e.Config().Benchmark.Terminals
		total := e.Results().Metrics.TotalTransactions
		assert.Positive(t, total)
		assert.LessOrEqual(t, total, int64(terminals*(int(time.Second/(minThinkTime*time.Millisecond))+1)))
		assert.True(t, hasLog(e, "Starting benchmark: 2 terminals, 1 warehouses, duration 1s, ramp-up 0s, think time true"))
	})
}

func TestRun_OnlyConfiguredTypes(t *testing.T) {
	mutate := func(c *configuration.Config) {
		c.TransactionMix = configuration.MixConfig{OrderStatus: 1, StockLevel: 1}
		c.Benchmark.Duration = time.Second
	}
	withEngine(t, mutate, func(ctx context.Context, e *Engine, _ *recorder) {
		require.NoError(t, e.LoadData(ctx))
		require.NoError(t, e.Start(ctx))
		require.Eventually(t, func() bool {
			return e.Status() == StatusStopped
		}, 30*time.Second, 50*time.Millisecond)

		for _, row := range e.Results().Metrics.Transactions {
			assert.Contains(t, []model.TransactionType{model.OrderStatus, model.StockLevel}, row.Name)
		}
	})
}
