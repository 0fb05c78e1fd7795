// Package testfixtures provides sqlite-backed databases, loaded at reduced scale, for package tests.
package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/armadaproject/tpccbench/internal/common/database"
	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
	"github.com/armadaproject/tpccbench/internal/tpcc/loader"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

const (
	Seed        = 42
	testTimeout = 10 * time.Minute
)

// SmallScale keeps the full shape of the dataset (delivered and pending orders, clustered surnames) while
// loading in well under a second.
var SmallScale = model.Scale{
	Items:                200,
	CustomersPerDistrict: 30,
	OrdersPerDistrict:    30,
}

// SqliteConnectionConfig is the connection configuration used for throwaway sqlite databases.
func SqliteConnectionConfig(dsn string, maxOpen int) dialect.ConnectionConfig {
	return dialect.ConnectionConfig{
		DSN:            dsn,
		Pool:           database.PoolConfig{MaxOpen: maxOpen, MaxIdle: maxOpen},
		AcquireTimeout: 10 * time.Second,
	}
}

// WithSqliteAdapter runs action against an initialised adapter over an empty sqlite database.
func WithSqliteAdapter(t *testing.T, action func(ctx context.Context, adapter *dialect.Adapter)) {
	t.Helper()
	err := database.WithTestSqliteDb(func(dsn string) error {
		adapter, err := dialect.NewAdapter("sqlite", SqliteConnectionConfig(dsn, 8))
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		require.NoError(t, adapter.Initialize(ctx))
		defer func() {
			_ = adapter.Close()
		}()
		action(ctx, adapter)
		return nil
	})
	require.NoError(t, err)
}

// Load creates the schema and loads the given number of warehouses at SmallScale.
func Load(ctx context.Context, t *testing.T, adapter *dialect.Adapter, warehouses int) {
	t.Helper()
	require.NoError(t, adapter.CreateSchema(ctx))
	l := loader.New(adapter, loader.Config{
		Warehouses:  warehouses,
		Concurrency: 2,
		Scale:       SmallScale,
		Seed:        Seed,
	})
	require.NoError(t, l.Load(ctx))
}

// WithLoadedSqlite runs action against a sqlite database holding warehouses warehouses at SmallScale.
func WithLoadedSqlite(t *testing.T, warehouses int, action func(ctx context.Context, adapter *dialect.Adapter)) {
	t.Helper()
	WithSqliteAdapter(t, func(ctx context.Context, adapter *dialect.Adapter) {
		Load(ctx, t, adapter, warehouses)
		action(ctx, adapter)
	})
}

// Count returns the number of rows in table.
func Count(ctx context.Context, t *testing.T, adapter *dialect.Adapter, table string, where string, args ...any) int {
	t.Helper()
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	require.NoError(t, adapter.DB().QueryRowContext(ctx, query, args...).Scan(&n))
	return n
}
