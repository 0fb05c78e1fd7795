package dialect

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/tpccbench/internal/common/database"
	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

func withSqliteAdapter(t *testing.T, action func(ctx context.Context, adapter *Adapter)) {
	err := database.WithTestSqliteDb(func(dsn string) error {
		adapter, err := NewAdapter("sqlite", ConnectionConfig{
			DSN:  dsn,
			Pool: database.PoolConfig{MaxOpen: 4, MaxIdle: 2},
		})
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		require.NoError(t, adapter.Initialize(ctx))
		defer adapter.Close()
		action(ctx, adapter)
		return nil
	})
	require.NoError(t, err)
}

func TestAdapter_SchemaLifecycle(t *testing.T) {
	withSqliteAdapter(t, func(ctx context.Context, adapter *Adapter) {
		assert.Equal(t, querybuilder.SQLite, adapter.Family())
		assert.False(t, adapter.Capabilities().SupportsRowLocking)

		// Dropping a schema that was never created is not an error.
		require.NoError(t, adapter.DropSchema(ctx))

		hasData, err := adapter.HasData(ctx)
		require.NoError(t, err)
		assert.False(t, hasData)

		require.NoError(t, adapter.CreateSchema(ctx))
		require.NoError(t, adapter.CreateSchema(ctx))

		hasData, err = adapter.HasData(ctx)
		require.NoError(t, err)
		assert.False(t, hasData)

		_, err = adapter.DB().ExecContext(ctx, "INSERT INTO warehouse (w_id, w_name) VALUES (1, 'w1')")
		require.NoError(t, err)

		hasData, err = adapter.HasData(ctx)
		require.NoError(t, err)
		assert.True(t, hasData)

		var journalMode string
		require.NoError(t, adapter.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, "wal", journalMode)

		metrics := adapter.CollectDatabaseMetrics(ctx)
		assert.Greater(t, metrics["page_count"], int64(0))
		assert.Empty(t, adapter.CollectHostMetrics(ctx))

		require.NoError(t, adapter.DropSchema(ctx))
		require.NoError(t, adapter.DropSchema(ctx))
		hasData, err = adapter.HasData(ctx)
		require.NoError(t, err)
		assert.False(t, hasData)
	})
}

func TestAdapter_AcquireConnection(t *testing.T) {
	withSqliteAdapter(t, func(ctx context.Context, adapter *Adapter) {
		conn, err := adapter.AcquireConnection(ctx)
		require.NoError(t, err)
		require.NoError(t, conn.PingContext(ctx))
		require.NoError(t, conn.Close())
	})
}

func TestAdapter_AcquireConnection_Exhausted(t *testing.T) {
	err := database.WithTestSqliteDb(func(dsn string) error {
		adapter, err := NewAdapter("sqlite", ConnectionConfig{
			DSN:            dsn,
			Pool:           database.PoolConfig{MaxOpen: 1},
			AcquireTimeout: 50 * time.Millisecond,
		})
		require.NoError(t, err)
		require.NoError(t, adapter.Initialize(context.Background()))
		defer adapter.Close()

		held, err := adapter.AcquireConnection(context.Background())
		require.NoError(t, err)
		defer held.Close()

		_, err = adapter.AcquireConnection(context.Background())
		var connErr *tpccerrors.ErrConnectivity
		assert.True(t, errors.As(err, &connErr))
		return nil
	})
	require.NoError(t, err)
}

func TestAdapter_NotInitialized(t *testing.T) {
	adapter, err := NewAdapter("postgresql", ConnectionConfig{})
	require.NoError(t, err)

	_, err = adapter.AcquireConnection(context.Background())
	var connErr *tpccerrors.ErrConnectivity
	assert.True(t, errors.As(err, &connErr))
	assert.Empty(t, adapter.CollectDatabaseMetrics(context.Background()))
	assert.NoError(t, adapter.Close())
}

func TestAdapter_UnregisteredDriver(t *testing.T) {
	adapter, err := NewAdapter("oracle", ConnectionConfig{DSN: "oracle://localhost:1521/tpcc"})
	require.NoError(t, err)

	err = adapter.Initialize(context.Background())
	var connErr *tpccerrors.ErrConnectivity
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "oracle", connErr.Target)
	assert.Contains(t, err.Error(), `sql driver "oracle" is not registered`)
}

func TestAdapter_UnknownType(t *testing.T) {
	_, err := NewAdapter("nosuchdb", ConnectionConfig{})
	var invalid *tpccerrors.ErrInvalidArgument
	assert.True(t, errors.As(err, &invalid))
}

func TestAdapter_QueriesFollowDialect(t *testing.T) {
	adapter, err := NewAdapter("postgres", ConnectionConfig{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM t WHERE a = $1", adapter.Queries().Rebind("SELECT 1 FROM t WHERE a = ?"))
}
