package dialect

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDatabaseProbes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM pg_stat_database WHERE datname = current_database()")).
		WillReturnRows(sqlmock.NewRows([]string{
			"numbackends", "xact_commit", "xact_rollback", "blks_read", "blks_hit",
			"tup_returned", "tup_fetched", "tup_inserted", "tup_updated", "tup_deleted",
		}).AddRow(12, 1000, 10, 25, 75, 500, 400, 300, 200, 100))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM pg_locks WHERE NOT granted")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	metrics := runProbes(context.Background(), db, postgresDatabaseProbes, nil)

	assert.Equal(t, int64(12), metrics["active_connections"])
	assert.Equal(t, int64(1000), metrics["commits"])
	assert.Equal(t, 75.0, metrics["cache_hit_ratio"])
	assert.Equal(t, int64(3), metrics["waiting_locks"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLDatabaseProbes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SHOW GLOBAL STATUS LIKE 'Innodb%'")).
		WillReturnRows(sqlmock.NewRows([]string{"Variable_name", "Value"}).
			AddRow("Innodb_buffer_pool_read_requests", "1000").
			AddRow("Innodb_buffer_pool_reads", "50").
			AddRow("Innodb_row_lock_waits", "7").
			AddRow("Innodb_page_size", "16384"))
	mock.ExpectQuery(regexp.QuoteMeta("SHOW GLOBAL STATUS WHERE Variable_name IN")).
		WillReturnRows(sqlmock.NewRows([]string{"Variable_name", "Value"}).
			AddRow("Threads_connected", "42").
			AddRow("Queries", "not-a-number"))

	metrics := runProbes(context.Background(), db, mysqlDatabaseProbes, nil)

	assert.Equal(t, int64(1000), metrics["buffer_pool_reads"])
	assert.Equal(t, int64(50), metrics["buffer_pool_read_misses"])
	assert.Equal(t, int64(7), metrics["row_lock_waits"])
	assert.Equal(t, int64(42), metrics["active_connections"])
	assert.Equal(t, 95.0, metrics["buffer_pool_hit_ratio"])
	assert.NotContains(t, metrics, "total_queries")
	assert.NotContains(t, metrics, "Innodb_page_size")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProbes_FailureIsSkipped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM SYSIBMADM.APPLICATIONS WHERE APPL_STATUS")).
		WillReturnError(errors.New("SQL0551N insufficient authority"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM SYSIBMADM.APPLICATIONS")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))
	mock.ExpectQuery(regexp.QuoteMeta("FROM TABLE(MON_GET_DATABASE(-2))")).
		WillReturnRows(sqlmock.NewRows([]string{"LOCK_WAITS", "LOCK_WAIT_TIME", "ROWS_READ", "ROWS_INSERTED", "ROWS_UPDATED", "ROWS_DELETED"}).
			AddRow(4, 5000, 10, 20, 30, 40))

	var failed []string
	metrics := runProbes(context.Background(), db, db2DatabaseProbes, func(probe string, err error) {
		failed = append(failed, probe)
	})

	assert.Equal(t, []string{"active_connections"}, failed)
	assert.NotContains(t, metrics, "active_connections")
	assert.Equal(t, int64(9), metrics["total_connections"])
	assert.Equal(t, int64(5), metrics["lock_wait_time_ms"])
	assert.Equal(t, int64(40), metrics["rows_deleted"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteDatabaseProbes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("PRAGMA page_count").WillReturnRows(sqlmock.NewRows([]string{"page_count"}).AddRow(10))
	mock.ExpectQuery("PRAGMA page_size").WillReturnRows(sqlmock.NewRows([]string{"page_size"}).AddRow(4096))
	mock.ExpectQuery("PRAGMA freelist_count").WillReturnRows(sqlmock.NewRows([]string{"freelist_count"}).AddRow(0))

	metrics := runProbes(context.Background(), db, sqliteDatabaseProbes, nil)

	assert.Equal(t, int64(40960), metrics["database_size_bytes"])
	assert.Equal(t, int64(0), metrics["freelist_count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
