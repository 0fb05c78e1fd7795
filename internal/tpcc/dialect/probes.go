package dialect

import (
	"context"
	"database/sql"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Querier is the subset of *sql.DB used by metrics probes.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Probe adds whatever metrics it can read to metrics. A failing probe never prevents the others from running.
type Probe struct {
	Name    string
	Collect func(ctx context.Context, q Querier, metrics map[string]any) error
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func hitRatio(hits, total int64) float64 {
	return round2(float64(hits) / float64(total) * 100)
}

// singleValue runs a query returning one integer and stores it under key.
func singleValue(name, key, query string) Probe {
	return Probe{
		Name: name,
		Collect: func(ctx context.Context, q Querier, metrics map[string]any) error {
			var v sql.NullInt64
			if err := q.QueryRowContext(ctx, query).Scan(&v); err != nil {
				return errors.WithStack(err)
			}
			if v.Valid {
				metrics[key] = v.Int64
			}
			return nil
		},
	}
}

// nameValueRows runs a query returning (name, value) rows and stores the values of the names present in keys.
func nameValueRows(name, query string, keys map[string]string) Probe {
	return Probe{
		Name: name,
		Collect: func(ctx context.Context, q Querier, metrics map[string]any) error {
			rows, err := q.QueryContext(ctx, query)
			if err != nil {
				return errors.WithStack(err)
			}
			defer rows.Close()
			for rows.Next() {
				var variable, value string
				if err := rows.Scan(&variable, &value); err != nil {
					return errors.WithStack(err)
				}
				key, ok := keys[variable]
				if !ok {
					continue
				}
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					metrics[key] = n
				}
			}
			return errors.WithStack(rows.Err())
		},
	}
}

var postgresDatabaseProbes = []Probe{
	{
		Name: "pg_stat_database",
		Collect: func(ctx context.Context, q Querier, metrics map[string]any) error {
			var connections, commits, rollbacks, blocksRead, blocksHit, returned, fetched, inserted, updated, deleted int64
			err := q.QueryRowContext(ctx, `SELECT numbackends, xact_commit, xact_rollback, blks_read, blks_hit,
				tup_returned, tup_fetched, tup_inserted, tup_updated, tup_deleted
				FROM pg_stat_database WHERE datname = current_database()`).
				Scan(&connections, &commits, &rollbacks, &blocksRead, &blocksHit, &returned, &fetched, &inserted, &updated, &deleted)
			if err != nil {
				return errors.WithStack(err)
			}
			metrics["active_connections"] = connections
			metrics["commits"] = commits
			metrics["rollbacks"] = rollbacks
			metrics["blocks_read"] = blocksRead
			metrics["blocks_hit"] = blocksHit
			metrics["rows_returned"] = returned
			metrics["rows_fetched"] = fetched
			metrics["rows_inserted"] = inserted
			metrics["rows_updated"] = updated
			metrics["rows_deleted"] = deleted
			if blocksHit+blocksRead > 0 {
				metrics["cache_hit_ratio"] = hitRatio(blocksHit, blocksHit+blocksRead)
			}
			return nil
		},
	},
	singleValue("pg_locks", "waiting_locks", "SELECT count(*) FROM pg_locks WHERE NOT granted"),
}

var postgresHostProbes = []Probe{
	singleValue("disk_read_bytes", "diskReadBytes",
		"SELECT blks_read * 8192 FROM pg_stat_database WHERE datname = current_database()"),
	{
		Name: "pg_stat_activity",
		Collect: func(ctx context.Context, q Querier, metrics map[string]any) error {
			var active, total, waiting int64
			err := q.QueryRowContext(ctx, `SELECT
				COUNT(*) FILTER (WHERE state = 'active'),
				COUNT(*),
				COUNT(*) FILTER (WHERE wait_event_type IS NOT NULL)
				FROM pg_stat_activity WHERE backend_type = 'client backend'`).Scan(&active, &total, &waiting)
			if err != nil {
				return errors.WithStack(err)
			}
			metrics["activeQueries"] = active
			metrics["totalConnections"] = total
			metrics["waitingQueries"] = waiting
			return nil
		},
	},
}

var mysqlDatabaseProbes = []Probe{
	nameValueRows("innodb_status", "SHOW GLOBAL STATUS LIKE 'Innodb%'", map[string]string{
		"Innodb_buffer_pool_read_requests": "buffer_pool_reads",
		"Innodb_buffer_pool_reads":         "buffer_pool_read_misses",
		"Innodb_row_lock_waits":            "row_lock_waits",
		"Innodb_row_lock_time":             "row_lock_time_ms",
		"Innodb_rows_read":                 "rows_read",
		"Innodb_rows_inserted":             "rows_inserted",
		"Innodb_rows_updated":              "rows_updated",
		"Innodb_rows_deleted":              "rows_deleted",
	}),
	nameValueRows("global_status",
		"SHOW GLOBAL STATUS WHERE Variable_name IN ('Connections', 'Threads_connected', 'Threads_running', 'Queries', 'Slow_queries')",
		map[string]string{
			"Connections":       "total_connections",
			"Threads_connected": "active_connections",
			"Threads_running":   "running_threads",
			"Queries":           "total_queries",
			"Slow_queries":      "slow_queries",
		}),
	{
		Name: "buffer_pool_hit_ratio",
		Collect: func(_ context.Context, _ Querier, metrics map[string]any) error {
			reads, _ := metrics["buffer_pool_reads"].(int64)
			misses, _ := metrics["buffer_pool_read_misses"].(int64)
			if reads > 0 {
				metrics["buffer_pool_hit_ratio"] = hitRatio(reads-misses, reads)
			}
			return nil
		},
	},
}

var mysqlHostProbes = []Probe{
	{
		Name: "file_io",
		Collect: func(ctx context.Context, q Querier, metrics map[string]any) error {
			var read, written sql.NullInt64
			err := q.QueryRowContext(ctx, `SELECT SUM(SUM_NUMBER_OF_BYTES_READ), SUM(SUM_NUMBER_OF_BYTES_WRITE)
				FROM performance_schema.file_summary_by_event_name WHERE EVENT_NAME LIKE 'wait/io/file/%'`).Scan(&read, &written)
			if err != nil {
				return errors.WithStack(err)
			}
			metrics["diskReadBytes"] = read.Int64
			metrics["diskWriteBytes"] = written.Int64
			return nil
		},
	},
}

var sqliteDatabaseProbes = []Probe{
	singleValue("page_count", "page_count", "PRAGMA page_count"),
	singleValue("page_size", "page_size", "PRAGMA page_size"),
	singleValue("freelist_count", "freelist_count", "PRAGMA freelist_count"),
	{
		Name: "database_size",
		Collect: func(_ context.Context, _ Querier, metrics map[string]any) error {
			pages, _ := metrics["page_count"].(int64)
			size, _ := metrics["page_size"].(int64)
			if pages > 0 && size > 0 {
				metrics["database_size_bytes"] = pages * size
			}
			return nil
		},
	},
}

var db2DatabaseProbes = []Probe{
	singleValue("active_connections", "active_connections",
		"SELECT COUNT(*) FROM SYSIBMADM.APPLICATIONS WHERE APPL_STATUS = 'UOWEXEC'"),
	singleValue("total_connections", "total_connections", "SELECT COUNT(*) FROM SYSIBMADM.APPLICATIONS"),
	{
		Name: "mon_get_database",
		Collect: func(ctx context.Context, q Querier, metrics map[string]any) error {
			var lockWaits, lockWaitTime, rowsRead, rowsInserted, rowsUpdated, rowsDeleted int64
			err := q.QueryRowContext(ctx, `SELECT LOCK_WAITS, LOCK_WAIT_TIME, ROWS_READ, ROWS_INSERTED, ROWS_UPDATED, ROWS_DELETED
				FROM TABLE(MON_GET_DATABASE(-2)) AS T`).
				Scan(&lockWaits, &lockWaitTime, &rowsRead, &rowsInserted, &rowsUpdated, &rowsDeleted)
			if err != nil {
				return errors.WithStack(err)
			}
			metrics["lock_waits"] = lockWaits
			metrics["lock_wait_time_ms"] = lockWaitTime / 1000
			metrics["rows_read"] = rowsRead
			metrics["rows_inserted"] = rowsInserted
			metrics["rows_updated"] = rowsUpdated
			metrics["rows_deleted"] = rowsDeleted
			return nil
		},
	},
}

var oracleDatabaseProbes = []Probe{
	singleValue("active_sessions", "active_connections",
		"SELECT COUNT(*) FROM v$session WHERE status = 'ACTIVE' AND type = 'USER'"),
	nameValueRows("sysstat",
		"SELECT name, TO_CHAR(value) FROM v$sysstat WHERE name IN ('user commits', 'user rollbacks', 'physical reads', 'session logical reads')",
		map[string]string{
			"user commits":          "commits",
			"user rollbacks":        "rollbacks",
			"physical reads":        "physical_reads",
			"session logical reads": "logical_reads",
		}),
	{
		Name: "buffer_cache_hit_ratio",
		Collect: func(_ context.Context, _ Querier, metrics map[string]any) error {
			logical, _ := metrics["logical_reads"].(int64)
			physical, _ := metrics["physical_reads"].(int64)
			if logical > 0 {
				metrics["buffer_pool_hit_ratio"] = hitRatio(logical-physical, logical)
			}
			return nil
		},
	},
}

var sqlServerDatabaseProbes = []Probe{
	singleValue("user_sessions", "active_connections",
		"SELECT COUNT(*) FROM sys.dm_exec_sessions WHERE is_user_process = 1"),
	singleValue("blocked_requests", "waiting_locks",
		"SELECT COUNT(*) FROM sys.dm_exec_requests WHERE blocking_session_id <> 0"),
}

// runProbes collects best-effort metrics: a probe that fails is skipped and reported through onError.
func runProbes(ctx context.Context, q Querier, probes []Probe, onError func(probe string, err error)) map[string]any {
	metrics := make(map[string]any)
	for _, p := range probes {
		if err := p.Collect(ctx, q, metrics); err != nil && onError != nil {
			onError(p.Name, err)
		}
	}
	return metrics
}
