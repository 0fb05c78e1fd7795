package database

import (
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// PoolConfig controls the sizing of a database/sql connection pool.
type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	IdleTimeout time.Duration
}

// CreateConnectionString renders values as a libpq keyword/value connection string.
// https://www.postgresql.org/docs/current/libpq-connect.html#LIBPQ-CONNSTRING
func CreateConnectionString(values map[string]string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	keys := maps.Keys(values)
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"='"+replacer.Replace(values[k])+"'")
	}
	return strings.Join(parts, " ")
}

// OpenSqlDb opens a database/sql handle for the registered driver and applies the pool settings. The returned
// handle has not been pinged.
func OpenSqlDb(driverName string, dsn string, pool PoolConfig) (*sql.DB, error) {
	if !isRegistered(driverName) {
		return nil, errors.Errorf("sql driver %q is not registered; registered drivers are %v", driverName, sql.Drivers())
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if pool.MaxOpen > 0 {
		db.SetMaxOpenConns(pool.MaxOpen)
	}
	if pool.MaxIdle > 0 {
		db.SetMaxIdleConns(pool.MaxIdle)
	}
	if pool.MaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.MaxLifetime)
	}
	if pool.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(pool.IdleTimeout)
	}
	return db, nil
}

func isRegistered(driverName string) bool {
	for _, d := range sql.Drivers() {
		if d == driverName {
			return true
		}
	}
	return false
}
