package database

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/armadaproject/tpccbench/internal/common/util"
)

// WithTestSqliteDb creates a throwaway sqlite database file for testing
//
//	action: callback for client code, given the DSN of the new database
//
// The file (and its WAL side files) is removed once action returns.
func WithTestSqliteDb(action func(dsn string) error) error {
	dir, err := os.MkdirTemp("", "tpccbench")
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	path := filepath.Join(dir, "test_"+util.NewULID()+".db")
	return action(SqliteDsn(path))
}

// SqliteDsn returns a modernc sqlite DSN for the file at path with a busy timeout set so that concurrent writers
// wait for each other rather than failing immediately.
func SqliteDsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
