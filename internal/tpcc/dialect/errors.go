package dialect

import (
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// MySQL server error numbers.
const (
	mysqlErrBadTable      = 1051
	mysqlErrCantDropField = 1091
	mysqlErrNoSuchTable   = 1146
	mysqlErrTableExists   = 1050
	mysqlErrDupKeyName    = 1061
)

var missingObjectMessages = []string{
	"no such table",
	"no such index",
	"does not exist",
	"doesn't exist",
	"unknown table",
	"invalid table name",
	"ora-00942",
	"sqlcode=-204",
	"42704",
	"cannot drop the table",
	"table not found",
	"could not find table",
	"invalid table or view name",
	"is not in the database",
}

// DB2 reports a whole batch as failed when only some of its rows were rejected.
var partialBatchMessages = []string{
	"errorcode=-4229",
	"sqlcode=-4229",
}

var alreadyExistsMessages = []string{
	"already exists",
	"already indexed",
	"there is already an object named",
	"duplicate",
	"ora-00955",
	"ora-01408",
	"sqlcode=-601",
	"42710",
}

// IsMissingObject reports whether err says that the table or index being dropped or queried does not exist.
func IsMissingObject(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqlState(err); ok {
		return code == pgerrcode.UndefinedTable || code == pgerrcode.UndefinedObject
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrBadTable ||
			mysqlErr.Number == mysqlErrNoSuchTable ||
			mysqlErr.Number == mysqlErrCantDropField
	}
	return messageContainsAny(err, missingObjectMessages)
}

// IsAlreadyExists reports whether err says that the table or index being created already exists.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqlState(err); ok {
		return code == pgerrcode.DuplicateTable || code == pgerrcode.DuplicateObject
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrTableExists || mysqlErr.Number == mysqlErrDupKeyName
	}
	return messageContainsAny(err, alreadyExistsMessages)
}

// IsPartialBatch reports whether err is a driver's report of a batch that was only partially applied.
func IsPartialBatch(err error) bool {
	if err == nil {
		return false
	}
	return messageContainsAny(err, partialBatchMessages)
}

// sqlState extracts the SQLSTATE of errors raised by either Postgres driver.
func sqlState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}
	return "", false
}

func messageContainsAny(err error, fragments []string) bool {
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
