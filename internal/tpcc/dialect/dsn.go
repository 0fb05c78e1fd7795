package dialect

import (
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/armadaproject/tpccbench/internal/common/database"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

func normalizeMySQLDSN(dsn, username, password string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "invalid mysql dsn")
	}
	if username != "" {
		cfg.User = username
	}
	if password != "" {
		cfg.Passwd = password
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// normalizePostgresDSN accepts either a URL or a libpq keyword/value string and adds the credentials to it.
func normalizePostgresDSN(dsn, username, password string) (string, error) {
	if username == "" && password == "" {
		return dsn, nil
	}
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", errors.Wrap(err, "invalid postgres dsn")
		}
		if username == "" && u.User != nil {
			username = u.User.Username()
		}
		if password != "" {
			u.User = url.UserPassword(username, password)
		} else {
			u.User = url.User(username)
		}
		return u.String(), nil
	}
	credentials := map[string]string{}
	if username != "" {
		credentials["user"] = username
	}
	if password != "" {
		credentials["password"] = password
	}
	return strings.TrimSpace(dsn + " " + database.CreateConnectionString(credentials)), nil
}

const sqliteBusyTimeout = "_pragma=busy_timeout(5000)"

func normalizeSqliteDSN(dsn, _, _ string) (string, error) {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn, nil
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteBusyTimeout, nil
	}
	return dsn + "?" + sqliteBusyTimeout, nil
}

// DetectType guesses the database family from a connection string. It understands URL schemes, JDBC URLs and
// the default ports of the MySQL-compatible distributed databases.
func DetectType(dsn string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	lower = strings.TrimPrefix(lower, "jdbc:")
	switch {
	case strings.Contains(lower, "tidb") || strings.Contains(lower, ":4000/"):
		return string(querybuilder.TiDB), true
	case strings.Contains(lower, "oceanbase") || strings.Contains(lower, ":2881/"):
		return string(querybuilder.OceanBase), true
	case strings.HasPrefix(lower, "file:") || strings.HasSuffix(lower, ".db") || lower == ":memory:":
		return string(querybuilder.SQLite), true
	case strings.Contains(lower, "tcp(") || strings.Contains(lower, "unix("):
		return string(querybuilder.MySQL), true
	}
	if i := strings.Index(lower, ":"); i > 0 {
		if d, ok := byName[lower[:i]]; ok {
			return string(d.Family), true
		}
	}
	return "", false
}
