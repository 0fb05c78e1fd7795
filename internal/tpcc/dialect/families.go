package dialect

import (
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

type DDLStyle int

const (
	// CREATE TABLE IF NOT EXISTS / DROP TABLE IF EXISTS
	DDLIfNotExists DDLStyle = iota
	// IF NOT EXISTS (SELECT 1 FROM sysobjects ...) CREATE TABLE
	DDLSysObjects
	// Plain CREATE/DROP; duplicate and missing objects are recognised from the returned error.
	DDLPlain
)

// TypeMap renders each column kind. VARCHAR and CHAR templates take the length, DECIMAL takes precision and
// scale; a template without verbs is used verbatim.
type TypeMap map[ColumnKind]string

// Definition is everything tpccbench knows about one database family.
type Definition struct {
	Family  querybuilder.Family
	Aliases []string

	SupportsRowLimit                   bool
	RequiresRowIdRewriteForLockedLimit bool
	SupportsRowLocking                 bool
	Placeholder                        querybuilder.PlaceholderStyle

	Types         TypeMap
	DDLStyle      DDLStyle
	InlineIndexes bool
	// Appended after the closing parenthesis of every CREATE TABLE.
	TableSuffix string
	// Appended to every nullable column.
	NullableSuffix string

	// Default database/sql driver name.
	Driver string
	// The goqu dialect used for multi-row inserts. Empty means single-row prepared inserts.
	GoquDialect       string
	MaxBindParams     int
	ItemBatchSize     int
	CustomerBatchSize int
	// Whether a failed load batch is logged and skipped rather than aborting the load.
	TolerateBatchErrors bool

	// Statements run once after the pool is verified.
	SessionInit []string
	// Rewrites a user supplied DSN, e.g. to add credentials or required parameters.
	NormalizeDSN func(dsn, username, password string) (string, error)

	DatabaseProbes []Probe
	HostProbes     []Probe
}

func (d Definition) Capabilities() querybuilder.Capabilities {
	return querybuilder.Capabilities{
		Family:                             d.Family,
		SupportsRowLimit:                   d.SupportsRowLimit,
		RequiresRowIdRewriteForLockedLimit: d.RequiresRowIdRewriteForLockedLimit,
		SupportsRowLocking:                 d.SupportsRowLocking,
		Placeholder:                        d.Placeholder,
	}
}

var (
	mysqlTypes = TypeMap{
		KindInt:       "INT",
		KindVarchar:   "VARCHAR(%d)",
		KindChar:      "CHAR(%d)",
		KindDecimal:   "DECIMAL(%d,%d)",
		KindTimestamp: "DATETIME",
	}
	standardTypes = TypeMap{
		KindInt:       "INT",
		KindVarchar:   "VARCHAR(%d)",
		KindChar:      "CHAR(%d)",
		KindDecimal:   "DECIMAL(%d,%d)",
		KindTimestamp: "TIMESTAMP",
	}
	oracleTypes = TypeMap{
		KindInt:       "NUMBER(10)",
		KindVarchar:   "VARCHAR2(%d)",
		KindChar:      "CHAR(%d)",
		KindDecimal:   "NUMBER(%d,%d)",
		KindTimestamp: "DATE",
	}
	hanaTypes = TypeMap{
		KindInt:       "INTEGER",
		KindVarchar:   "NVARCHAR(%d)",
		KindChar:      "NCHAR(%d)",
		KindDecimal:   "DECIMAL(%d,%d)",
		KindTimestamp: "TIMESTAMP",
	}
	gbaseTypes = TypeMap{
		KindInt:       "INT",
		KindVarchar:   "VARCHAR(%d)",
		KindChar:      "CHAR(%d)",
		KindDecimal:   "DECIMAL(%d,%d)",
		KindTimestamp: "DATETIME YEAR TO SECOND",
	}
	sqliteTypes = TypeMap{
		KindInt:       "INTEGER",
		KindVarchar:   "TEXT",
		KindChar:      "TEXT",
		KindDecimal:   "REAL",
		KindTimestamp: "TEXT",
	}
)

const (
	defaultMaxBindParams     = 1000
	defaultItemBatchSize     = 10000
	defaultCustomerBatchSize = 1000
)

func mysqlCompatible(family querybuilder.Family, suffix string, aliases ...string) Definition {
	return Definition{
		Family:             family,
		Aliases:            aliases,
		SupportsRowLimit:   true,
		SupportsRowLocking: true,
		Placeholder:        querybuilder.QuestionMark,
		Types:              mysqlTypes,
		DDLStyle:           DDLIfNotExists,
		InlineIndexes:      true,
		TableSuffix:        suffix,
		Driver:             "mysql",
		GoquDialect:        "mysql",
		MaxBindParams:      65535,
		ItemBatchSize:      defaultItemBatchSize,
		CustomerBatchSize:  defaultCustomerBatchSize,
		NormalizeDSN:       normalizeMySQLDSN,
		DatabaseProbes:     mysqlDatabaseProbes,
		HostProbes:         mysqlHostProbes,
	}
}

var definitions = []Definition{
	mysqlCompatible(querybuilder.MySQL, " ENGINE=InnoDB"),
	mysqlCompatible(querybuilder.TiDB, ""),
	mysqlCompatible(querybuilder.OceanBase, ""),
	{
		Family:             querybuilder.PostgreSQL,
		Aliases:            []string{"postgres"},
		SupportsRowLimit:   true,
		SupportsRowLocking: true,
		Placeholder:        querybuilder.Dollar,
		Types:              standardTypes,
		DDLStyle:           DDLIfNotExists,
		Driver:             "pgx",
		GoquDialect:        "postgres",
		MaxBindParams:      65535,
		ItemBatchSize:      defaultItemBatchSize,
		CustomerBatchSize:  defaultCustomerBatchSize,
		NormalizeDSN:       normalizePostgresDSN,
		DatabaseProbes:     postgresDatabaseProbes,
		HostProbes:         postgresHostProbes,
	},
	{
		Family:                             querybuilder.Oracle,
		RequiresRowIdRewriteForLockedLimit: true,
		SupportsRowLocking:                 true,
		Placeholder:                        querybuilder.Colon,
		Types:                              oracleTypes,
		DDLStyle:                           DDLPlain,
		Driver:                             "oracle",
		MaxBindParams:                      defaultMaxBindParams,
		ItemBatchSize:                      defaultItemBatchSize,
		CustomerBatchSize:                  defaultCustomerBatchSize,
		DatabaseProbes:                     oracleDatabaseProbes,
	},
	{
		Family:             querybuilder.SQLServer,
		Aliases:            []string{"mssql"},
		SupportsRowLocking: true,
		Placeholder:        querybuilder.AtP,
		Types:              mysqlTypes,
		DDLStyle:           DDLSysObjects,
		Driver:             "sqlserver",
		GoquDialect:        "sqlserver",
		MaxBindParams:      2100,
		ItemBatchSize:      defaultItemBatchSize,
		CustomerBatchSize:  defaultCustomerBatchSize,
		DatabaseProbes:     sqlServerDatabaseProbes,
	},
	{
		Family:              querybuilder.DB2,
		SupportsRowLocking:  true,
		Placeholder:         querybuilder.QuestionMark,
		Types:               standardTypes,
		DDLStyle:            DDLPlain,
		Driver:              "go_ibm_db",
		MaxBindParams:       defaultMaxBindParams,
		ItemBatchSize:       1000,
		CustomerBatchSize:   500,
		TolerateBatchErrors: true,
		DatabaseProbes:      db2DatabaseProbes,
	},
	{
		Family:             querybuilder.Dameng,
		Aliases:            []string{"dm"},
		SupportsRowLimit:   true,
		SupportsRowLocking: true,
		Placeholder:        querybuilder.QuestionMark,
		Types:              standardTypes,
		DDLStyle:           DDLPlain,
		Driver:             "dm",
		MaxBindParams:      defaultMaxBindParams,
		ItemBatchSize:      defaultItemBatchSize,
		CustomerBatchSize:  defaultCustomerBatchSize,
	},
	{
		Family:             querybuilder.YashanDB,
		Aliases:            []string{"yashan"},
		SupportsRowLimit:   true,
		SupportsRowLocking: true,
		Placeholder:        querybuilder.Colon,
		Types:              oracleTypes,
		DDLStyle:           DDLPlain,
		Driver:             "yasdb",
		MaxBindParams:      defaultMaxBindParams,
		ItemBatchSize:      defaultItemBatchSize,
		CustomerBatchSize:  defaultCustomerBatchSize,
	},
	{
		Family:             querybuilder.GBase8s,
		Aliases:            []string{"gbase"},
		SupportsRowLocking: true,
		Placeholder:        querybuilder.QuestionMark,
		Types:              gbaseTypes,
		DDLStyle:           DDLPlain,
		Driver:             "gbase8s",
		MaxBindParams:      defaultMaxBindParams,
		ItemBatchSize:      defaultItemBatchSize,
		CustomerBatchSize:  defaultCustomerBatchSize,
	},
	{
		Family:             querybuilder.Sybase,
		Aliases:            []string{"ase"},
		SupportsRowLocking: true,
		Placeholder:        querybuilder.QuestionMark,
		Types:              mysqlTypes,
		DDLStyle:           DDLSysObjects,
		NullableSuffix:     " NULL",
		Driver:             "ase",
		MaxBindParams:      defaultMaxBindParams,
		ItemBatchSize:      defaultItemBatchSize,
		CustomerBatchSize:  defaultCustomerBatchSize,
	},
	{
		Family:             querybuilder.HANA,
		Aliases:            []string{"saphana"},
		SupportsRowLimit:   true,
		SupportsRowLocking: true,
		Placeholder:        querybuilder.QuestionMark,
		Types:              hanaTypes,
		DDLStyle:           DDLPlain,
		Driver:             "hdb",
		MaxBindParams:      defaultMaxBindParams,
		ItemBatchSize:      defaultItemBatchSize,
		CustomerBatchSize:  defaultCustomerBatchSize,
	},
	{
		Family:            querybuilder.SQLite,
		SupportsRowLimit:  true,
		Placeholder:       querybuilder.QuestionMark,
		Types:             sqliteTypes,
		DDLStyle:          DDLIfNotExists,
		Driver:            "sqlite",
		GoquDialect:       "sqlite3",
		MaxBindParams:     32766,
		ItemBatchSize:     defaultItemBatchSize,
		CustomerBatchSize: defaultCustomerBatchSize,
		SessionInit:       []string{"PRAGMA journal_mode=WAL"},
		NormalizeDSN:      normalizeSqliteDSN,
		DatabaseProbes:    sqliteDatabaseProbes,
	},
}

var byName = indexDefinitions(definitions)

func indexDefinitions(defs []Definition) map[string]Definition {
	m := make(map[string]Definition, len(defs)*2)
	for _, d := range defs {
		m[string(d.Family)] = d
		for _, alias := range d.Aliases {
			m[alias] = d
		}
	}
	return m
}

// Lookup returns the definition registered under name or one of its aliases. Names are case-insensitive.
func Lookup(name string) (Definition, error) {
	d, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Definition{}, &tpccerrors.ErrInvalidArgument{
			Name:    "database.type",
			Value:   name,
			Message: "supported types are " + strings.Join(SupportedTypes(), ", "),
		}
	}
	return d, nil
}

// SupportedTypes lists every accepted family name and alias, sorted.
func SupportedTypes() []string {
	names := maps.Keys(byName)
	sort.Strings(names)
	return names
}
