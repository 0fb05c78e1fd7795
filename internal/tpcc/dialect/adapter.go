// Package dialect describes every supported database family and provides the Adapter through which the
// loader, the transaction profiles and the engine reach the target database.
package dialect

import (
	"context"
	"database/sql"
	"time"

	"github.com/avast/retry-go"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/armadaproject/tpccbench/internal/common/database"
	log "github.com/armadaproject/tpccbench/internal/common/logging"
	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

const (
	defaultAcquireTimeout = 30 * time.Second
	pingAttempts          = 3
	pingDelay             = 500 * time.Millisecond
)

// ConnectionConfig is what an Adapter needs to open its pool.
type ConnectionConfig struct {
	DSN      string
	Username string
	Password string
	// Overrides Definition.Driver when set, e.g. "postgres" to use lib/pq instead of pgx.
	Driver         string
	Pool           database.PoolConfig
	AcquireTimeout time.Duration
}

type Adapter struct {
	definition Definition
	config     ConnectionConfig
	queries    querybuilder.Builder
	db         *sql.DB
}

// NewAdapter returns an uninitialised Adapter for the named family. It fails with ErrInvalidArgument if the
// family is unknown.
func NewAdapter(databaseType string, config ConnectionConfig) (*Adapter, error) {
	definition, err := Lookup(databaseType)
	if err != nil {
		return nil, err
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = defaultAcquireTimeout
	}
	return &Adapter{
		definition: definition,
		config:     config,
		queries:    querybuilder.New(definition.Capabilities()),
	}, nil
}

func (a *Adapter) driverName() string {
	if a.config.Driver != "" {
		return a.config.Driver
	}
	return a.definition.Driver
}

// Initialize opens the pool, verifies it with a retried ping and runs the family's session statements.
func (a *Adapter) Initialize(ctx context.Context) error {
	dsn := a.config.DSN
	if a.definition.NormalizeDSN != nil {
		normalized, err := a.definition.NormalizeDSN(dsn, a.config.Username, a.config.Password)
		if err != nil {
			return &tpccerrors.ErrInvalidArgument{Name: "database.dsn", Value: "<redacted>", Message: err.Error()}
		}
		dsn = normalized
	}

	db, err := database.OpenSqlDb(a.driverName(), dsn, a.config.Pool)
	if err != nil {
		return &tpccerrors.ErrConnectivity{Target: string(a.definition.Family), Cause: err}
	}

	err = retry.Do(
		func() error {
			return db.PingContext(ctx)
		},
		retry.Attempts(pingAttempts),
		retry.Delay(pingDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
	)
	if err != nil {
		_ = db.Close()
		return &tpccerrors.ErrConnectivity{Target: string(a.definition.Family), Cause: err}
	}

	for _, statement := range a.definition.SessionInit {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			_ = db.Close()
			return errors.Wrapf(err, "failed to run %q", statement)
		}
	}

	a.db = db
	log.WithFields(map[string]any{
		"family":   a.definition.Family,
		"driver":   a.driverName(),
		"poolSize": a.config.Pool.MaxOpen,
	}).Info("Database connection pool initialized")
	return nil
}

// AcquireConnection borrows one connection from the pool. It fails with ErrConnectivity if none becomes
// available within the acquire timeout.
func (a *Adapter) AcquireConnection(ctx context.Context) (*sql.Conn, error) {
	if a.db == nil {
		return nil, &tpccerrors.ErrConnectivity{Target: string(a.definition.Family), Cause: errors.New("adapter is not initialized")}
	}
	acquireCtx, cancel := context.WithTimeout(ctx, a.config.AcquireTimeout)
	defer cancel()
	conn, err := a.db.Conn(acquireCtx)
	if err != nil {
		return nil, &tpccerrors.ErrConnectivity{Target: string(a.definition.Family), Cause: err}
	}
	return conn, nil
}

// CreateSchema creates every table and index, skipping those that already exist.
func (a *Adapter) CreateSchema(ctx context.Context) error {
	conn, err := a.AcquireConnection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, statement := range a.definition.CreateStatements() {
		if _, err := conn.ExecContext(ctx, statement); err != nil {
			if IsAlreadyExists(err) {
				log.WithError(err).Debug("Schema object already exists")
				continue
			}
			return errors.Wrap(err, "failed to create schema")
		}
	}
	log.Info("TPC-C schema created successfully")
	return nil
}

// DropSchema drops every table. Tables that do not exist are skipped; any other failures are collected and
// returned together once every table has been attempted.
func (a *Adapter) DropSchema(ctx context.Context) error {
	conn, err := a.AcquireConnection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var result *multierror.Error
	for _, statement := range a.definition.DropStatements() {
		if _, err := conn.ExecContext(ctx, statement); err != nil {
			if IsMissingObject(err) {
				log.WithField("statement", statement).Debug("Table does not exist")
				continue
			}
			result = multierror.Append(result, errors.Wrapf(err, "failed to run %q", statement))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	log.Info("TPC-C schema dropped")
	return nil
}

// HasData reports whether the warehouse table exists and has at least one row.
func (a *Adapter) HasData(ctx context.Context) (bool, error) {
	conn, err := a.AcquireConnection(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var count int64
	err = conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+model.TableWarehouse).Scan(&count)
	if err != nil {
		if IsMissingObject(err) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return count > 0, nil
}

// CollectDatabaseMetrics returns whatever server statistics the family's probes can read.
func (a *Adapter) CollectDatabaseMetrics(ctx context.Context) map[string]any {
	return a.collect(ctx, a.definition.DatabaseProbes)
}

// CollectHostMetrics returns database host statistics visible through SQL, e.g. I/O counters.
func (a *Adapter) CollectHostMetrics(ctx context.Context) map[string]any {
	return a.collect(ctx, a.definition.HostProbes)
}

func (a *Adapter) collect(ctx context.Context, probes []Probe) map[string]any {
	if a.db == nil || len(probes) == 0 {
		return map[string]any{}
	}
	return runProbes(ctx, a.db, probes, func(probe string, err error) {
		log.WithError(err).WithField("probe", probe).Debug("Metrics probe failed")
	})
}

func (a *Adapter) Capabilities() querybuilder.Capabilities {
	return a.definition.Capabilities()
}

func (a *Adapter) Family() querybuilder.Family {
	return a.definition.Family
}

func (a *Adapter) Definition() Definition {
	return a.definition
}

// Queries returns the query builder for this adapter's dialect.
func (a *Adapter) Queries() querybuilder.Builder {
	return a.queries
}

// DB exposes the underlying pool. It is nil until Initialize succeeds.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	log.Info("Database connection pool closed")
	return errors.WithStack(err)
}
