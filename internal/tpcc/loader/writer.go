package loader

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlserver"
	"github.com/pkg/errors"

	log "github.com/armadaproject/tpccbench/internal/common/logging"
	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

// table is the insert shape of one TPC-C table.
type table struct {
	name    string
	columns []string
}

// batchWriter inserts rows into a table one batch at a time. Each batch is written in its own transaction,
// split into as many multi-row INSERT statements as the dialect's bind parameter limit requires.
type batchWriter struct {
	db         *sql.DB
	definition dialect.Definition
	queries    querybuilder.Builder
	log        *log.Logger
}

func (w *batchWriter) write(ctx context.Context, t table, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if w.definition.GoquDialect == "" {
		err = w.writeRowByRow(ctx, tx, t, rows)
	} else {
		err = w.writeMultiRow(ctx, tx, t, rows)
	}
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrapf(err, "error inserting %d rows into %s", len(rows), t.name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "error committing %d rows into %s", len(rows), t.name)
	}
	return nil
}

// tolerate returns nil for a partial-success report from a driver flagged as raising them, so that the rows
// already applied are committed with the rest of the batch. Any other error is returned unchanged.
func (w *batchWriter) tolerate(t table, rows int, err error) error {
	if !w.definition.TolerateBatchErrors || !dialect.IsPartialBatch(err) {
		return err
	}
	w.log.WithError(err).
		WithFields(map[string]interface{}{"table": t.name, "rows": rows}).
		Warnf("%s batch reported an error, some rows may have been written", w.definition.Family)
	return nil
}

func (w *batchWriter) writeMultiRow(ctx context.Context, tx *sql.Tx, t table, rows [][]any) error {
	cols := make([]any, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c
	}
	for _, chunk := range chunkRows(rows, rowsPerStatement(w.definition.MaxBindParams, len(t.columns))) {
		query, args, err := goqu.Dialect(w.definition.GoquDialect).
			Insert(t.name).
			Cols(cols...).
			Vals(chunk...).
			Prepared(true).
			ToSQL()
		if err != nil {
			return errors.WithStack(err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if err := w.tolerate(t, len(chunk), err); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return nil
}

func (w *batchWriter) writeRowByRow(ctx context.Context, tx *sql.Tx, t table, rows [][]any) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	query := w.queries.Rebind("INSERT INTO " + t.name + " (" + strings.Join(t.columns, ", ") + ") VALUES (" + placeholders + ")")
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		_ = stmt.Close()
	}()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			if err := w.tolerate(t, 1, err); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return nil
}

// rowsPerStatement is the largest number of rows whose values fit in one statement.
func rowsPerStatement(maxBindParams, columns int) int {
	if maxBindParams <= 0 || columns <= 0 {
		return 1
	}
	if n := maxBindParams / columns; n > 0 {
		return n
	}
	return 1
}

func chunkRows(rows [][]any, size int) [][][]any {
	chunks := make([][][]any, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}
