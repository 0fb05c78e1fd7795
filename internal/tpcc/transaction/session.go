package transaction

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

// session runs statements written with ? placeholders inside one database transaction.
type session struct {
	tx      *sql.Tx
	queries querybuilder.Builder
	env     Env
}

func (s *session) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.tx.ExecContext(ctx, s.queries.Rebind(query), args...)
	return errors.Wrapf(err, "exec %q", query)
}

func (s *session) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.tx.QueryContext(ctx, s.queries.Rebind(query), args...)
	return rows, errors.Wrapf(err, "query %q", query)
}

// scanRow scans the first row of query into dest. It reports false, without error, when there is no row.
func (s *session) scanRow(ctx context.Context, query string, args []any, dest ...any) (bool, error) {
	err := s.tx.QueryRowContext(ctx, s.queries.Rebind(query), args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "query %q", query)
	}
	return true, nil
}

func params(values ...any) []any {
	return values
}

const (
	maxCustomersByName    = 100
	customerIdsByLastName = "SELECT c_id FROM customer WHERE c_w_id = ? AND c_d_id = ? AND c_last = ? ORDER BY c_first"
)

// customerByLastName returns the id of the middle customer, ordered by first name, among those in the district
// with the given surname. Only the first 100 matches are considered.
func (s *session) customerByLastName(ctx context.Context, home district, lastName string) (int, bool, error) {
	rows, err := s.query(ctx, customerIdsByLastName, home.warehouseID, home.districtID, lastName)
	if err != nil {
		return 0, false, err
	}
	defer rows.Close()

	ids := make([]int, 0, maxCustomersByName)
	for len(ids) < maxCustomersByName && rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return 0, false, errors.WithStack(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, false, errors.WithStack(err)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[(len(ids)+1)/2-1], true, nil
}
