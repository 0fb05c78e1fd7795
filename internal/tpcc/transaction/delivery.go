package transaction

import (
	"context"
	"database/sql"

	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

// delivery delivers the oldest pending order of every district of the home warehouse. Districts with nothing
// pending are skipped; the transaction fails only if no district had anything to deliver.
type delivery struct {
	district
	carrierID int
}

func (t *delivery) run(ctx context.Context, s *session) (bool, error) {
	if t.carrierID == 0 {
		t.carrierID = s.env.Rng.Int(1, 10)
	}
	w := t.warehouseID
	deliveredAt := s.env.Clock.Now()
	oldestPending := s.queries.FirstRowLocked(querybuilder.Select{
		Columns: "no_o_id",
		Table:   model.TableNewOrder,
		Where:   "no_w_id = ? AND no_d_id = ?",
		OrderBy: "no_o_id",
	})

	delivered := 0
	for d := 1; d <= model.DistrictsPerWarehouse; d++ {
		var orderID int
		ok, err := s.scanRow(ctx, oldestPending, params(w, d), &orderID)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		if err := s.exec(ctx, "DELETE FROM new_order WHERE no_w_id = ? AND no_d_id = ? AND no_o_id = ?", w, d, orderID); err != nil {
			return false, err
		}

		var customerID int
		ok, err = s.scanRow(ctx, "SELECT o_c_id FROM oorder WHERE o_w_id = ? AND o_d_id = ? AND o_id = ?",
			params(w, d, orderID), &customerID)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		if err := s.exec(ctx, "UPDATE oorder SET o_carrier_id = ? WHERE o_w_id = ? AND o_d_id = ? AND o_id = ?",
			t.carrierID, w, d, orderID); err != nil {
			return false, err
		}

		var total sql.NullFloat64
		if _, err := s.scanRow(ctx, "SELECT SUM(ol_amount) FROM order_line WHERE ol_w_id = ? AND ol_d_id = ? AND ol_o_id = ?",
			params(w, d, orderID), &total); err != nil {
			return false, err
		}

		if err := s.exec(ctx, "UPDATE order_line SET ol_delivery_d = ? WHERE ol_w_id = ? AND ol_d_id = ? AND ol_o_id = ?",
			deliveredAt, w, d, orderID); err != nil {
			return false, err
		}
		if err := s.exec(ctx,
			"UPDATE customer SET c_balance = c_balance + ?, c_delivery_cnt = c_delivery_cnt + 1 "+
				"WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
			total.Float64, w, d, customerID); err != nil {
			return false, err
		}
		delivered++
	}
	return delivered > 0, nil
}
