package transaction

import (
	"context"

	"github.com/pkg/errors"

	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

type customerSelector struct {
	byName     bool
	lastName   string
	customerID int
}

// orderStatus is read only.
type orderStatus struct {
	district
	input *customerSelector
}

func (t *orderStatus) run(ctx context.Context, s *session) (bool, error) {
	if t.input == nil {
		t.input = &customerSelector{byName: s.env.Rng.Percent(byNamePercent)}
		if t.input.byName {
			t.input.lastName = s.env.Rng.CustomerLastName()
		} else {
			t.input.customerID = s.env.Rng.CustomerID(s.env.Scale)
		}
	}
	w, d := t.warehouseID, t.districtID

	customerID := t.input.customerID
	if t.input.byName {
		id, ok, err := s.customerByLastName(ctx, t.district, t.input.lastName)
		if !ok || err != nil {
			return false, err
		}
		customerID = id
	}

	var balance float64
	var first, middle, last string
	if ok, err := s.scanRow(ctx,
		"SELECT c_balance, c_first, c_middle, c_last FROM customer WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
		params(w, d, customerID), &balance, &first, &middle, &last); !ok || err != nil {
		return false, err
	}

	var orderID int
	var entered, carrier any
	lastOrder := s.queries.FirstRow(querybuilder.Select{
		Columns: "o_id, o_entry_d, o_carrier_id",
		Table:   model.TableOrder,
		Where:   "o_w_id = ? AND o_d_id = ? AND o_c_id = ?",
		OrderBy: "o_id DESC",
	})
	if ok, err := s.scanRow(ctx, lastOrder, params(w, d, customerID), &orderID, &entered, &carrier); !ok || err != nil {
		return false, err
	}

	rows, err := s.query(ctx,
		"SELECT ol_i_id, ol_supply_w_id, ol_quantity, ol_amount, ol_delivery_d FROM order_line "+
			"WHERE ol_w_id = ? AND ol_d_id = ? AND ol_o_id = ?",
		w, d, orderID)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, supplyWarehouse, quantity int
		var amount float64
		var delivered any
		if err := rows.Scan(&itemID, &supplyWarehouse, &quantity, &amount, &delivered); err != nil {
			return false, errors.WithStack(err)
		}
	}
	return true, errors.WithStack(rows.Err())
}
