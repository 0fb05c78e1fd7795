package transaction

import (
	"context"

	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
)

const (
	// Stock is topped up by this amount whenever an order would take it below minStock.
	stockReplenishment = 91
	minStock           = 10
	invalidItemPercent = 1
)

type orderLine struct {
	itemID          int
	supplyWarehouse int
	quantity        int
}

type newOrderInput struct {
	customerID int
	lines      []orderLine
}

type newOrder struct {
	district
	// input is drawn from the generator on first run unless already set.
	input *newOrderInput
}

func (t *newOrder) draw(env Env) *newOrderInput {
	in := &newOrderInput{customerID: env.Rng.CustomerID(env.Scale)}
	lineCount := env.Rng.Int(model.MinOrderLines, model.MaxOrderLines)
	in.lines = make([]orderLine, lineCount)
	for i := range in.lines {
		in.lines[i] = orderLine{
			itemID:          env.Rng.ItemID(env.Scale),
			supplyWarehouse: t.warehouseID,
			quantity:        env.Rng.Int(1, 10),
		}
	}
	// A small share of orders name an item that does not exist and must roll back.
	if env.Rng.Percent(invalidItemPercent) {
		in.lines[lineCount-1].itemID = env.Scale.Items + 1
	}
	return in
}

func (t *newOrder) run(ctx context.Context, s *session) (bool, error) {
	if t.input == nil {
		t.input = t.draw(s.env)
	}
	in := t.input
	w, d := t.warehouseID, t.districtID

	var warehouseTax float64
	if ok, err := s.scanRow(ctx, "SELECT w_tax FROM warehouse WHERE w_id = ?", params(w), &warehouseTax); !ok || err != nil {
		return false, err
	}

	var districtTax float64
	var orderID int
	districtQuery := s.queries.Locked(querybuilder.Select{
		Columns: "d_tax, d_next_o_id",
		Table:   model.TableDistrict,
		Where:   "d_w_id = ? AND d_id = ?",
	})
	if ok, err := s.scanRow(ctx, districtQuery, params(w, d), &districtTax, &orderID); !ok || err != nil {
		return false, err
	}
	if err := s.exec(ctx, "UPDATE district SET d_next_o_id = ? WHERE d_w_id = ? AND d_id = ?", orderID+1, w, d); err != nil {
		return false, err
	}

	var discount float64
	if ok, err := s.scanRow(ctx,
		"SELECT c_discount FROM customer WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
		params(w, d, in.customerID), &discount); !ok || err != nil {
		return false, err
	}

	if err := s.exec(ctx,
		"INSERT INTO oorder (o_id, o_d_id, o_w_id, o_c_id, o_entry_d, o_carrier_id, o_ol_cnt, o_all_local) "+
			"VALUES (?, ?, ?, ?, ?, NULL, ?, 1)",
		orderID, d, w, in.customerID, s.env.Clock.Now(), len(in.lines)); err != nil {
		return false, err
	}
	if err := s.exec(ctx, "INSERT INTO new_order (no_o_id, no_d_id, no_w_id) VALUES (?, ?, ?)", orderID, d, w); err != nil {
		return false, err
	}

	stockQuery := s.queries.Locked(querybuilder.Select{
		Columns: "s_quantity, " + dialect.StockDistColumn(d) + ", s_data",
		Table:   model.TableStock,
		Where:   "s_w_id = ? AND s_i_id = ?",
	})
	for i, line := range in.lines {
		var price float64
		var itemName, itemData string
		ok, err := s.scanRow(ctx, "SELECT i_price, i_name, i_data FROM item WHERE i_id = ?",
			params(line.itemID), &price, &itemName, &itemData)
		if !ok || err != nil {
			return false, err
		}

		var quantity int
		var distInfo, stockData string
		ok, err = s.scanRow(ctx, stockQuery, params(line.supplyWarehouse, line.itemID), &quantity, &distInfo, &stockData)
		if !ok || err != nil {
			return false, err
		}

		if err := s.exec(ctx,
			"UPDATE stock SET s_quantity = ?, s_ytd = s_ytd + ?, s_order_cnt = s_order_cnt + 1 "+
				"WHERE s_w_id = ? AND s_i_id = ?",
			replenish(quantity, line.quantity), line.quantity, line.supplyWarehouse, line.itemID); err != nil {
			return false, err
		}

		if err := s.exec(ctx,
			"INSERT INTO order_line (ol_o_id, ol_d_id, ol_w_id, ol_number, ol_i_id, ol_supply_w_id, ol_delivery_d, "+
				"ol_quantity, ol_amount, ol_dist_info) VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)",
			orderID, d, w, i+1, line.itemID, line.supplyWarehouse, line.quantity,
			float64(line.quantity)*price, distInfo); err != nil {
			return false, err
		}
	}
	return true, nil
}

// replenish returns the stock level after ordering quantity from current.
func replenish(current, quantity int) int {
	remaining := current - quantity
	if remaining < minStock {
		remaining += stockReplenishment
	}
	return remaining
}
