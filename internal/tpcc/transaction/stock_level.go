package transaction

import "context"

const (
	recentOrders = 20

	lowStockQuery = "SELECT COUNT(DISTINCT s_i_id) FROM stock, order_line " +
		"WHERE s_w_id = ? AND ol_w_id = ? AND ol_d_id = ? AND ol_o_id < ? AND ol_o_id >= ? " +
		"AND s_i_id = ol_i_id AND s_quantity < ?"
)

// stockLevel counts the distinct items of the district's last 20 orders whose stock is below a threshold. It
// is read only.
type stockLevel struct {
	district
	threshold int
	// lowStock holds the count from the last run.
	lowStock int
}

func (t *stockLevel) run(ctx context.Context, s *session) (bool, error) {
	if t.threshold == 0 {
		t.threshold = s.env.Rng.Int(10, 20)
	}
	w, d := t.warehouseID, t.districtID

	var nextOrderID int
	if ok, err := s.scanRow(ctx, "SELECT d_next_o_id FROM district WHERE d_w_id = ? AND d_id = ?",
		params(w, d), &nextOrderID); !ok || err != nil {
		return false, err
	}

	if _, err := s.scanRow(ctx, lowStockQuery,
		params(w, w, d, nextOrderID, nextOrderID-recentOrders, t.threshold), &t.lowStock); err != nil {
		return false, err
	}
	return true, nil
}
