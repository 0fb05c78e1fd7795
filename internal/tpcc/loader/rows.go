package loader

import (
	"time"

	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/random"
)

var (
	itemTable = table{
		name:    model.TableItem,
		columns: []string{"i_id", "i_im_id", "i_name", "i_price", "i_data"},
	}
	warehouseTable = table{
		name:    model.TableWarehouse,
		columns: []string{"w_id", "w_name", "w_street_1", "w_street_2", "w_city", "w_state", "w_zip", "w_tax", "w_ytd"},
	}
	districtTable = table{
		name: model.TableDistrict,
		columns: []string{
			"d_id", "d_w_id", "d_name", "d_street_1", "d_street_2", "d_city", "d_state", "d_zip", "d_tax", "d_ytd",
			"d_next_o_id",
		},
	}
	customerTable = table{
		name: model.TableCustomer,
		columns: []string{
			"c_id", "c_d_id", "c_w_id", "c_first", "c_middle", "c_last", "c_street_1", "c_street_2", "c_city",
			"c_state", "c_zip", "c_phone", "c_since", "c_credit", "c_credit_lim", "c_discount", "c_balance",
			"c_ytd_payment", "c_payment_cnt", "c_delivery_cnt", "c_data",
		},
	}
	historyTable = table{
		name:    model.TableHistory,
		columns: []string{"h_c_id", "h_c_d_id", "h_c_w_id", "h_d_id", "h_w_id", "h_date", "h_amount", "h_data"},
	}
	stockTable = table{
		name:    model.TableStock,
		columns: stockColumns(),
	}
	orderTable = table{
		name:    model.TableOrder,
		columns: []string{"o_id", "o_d_id", "o_w_id", "o_c_id", "o_entry_d", "o_carrier_id", "o_ol_cnt", "o_all_local"},
	}
	newOrderTable = table{
		name:    model.TableNewOrder,
		columns: []string{"no_o_id", "no_d_id", "no_w_id"},
	}
	orderLineTable = table{
		name: model.TableOrderLine,
		columns: []string{
			"ol_o_id", "ol_d_id", "ol_w_id", "ol_number", "ol_i_id", "ol_supply_w_id", "ol_delivery_d",
			"ol_quantity", "ol_amount", "ol_dist_info",
		},
	}
)

func stockColumns() []string {
	cols := []string{"s_i_id", "s_w_id", "s_quantity"}
	for d := 1; d <= model.DistrictsPerWarehouse; d++ {
		cols = append(cols, dialect.StockDistColumn(d))
	}
	return append(cols, "s_ytd", "s_order_cnt", "s_remote_cnt", "s_data")
}

func itemRow(rng *random.Generator, id int) []any {
	return []any{id, rng.Int(1, 10000), rng.String(14, 24), rng.Float(1, 100), rng.DataString()}
}

func warehouseRow(rng *random.Generator, w int) []any {
	return []any{
		w, rng.String(6, 10), rng.String(10, 20), rng.String(10, 20), rng.String(10, 20), rng.State(), rng.Zip(),
		rng.Float(0, 0.2), 300000.0,
	}
}

func districtRow(rng *random.Generator, w, d int, scale model.Scale) []any {
	return []any{
		d, w, rng.String(6, 10), rng.String(10, 20), rng.String(10, 20), rng.String(10, 20), rng.State(), rng.Zip(),
		rng.Float(0, 0.2), 30000.0, scale.OrdersPerDistrict + 1,
	}
}

// customerLastName gives the first third of each district's customers a surname derived from their id so
// that every surname exists; the rest are drawn with the usual skew.
func customerLastName(rng *random.Generator, c int, scale model.Scale) string {
	if c <= scale.ClusteredCustomers() {
		return random.LastName((c - 1) % 1000)
	}
	return rng.CustomerLastName()
}

func customerRow(rng *random.Generator, w, d, c int, scale model.Scale, now time.Time) []any {
	credit := "GC"
	if rng.Percent(10) {
		credit = "BC"
	}
	return []any{
		c, d, w, rng.String(8, 16), "OE", customerLastName(rng, c, scale), rng.String(10, 20), rng.String(10, 20),
		rng.String(10, 20), rng.State(), rng.Zip(), rng.NumericString(16), now, credit, 50000.0,
		rng.Float(0, 0.5), -10.0, 10.0, 1, 0, rng.String(300, 500),
	}
}

func historyRow(rng *random.Generator, w, d, c int, now time.Time) []any {
	return []any{c, d, w, d, w, now, 10.0, rng.String(12, 24)}
}

func stockRow(rng *random.Generator, w, i int) []any {
	row := make([]any, 0, len(stockTable.columns))
	row = append(row, i, w, rng.Int(10, 100))
	for d := 1; d <= model.DistrictsPerWarehouse; d++ {
		row = append(row, rng.String(24, 24))
	}
	return append(row, 0, 0, 0, rng.DataString())
}

// orderRows returns the order, its new_order row (nil for delivered orders) and its lines.
func orderRows(rng *random.Generator, w, d, o, customerID int, scale model.Scale, now time.Time) ([]any, []any, [][]any) {
	delivered := o <= scale.DeliveredOrders()
	lineCount := rng.Int(model.MinOrderLines, model.MaxOrderLines)

	var carrier any
	var newOrder []any
	if delivered {
		carrier = rng.Int(1, 10)
	} else {
		newOrder = []any{o, d, w}
	}
	order := []any{o, d, w, customerID, now, carrier, lineCount, 1}

	lines := make([][]any, lineCount)
	for ol := 1; ol <= lineCount; ol++ {
		var deliveredAt any
		amount := 0.0
		if delivered {
			deliveredAt = now
		} else {
			amount = rng.Float(0.01, 9999.99)
		}
		lines[ol-1] = []any{o, d, w, ol, rng.Int(1, scale.Items), w, deliveredAt, 5, amount, rng.String(24, 24)}
	}
	return order, newOrder, lines
}
