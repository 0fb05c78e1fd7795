package dialect

import (
	"fmt"

	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

type ColumnKind int

const (
	KindInt ColumnKind = iota
	KindVarchar
	KindChar
	KindDecimal
	KindTimestamp
)

type Column struct {
	Name string
	Kind ColumnKind
	// Length for VARCHAR and CHAR, precision for DECIMAL.
	Size int
	// Scale for DECIMAL.
	Scale   int
	NotNull bool
}

type Index struct {
	Name    string
	Columns string
}

type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey string
	Indexes    []Index
}

func intCol(name string) Column { return Column{Name: name, Kind: KindInt} }
func keyCol(name string) Column { return Column{Name: name, Kind: KindInt, NotNull: true} }
func varcharCol(name string, n int) Column { return Column{Name: name, Kind: KindVarchar, Size: n} }
func charCol(name string, n int) Column { return Column{Name: name, Kind: KindChar, Size: n} }
func decimalCol(name string, p, s int) Column { return Column{Name: name, Kind: KindDecimal, Size: p, Scale: s} }
func timestampCol(name string) Column { return Column{Name: name, Kind: KindTimestamp} }

// Tables is the TPC-C schema in creation order.
var Tables = []Table{
	{
		Name: model.TableWarehouse,
		Columns: []Column{
			keyCol("w_id"),
			varcharCol("w_name", 10),
			varcharCol("w_street_1", 20),
			varcharCol("w_street_2", 20),
			varcharCol("w_city", 20),
			charCol("w_state", 2),
			charCol("w_zip", 9),
			decimalCol("w_tax", 4, 4),
			decimalCol("w_ytd", 12, 2),
		},
		PrimaryKey: "w_id",
	},
	{
		Name: model.TableDistrict,
		Columns: []Column{
			keyCol("d_id"),
			keyCol("d_w_id"),
			varcharCol("d_name", 10),
			varcharCol("d_street_1", 20),
			varcharCol("d_street_2", 20),
			varcharCol("d_city", 20),
			charCol("d_state", 2),
			charCol("d_zip", 9),
			decimalCol("d_tax", 4, 4),
			decimalCol("d_ytd", 12, 2),
			intCol("d_next_o_id"),
		},
		PrimaryKey: "d_w_id, d_id",
	},
	{
		Name: model.TableCustomer,
		Columns: []Column{
			keyCol("c_id"),
			keyCol("c_d_id"),
			keyCol("c_w_id"),
			varcharCol("c_first", 16),
			charCol("c_middle", 2),
			varcharCol("c_last", 16),
			varcharCol("c_street_1", 20),
			varcharCol("c_street_2", 20),
			varcharCol("c_city", 20),
			charCol("c_state", 2),
			charCol("c_zip", 9),
			charCol("c_phone", 16),
			timestampCol("c_since"),
			charCol("c_credit", 2),
			decimalCol("c_credit_lim", 12, 2),
			decimalCol("c_discount", 4, 4),
			decimalCol("c_balance", 12, 2),
			decimalCol("c_ytd_payment", 12, 2),
			intCol("c_payment_cnt"),
			intCol("c_delivery_cnt"),
			varcharCol("c_data", 500),
		},
		PrimaryKey: "c_w_id, c_d_id, c_id",
		Indexes:    []Index{{Name: "idx_customer_name", Columns: "c_w_id, c_d_id, c_last, c_first"}},
	},
	{
		Name: model.TableItem,
		Columns: []Column{
			keyCol("i_id"),
			intCol("i_im_id"),
			varcharCol("i_name", 24),
			decimalCol("i_price", 5, 2),
			varcharCol("i_data", 50),
		},
		PrimaryKey: "i_id",
	},
	{
		Name:       model.TableStock,
		Columns:    stockColumns(),
		PrimaryKey: "s_w_id, s_i_id",
	},
	{
		Name: model.TableHistory,
		Columns: []Column{
			intCol("h_c_id"),
			intCol("h_c_d_id"),
			intCol("h_c_w_id"),
			intCol("h_d_id"),
			intCol("h_w_id"),
			timestampCol("h_date"),
			decimalCol("h_amount", 6, 2),
			varcharCol("h_data", 24),
		},
	},
	{
		Name: model.TableOrder,
		Columns: []Column{
			keyCol("o_id"),
			keyCol("o_d_id"),
			keyCol("o_w_id"),
			intCol("o_c_id"),
			timestampCol("o_entry_d"),
			intCol("o_carrier_id"),
			intCol("o_ol_cnt"),
			intCol("o_all_local"),
		},
		PrimaryKey: "o_w_id, o_d_id, o_id",
		Indexes:    []Index{{Name: "idx_order_customer", Columns: "o_w_id, o_d_id, o_c_id, o_id"}},
	},
	{
		Name: model.TableNewOrder,
		Columns: []Column{
			keyCol("no_o_id"),
			keyCol("no_d_id"),
			keyCol("no_w_id"),
		},
		PrimaryKey: "no_w_id, no_d_id, no_o_id",
	},
	{
		Name: model.TableOrderLine,
		Columns: []Column{
			keyCol("ol_o_id"),
			keyCol("ol_d_id"),
			keyCol("ol_w_id"),
			keyCol("ol_number"),
			intCol("ol_i_id"),
			intCol("ol_supply_w_id"),
			timestampCol("ol_delivery_d"),
			intCol("ol_quantity"),
			decimalCol("ol_amount", 6, 2),
			charCol("ol_dist_info", 24),
		},
		PrimaryKey: "ol_w_id, ol_d_id, ol_o_id, ol_number",
	},
}

func stockColumns() []Column {
	cols := []Column{keyCol("s_i_id"), keyCol("s_w_id"), intCol("s_quantity")}
	for d := 1; d <= model.DistrictsPerWarehouse; d++ {
		cols = append(cols, charCol(StockDistColumn(d), 24))
	}
	return append(cols,
		intCol("s_ytd"),
		intCol("s_order_cnt"),
		intCol("s_remote_cnt"),
		varcharCol("s_data", 50),
	)
}

// StockDistColumn names the stock distribution-info column for district d, e.g. s_dist_07.
func StockDistColumn(d int) string {
	return fmt.Sprintf("s_dist_%02d", d)
}
