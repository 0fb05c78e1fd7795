// Package model holds the TPC-C entity cardinalities, table names and transaction types shared by the loader,
// the transaction profiles and the engine.
package model

const (
	DistrictsPerWarehouse = 10
	CustomersPerDistrict  = 3000
	OrdersPerDistrict     = 3000
	Items                 = 100000

	// Bounds on the number of lines of any order, loaded or new.
	MinOrderLines = 5
	MaxOrderLines = 15
)

const (
	TableWarehouse = "warehouse"
	TableDistrict  = "district"
	TableCustomer  = "customer"
	TableItem      = "item"
	TableStock     = "stock"
	TableHistory   = "history"
	TableOrder     = "oorder"
	TableNewOrder  = "new_order"
	TableOrderLine = "order_line"
)

// DropOrder lists tables children first so that no table is dropped while another still references it.
var DropOrder = []string{
	TableOrderLine,
	TableNewOrder,
	TableOrder,
	TableHistory,
	TableStock,
	TableItem,
	TableCustomer,
	TableDistrict,
	TableWarehouse,
}

// Scale sets the size of the generated dataset. DefaultScale is the standard TPC-C cardinality; tests use
// smaller values so that a full load finishes in seconds.
type Scale struct {
	Items                int
	CustomersPerDistrict int
	OrdersPerDistrict    int
}

func DefaultScale() Scale {
	return Scale{
		Items:                Items,
		CustomersPerDistrict: CustomersPerDistrict,
		OrdersPerDistrict:    OrdersPerDistrict,
	}
}

// DeliveredOrders is the number of orders per district that are loaded as already delivered. Orders above
// this id are pending and have a new_order row.
func (s Scale) DeliveredOrders() int {
	return s.OrdersPerDistrict * 7 / 10
}

// ClusteredCustomers is the number of customers per district whose surname is derived from their id rather
// than drawn at random.
func (s Scale) ClusteredCustomers() int {
	return s.CustomersPerDistrict / 3
}
