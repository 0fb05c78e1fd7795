package model

type TransactionType string

const (
	NewOrder    TransactionType = "NEW_ORDER"
	Payment     TransactionType = "PAYMENT"
	OrderStatus TransactionType = "ORDER_STATUS"
	Delivery    TransactionType = "DELIVERY"
	StockLevel  TransactionType = "STOCK_LEVEL"
)

// TransactionTypes lists every transaction type in the order the mix is declared.
var TransactionTypes = []TransactionType{NewOrder, Payment, OrderStatus, Delivery, StockLevel}

func (t TransactionType) String() string {
	return string(t)
}
