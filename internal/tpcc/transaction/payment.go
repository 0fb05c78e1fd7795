package transaction

import (
	"context"
	"fmt"
)

const (
	maxCustomerData = 500
	byNamePercent   = 60
	badCredit       = "BC"
)

type paymentInput struct {
	amount     float64
	byName     bool
	lastName   string
	customerID int
}

type payment struct {
	district
	input *paymentInput
}

func (t *payment) draw(env Env) *paymentInput {
	in := &paymentInput{amount: env.Rng.Float(1, 5000), byName: env.Rng.Percent(byNamePercent)}
	if in.byName {
		in.lastName = env.Rng.CustomerLastName()
	} else {
		in.customerID = env.Rng.CustomerID(env.Scale)
	}
	return in
}

func (t *payment) run(ctx context.Context, s *session) (bool, error) {
	if t.input == nil {
		t.input = t.draw(s.env)
	}
	in := t.input
	w, d := t.warehouseID, t.districtID

	if err := s.exec(ctx, "UPDATE warehouse SET w_ytd = w_ytd + ? WHERE w_id = ?", in.amount, w); err != nil {
		return false, err
	}
	var warehouseName string
	var warehouseAddress [5]any
	if ok, err := s.scanRow(ctx,
		"SELECT w_name, w_street_1, w_street_2, w_city, w_state, w_zip FROM warehouse WHERE w_id = ?",
		params(w), &warehouseName, &warehouseAddress[0], &warehouseAddress[1], &warehouseAddress[2],
		&warehouseAddress[3], &warehouseAddress[4]); !ok || err != nil {
		return false, err
	}

	if err := s.exec(ctx, "UPDATE district SET d_ytd = d_ytd + ? WHERE d_w_id = ? AND d_id = ?", in.amount, w, d); err != nil {
		return false, err
	}
	var districtName string
	var districtAddress [5]any
	if ok, err := s.scanRow(ctx,
		"SELECT d_name, d_street_1, d_street_2, d_city, d_state, d_zip FROM district WHERE d_w_id = ? AND d_id = ?",
		params(w, d), &districtName, &districtAddress[0], &districtAddress[1], &districtAddress[2],
		&districtAddress[3], &districtAddress[4]); !ok || err != nil {
		return false, err
	}

	customerID := in.customerID
	if in.byName {
		id, ok, err := s.customerByLastName(ctx, t.district, in.lastName)
		if !ok || err != nil {
			return false, err
		}
		customerID = id
	}

	// Only c_credit is used; the rest is read as a real terminal would display it.
	var customer [14]any
	dest := make([]any, len(customer))
	for i := range customer {
		dest[i] = &customer[i]
	}
	if ok, err := s.scanRow(ctx,
		"SELECT c_first, c_middle, c_last, c_street_1, c_street_2, c_city, c_state, c_zip, c_phone, c_since, "+
			"c_credit, c_credit_lim, c_discount, c_balance FROM customer WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
		params(w, d, customerID), dest...); !ok || err != nil {
		return false, err
	}
	credit := asString(customer[10])

	if credit == badCredit {
		var data string
		if ok, err := s.scanRow(ctx, "SELECT c_data FROM customer WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
			params(w, d, customerID), &data); !ok || err != nil {
			return false, err
		}
		if err := s.exec(ctx,
			"UPDATE customer SET c_balance = c_balance - ?, c_ytd_payment = c_ytd_payment + ?, "+
				"c_payment_cnt = c_payment_cnt + 1, c_data = ? WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
			in.amount, in.amount, badCreditData(customerID, w, d, in.amount, data), w, d, customerID); err != nil {
			return false, err
		}
	} else {
		if err := s.exec(ctx,
			"UPDATE customer SET c_balance = c_balance - ?, c_ytd_payment = c_ytd_payment + ?, "+
				"c_payment_cnt = c_payment_cnt + 1 WHERE c_w_id = ? AND c_d_id = ? AND c_id = ?",
			in.amount, in.amount, w, d, customerID); err != nil {
			return false, err
		}
	}

	if err := s.exec(ctx,
		"INSERT INTO history (h_c_id, h_c_d_id, h_c_w_id, h_d_id, h_w_id, h_date, h_amount, h_data) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		customerID, d, w, d, w, s.env.Clock.Now(), in.amount, warehouseName+"    "+districtName); err != nil {
		return false, err
	}
	return true, nil
}

// badCreditData prepends the payment details to a bad-credit customer's history, keeping the first 500
// characters.
func badCreditData(customerID, w, d int, amount float64, previous string) string {
	data := fmt.Sprintf("%d %d %d %d %d %.2f | %s", customerID, d, w, d, w, amount, previous)
	if len(data) > maxCustomerData {
		data = data[:maxCustomerData]
	}
	return data
}

// asString handles drivers that return CHAR columns as []byte.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}
