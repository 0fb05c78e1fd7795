// Package transaction implements the five TPC-C transaction profiles. Each profile runs as a single database
// transaction on one borrowed connection and either commits or rolls back as a whole.
package transaction

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
	"github.com/armadaproject/tpccbench/internal/tpcc/querybuilder"
	"github.com/armadaproject/tpccbench/internal/tpcc/random"
)

// ConnectionSource hands out pooled connections together with the query builder for their dialect.
type ConnectionSource interface {
	AcquireConnection(ctx context.Context) (*sql.Conn, error)
	Queries() querybuilder.Builder
}

// Env is everything a profile needs besides its connection and home district.
type Env struct {
	Rng   *random.Generator
	Scale model.Scale
	Clock clock.PassiveClock
	// OnError, if set, is called with any error that caused a rollback. Business rollbacks, such as an order for
	// an unknown item, are not reported.
	OnError func(model.TransactionType, error)
}

type State int

const (
	Idle State = iota
	Running
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case Committed:
		return "COMMITTED"
	case RolledBack:
		return "ROLLED_BACK"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// profile is the body of a transaction. Returning false, or an error, rolls the transaction back.
type profile interface {
	run(ctx context.Context, s *session) (bool, error)
}

// Transaction is a single execution of one profile. It is not safe for concurrent use and should not be reused.
type Transaction struct {
	typ     model.TransactionType
	source  ConnectionSource
	env     Env
	profile profile
	state   State
}

// New creates a transaction of type typ for the terminal homed on warehouse w and district d.
func New(typ model.TransactionType, source ConnectionSource, w, d int, env Env) (*Transaction, error) {
	var p profile
	home := district{warehouseID: w, districtID: d}
	switch typ {
	case model.NewOrder:
		p = &newOrder{district: home}
	case model.Payment:
		p = &payment{district: home}
	case model.OrderStatus:
		p = &orderStatus{district: home}
	case model.Delivery:
		p = &delivery{district: home}
	case model.StockLevel:
		p = &stockLevel{district: home}
	default:
		return nil, errors.WithStack(&tpccerrors.ErrInvalidArgument{
			Name:    "transactionType",
			Value:   typ,
			Message: "unknown transaction type",
		})
	}
	if env.Clock == nil {
		env.Clock = clock.RealClock{}
	}
	return &Transaction{typ: typ, source: source, env: env, profile: p}, nil
}

func (t *Transaction) Type() model.TransactionType {
	return t.typ
}

func (t *Transaction) State() State {
	return t.state
}

// Execute runs the transaction and reports whether it committed. Failures never escape as errors; they are
// passed to Env.OnError instead.
func (t *Transaction) Execute(ctx context.Context) bool {
	t.state = Running
	committed, err := t.execute(ctx)
	if err != nil && t.env.OnError != nil {
		t.env.OnError(t.typ, err)
	}
	if committed {
		t.state = Committed
	} else {
		t.state = RolledBack
	}
	return committed
}

func (t *Transaction) execute(ctx context.Context) (bool, error) {
	conn, err := t.source.AcquireConnection(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = conn.Close()
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.WithStack(err)
	}
	s := &session{tx: tx, queries: t.source.Queries(), env: t.env}

	ok, err := t.profile.run(ctx, s)
	if err != nil || !ok {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && err == nil {
			err = errors.WithStack(rollbackErr)
		}
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit failed")
	}
	return true, nil
}

type district struct {
	warehouseID int
	districtID  int
}
