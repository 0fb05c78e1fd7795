package configuration

import (
	"fmt"

	"github.com/pkg/errors"

	commonconfig "github.com/armadaproject/tpccbench/internal/common/config"
	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
)

// Validate checks the whole configuration tree and returns the first problem found.
func (c Config) Validate() error {
	if err := commonconfig.Validate(c); err != nil {
		commonconfig.LogValidationErrors(err)
		return errors.WithStack(&tpccerrors.ErrInvalidArgument{Name: "config", Message: err.Error()})
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Benchmark.Validate(); err != nil {
		return err
	}
	if err := c.TransactionMix.Validate(); err != nil {
		return err
	}
	if c.Database.Pool.Size < c.Benchmark.Terminals {
		return invalid("database.pool.size", c.Database.Pool.Size,
			fmt.Sprintf("pool size must be at least the number of terminals (%d)", c.Benchmark.Terminals))
	}
	return nil
}

func (d DatabaseConfig) Validate() error {
	if _, err := dialect.Lookup(d.Type); err != nil {
		return invalid("database.type", d.Type, fmt.Sprintf("supported types are %v", dialect.SupportedTypes()))
	}
	if d.Pool.Size < 1 {
		return invalid("database.pool.size", d.Pool.Size, "pool size must be positive")
	}
	if d.Pool.MinIdle > d.Pool.Size {
		return invalid("database.pool.minIdle", d.Pool.MinIdle, "minIdle must not exceed the pool size")
	}
	return nil
}

func (b BenchmarkConfig) Validate() error {
	if b.Duration <= 0 {
		return invalid("benchmark.duration", b.Duration, "duration must be positive")
	}
	if b.RampUp < 0 {
		return invalid("benchmark.rampUp", b.RampUp, "rampUp must be non-negative")
	}
	if b.RampUp >= b.Duration && b.RampUp > 0 {
		return invalid("benchmark.rampUp", b.RampUp, "rampUp must be shorter than the duration")
	}
	return nil
}

func (m MixConfig) Validate() error {
	if m.Total() <= 0 {
		return invalid("transactionMix", m, "at least one transaction weight must be positive")
	}
	return nil
}

func invalid(name string, value any, message string) error {
	return errors.WithStack(&tpccerrors.ErrInvalidArgument{Name: name, Value: value, Message: message})
}
