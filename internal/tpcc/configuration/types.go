package configuration

import (
	"time"

	"github.com/armadaproject/tpccbench/internal/common/database"
	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

type Config struct {
	Database       DatabaseConfig  `yaml:"database" mapstructure:"database" json:"database"`
	Benchmark      BenchmarkConfig `yaml:"benchmark" mapstructure:"benchmark" json:"benchmark"`
	TransactionMix MixConfig       `yaml:"transactionMix" mapstructure:"transactionMix" json:"transactionMix"`
	Metrics        MetricsConfig   `yaml:"metrics" mapstructure:"metrics" json:"metrics"`
}

type DatabaseConfig struct {
	// Type is a database family or one of its aliases, e.g. "postgresql" or "mssql".
	Type     string `yaml:"type" mapstructure:"type" json:"type" validate:"required"`
	DSN      string `yaml:"dsn" mapstructure:"dsn" json:"dsn"`
	Username string `yaml:"username" mapstructure:"username" json:"username"`
	Password string `yaml:"password" mapstructure:"password" json:"-"`
	// Driver overrides the database/sql driver registered for the family, e.g. "postgres" to use lib/pq.
	Driver string     `yaml:"driver" mapstructure:"driver" json:"driver,omitempty"`
	Pool   PoolConfig `yaml:"pool" mapstructure:"pool" json:"pool"`
}

type PoolConfig struct {
	Size           int           `yaml:"size" mapstructure:"size" json:"size" validate:"gte=1"`
	MinIdle        int           `yaml:"minIdle" mapstructure:"minIdle" json:"minIdle" validate:"gte=0"`
	AcquireTimeout time.Duration `yaml:"acquireTimeout" mapstructure:"acquireTimeout" json:"acquireTimeout" validate:"gte=0"`
	MaxLifetime    time.Duration `yaml:"maxLifetime" mapstructure:"maxLifetime" json:"maxLifetime" validate:"gte=0"`
	IdleTimeout    time.Duration `yaml:"idleTimeout" mapstructure:"idleTimeout" json:"idleTimeout" validate:"gte=0"`
}

type BenchmarkConfig struct {
	Warehouses int           `yaml:"warehouses" mapstructure:"warehouses" json:"warehouses" validate:"gte=1"`
	Terminals  int           `yaml:"terminals" mapstructure:"terminals" json:"terminals" validate:"gte=1"`
	Duration   time.Duration `yaml:"duration" mapstructure:"duration" json:"duration" validate:"gt=0"`
	// RampUp is discarded from the results: metrics are reset once it has elapsed.
	RampUp          time.Duration `yaml:"rampUp" mapstructure:"rampUp" json:"rampUp" validate:"gte=0"`
	ThinkTime       bool          `yaml:"thinkTime" mapstructure:"thinkTime" json:"thinkTime"`
	LoadConcurrency int           `yaml:"loadConcurrency" mapstructure:"loadConcurrency" json:"loadConcurrency" validate:"gte=1"`
	// Seed fixes the random streams of the loader and the terminals. Zero means seed from the clock.
	Seed uint64 `yaml:"seed" mapstructure:"seed" json:"seed,omitempty"`
}

// MixConfig holds relative weights; they need not sum to 100.
type MixConfig struct {
	NewOrder    int `yaml:"newOrder" mapstructure:"newOrder" json:"newOrder" validate:"gte=0"`
	Payment     int `yaml:"payment" mapstructure:"payment" json:"payment" validate:"gte=0"`
	OrderStatus int `yaml:"orderStatus" mapstructure:"orderStatus" json:"orderStatus" validate:"gte=0"`
	Delivery    int `yaml:"delivery" mapstructure:"delivery" json:"delivery" validate:"gte=0"`
	StockLevel  int `yaml:"stockLevel" mapstructure:"stockLevel" json:"stockLevel" validate:"gte=0"`
}

type MetricsConfig struct {
	// Port serves /metrics when positive.
	Port int `yaml:"port" mapstructure:"port" json:"port" validate:"gte=0,lte=65535"`
}

// Weights returns the mix weights in the order of model.TransactionTypes.
func (m MixConfig) Weights() []int {
	return []int{m.NewOrder, m.Payment, m.OrderStatus, m.Delivery, m.StockLevel}
}

func (m MixConfig) Total() int {
	total := 0
	for _, w := range m.Weights() {
		total += w
	}
	return total
}

// Weight returns the weight of a single transaction type.
func (m MixConfig) Weight(t model.TransactionType) int {
	for i, typ := range model.TransactionTypes {
		if typ == t {
			return m.Weights()[i]
		}
	}
	return 0
}

// ConnectionConfig converts the database section into what the dialect adapter needs.
func (d DatabaseConfig) ConnectionConfig() dialect.ConnectionConfig {
	return dialect.ConnectionConfig{
		DSN:      d.DSN,
		Username: d.Username,
		Password: d.Password,
		Driver:   d.Driver,
		Pool: database.PoolConfig{
			MaxOpen:     d.Pool.Size,
			MaxIdle:     d.Pool.MinIdle,
			MaxLifetime: d.Pool.MaxLifetime,
			IdleTimeout: d.Pool.IdleTimeout,
		},
		AcquireTimeout: d.Pool.AcquireTimeout,
	}
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Type:     "mysql",
			DSN:      "tcp(127.0.0.1:3306)/tpcc",
			Username: "sysbench",
			Password: "sysbench",
			Pool: PoolConfig{
				Size:           50,
				MinIdle:        10,
				AcquireTimeout: 30 * time.Second,
			},
		},
		Benchmark: BenchmarkConfig{
			Warehouses:      10,
			Terminals:       50,
			Duration:        60 * time.Second,
			ThinkTime:       true,
			LoadConcurrency: 4,
		},
		TransactionMix: MixConfig{
			NewOrder:    45,
			Payment:     43,
			OrderStatus: 4,
			Delivery:    4,
			StockLevel:  4,
		},
	}
}
