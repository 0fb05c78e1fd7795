package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
)

func TestFlagOverrides(t *testing.T) {
	flags := RootCmd().PersistentFlags()
	require.NoError(t, flags.Parse([]string{
		"--dsn", "jdbc:postgresql://db:5432/tpcc",
		"--warehouses", "3",
		"--duration", "90s",
		"--pool", "20",
	}))

	assert.Equal(t, map[string]any{
		"database": map[string]any{
			"dsn":  "jdbc:postgresql://db:5432/tpcc",
			"type": "postgresql",
			"pool": map[string]any{"size": "20"},
		},
		"benchmark": map[string]any{
			"warehouses": "3",
			"duration":   "1m30s",
		},
	}, flagOverrides(flags))
}

func TestFlagOverrides_ExplicitTypeWins(t *testing.T) {
	flags := RootCmd().PersistentFlags()
	require.NoError(t, flags.Parse([]string{"--dsn", "tcp(db:3306)/tpcc", "--type", "oceanbase", "--metricsPort", "9090"}))

	update := flagOverrides(flags)
	assert.Equal(t, "oceanbase", update["database"].(map[string]any)["type"])
	assert.Equal(t, map[string]any{"port": "9090"}, update["metrics"])
}

func TestLoadConfig(t *testing.T) {
	flags := RootCmd().PersistentFlags()
	require.NoError(t, flags.Parse([]string{
		"--dsn", "postgres://db:5432/tpcc",
		"--user", "bench",
		"--warehouses", "3",
		"--duration", "90s",
		"--terminals", "20",
		"--load-threads", "2",
	}))

	config, err := loadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", config.Database.Type)
	assert.Equal(t, "bench", config.Database.Username)
	assert.Equal(t, 50, config.Database.Pool.Size)
	assert.Equal(t, 3, config.Benchmark.Warehouses)
	assert.Equal(t, 20, config.Benchmark.Terminals)
	assert.Equal(t, 2, config.Benchmark.LoadConcurrency)
	assert.Equal(t, 90*time.Second, config.Benchmark.Duration)
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig(RootCmd().PersistentFlags())
	require.NoError(t, err)
	assert.Equal(t, cliDefaults(), config)
	assert.Equal(t, 1, config.Benchmark.Warehouses)
	assert.Equal(t, 10, config.Benchmark.Terminals)
}

func TestLoadConfig_PoolSmallerThanTerminals(t *testing.T) {
	flags := RootCmd().PersistentFlags()
	require.NoError(t, flags.Parse([]string{"--pool", "5", "--terminals", "10"}))

	_, err := loadConfig(flags)
	var invalid *tpccerrors.ErrInvalidArgument
	assert.ErrorAs(t, err, &invalid)
}
