package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/armadaproject/tpccbench/internal/common"
	commonconfig "github.com/armadaproject/tpccbench/internal/common/config"
	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/dialect"
)

const (
	CustomConfigLocation = "config"
	defaultConfigPath    = "./config/tpccbench.yaml"

	typeFlag        = "type"
	dsnFlag         = "dsn"
	userFlag        = "user"
	passwordFlag    = "password"
	poolFlag        = "pool"
	warehousesFlag  = "warehouses"
	terminalsFlag   = "terminals"
	durationFlag    = "duration"
	loadThreadsFlag = "load-threads"
	metricsPortFlag = "metricsPort"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tpccbench",
		SilenceUsage: true,
		Short:        "tpccbench runs a TPC-C workload against a relational database",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringSlice(
		CustomConfigLocation,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)")
	flags.String(typeFlag, "", "Database type, e.g. mysql or postgresql. Detected from --dsn when omitted")
	flags.String(dsnFlag, "", "Database connection string")
	flags.String(userFlag, "", "Database username")
	flags.String(passwordFlag, "", "Database password")
	flags.Int(poolFlag, 50, "Connection pool size")
	flags.Int(warehousesFlag, 1, "Number of warehouses")
	flags.Int(terminalsFlag, 10, "Number of terminals (concurrent workers)")
	flags.Duration(durationFlag, 0, "How long to run the benchmark for, e.g. 5m. Defaults to the configured duration")
	flags.Int(loadThreadsFlag, 4, "Number of warehouses loaded in parallel")
	flags.Int(metricsPortFlag, 0, "Port to serve Prometheus metrics on. 0 disables the endpoint")

	cmd.AddCommand(
		loadCmd(),
		runCmd(),
		cleanCmd(),
		benchCmd(),
	)

	return cmd
}

// cliDefaults is the configuration used before any file, environment variable or flag is applied. It matches
// the defaults advertised by the flags.
func cliDefaults() configuration.Config {
	config := configuration.Default()
	config.Benchmark.Warehouses = 1
	config.Benchmark.Terminals = 10
	config.Database.Pool.Size = 50
	config.Benchmark.LoadConcurrency = 4
	return config
}

// loadConfig layers the config files, TPCCBENCH_* environment variables and any flags explicitly set on the
// command line over cliDefaults.
func loadConfig(flags *pflag.FlagSet) (configuration.Config, error) {
	config := cliDefaults()
	userSpecifiedConfigs := viper.GetStringSlice(CustomConfigLocation)
	if err := common.LoadConfig(&config, defaultConfigPath, userSpecifiedConfigs); err != nil {
		return configuration.Config{}, err
	}
	config, err := config.Apply(flagOverrides(flags))
	if err != nil {
		commonconfig.LogValidationErrors(err)
		return configuration.Config{}, err
	}
	return config, nil
}

// flagOverrides turns the flags that were explicitly set into a partial configuration.
func flagOverrides(flags *pflag.FlagSet) map[string]any {
	database := map[string]any{}
	benchmark := map[string]any{}
	metrics := map[string]any{}
	flags.Visit(func(f *pflag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case typeFlag:
			database["type"] = value
		case dsnFlag:
			database["dsn"] = value
		case userFlag:
			database["username"] = value
		case passwordFlag:
			database["password"] = value
		case poolFlag:
			database["pool"] = map[string]any{"size": value}
		case warehousesFlag:
			benchmark["warehouses"] = value
		case terminalsFlag:
			benchmark["terminals"] = value
		case durationFlag:
			benchmark["duration"] = value
		case loadThreadsFlag:
			benchmark["loadConcurrency"] = value
		case metricsPortFlag:
			metrics["port"] = value
		}
	})
	if dsn, ok := database["dsn"].(string); ok && database["type"] == nil {
		if detected, ok := dialect.DetectType(dsn); ok {
			database["type"] = detected
		}
	}

	update := map[string]any{}
	for key, section := range map[string]map[string]any{"database": database, "benchmark": benchmark, "metrics": metrics} {
		if len(section) > 0 {
			update[key] = section
		}
	}
	return update
}
