/*
Package configuration defines the input configuration for a tpccbench run.

tpccbench is a TPC-C style OLTP benchmark driver. It loads the nine TPC-C tables into a database under test,
drives a configurable mix of the five TPC-C transactions from concurrent terminals and reports throughput and
latency.

# Configuration Structure

The main configuration type is Config, which defines:

  - Database configuration (family, DSN, credentials and connection pool sizing)
  - Benchmark configuration (scale, terminals, duration, ramp-up and think time)
  - The transaction mix, as relative weights of the five transaction types
  - Metrics configuration (the port the prometheus endpoint listens on)

# Example YAML Configuration

	database:
	  type: postgresql
	  dsn: postgres://localhost:5432/tpcc
	  username: bench
	  password: bench
	  pool:
	    size: 64
	    minIdle: 10
	    acquireTimeout: 30s
	benchmark:
	  warehouses: 10
	  terminals: 50
	  duration: 10m
	  rampUp: 1m
	  thinkTime: true
	  loadConcurrency: 4
	transactionMix:
	  newOrder: 45
	  payment: 43
	  orderStatus: 4
	  delivery: 4
	  stockLevel: 4

Durations may be written either as Go duration strings or as a number of seconds.

# Validation

Config.Validate() checks the struct tags with go-playground/validator and then the rules that span fields:

  - The database type must name a supported family
  - The connection pool must hold at least one connection per terminal
  - The transaction mix must have at least one positive weight
  - Ramp-up must end before the run does

Example usage:

	config := configuration.Default()
	if err := common.LoadConfig(&config, "config/tpccbench.yaml", nil); err != nil {
	    return err
	}
	if err := config.Validate(); err != nil {
	    return err
	}
*/
package configuration
