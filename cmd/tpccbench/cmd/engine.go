package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/armadaproject/tpccbench/internal/common/app"
	log "github.com/armadaproject/tpccbench/internal/common/logging"
	"github.com/armadaproject/tpccbench/internal/common/serve"
	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/engine"
	"github.com/armadaproject/tpccbench/internal/tpcc/metrics"
)

// withEngine loads the configuration, builds an engine and hands both to action. The context passed to action
// is cancelled on SIGINT or SIGTERM.
func withEngine(cmd *cobra.Command, action func(ctx context.Context, config configuration.Config, e *engine.Engine) error) error {
	config, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	options := engine.Options{}
	if config.Metrics.Port > 0 {
		sink, err := metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		options.Sink = sink
		shutdownMetricServer := serve.ServeMetrics(uint16(config.Metrics.Port))
		defer shutdownMetricServer()
	}

	e := engine.New(config, options)
	defer e.Shutdown()

	ctx := app.CreateContextWithShutdown()
	if err := e.Initialize(ctx); err != nil {
		return err
	}
	return action(ctx, config, e)
}

// runBenchmark starts a run and blocks until it has finished, printing a progress line every second. An
// interrupt stops the run early.
func runBenchmark(ctx context.Context, out io.Writer, e *engine.Engine) (engine.Results, error) {
	if err := e.Start(ctx); err != nil {
		return engine.Results{}, err
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Interrupted, stopping benchmark")
			e.Stop()
			_, _ = fmt.Fprintln(out)
			return e.Results(), nil
		case <-ticker.C:
			if e.Status() == engine.StatusStopped {
				_, _ = fmt.Fprintln(out)
				return e.Results(), nil
			}
			m := e.Results().Metrics
			_, _ = fmt.Fprintf(out, "\rTPS: %.2f | Total: %d | Success: %.1f%% | Avg Latency: %.2fms | Elapsed: %ds",
				m.TPS, m.TotalTransactions, m.OverallSuccessRate, m.AvgLatencyMs, m.ElapsedSeconds)
		}
	}
}
