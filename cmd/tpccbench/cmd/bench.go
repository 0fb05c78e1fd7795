package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	log "github.com/armadaproject/tpccbench/internal/common/logging"
	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/engine"
	"github.com/armadaproject/tpccbench/internal/tpcc/metrics"
)

func benchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Optionally cleans and loads, then runs the benchmark and prints a summary",
		RunE:  bench,
	}
	cmd.Flags().Bool("load-only", false, "Only load data, don't run the benchmark")
	cmd.Flags().Bool("clean", false, "Clean existing data and reload it before running")
	return cmd
}

func bench(cmd *cobra.Command, _ []string) error {
	loadOnly, err := cmd.Flags().GetBool("load-only")
	if err != nil {
		return errors.WithStack(err)
	}
	clean, err := cmd.Flags().GetBool("clean")
	if err != nil {
		return errors.WithStack(err)
	}

	return withEngine(cmd, func(ctx context.Context, config configuration.Config, e *engine.Engine) error {
		out := cmd.OutOrStdout()
		printConfiguration(out, config)

		if clean {
			if err := e.CleanData(ctx); err != nil {
				return err
			}
		}
		if loadOnly || clean {
			if err := e.LoadData(ctx); err != nil {
				return err
			}
		}
		if loadOnly {
			log.Info("Load-only mode, skipping benchmark")
			return nil
		}

		results, err := runBenchmark(ctx, out, e)
		if err != nil {
			return err
		}
		printResults(out, results.Metrics)
		return nil
	})
}

func printConfiguration(out io.Writer, config configuration.Config) {
	d, b := config.Database, config.Benchmark
	_, _ = fmt.Fprintf(out, "Configuration:\n")
	_, _ = fmt.Fprintf(out, "  Database Type: %s\n", strings.ToUpper(d.Type))
	_, _ = fmt.Fprintf(out, "  DSN:           %s\n", d.DSN)
	_, _ = fmt.Fprintf(out, "  Username:      %s\n", d.Username)
	_, _ = fmt.Fprintf(out, "  Pool Size:     %d\n\n", d.Pool.Size)
	_, _ = fmt.Fprintf(out, "  Warehouses:    %d\n", b.Warehouses)
	_, _ = fmt.Fprintf(out, "  Terminals:     %d\n", b.Terminals)
	_, _ = fmt.Fprintf(out, "  Duration:      %s\n", b.Duration)
	_, _ = fmt.Fprintf(out, "  Load Threads:  %d\n\n", b.LoadConcurrency)
}

func printResults(out io.Writer, s metrics.Summary) {
	_, _ = fmt.Fprintf(out, "BENCHMARK RESULTS\n")
	_, _ = fmt.Fprintf(out, "  Throughput (TPS):   %10.2f\n", s.TPS)
	_, _ = fmt.Fprintf(out, "  Total Transactions: %10d\n", s.TotalTransactions)
	_, _ = fmt.Fprintf(out, "  Successful:         %10d\n", s.TotalSuccess)
	_, _ = fmt.Fprintf(out, "  Failed:             %10d\n", s.TotalFailure)
	_, _ = fmt.Fprintf(out, "  Success Rate:       %10.2f%%\n", s.OverallSuccessRate)
	_, _ = fmt.Fprintf(out, "  Average Latency:    %10.2f ms\n", s.AvgLatencyMs)
	_, _ = fmt.Fprintf(out, "  Duration:           %10d seconds\n", s.ElapsedSeconds)
	for _, t := range s.Transactions {
		_, _ = fmt.Fprintf(out, "  %-12s count=%d success=%.2f%% avg=%.2fms p95=%.2fms p99=%.2fms\n",
			t.Name, t.Count, t.SuccessRate, t.AvgLatencyMs, t.P95LatencyMs, t.P99LatencyMs)
	}
}
