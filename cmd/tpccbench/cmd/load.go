package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/engine"
)

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Drops and recreates the benchmark schema, then loads it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, _ configuration.Config, e *engine.Engine) error {
				return e.LoadData(ctx)
			})
		},
	}
}
