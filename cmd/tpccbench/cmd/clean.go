package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/engine"
)

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Drops every benchmark table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, _ configuration.Config, e *engine.Engine) error {
				return e.CleanData(ctx)
			})
		},
	}
}
