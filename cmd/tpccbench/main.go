package main

import (
	"os"

	"github.com/armadaproject/tpccbench/cmd/tpccbench/cmd"
	log "github.com/armadaproject/tpccbench/internal/common/logging"
)

func main() {
	log.MustConfigureApplicationLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
