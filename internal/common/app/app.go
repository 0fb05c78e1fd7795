package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/armadaproject/tpccbench/internal/common/logging"
)

// CreateContextWithShutdown returns a context that is cancelled on the first SIGINT or SIGTERM, giving a
// running benchmark the chance to stop and report. A second signal exits immediately.
func CreateContextWithShutdown() context.Context {
	return withShutdown(context.Background(), func() { os.Exit(130) })
}

func withShutdown(parent context.Context, exit func()) context.Context {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			log.Infof("Received %s, shutting down (signal again to exit immediately)", sig)
			cancel()
		case <-ctx.Done():
			signal.Stop(c)
			return
		}
		<-c
		exit()
	}()
	return ctx
}
