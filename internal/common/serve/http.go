package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/armadaproject/tpccbench/internal/common/logging"
)

const shutdownTimeout = 5 * time.Second

// ServeMetrics exposes the default Prometheus registry on /metrics.
func ServeMetrics(port uint16) (shutdown func()) {
	return ServeMetricsFor(port, prometheus.DefaultGatherer)
}

func ServeMetricsFor(port uint16, gatherer prometheus.Gatherer) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return ServeHttp(port, mux)
}

// ServeHttp serves handler on port in the background until the returned function is called.
func ServeHttp(port uint16, handler http.Handler) (shutdown func()) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Starting http server listening on %d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithStacktrace(err).Errorf("http server listening on %d failed", port)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Infof("Stopping http server listening on %d", port)
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warnf("error stopping http server listening on %d", port)
		}
	}
}
