package logging

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
)

var (
	logMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tpccbench_log_messages",
		Help: "Total number of log lines logged by level",
	}, []string{"level"})
	registerOnce sync.Once
)

// PrometheusHook counts log lines per level. It is installed on application loggers via zap.Hooks.
type PrometheusHook struct {
	counters *prometheus.CounterVec
}

// NewPrometheusHook returns a hook backed by the process-wide log counter, registering it with the default
// Prometheus registry on first use.
func NewPrometheusHook() *PrometheusHook {
	registerOnce.Do(func() {
		prometheus.MustRegister(logMessages)
	})
	return &PrometheusHook{counters: logMessages}
}

func (h *PrometheusHook) Run(entry zapcore.Entry) error {
	h.counters.WithLabelValues(entry.Level.String()).Inc()
	return nil
}
