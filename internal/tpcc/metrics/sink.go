package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsPrefix = "tpccbench_"

// PrometheusSink mirrors snapshots into prometheus gauges so that a running benchmark can be scraped.
type PrometheusSink struct {
	transactions *prometheus.GaugeVec
	latency      *prometheus.GaugeVec
	tps          prometheus.Gauge
	successRate  prometheus.Gauge
	database     *prometheus.GaugeVec
	host         *prometheus.GaugeVec
}

func NewPrometheusSink(registerer prometheus.Registerer) (*PrometheusSink, error) {
	s := &PrometheusSink{
		transactions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricsPrefix + "transactions",
			Help: "Number of transactions executed since the measurement window started",
		}, []string{"type", "outcome"}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricsPrefix + "transaction_latency_ms",
			Help: "Transaction latency statistics in milliseconds",
		}, []string{"type", "stat"}),
		tps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricsPrefix + "tps",
			Help: "Transactions per second over the measurement window",
		}),
		successRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricsPrefix + "success_rate_percent",
			Help: "Percentage of transactions that committed",
		}),
		database: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricsPrefix + "database_metric",
			Help: "Numeric statistics reported by the database under test",
		}, []string{"name"}),
		host: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricsPrefix + "host_metric",
			Help: "Numeric statistics reported for the benchmark host",
		}, []string{"name"}),
	}
	for _, c := range []prometheus.Collector{s.transactions, s.latency, s.tps, s.successRate, s.database, s.host} {
		if err := registerer.Register(c); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return s, nil
}

// Publish updates every gauge from snapshot. Non-numeric database and host values are skipped.
func (s *PrometheusSink) Publish(snapshot Snapshot) {
	summary := snapshot.Transactions
	s.tps.Set(summary.TPS)
	s.successRate.Set(summary.OverallSuccessRate)
	for _, t := range summary.Transactions {
		name := string(t.Name)
		s.transactions.WithLabelValues(name, "success").Set(float64(t.Success))
		s.transactions.WithLabelValues(name, "failure").Set(float64(t.Failure))
		s.latency.WithLabelValues(name, "avg").Set(t.AvgLatencyMs)
		s.latency.WithLabelValues(name, "min").Set(t.MinLatencyMs)
		s.latency.WithLabelValues(name, "max").Set(t.MaxLatencyMs)
		s.latency.WithLabelValues(name, "p50").Set(t.P50LatencyMs)
		s.latency.WithLabelValues(name, "p95").Set(t.P95LatencyMs)
		s.latency.WithLabelValues(name, "p99").Set(t.P99LatencyMs)
	}
	publishNumeric(s.database, snapshot.Database)
	publishNumeric(s.host, snapshot.OS)
}

func publishNumeric(vec *prometheus.GaugeVec, values map[string]any) {
	for k, v := range values {
		if f, ok := toFloat(v); ok {
			vec.WithLabelValues(k).Set(f)
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
