package metrics

import "github.com/armadaproject/tpccbench/internal/tpcc/model"

type TransactionSummary struct {
	Name         model.TransactionType `json:"name"`
	Count        int64                 `json:"count"`
	Success      int64                 `json:"success"`
	Failure      int64                 `json:"failure"`
	SuccessRate  float64               `json:"successRate"`
	AvgLatencyMs float64               `json:"avgLatencyMs"`
	MinLatencyMs float64               `json:"minLatencyMs"`
	MaxLatencyMs float64               `json:"maxLatencyMs"`
	P50LatencyMs float64               `json:"p50LatencyMs"`
	P95LatencyMs float64               `json:"p95LatencyMs"`
	P99LatencyMs float64               `json:"p99LatencyMs"`
}

// Summary is the aggregate view of a run. Average latency includes failed transactions.
type Summary struct {
	Transactions       []TransactionSummary `json:"transactions"`
	TotalTransactions  int64                `json:"totalTransactions"`
	TotalSuccess       int64                `json:"totalSuccess"`
	TotalFailure       int64                `json:"totalFailure"`
	OverallSuccessRate float64              `json:"overallSuccessRate"`
	AvgLatencyMs       float64              `json:"avgLatencyMs"`
	ElapsedSeconds     int64                `json:"elapsedSeconds"`
	TPS                float64              `json:"tps"`
}

// Snapshot is one point of the metrics history. It is never modified after creation.
type Snapshot struct {
	Timestamp    int64          `json:"timestamp"`
	Transactions Summary        `json:"transactionMetrics"`
	Database     map[string]any `json:"databaseMetrics"`
	OS           map[string]any `json:"osMetrics"`
}
