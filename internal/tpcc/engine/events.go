package engine

import (
	"time"

	"github.com/armadaproject/tpccbench/internal/tpcc/metrics"
)

type EventType string

const (
	EventLog      EventType = "log"
	EventStatus   EventType = "status"
	EventProgress EventType = "progress"
	EventMetrics  EventType = "metrics"
)

// Event is pushed to the channel given in Options. The concrete payload type depends on Type: LogEntry,
// StatusChange, LoadProgress or MetricsUpdate.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

type StatusChange struct {
	Status  Status `json:"status"`
	Loading bool   `json:"loading"`
	Running bool   `json:"running"`
}

// LoadProgress is a percentage; -1 means the load failed or was cancelled.
type LoadProgress struct {
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Status   Status `json:"status"`
}

type MetricsUpdate struct {
	Transaction metrics.Summary `json:"transaction"`
	Database    map[string]any  `json:"database"`
	OS          map[string]any  `json:"os"`
	DBHost      map[string]any  `json:"dbHost"`
	Status      Status          `json:"status"`
}

// emit never blocks: if nobody is draining the channel the event is dropped.
func (e *Engine) emit(eventType EventType, payload any) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- Event{Type: eventType, Payload: payload}:
	default:
	}
}
