package engine

import (
	"fmt"
	"sync"

	"go.uber.org/zap/zapcore"
)

const maxLogHistory = 1000

type logHistory struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (h *logHistory) add(entry LogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) >= maxLogHistory {
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = entry
		return
	}
	h.entries = append(h.entries, entry)
}

func (h *logHistory) list() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *logHistory) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// eventCore is a zap core that turns every entry at info or above into a LogEntry. It is teed with the
// process-wide core so that engine log lines reach both the console and the engine's subscribers.
type eventCore struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
	sink   func(LogEntry)
}

func newEventCore(sink func(LogEntry)) zapcore.Core {
	return &eventCore{LevelEnabler: zapcore.InfoLevel, sink: sink}
}

func (c *eventCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

func (c *eventCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *eventCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	message := entry.Message
	if err, ok := enc.Fields["error"]; ok {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	logEntry := LogEntry{Timestamp: entry.Time, Level: entry.Level.CapitalString(), Message: message}
	if len(enc.Fields) > 0 {
		logEntry.Fields = enc.Fields
	}
	c.sink(logEntry)
	return nil
}

func (c *eventCore) Sync() error {
	return nil
}
