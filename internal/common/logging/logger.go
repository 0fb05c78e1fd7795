package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger so that callers can attach structured fields in the
// style used throughout tpccbench (WithField, WithFields, WithError).
type Logger struct {
	underlying *zap.SugaredLogger
}

// FromZap returns a Logger backed by the given zap logger.
func FromZap(l *zap.Logger) *Logger {
	return &Logger{underlying: l.Sugar()}
}

// NewLogger returns a Logger writing to the given core. Caller information is recorded
// relative to the code calling the Logger methods.
func NewLogger(core zapcore.Core) *Logger {
	return &Logger{
		underlying: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
	}
}

// Core exposes the zap core so that it can be teed with additional sinks.
func (l *Logger) Core() zapcore.Core {
	return l.underlying.Desugar().Core()
}

func (l *Logger) Debug(args ...any) {
	l.underlying.Debug(args...)
}

func (l *Logger) Info(args ...any) {
	l.underlying.Info(args...)
}

func (l *Logger) Warn(args ...any) {
	l.underlying.Warn(args...)
}

func (l *Logger) Error(args ...any) {
	l.underlying.Error(args...)
}

func (l *Logger) Fatal(args ...any) {
	l.underlying.Fatal(args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.underlying.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.underlying.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.underlying.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.underlying.Errorf(format, args...)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.underlying.Fatalf(format, args...)
}

// WithField returns a new Logger with the key-value pair added as a new field
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{underlying: l.underlying.With(key, value)}
}

// WithFields returns a new Logger with all key-value pairs in the map added as new fields
func (l *Logger) WithFields(args map[string]any) *Logger {
	fields := make([]any, 0, len(args)*2)
	for k, v := range args {
		fields = append(fields, k, v)
	}
	return &Logger{underlying: l.underlying.With(fields...)}
}

// WithError returns a new Logger with the error added as a field
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", errorString(err))
}

// WithStacktrace returns a new Logger with the error and (if available) the stacktrace added as fields
func (l *Logger) WithStacktrace(err error) *Logger {
	logger := l.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		logger = logger.WithField(Stacktrace, fmt.Sprintf("%+v", stack))
	}
	return logger
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
