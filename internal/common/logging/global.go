package logging

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// The global Logger. Comes configured with console defaults suitable for unit tests and the CLI;
// applications replace it at startup via ReplaceStdLogger or ConfigureApplicationLogging. Loggers already
// derived from it, such as the benchmark engine's, keep writing to the core they were built with.
var stdLogger atomic.Pointer[Logger]

func init() {
	stdLogger.Store(&Logger{underlying: createDefaultLogger()})
}

// ReplaceStdLogger replaces the global logger.
func ReplaceStdLogger(l *Logger) {
	stdLogger.Store(l)
}

// StdLogger returns the global logger
func StdLogger() *Logger {
	return stdLogger.Load()
}

func Debug(args ...any) {
	StdLogger().Debug(args...)
}

func Info(args ...any) {
	StdLogger().Info(args...)
}

func Warn(args ...any) {
	StdLogger().Warn(args...)
}

func Error(args ...any) {
	StdLogger().Error(args...)
}

// Fatal logs at level Fatal on the global logger, then the process exits with status 1.
func Fatal(args ...any) {
	StdLogger().Fatal(args...)
}

func Debugf(format string, args ...any) {
	StdLogger().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	StdLogger().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	StdLogger().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	StdLogger().Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	StdLogger().Fatalf(format, args...)
}

// WithField returns a new Logger with the key-value pair added as a new field
func WithField(key string, value any) *Logger {
	return StdLogger().WithField(key, value)
}

// WithFields returns a new Logger with all key-value pairs in the map added as new fields
func WithFields(args map[string]any) *Logger {
	return StdLogger().WithFields(args)
}

// WithError returns a new Logger with the error added as a field
func WithError(err error) *Logger {
	return StdLogger().WithError(err)
}

// WithStacktrace returns a new Logger with the error and (if available) the stacktrace added as fields
func WithStacktrace(err error) *Logger {
	return StdLogger().WithStacktrace(err)
}

func createDefaultLogger() *zap.SugaredLogger {
	core := zapcore.NewCore(newConsoleEncoder(), zapcore.AddSync(os.Stdout), zapcore.DebugLevel)
	return zap.
		New(core, zap.AddCaller()).
		WithOptions(zap.AddCallerSkip(2)).
		Sugar()
}

func newConsoleEncoder() zapcore.Encoder {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	pe.ConsoleSeparator = " "
	pe.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(pe)
}

func newJsonEncoder() zapcore.Encoder {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(pe)
}
