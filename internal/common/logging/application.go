package logging

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogConfigPath = "config/logging.yaml"
	logConfigPathEnvVar  = "TPCCBENCH_LOG_CONFIG"
	logLevelEnvVar       = "TPCCBENCH_LOG_LEVEL"
)

// MustConfigureApplicationLogging sets up logging suitable for an application. Logging configuration is loaded from
// a filepath given by the TPCCBENCH_LOG_CONFIG environmental variable or from config/logging.yaml if this var is unset.
// TPCCBENCH_LOG_LEVEL, if set, overrides the console level.
// Note that this function will immediately shut down the application if it fails.
func MustConfigureApplicationLogging() {
	err := ConfigureApplicationLogging()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error initializing logging: "+err.Error())
		os.Exit(1)
	}
}

// ConfigureApplicationLogging sets up logging suitable for an application. A missing config file falls back to
// DefaultConfig.
func ConfigureApplicationLogging() error {
	logConfig, err := readConfig(getEnv(logConfigPathEnvVar, defaultLogConfigPath), os.Getenv(logLevelEnvVar))
	if err != nil {
		return err
	}
	logger, err := NewApplicationLogger(logConfig)
	if err != nil {
		return err
	}
	ReplaceStdLogger(logger)
	return nil
}

// NewApplicationLogger builds a Logger from the given config. Console output always goes to stdout; file output,
// when enabled, goes through lumberjack so that it can be rotated.
func NewApplicationLogger(logConfig Config) (*Logger, error) {
	if err := validate(logConfig); err != nil {
		return nil, err
	}

	consoleLevel, err := parseLogLevel(logConfig.Console.Level)
	if err != nil {
		return nil, err
	}
	cores := []zapcore.Core{
		zapcore.NewCore(encoderFor(logConfig.Console.Format), zapcore.AddSync(os.Stdout), consoleLevel),
	}

	if logConfig.File.Enabled {
		fileLevel, err := parseLogLevel(logConfig.File.Level)
		if err != nil {
			return nil, err
		}
		writer, err := createFileWriter(logConfig)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoderFor(logConfig.File.Format), writer, fileLevel))
	}

	underlying := zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(2),
		zap.Hooks(NewPrometheusHook().Run),
	)
	return &Logger{underlying: underlying.Sugar()}, nil
}

func createFileWriter(logConfig Config) (zapcore.WriteSyncer, error) {
	if !logConfig.File.Rotation.Enabled {
		f, err := os.OpenFile(logConfig.File.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open log file %s", logConfig.File.LogFile)
		}
		return zapcore.AddSync(f), nil
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logConfig.File.LogFile,
		MaxSize:    logConfig.File.Rotation.MaxSizeMb,
		MaxBackups: logConfig.File.Rotation.MaxBackups,
		MaxAge:     logConfig.File.Rotation.MaxAgeDays,
		Compress:   logConfig.File.Rotation.Compress,
	}), nil
}

func encoderFor(format string) zapcore.Encoder {
	if format == FormatJson {
		return newJsonEncoder()
	}
	return newConsoleEncoder()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
