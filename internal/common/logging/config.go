package logging

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v2"
)

const (
	FormatText = "text"
	FormatJson = "json"
)

var validLogFormats = map[string]bool{
	FormatText: true,
	FormatJson: true,
}

// Config is the logging configuration read from config/logging.yaml.
type Config struct {
	Console SinkConfig `yaml:"console"`
	File    FileConfig `yaml:"file"`
}

// SinkConfig is the level and format of one log destination.
type SinkConfig struct {
	// e.g. debug, info, warn
	Level string `yaml:"level"`
	// text or json
	Format string `yaml:"format"`
}

type FileConfig struct {
	SinkConfig `yaml:",inline"`

	Enabled  bool           `yaml:"enabled"`
	LogFile  string         `yaml:"logfile"`
	Rotation RotationConfig `yaml:"rotation"`
}

// RotationConfig is handed to lumberjack when file logging is rotated.
type RotationConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxSizeMb  int  `yaml:"maxSizeMb"`
	MaxBackups int  `yaml:"maxBackups"`
	MaxAgeDays int  `yaml:"maxAgeDays"`
	Compress   bool `yaml:"compress"`
}

// DefaultConfig is used when no logging config file exists: text to stdout at info level.
func DefaultConfig() Config {
	return Config{Console: SinkConfig{Level: "info", Format: FormatText}}
}

// readConfig loads the config at configFilePath, falling back to DefaultConfig if there is none. A non-empty
// levelOverride replaces the console level.
func readConfig(configFilePath string, levelOverride string) (Config, error) {
	config := DefaultConfig()
	yamlConfig, err := os.ReadFile(configFilePath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return Config{}, errors.Wrap(err, "failed to read log config file")
	default:
		config = Config{}
		if err := yaml.Unmarshal(yamlConfig, &config); err != nil {
			return Config{}, errors.Wrap(err, "failed to unmarshall log config file")
		}
	}
	if levelOverride != "" {
		config.Console.Level = levelOverride
	}
	if err := validate(config); err != nil {
		return Config{}, errors.Wrap(err, "invalid log configuration")
	}
	return config, nil
}

func validate(c Config) error {
	if err := c.Console.validate("console"); err != nil {
		return err
	}
	if !c.File.Enabled {
		return nil
	}
	if err := c.File.validate("file"); err != nil {
		return err
	}
	if c.File.LogFile == "" {
		return errors.New("file.logfile must be set when file logging is enabled")
	}
	return c.File.Rotation.validate()
}

func (s SinkConfig) validate(name string) error {
	if _, err := parseLogLevel(s.Level); err != nil {
		return errors.WithMessage(err, name)
	}
	if !validLogFormats[s.Format] {
		formats := maps.Keys(validLogFormats)
		sort.Strings(formats)
		return errors.Errorf("%s: unknown log format: %s.  Valid formats are %s", name, s.Format, formats)
	}
	return nil
}

func (r RotationConfig) validate() error {
	if !r.Enabled {
		return nil
	}
	limits := []struct {
		name  string
		value int
	}{
		{"maxSizeMb", r.MaxSizeMb},
		{"maxBackups", r.MaxBackups},
		{"maxAgeDays", r.MaxAgeDays},
	}
	for _, limit := range limits {
		if limit.value <= 0 {
			return errors.Errorf("rotation.%s must be greater than zero", limit.name)
		}
	}
	return nil
}

func parseLogLevel(level string) (zapcore.Level, error) {
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel, errors.Errorf("unknown level: %s", level)
	}
	return l, nil
}
