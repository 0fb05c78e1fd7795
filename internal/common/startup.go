package common

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	commonconfig "github.com/armadaproject/tpccbench/internal/common/config"
	log "github.com/armadaproject/tpccbench/internal/common/logging"
)

const envPrefix = "TPCCBENCH"

// LoadConfig populates config from, in increasing order of precedence: the values already present in config,
// the yaml file at defaultPath (if it exists), each override file and TPCCBENCH_* environment variables.
func LoadConfig(config any, defaultPath string, overrides []string) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := seedDefaults(v, config); err != nil {
		return err
	}

	if defaultPath != "" {
		v.SetConfigFile(defaultPath)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return errors.Wrapf(err, "error reading base config path=%s", defaultPath)
			}
			log.Debugf("no config file at %s, using defaults", defaultPath)
		} else {
			log.Infof("Read base config from %s", v.ConfigFileUsed())
		}
	}

	for _, overridePath := range overrides {
		v.SetConfigFile(overridePath)
		if err := v.MergeInConfig(); err != nil {
			return errors.Wrapf(err, "error reading config from %s", overridePath)
		}
		log.Infof("Read config from %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// seedDefaults registers every leaf of the existing config as a viper default so that AutomaticEnv can see
// keys that appear in no file.
func seedDefaults(v *viper.Viper, config any) error {
	defaults := map[string]any{}
	if err := mapstructure.Decode(config, &defaults); err != nil {
		return errors.WithStack(err)
	}
	for key, value := range flatten("", defaults) {
		v.SetDefault(key, value)
	}
	return nil
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory") ||
		strings.Contains(err.Error(), "cannot find the file")
}
