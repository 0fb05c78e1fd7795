package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	log "github.com/armadaproject/tpccbench/internal/common/logging"
)

// Validate runs struct-tag validation over config.
func Validate(config any) error {
	return validator.New().Struct(config)
}

func LogValidationErrors(err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		if err != nil {
			log.Errorf("ConfigError: %s", err)
		}
		return
	}
	for _, err := range validationErrors {
		fieldName := stripPrefix(err.Namespace())
		tag := err.Tag()
		switch tag {
		case "required":
			log.Errorf("ConfigError: Field %s is required but was not found", fieldName)
		default:
			log.Errorf("ConfigError: Field %s has invalid value %v: %s", fieldName, err.Value(), tag)
		}
	}
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
