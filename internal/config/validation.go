// Package config provides configuration management for the F1 predictor.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var driverCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// enumTags maps each enumeration rule to its allowed values.
var enumTags = map[string][]string{
	"environment":   {"development", "staging", "production"},
	"loglevel":      {"debug", "info", "warn", "error"},
	"storagedriver": {"none", "sqlite", "postgres"},
}

// CustomValidator wraps the validator with the configuration rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a validator that reports fields by their YAML key
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	for tag, allowed := range enumTags {
		allowed := allowed
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return contains(allowed, fl.Field().String())
		})
	}
	_ = v.RegisterValidation("drivercodes", validateDriverCodes)

	return &CustomValidator{validator: v}
}

// Validate checks the configuration field by field, then across sections
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate checks the configuration field by field, then across sections
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return formatValidationErrors(fieldErrs)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCrossField(cfg)
}

// IsDriverCode reports whether code is a three-letter uppercase driver code.
func IsDriverCode(code string) bool {
	return driverCodePattern.MatchString(code)
}

func contains(values []string, v string) bool {
	for _, allowed := range values {
		if v == allowed {
			return true
		}
	}
	return false
}

func validateDriverCodes(fl validator.FieldLevel) bool {
	codes, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if !IsDriverCode(code) || seen[code] {
			return false
		}
		seen[code] = true
	}
	return true
}

// validateCrossField checks rules that span several keys
func validateCrossField(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required for the postgres driver")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("database.ssl_mode must be require or verify-full in production")
		}
	}

	if cfg.Publisher.Enabled {
		if cfg.Publisher.RedisURL == "" {
			return fmt.Errorf("publisher.redis_url is required when publishing is enabled")
		}
		if cfg.Publisher.Channel == "" {
			return fmt.Errorf("publisher.channel is required when publishing is enabled")
		}
	}

	if cfg.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule.cron %q: %w", cfg.Schedule.Cron, err)
		}
	}

	if cfg.Secrets.Enabled && (cfg.Secrets.Region == "" || cfg.Secrets.SecretName == "") {
		return fmt.Errorf("secrets.region and secrets.secret_name are required when secrets are enabled")
	}
	return nil
}

// formatValidationErrors lists one line per failing key, e.g. "app.log_level".
func formatValidationErrors(fieldErrs validator.ValidationErrors) error {
	lines := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}

		var msg string
		switch tag := fe.Tag(); {
		case tag == "required":
			msg = "is required"
		case tag == "url":
			msg = fmt.Sprintf("must be a URL, got %q", fe.Value())
		case tag == "drivercodes":
			msg = fmt.Sprintf("must list unique three-letter driver codes, got %v", fe.Value())
		case enumTags[tag] != nil:
			msg = fmt.Sprintf("must be one of %s, got %q", strings.Join(enumTags[tag], ", "), fe.Value())
		case fe.Param() != "":
			msg = fmt.Sprintf("must satisfy %s=%s, got %v", tag, fe.Param(), fe.Value())
		default:
			msg = fmt.Sprintf("failed %s, got %v", tag, fe.Value())
		}
		lines = append(lines, "- "+key+" "+msg)
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
}
