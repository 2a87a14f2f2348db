// Package config provides configuration management for the Surebet Tool application.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.OddsAPI.Enabled && cfg.OddsAPI.APIKey == "" {
		return fmt.Errorf("odds_api.api_key is required when the odds API source is enabled")
	}

	if cfg.Features.PersistenceEnabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when persistence is enabled")
		}
	}

	if cfg.Features.RedisPublishEnabled && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis publishing is enabled")
	}

	enabledSources := 0
	if cfg.OddsAPI.Enabled {
		enabledSources++
	}
	for _, scraper := range cfg.Scrapers {
		// Scrapers without a feed_url are push-only: they deliver batches
		// through the ingest API instead of being polled.
		if scraper.Enabled {
			enabledSources++
		}
	}
	if enabledSources == 0 {
		return fmt.Errorf("at least one ingestion source must be enabled")
	}

	return nil
}

// formatValidationErrors converts validator errors to a readable message
func formatValidationErrors(errs validator.ValidationErrors) error {
	msg := "configuration validation failed:"
	for _, err := range errs {
		msg += fmt.Sprintf(" field %s failed on '%s' rule;", err.Namespace(), err.Tag())
	}
	return fmt.Errorf("%s", msg)
}
