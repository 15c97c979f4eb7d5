package config

import (
	"fmt"
	"strings"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Engine.Validate(); err != nil {
		return fmt.Errorf("engine validation failed: %w", err)
	}
	if err := config.Quote.Validate(); err != nil {
		return fmt.Errorf("quote validation failed: %w", err)
	}
	if err := config.Node.Validate(); err != nil {
		return fmt.Errorf("node validation failed: %w", err)
	}
	if err := config.Cache.Validate(); err != nil {
		return fmt.Errorf("cache validation failed: %w", err)
	}
	if err := config.Store.Validate(); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}
	if err := validateLogLevel(config.LogLevel); err != nil {
		return err
	}
	return nil
}

func validateLogLevel(level string) error {
	for _, l := range validLogLevels {
		if strings.EqualFold(level, l) {
			return nil
		}
	}
	return fmt.Errorf("invalid log_level %q (valid: %s)", level, strings.Join(validLogLevels, ", "))
}
