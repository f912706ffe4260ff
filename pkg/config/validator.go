package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks if a configuration is valid
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Custom validation: persistent backends need a location
	if err := validateState(&cfg.State); err != nil {
		return err
	}

	return nil
}

// validateState ensures file and sqlite backends have a path
func validateState(state *StateConfig) error {
	if state.Backend != "memory" && state.Path == "" {
		return fmt.Errorf("state backend %q requires 'path'", state.Backend)
	}
	return nil
}
