// Package config provides YAML-based configuration loading with environment
// variable expansion, environment overrides and validation.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// EnvOverrider is implemented by configurations that take precedence values
// from the process environment after the file is parsed.
type EnvOverrider interface {
	ApplyEnv() error
}

// Load loads configuration from a YAML file with environment variable expansion.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return finalize(target)
}

// LoadOptional behaves like Load but keeps target's current values when
// filename does not exist. It reports whether the file was read.
func LoadOptional[T any](filename string, target *T) (bool, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return false, finalize(target)
	}
	return true, Load(filename, target)
}

func finalize[T any](target *T) error {
	if o, ok := any(target).(EnvOverrider); ok {
		if err := o.ApplyEnv(); err != nil {
			return fmt.Errorf("config environment override failed: %w", err)
		}
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}
