// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvOption customizes ParseEnv.
type EnvOption func(*env.Options)

// WithEnvironment reads values from environ instead of the process environment.
func WithEnvironment(environ map[string]string) EnvOption {
	return func(opts *env.Options) {
		opts.Environment = environ
	}
}

// WithRequiredIfNoDefault makes fields without envDefault mandatory.
func WithRequiredIfNoDefault() EnvOption {
	return func(opts *env.Options) {
		opts.RequiredIfNoDef = true
	}
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any, options ...EnvOption) error {
	var opts env.Options
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
