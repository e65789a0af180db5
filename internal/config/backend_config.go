package config

import (
	"errors"
	"fmt"
	"time"
)

type BackendConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	Token                string        `mapstructure:"token"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second"`
	Timeout              time.Duration `mapstructure:"timeout"`
	PageSize             int           `mapstructure:"page_size"`
}

func (config BackendConfig) validate() error {
	var errs []error

	if config.BaseURL == "" {
		errs = append(errs, fmt.Errorf("missing variable: base_url"))
	}
	if config.MaxRequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("max_requests_per_second must be positive"))
	}
	if config.PageSize < 1 || config.PageSize > 100 {
		errs = append(errs, fmt.Errorf("page_size must be between 1 and 100"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config BackendConfig) bindEnvironmentVariables() error {
	return bindAll(map[string]string{
		"backend.base_url":                "BACKEND_URL",
		"backend.token":                   "BACKEND_TOKEN",
		"backend.max_requests_per_second": "BACKEND_MAX_REQUESTS_PER_SECOND",
	})
}
