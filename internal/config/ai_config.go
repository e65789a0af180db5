package config

import "fmt"

type AIConfig struct {
	Key                  string  `mapstructure:"key"`
	Model                string  `mapstructure:"model"`
	MaxRequestsPerMinute float32 `mapstructure:"max_requests_per_minute"`
	MaxRequestsPerDay    float32 `mapstructure:"max_requests_per_day"`
}

// Enabled reports whether application drafting is available.
func (config AIConfig) Enabled() bool {
	return config.Key != ""
}

func (config AIConfig) validate() error {
	if config.Enabled() && config.Model == "" {
		return fmt.Errorf("missing variable: ai model")
	}
	return nil
}

func (config AIConfig) bindEnvironmentVariables() error {
	return bindAll(map[string]string{
		"ai.key":   "AI_KEY",
		"ai.model": "AI_MODEL",
	})
}
