package config

import (
	"errors"
	"fmt"
	"time"
)

type WatchConfig struct {
	Interval           time.Duration `mapstructure:"interval"`
	SeenCapacity       int           `mapstructure:"seen_capacity"`
	SideChannelWorkers int           `mapstructure:"side_channel_workers"`
	SideChannelBuffer  int           `mapstructure:"side_channel_buffer"`
	TopSearchesTTL     time.Duration `mapstructure:"top_searches_ttl"`
}

func (config WatchConfig) validate() error {
	var errs []error

	// cron schedules have one second resolution
	if config.Interval < time.Second {
		errs = append(errs, fmt.Errorf("interval must be at least 1s, got %v", config.Interval))
	}
	if config.SeenCapacity < 0 {
		errs = append(errs, fmt.Errorf("seen_capacity must be non-negative"))
	}
	if config.SideChannelWorkers < 1 {
		errs = append(errs, fmt.Errorf("side_channel_workers must be positive"))
	}
	if config.SideChannelBuffer < 0 {
		errs = append(errs, fmt.Errorf("side_channel_buffer must be non-negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config WatchConfig) bindEnvironmentVariables() error {
	return bindAll(map[string]string{
		"watch.interval":      "WATCH_INTERVAL",
		"watch.seen_capacity": "WATCH_SEEN_CAPACITY",
	})
}
