package config

import (
	"fmt"
)

type StoreDriver string

const (
	DriverSqlite StoreDriver = "sqlite"
	DriverRedis  StoreDriver = "redis"
	DriverMemory StoreDriver = "memory"
)

type StoreConfig struct {
	Driver           StoreDriver `mapstructure:"driver"`
	ConnectionString string      `mapstructure:"connection_string"`
	RedisURL         string      `mapstructure:"redis_url"`
}

func (config StoreConfig) validate() error {
	switch config.Driver {
	case DriverSqlite:
		if config.ConnectionString == "" {
			return fmt.Errorf("missing variable: store connection string")
		}
	case DriverRedis:
		if config.RedisURL == "" {
			return fmt.Errorf("missing variable: store redis url")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver: %q", config.Driver)
	}
	return nil
}

func (config StoreConfig) bindEnvironmentVariables() error {
	return bindAll(map[string]string{
		"store.driver":            "STORE_DRIVER",
		"store.connection_string": "DB_CONNECTION_STRING",
		"store.redis_url":         "REDIS_URL",
	})
}
