package config

import (
	"errors"
	"fmt"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"os"
)

type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Bot     BotConfig     `mapstructure:"bot"`
	Store   StoreConfig   `mapstructure:"store"`
	Backend BackendConfig `mapstructure:"backend"`
	Watch   WatchConfig   `mapstructure:"watch"`
	AI      AIConfig      `mapstructure:"ai"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type section interface {
	validate() error
	bindEnvironmentVariables() error
}

const defaultConfigFile = "./configs/config.yaml"

func Get() *Config {

	configFile := defaultConfigFile
	if value, ok := os.LookupEnv("CONFIG_PATH"); ok && value != "" {
		configFile = value
	}

	config, err := loadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func loadConfig(file string) (*Config, error) {

	viper.SetConfigFile(file)
	viper.AutomaticEnv()

	setDefaults()

	err := bindEnvironmentVariables()
	if err != nil {
		return nil, err
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}

	config := Config{}
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("store.driver", string(DriverSqlite))
	viper.SetDefault("backend.max_requests_per_second", 5)
	viper.SetDefault("backend.timeout", "15s")
	viper.SetDefault("backend.page_size", 20)
	viper.SetDefault("watch.interval", "60s")
	viper.SetDefault("watch.seen_capacity", 200)
	viper.SetDefault("watch.side_channel_workers", 2)
	viper.SetDefault("watch.side_channel_buffer", 64)
	viper.SetDefault("watch.top_searches_ttl", "10m")
	viper.SetDefault("ai.model", "gemini-1.5-flash")
	viper.SetDefault("ai.max_requests_per_minute", 15)
	viper.SetDefault("ai.max_requests_per_day", 1500)
	viper.SetDefault("metrics.port", 8080)
}

func (config Config) sections() map[string]section {
	return map[string]section{
		"LoggerConfig":  config.Logger,
		"BotConfig":     config.Bot,
		"StoreConfig":   config.Store,
		"BackendConfig": config.Backend,
		"WatchConfig":   config.Watch,
		"AIConfig":      config.AI,
		"MetricsConfig": config.Metrics,
	}
}

func bindEnvironmentVariables() error {
	var errs []error

	for name, s := range (Config{}).sections() {
		if err := s.bindEnvironmentVariables(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config Config) validate() error {
	var errs []error

	for name, s := range config.sections() {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func bindAll(bindings map[string]string) error {
	var errs []error
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
