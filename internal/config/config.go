package config

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Env         string `envconfig:"ENV" default:"dev"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"scan-reminder"`

	Redis      RedisConfig
	Postgres   PostgresConfig
	Reminder   ReminderConfig
	Dispatcher DispatcherConfig
	Recorder   RecorderConfig
}

// Load reads the process environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, ErrPortMissing)
	}
	if c.Reminder.LedgerBackend == LedgerBackendRedis {
		if err := c.Redis.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Postgres.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Reminder.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Dispatcher.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}

	return nil
}
