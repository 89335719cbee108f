// Package config loads bplog settings from defaults, an optional config file
// and BPLOG_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "BPLOG"

// ErrUnknownDriver is returned for a storage driver outside the supported set.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Config holds all runtime configuration.
type Config struct {
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	PostgresURL   string `mapstructure:"POSTGRES_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	HTTPAddress string `mapstructure:"HTTP_ADDRESS"`
	Environment string `mapstructure:"ENVIRONMENT"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	Timezone    string `mapstructure:"TIMEZONE"`
	MetricsFile string `mapstructure:"METRICS_FILE"`
}

var defaults = map[string]any{
	"STORAGE_DRIVER": DriverSQLite,
	"SQLITE_PATH":    "bplog.db",
	"POSTGRES_URL":   "",
	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"HTTP_ADDRESS":   ":8080",
	"ENVIRONMENT":    "development",
	"LOG_LEVEL":      "info",
	"LOG_FILE":       "",
	"TIMEZONE":       "Local",
	"METRICS_FILE":   "",
}

// Load reads configuration. Files named bplog.yaml or .env in any of paths
// are optional; environment variables override them.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for _, name := range []string{"bplog", ".env"} {
		if err := readOptional(v, name, paths); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readOptional(v *viper.Viper, name string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	file := viper.New()
	file.SetConfigName(name)
	if name == ".env" {
		file.SetConfigType("env")
	}
	for _, p := range paths {
		file.AddConfigPath(p)
	}

	if err := file.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", name, err)
	}
	return v.MergeConfigMap(file.AllSettings())
}

// Validate checks that the selected driver is known and has what it needs.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverRedis:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return errors.New("POSTGRES_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.StorageDriver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Empty and "Local" mean the system zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsProduction reports whether the server should run gin in release mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
