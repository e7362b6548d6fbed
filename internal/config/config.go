// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads accounts configuration from defaults, a YAML file,
// the environment, and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/accounts/internal/logging"
)

// EnvPrefix prefixes every environment variable the loader reads, apart
// from DATABASE_URL.
const EnvPrefix = "ACCOUNTS_"

// Notify drivers.
const (
	DriverStdout = "stdout"
	DriverAMQP   = "amqp"
)

// Config is the complete accounts configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database" json:"database,omitempty"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty"`
	Password PasswordConfig `koanf:"password" json:"password,omitempty"`
	Tokens   TokensConfig   `koanf:"tokens" json:"tokens,omitempty"`
	Reset    ResetConfig    `koanf:"reset" json:"reset,omitempty"`
	Notify   NotifyConfig   `koanf:"notify" json:"notify,omitempty"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty"`
	Maintain MaintainConfig `koanf:"maintain" json:"maintain,omitempty"`
}

// DatabaseConfig locates the PostgreSQL database.
type DatabaseConfig struct {
	URL             string `koanf:"url" json:"url,omitempty" jsonschema:"description=PostgreSQL connection URL"`
	ConnectAttempts int    `koanf:"connect_attempts" json:"connect_attempts,omitempty" jsonschema:"minimum=1"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=warning,enum=error"`
}

// PasswordConfig tunes the password policy.
type PasswordConfig struct {
	MinLength int `koanf:"min_length" json:"min_length,omitempty" jsonschema:"minimum=1"`
}

// TokensConfig holds the optional token digest key.
type TokensConfig struct {
	HMACKey string `koanf:"hmac_key" json:"hmac_key,omitempty" jsonschema:"description=Secret keying the stored token digests"`
}

// ResetConfig configures password reset links.
type ResetConfig struct {
	BaseURL string `koanf:"base_url" json:"base_url,omitempty" jsonschema:"description=Absolute URL reset links are built on"`
}

// NotifyConfig selects how reset messages are delivered.
type NotifyConfig struct {
	Driver  string `koanf:"driver" json:"driver,omitempty" jsonschema:"enum=stdout,enum=amqp"`
	AMQPURL string `koanf:"amqp_url" json:"amqp_url,omitempty"`
	Queue   string `koanf:"queue" json:"queue,omitempty"`
	From    string `koanf:"from" json:"from,omitempty"`
}

// MetricsConfig sets the metrics and health listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// MaintainConfig drives the periodic prune loop.
type MaintainConfig struct {
	Interval string `koanf:"interval" json:"interval,omitempty" jsonschema:"description=Go duration between prune runs"`
}

// Defaults returns the values used before any source is applied.
func Defaults() map[string]any {
	return map[string]any{
		"database.connect_attempts": 5,
		"log.format":                "json",
		"log.level":                 "info",
		"password.min_length":       6,
		"notify.driver":             DriverStdout,
		"notify.queue":              "accounts.password_reset",
		"notify.from":               "no-reply@localhost",
		"metrics.addr":              "127.0.0.1:9100",
		"maintain.interval":         "1h",
	}
}

// Options selects the sources Load reads.
type Options struct {
	// File is an optional YAML file. It must exist when set.
	File string
	// EnvFile is a dotenv file loaded into the process environment
	// without overriding variables already set. A missing file is ignored.
	// Empty means ".env".
	EnvFile string
	// Flags contributes the flags named in FlagKeys that were set.
	Flags *pflag.FlagSet
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"database-url":   "database.url",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"reset-base-url": "reset.base_url",
	"notify-driver":  "notify.driver",
	"metrics-addr":   "metrics.addr",
	"interval":       "maintain.interval",
}

// Load builds a validated Config from opts.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("env_file", envFile).Wrap(err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("file", opts.File).Wrap(err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue("DATABASE_URL", ".", databaseURLEnv), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func databaseURLEnv(key, value string) (string, any) {
	if key != "DATABASE_URL" || value == "" {
		return "", nil
	}
	return "database.url", value
}

// envKey maps ACCOUNTS_RESET_BASE_URL to reset.base_url: the first
// segment names the section and the rest the field.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Validate checks values the schema cannot express and values that
// arrived from the environment or flags.
func (c *Config) Validate() error {
	invalid := func(field string, value any, reason string) error {
		return oops.Code("CONFIG_INVALID").
			With("field", field).
			With("value", value).
			Errorf("%s: %s", field, reason)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", c.Log.Format, "must be json or text")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, "must be debug, info, warn or error")
	}
	if c.Database.ConnectAttempts < 1 {
		return invalid("database.connect_attempts", c.Database.ConnectAttempts, "must be at least 1")
	}
	if c.Password.MinLength < 1 {
		return invalid("password.min_length", c.Password.MinLength, "must be at least 1")
	}
	switch c.Notify.Driver {
	case DriverStdout:
	case DriverAMQP:
		if c.Notify.AMQPURL == "" {
			return invalid("notify.amqp_url", c.Notify.AMQPURL, "is required for the amqp driver")
		}
		if c.Notify.Queue == "" {
			return invalid("notify.queue", c.Notify.Queue, "is required for the amqp driver")
		}
	default:
		return invalid("notify.driver", c.Notify.Driver, "must be stdout or amqp")
	}
	if _, err := c.MaintainInterval(); err != nil {
		return invalid("maintain.interval", c.Maintain.Interval, "must be a positive duration")
	}
	return nil
}

// MaintainInterval parses Maintain.Interval.
func (c *Config) MaintainInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Maintain.Interval)
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").With("field", "maintain.interval").Wrap(err)
	}
	if d <= 0 {
		return 0, oops.Code("CONFIG_INVALID").With("field", "maintain.interval").Errorf("interval must be positive, got %s", d)
	}
	return d, nil
}

// RequireDatabase returns the database URL, failing when none is set.
func (c *Config) RequireDatabase() (string, error) {
	if c.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").
			With("field", "database.url").
			Errorf("database.url is required (set DATABASE_URL or %sDATABASE_URL)", EnvPrefix)
	}
	return c.Database.URL, nil
}
