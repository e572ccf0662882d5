// Package config provides configuration management for the portal service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, for example
// FORMPORTAL_SERVER_PORT.
const EnvPrefix = "FORMPORTAL"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverXLSX     = "xlsx"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the portal.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	Portal      PortalConfig      `mapstructure:"portal"`
	Events      EventsConfig      `mapstructure:"events"`
	Theme       ThemeConfig       `mapstructure:"theme"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// StoreConfig selects and configures the tabular backend.
type StoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	XLSX     XLSXConfig     `mapstructure:"xlsx"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// MemoryConfig configures the in-process backend. An empty fixture starts
// with no tables.
type MemoryConfig struct {
	Fixture string `mapstructure:"fixture"`
}

// XLSXConfig points at a workbook on disk or, when Bucket is set, in S3.
type XLSXConfig struct {
	Path     string `mapstructure:"path"`
	Bucket   string `mapstructure:"bucket"`
	Key      string `mapstructure:"key"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// PostgresConfig holds the database connection string.
type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// PortalConfig holds pipeline settings.
type PortalConfig struct {
	DataTable    string `mapstructure:"data_table"`
	ConfigTable  string `mapstructure:"config_table"`
	TokenParam   string `mapstructure:"token_param"`
	StrictTokens bool   `mapstructure:"strict_tokens"`
}

// EventsConfig configures save notifications. An empty NATS URL disables
// publishing.
type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
	Prefix  string `mapstructure:"prefix"`
}

// ThemeConfig lists theme manifest files and the default selection.
// TemplatesDir is layered over the embedded template bundle; theme partials
// are resolved through it.
type ThemeConfig struct {
	Files        []string `mapstructure:"files"`
	Name         string   `mapstructure:"name"`
	Variant      string   `mapstructure:"variant"`
	TemplatesDir string   `mapstructure:"templates_dir"`
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// MetricsConfig holds Prometheus metrics configuration. Metrics are served
// on the main listener at Path.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("formportal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/formportal/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing file is fine, defaults and env still apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.request_timeout", "15s")

	// Store defaults
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.memory.fixture", "")
	v.SetDefault("store.xlsx.path", "")
	v.SetDefault("store.xlsx.bucket", "")
	v.SetDefault("store.xlsx.key", "")
	v.SetDefault("store.xlsx.region", "")
	v.SetDefault("store.xlsx.endpoint", "")
	v.SetDefault("store.postgres.url", "")

	// Portal defaults
	v.SetDefault("portal.data_table", "Data")
	v.SetDefault("portal.config_table", "Config")
	v.SetDefault("portal.token_param", "token")
	v.SetDefault("portal.strict_tokens", false)

	// Events defaults
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.prefix", "")

	// Theme defaults
	v.SetDefault("theme.files", []string{})
	v.SetDefault("theme.name", "")
	v.SetDefault("theme.variant", "")
	v.SetDefault("theme.templates_dir", "")

	// Rate limiter defaults
	v.SetDefault("rate_limiter.enabled", true)
	v.SetDefault("rate_limiter.requests_per_second", 50.0)
	v.SetDefault("rate_limiter.burst_size", 20)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverXLSX:
		if c.Store.XLSX.Path == "" && c.Store.XLSX.Bucket == "" {
			return fmt.Errorf("xlsx store requires a path or an s3 bucket")
		}
		if c.Store.XLSX.Bucket != "" && c.Store.XLSX.Key == "" {
			return fmt.Errorf("xlsx store in s3 requires an object key")
		}
	case DriverPostgres:
		if c.Store.Postgres.URL == "" {
			return fmt.Errorf("postgres store requires a url")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	if strings.TrimSpace(c.Portal.DataTable) == "" || strings.TrimSpace(c.Portal.ConfigTable) == "" {
		return fmt.Errorf("data and config table names are required")
	}
	if c.Portal.DataTable == c.Portal.ConfigTable {
		return fmt.Errorf("data and config tables must differ")
	}
	if strings.TrimSpace(c.Portal.TokenParam) == "" {
		return fmt.Errorf("token parameter name is required")
	}

	if c.RateLimiter.Enabled {
		if c.RateLimiter.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limiter requests per second must be positive")
		}
		if c.RateLimiter.BurstSize <= 0 {
			return fmt.Errorf("rate limiter burst size must be positive")
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics path: %q", c.Metrics.Path)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	return nil
}
