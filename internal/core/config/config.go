package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	coreagg "github.com/oa-device/oaParkingMonitor/internal/core/aggregation"
)

// Config represents the top-level application config.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Auth        AuthConfig        `koanf:"auth"`
	Registry    RegistryConfig    `koanf:"registry"`
	Aggregation AggregationConfig `koanf:"aggregation"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// AuthConfig holds the shared credentials edge devices present on upload.
// Empty values disable the corresponding header check, for local development.
type AuthConfig struct {
	APIKey    string `koanf:"api_key"`
	SecretKey string `koanf:"secret_key"`
}

// RegistryConfig locates the YAML site registry used to stamp timezones onto
// incoming detections. An empty path disables the registry; detections must
// then carry their own timezone to be aggregated.
type RegistryConfig struct {
	Path string `koanf:"path"`
}

type AggregationConfig struct {
	Enabled        bool           `koanf:"enabled"`
	Interval       string         `koanf:"interval"` // parsed and validated on startup
	WorkerCount    int            `koanf:"worker_count"`
	RetryAttempts  int            `koanf:"retry_attempts"`
	RetryBaseDelay string         `koanf:"retry_base_delay"`
	RetentionAge   string         `koanf:"retention_age"` // empty disables raw detection cleanup
	Lookback       LookbackConfig `koanf:"lookback"`
}

// LookbackConfig widens the bin re-read window per granularity. Values accept
// the window syntax ("2h", "48h", "14d", "2w"); empty fields fall back to the
// runner defaults.
type LookbackConfig struct {
	Hour  string `koanf:"hour"`
	Day   string `koanf:"day"`
	Week  string `koanf:"week"`
	Month string `koanf:"month"`
	Year  string `koanf:"year"`
}

func (c AggregationConfig) EffectiveInterval() string {
	if c.Interval != "" {
		return c.Interval
	}
	return "2m"
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if c.Registry.Path != "" {
		if _, err := os.Stat(c.Registry.Path); err != nil {
			return fmt.Errorf("registry.path %q is not accessible: %w", c.Registry.Path, err)
		}
	}

	interval, err := time.ParseDuration(c.Aggregation.EffectiveInterval())
	if err != nil {
		return fmt.Errorf("invalid aggregation.interval %q: %w", c.Aggregation.EffectiveInterval(), err)
	}
	if interval <= 0 {
		return fmt.Errorf("aggregation.interval must be > 0")
	}
	if c.Aggregation.WorkerCount <= 0 {
		return fmt.Errorf("aggregation.worker_count must be > 0")
	}
	if c.Aggregation.RetryAttempts <= 0 {
		return fmt.Errorf("aggregation.retry_attempts must be > 0")
	}
	if c.Aggregation.RetryBaseDelay != "" {
		delay, err := time.ParseDuration(c.Aggregation.RetryBaseDelay)
		if err != nil {
			return fmt.Errorf("invalid aggregation.retry_base_delay %q: %w", c.Aggregation.RetryBaseDelay, err)
		}
		if delay <= 0 {
			return fmt.Errorf("aggregation.retry_base_delay must be > 0")
		}
	}
	if c.Aggregation.RetentionAge != "" {
		if _, err := coreagg.ParseWindowSize(c.Aggregation.RetentionAge); err != nil {
			return fmt.Errorf("invalid aggregation.retention_age: %w", err)
		}
	}

	lookbacks := map[string]string{
		"aggregation.lookback.hour":  c.Aggregation.Lookback.Hour,
		"aggregation.lookback.day":   c.Aggregation.Lookback.Day,
		"aggregation.lookback.week":  c.Aggregation.Lookback.Week,
		"aggregation.lookback.month": c.Aggregation.Lookback.Month,
		"aggregation.lookback.year":  c.Aggregation.Lookback.Year,
	}
	for key, value := range lookbacks {
		if value == "" {
			continue
		}
		if _, err := coreagg.ParseWindowSize(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

// Load parses config from file + env and validates it.
// Env vars override file values: OAPARKING_DATABASE__DSN maps to database.dsn.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                  8080,
		"server.host":                  "0.0.0.0",
		"server.max_body_size_mb":      1,
		"server.mode":                  "release",
		"database.type":                "postgres",
		"database.dsn":                 "postgres://localhost:5432/oaparking?sslmode=disable",
		"database.max_open_conns":      25,
		"database.max_idle_conns":      25,
		"database.auto_migrate":        true,
		"auth.api_key":                 "",
		"auth.secret_key":              "",
		"registry.path":                "",
		"aggregation.enabled":          true,
		"aggregation.interval":         "2m",
		"aggregation.worker_count":     8,
		"aggregation.retry_attempts":   3,
		"aggregation.retry_base_delay": "500ms",
		"aggregation.retention_age":    "",
		"aggregation.lookback.hour":    "2h",
		"aggregation.lookback.day":     "48h",
		"aggregation.lookback.week":    "14d",
		"aggregation.lookback.month":   "62d",
		"aggregation.lookback.year":    "744d",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("OAPARKING_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "OAPARKING_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
