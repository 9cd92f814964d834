// Package config defines the top-level configuration for the prediction
// dashboard backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by CRYPTOPREDICT_* environment variables.
type Config struct {
	Feeds     FeedsConfig     `toml:"feeds"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Assets    AssetsConfig    `toml:"assets"`
	Postgres  PostgresConfig  `toml:"postgres"`
	SQLite    SQLiteConfig    `toml:"sqlite"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Archive   ArchiveConfig   `toml:"archive"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	LogLevel  string          `toml:"log_level"`
}

// FeedsConfig holds the upstream price feed and prediction service endpoints.
type FeedsConfig struct {
	PriceURL          string   `toml:"price_url"`
	PriceAPIKey       string   `toml:"price_api_key"`
	PredictionURL     string   `toml:"prediction_url"`
	Timeout           duration `toml:"timeout"`
	RequestsPerMinute int      `toml:"requests_per_minute"`
}

// DashboardConfig controls the session timers and chart rendering.
type DashboardConfig struct {
	DefaultAsset      string   `toml:"default_asset"`
	PricePollInterval duration `toml:"price_poll_interval"`
	TickInterval      duration `toml:"tick_interval"`
	CleanupInterval   duration `toml:"cleanup_interval"`
	HistoryLimit      int      `toml:"history_limit"`
	Timezone          string   `toml:"timezone"`
}

// AssetsConfig overrides the built-in asset catalog.
type AssetsConfig struct {
	// TickSteps maps asset ID to y-axis tick interval.
	TickSteps map[string]float64 `toml:"tick_steps"`
}

// PostgresConfig holds PostgreSQL connection parameters. Postgres is used
// when DSN or Host is set.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// Enabled reports whether a Postgres connection is configured.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.DSN) != "" || strings.TrimSpace(p.Host) != ""
}

// SQLiteConfig holds the embedded database path, used when Postgres is not
// configured. An empty path falls back to the in-memory store.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// RedisConfig holds Redis connection parameters. An empty Addr selects the
// in-process cache and bus.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	PriceTTL   duration `toml:"price_ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls the cold-storage job for old prediction records.
type ArchiveConfig struct {
	Enabled       bool   `toml:"enabled"`
	RetentionDays int    `toml:"retention_days"`
	Cron          string `toml:"cron"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RateLimitRPS is the per-client request rate; 0 disables limiting.
	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Feeds: FeedsConfig{
			PriceURL:          "https://api.coingecko.com/api/v3",
			PredictionURL:     "http://localhost:5000",
			Timeout:           duration{10 * time.Second},
			RequestsPerMinute: 30,
		},
		Dashboard: DashboardConfig{
			DefaultAsset:      "bitcoin",
			PricePollInterval: duration{60 * time.Second},
			TickInterval:      duration{time.Second},
			CleanupInterval:   duration{15 * time.Minute},
			HistoryLimit:      100,
			Timezone:          "UTC",
		},
		Assets: AssetsConfig{
			TickSteps: map[string]float64{},
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		SQLite: SQLiteConfig{
			Path: "cryptopredict.db",
		},
		Redis: RedisConfig{
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			PriceTTL:   duration{10 * time.Minute},
		},
		S3: S3Config{
			Region:         "us-east-1",
			Bucket:         "cryptopredict-archive",
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Cron:          "0 3 1 * *",
		},
		Server: ServerConfig{
			Enabled:        true,
			Port:           8000,
			CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Notify: NotifyConfig{
			Events: []string{"prediction.failed", "prediction.recovered", "archive.failed"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Location resolves the dashboard timezone, defaulting to UTC.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Dashboard.Timezone)
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Feeds
	if strings.TrimSpace(c.Feeds.PriceURL) == "" {
		errs = append(errs, "feeds: price_url must not be empty")
	}
	if strings.TrimSpace(c.Feeds.PredictionURL) == "" {
		errs = append(errs, "feeds: prediction_url must not be empty")
	}
	if c.Feeds.Timeout.Duration <= 0 {
		errs = append(errs, "feeds: timeout must be > 0")
	}
	if c.Feeds.RequestsPerMinute < 0 {
		errs = append(errs, "feeds: requests_per_minute must be >= 0")
	}

	// Dashboard
	if c.Dashboard.DefaultAsset == "" {
		errs = append(errs, "dashboard: default_asset must not be empty")
	}
	if c.Dashboard.PricePollInterval.Duration < time.Second {
		errs = append(errs, "dashboard: price_poll_interval must be >= 1s")
	}
	if c.Dashboard.TickInterval.Duration <= 0 {
		errs = append(errs, "dashboard: tick_interval must be > 0")
	}
	if c.Dashboard.CleanupInterval.Duration <= 0 {
		errs = append(errs, "dashboard: cleanup_interval must be > 0")
	}
	if c.Dashboard.HistoryLimit < 1 || c.Dashboard.HistoryLimit > 1000 {
		errs = append(errs, fmt.Sprintf("dashboard: history_limit must be 1-1000, got %d", c.Dashboard.HistoryLimit))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("dashboard: timezone %q: %v", c.Dashboard.Timezone, err))
	}

	for id, step := range c.Assets.TickSteps {
		if step <= 0 {
			errs = append(errs, fmt.Sprintf("assets: tick step for %q must be > 0", id))
		}
	}

	// Postgres
	if c.Postgres.Enabled() {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Archive
	if c.Archive.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when archive is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if _, err := cron.ParseStandard(c.Archive.Cron); err != nil {
			errs = append(errs, fmt.Sprintf("archive: invalid cron %q: %v", c.Archive.Cron, err))
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server: rate_limit_rps must be >= 0")
		}
		if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
			errs = append(errs, "server: rate_limit_burst must be >= 1 when rate limiting is on")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
