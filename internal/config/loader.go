package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CRYPTOPREDICT_* environment variable overrides,
// and returns the final Config. A missing file is not an error; the defaults
// and environment are used instead. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CRYPTOPREDICT_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Feeds ──
	setStr(&cfg.Feeds.PriceURL, "CRYPTOPREDICT_FEEDS_PRICE_URL")
	setStr(&cfg.Feeds.PriceAPIKey, "CRYPTOPREDICT_FEEDS_PRICE_API_KEY")
	setStr(&cfg.Feeds.PredictionURL, "CRYPTOPREDICT_FEEDS_PREDICTION_URL")
	setDuration(&cfg.Feeds.Timeout, "CRYPTOPREDICT_FEEDS_TIMEOUT")
	setInt(&cfg.Feeds.RequestsPerMinute, "CRYPTOPREDICT_FEEDS_REQUESTS_PER_MINUTE")

	// ── Dashboard ──
	setStr(&cfg.Dashboard.DefaultAsset, "CRYPTOPREDICT_DASHBOARD_DEFAULT_ASSET")
	setDuration(&cfg.Dashboard.PricePollInterval, "CRYPTOPREDICT_DASHBOARD_PRICE_POLL_INTERVAL")
	setDuration(&cfg.Dashboard.TickInterval, "CRYPTOPREDICT_DASHBOARD_TICK_INTERVAL")
	setDuration(&cfg.Dashboard.CleanupInterval, "CRYPTOPREDICT_DASHBOARD_CLEANUP_INTERVAL")
	setInt(&cfg.Dashboard.HistoryLimit, "CRYPTOPREDICT_DASHBOARD_HISTORY_LIMIT")
	setStr(&cfg.Dashboard.Timezone, "CRYPTOPREDICT_DASHBOARD_TIMEZONE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CRYPTOPREDICT_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "CRYPTOPREDICT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CRYPTOPREDICT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CRYPTOPREDICT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CRYPTOPREDICT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CRYPTOPREDICT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CRYPTOPREDICT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CRYPTOPREDICT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CRYPTOPREDICT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CRYPTOPREDICT_POSTGRES_RUN_MIGRATIONS")

	// ── SQLite ──
	setStr(&cfg.SQLite.Path, "CRYPTOPREDICT_SQLITE_PATH")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "CRYPTOPREDICT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CRYPTOPREDICT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CRYPTOPREDICT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CRYPTOPREDICT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CRYPTOPREDICT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CRYPTOPREDICT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.PriceTTL, "CRYPTOPREDICT_REDIS_PRICE_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "CRYPTOPREDICT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CRYPTOPREDICT_S3_REGION")
	setStr(&cfg.S3.Bucket, "CRYPTOPREDICT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CRYPTOPREDICT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CRYPTOPREDICT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CRYPTOPREDICT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CRYPTOPREDICT_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "CRYPTOPREDICT_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "CRYPTOPREDICT_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Archive.Cron, "CRYPTOPREDICT_ARCHIVE_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "CRYPTOPREDICT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "CRYPTOPREDICT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "CRYPTOPREDICT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "CRYPTOPREDICT_SERVER_API_KEY")
	setFloat(&cfg.Server.RateLimitRPS, "CRYPTOPREDICT_SERVER_RATE_LIMIT_RPS")
	setInt(&cfg.Server.RateLimitBurst, "CRYPTOPREDICT_SERVER_RATE_LIMIT_BURST")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CRYPTOPREDICT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CRYPTOPREDICT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CRYPTOPREDICT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CRYPTOPREDICT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "CRYPTOPREDICT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
