package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60*time.Second, cfg.Dashboard.PricePollInterval.Duration)
	assert.Equal(t, 15*time.Minute, cfg.Dashboard.CleanupInterval.Duration)
	assert.Equal(t, 100, cfg.Dashboard.HistoryLimit)
	assert.False(t, cfg.Postgres.Enabled())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
log_level = "debug"

[feeds]
prediction_url = "http://predictor:5000"
timeout = "3s"

[dashboard]
default_asset = "ethereum"
price_poll_interval = "30s"

[assets.tick_steps]
solana = 2.5

[archive]
enabled = true
cron = "*/5 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CRYPTOPREDICT_SERVER_PORT", "9001")
	t.Setenv("CRYPTOPREDICT_SERVER_CORS_ORIGINS", "http://a, ,http://b")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://predictor:5000", cfg.Feeds.PredictionURL)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.Feeds.PriceURL)
	assert.Equal(t, 3*time.Second, cfg.Feeds.Timeout.Duration)
	assert.Equal(t, "ethereum", cfg.Dashboard.DefaultAsset)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.PricePollInterval.Duration)
	assert.Equal(t, 2.5, cfg.Assets.TickSteps["solana"])
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", cfg.Dashboard.DefaultAsset)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = ["), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Feeds.PriceURL = ""
	cfg.Dashboard.HistoryLimit = 0
	cfg.Dashboard.Timezone = "Not/AZone"
	cfg.Assets.TickSteps = map[string]float64{"bitcoin": -1}
	cfg.Archive.Enabled = true
	cfg.Archive.Cron = "every day"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "log_level")
	assert.Contains(t, msg, "price_url")
	assert.Contains(t, msg, "history_limit")
	assert.Contains(t, msg, "timezone")
	assert.Contains(t, msg, "tick step")
	assert.Contains(t, msg, "invalid cron")
}

func TestLocation(t *testing.T) {
	cfg := Defaults()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Dashboard.Timezone = ""
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.Server.APIKey = "key"
	cfg.Notify.Events = []string{"prediction.failed"}

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Postgres.Password)
	assert.Equal(t, "***", out.Server.APIKey)
	assert.Equal(t, "", out.S3.SecretKey)

	out.Notify.Events[0] = "changed"
	assert.Equal(t, "prediction.failed", cfg.Notify.Events[0])
	assert.Equal(t, "hunter2", cfg.Postgres.Password)
}
