package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/alanyoungcy/cryptopredict/internal/cache/memory"
	"github.com/alanyoungcy/cryptopredict/internal/config"
	"github.com/alanyoungcy/cryptopredict/internal/store/memory"
	"github.com/alanyoungcy/cryptopredict/internal/store/sqlite"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWireLocalBackends(t *testing.T) {
	cfg := config.Defaults()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "predictions.db")

	deps, cleanup, err := Wire(context.Background(), &cfg, quietLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &sqlite.PredictionStore{}, deps.PredictionStore)
	assert.IsType(t, &cachemem.PriceCache{}, deps.PriceCache)
	assert.IsType(t, &cachemem.SignalBus{}, deps.SignalBus)
	assert.Nil(t, deps.LockManager)
	assert.Nil(t, deps.Archiver)
	assert.False(t, deps.Notifier.Enabled())
	assert.Empty(t, deps.HealthChecks)
	assert.Len(t, deps.Catalog.All(), 10)
}

func TestWireFallsBackToMemoryStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.SQLite.Path = ""
	cfg.Notify.DiscordWebhookURL = "http://127.0.0.1:1/hook"

	deps, cleanup, err := Wire(context.Background(), &cfg, quietLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &memory.PredictionStore{}, deps.PredictionStore)
	assert.True(t, deps.Notifier.Enabled())
}
