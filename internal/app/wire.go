package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/cryptopredict/internal/blob/s3"
	cachemem "github.com/alanyoungcy/cryptopredict/internal/cache/memory"
	"github.com/alanyoungcy/cryptopredict/internal/cache/redis"
	"github.com/alanyoungcy/cryptopredict/internal/config"
	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/notify"
	"github.com/alanyoungcy/cryptopredict/internal/platform/coingecko"
	"github.com/alanyoungcy/cryptopredict/internal/platform/predictor"
	"github.com/alanyoungcy/cryptopredict/internal/server/handler"
	"github.com/alanyoungcy/cryptopredict/internal/store/memory"
	"github.com/alanyoungcy/cryptopredict/internal/store/postgres"
	"github.com/alanyoungcy/cryptopredict/internal/store/sqlite"
)

// Dependencies bundles the concrete backends chosen from configuration.
type Dependencies struct {
	Catalog *domain.Catalog

	// Upstream feeds
	PriceFeed *coingecko.Client
	Predictor *predictor.Client

	PredictionStore domain.PredictionStore
	PriceCache      domain.PriceCache
	SignalBus       domain.SignalBus
	// LockManager is nil when running without Redis.
	LockManager domain.LockManager

	// Archiver is nil unless archiving is enabled.
	Archiver domain.Archiver

	Notifier *notify.Notifier

	// HealthChecks probe the external backends in use.
	HealthChecks map[string]handler.Checker
}

// Wire constructs every dependency from cfg and returns a cleanup function
// that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Catalog:      domain.NewCatalog(domain.DefaultAssets(), cfg.Assets.TickSteps),
		HealthChecks: map[string]handler.Checker{},
	}

	deps.PriceFeed = coingecko.New(coingecko.Config{
		BaseURL:           cfg.Feeds.PriceURL,
		APIKey:            cfg.Feeds.PriceAPIKey,
		Timeout:           cfg.Feeds.Timeout.Duration,
		RequestsPerMinute: cfg.Feeds.RequestsPerMinute,
	}, logger)
	deps.Predictor = predictor.New(cfg.Feeds.PredictionURL, cfg.Feeds.Timeout.Duration, nil, logger)

	// --- Prediction history: Postgres, then SQLite, then memory ---
	switch {
	case cfg.Postgres.Enabled():
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.PredictionStore = postgres.NewPredictionStore(pgClient.Pool())
		deps.HealthChecks["postgres"] = func(ctx context.Context) error {
			return pgClient.Pool().Ping(ctx)
		}
		logger.Info("prediction store: postgres")

	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: sqlite: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		deps.PredictionStore = store
		logger.Info("prediction store: sqlite", slog.String("path", cfg.SQLite.Path))

	default:
		deps.PredictionStore = memory.NewPredictionStore()
		logger.Warn("prediction store: in-memory, history is lost on restart")
	}

	// --- Price cache and signal bus: Redis or in-process ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient, cfg.Redis.PriceTTL.Duration)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.HealthChecks["redis"] = redisClient.Ping
	} else {
		deps.PriceCache = cachemem.NewPriceCache()
		deps.SignalBus = cachemem.NewSignalBus()
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Cold storage ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.PredictionStore)
		deps.HealthChecks["s3"] = s3Client.Health
	}

	return deps, cleanup, nil
}
