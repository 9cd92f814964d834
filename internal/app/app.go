// Package app wires the dashboard backend together and runs it until the
// context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/cryptopredict/internal/config"
	"github.com/alanyoungcy/cryptopredict/internal/dashboard"
	"github.com/alanyoungcy/cryptopredict/internal/metrics"
	"github.com/alanyoungcy/cryptopredict/internal/pipeline"
	"github.com/alanyoungcy/cryptopredict/internal/server"
	"github.com/alanyoungcy/cryptopredict/internal/server/handler"
	"github.com/alanyoungcy/cryptopredict/internal/server/ws"
	"github.com/alanyoungcy/cryptopredict/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, starts the dashboard session, the HTTP server, the
// websocket hub and the archive job, and blocks until ctx is cancelled or one
// of them fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("default_asset", a.cfg.Dashboard.DefaultAsset),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	loc, err := a.cfg.Location()
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	priceSvc := service.NewPriceService(deps.PriceFeed, deps.PriceCache, deps.SignalBus, a.logger)
	predictionSvc := service.NewPredictionService(deps.Predictor, deps.PredictionStore, deps.Catalog, a.logger)

	var opts []dashboard.Option
	if deps.Notifier.Enabled() {
		opts = append(opts, dashboard.WithNotifier(deps.Notifier))
	}
	session, err := dashboard.New(dashboard.Config{
		DefaultAsset:      a.cfg.Dashboard.DefaultAsset,
		PricePollInterval: a.cfg.Dashboard.PricePollInterval.Duration,
		TickInterval:      a.cfg.Dashboard.TickInterval.Duration,
		CleanupInterval:   a.cfg.Dashboard.CleanupInterval.Duration,
		HistoryLimit:      a.cfg.Dashboard.HistoryLimit,
		Location:          loc,
	}, deps.Catalog, priceSvc, predictionSvc, deps.SignalBus, a.logger, opts...)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return session.Run(ctx)
	})

	if deps.Archiver != nil {
		archiver := pipeline.NewArchiver(deps.Archiver, a.cfg.Archive.RetentionDays, deps.Notifier.Notify, a.logger)
		if deps.LockManager != nil {
			archiver.WithLocks(deps.LockManager)
		}
		g.Go(func() error {
			return archiver.RunCron(ctx, a.cfg.Archive.Cron)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, session, priceSvc, predictionSvc)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startHTTPServer registers the hub, the server and its shutdown watcher in g.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	session *dashboard.Session,
	priceSvc *service.PriceService,
	predictionSvc *service.PredictionService,
) {
	hub := ws.NewHub(deps.SignalBus, session, a.cfg.Server.CORSOrigins, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:           a.cfg.Server.Port,
		CORSOrigins:    a.cfg.Server.CORSOrigins,
		APIKey:         a.cfg.Server.APIKey,
		RateLimitRPS:   a.cfg.Server.RateLimitRPS,
		RateLimitBurst: a.cfg.Server.RateLimitBurst,
	}, server.Handlers{
		Health:    handler.NewHealthHandler(deps.HealthChecks, a.logger),
		Dashboard: handler.NewDashboardHandler(session, a.logger),
		History:   handler.NewHistoryHandler(predictionSvc, a.logger),
		Prices:    handler.NewPriceHandler(priceSvc, deps.Catalog.IDs(), a.logger),
		Metrics:   metrics.Handler(),
	}, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
