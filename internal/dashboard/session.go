// Package dashboard runs the live chart session for the selected asset. A
// single loop goroutine owns every piece of session state; fetches run in
// short-lived goroutines and report back over a channel, tagged with the
// selection generation that issued them.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/interval"
)

// User-facing error messages.
const (
	MsgPredictionFailed = "Failed to fetch latest prediction"
	MsgHistoryFailed    = "Failed to load prediction history"
)

const (
	resultBuffer   = 32
	publishBuffer  = 16
	persistTimeout = 10 * time.Second
)

// PriceSource returns the current spot price for an asset.
type PriceSource interface {
	Price(ctx context.Context, assetID string) (float64, error)
}

// PredictionSource fetches predictions and reads and writes their history.
type PredictionSource interface {
	Predict(ctx context.Context, assetID string) (domain.Prediction, error)
	Save(ctx context.Context, rec domain.PredictionRecord) error
	Recent(ctx context.Context, assetID string, limit int) ([]domain.PredictionRecord, error)
}

// Notifier delivers operator alerts.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config controls session cadence.
type Config struct {
	DefaultAsset      string
	PricePollInterval time.Duration
	TickInterval      time.Duration
	CleanupInterval   time.Duration
	HistoryLimit      int
	// Location renders chart labels; nil means UTC.
	Location *time.Location
}

func (c *Config) applyDefaults() {
	if c.PricePollInterval <= 0 {
		c.PricePollInterval = time.Minute
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = interval.Length
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 100
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
}

// Option customises a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithNotifier sends alerts when prediction fetching starts failing and when
// it recovers.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

type selectCmd struct {
	asset domain.Asset
	reply chan domain.DashboardSnapshot
}

// Session is the server-side dashboard for one selected asset at a time.
type Session struct {
	cfg         Config
	catalog     *domain.Catalog
	prices      PriceSource
	predictions PredictionSource
	bus         domain.SignalBus
	notifier    Notifier
	now         func() time.Time
	logger      *slog.Logger

	cmds    chan selectCmd
	results chan result
	pub     chan domain.DashboardSnapshot
	stopped chan struct{}
	wg      sync.WaitGroup

	mu   sync.RWMutex
	snap domain.DashboardSnapshot

	// st is owned by the loop goroutine.
	st state
}

// New creates a Session. Call Run to start it.
func New(
	cfg Config,
	catalog *domain.Catalog,
	prices PriceSource,
	predictions PredictionSource,
	bus domain.SignalBus,
	logger *slog.Logger,
	opts ...Option,
) (*Session, error) {
	cfg.applyDefaults()
	asset, err := catalog.Lookup(cfg.DefaultAsset)
	if err != nil {
		return nil, fmt.Errorf("dashboard: default asset: %w", err)
	}

	s := &Session{
		cfg:         cfg,
		catalog:     catalog,
		prices:      prices,
		predictions: predictions,
		bus:         bus,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "dashboard")),
		cmds:        make(chan selectCmd),
		results:     make(chan result, resultBuffer),
		pub:         make(chan domain.DashboardSnapshot, publishBuffer),
		stopped:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.snap = domain.DashboardSnapshot{Asset: asset, Points: []domain.ChartPoint{}, Loading: true}
	s.st.asset = asset
	return s, nil
}

// Snapshot returns the most recently published state.
func (s *Session) Snapshot() domain.DashboardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Assets returns the selectable catalog.
func (s *Session) Assets() []domain.Asset {
	return s.catalog.All()
}

// Select switches the session to assetID. It returns once every trace of
// the previous asset has been cleared, with the cleared snapshot.
func (s *Session) Select(ctx context.Context, assetID string) (domain.DashboardSnapshot, error) {
	asset, err := s.catalog.Lookup(assetID)
	if err != nil {
		return domain.DashboardSnapshot{}, fmt.Errorf("dashboard: select: %w", err)
	}

	cmd := selectCmd{asset: asset, reply: make(chan domain.DashboardSnapshot, 1)}
	select {
	case s.cmds <- cmd:
	case <-s.stopped:
		return domain.DashboardSnapshot{}, domain.ErrSessionClosed
	case <-ctx.Done():
		return domain.DashboardSnapshot{}, ctx.Err()
	}
	select {
	case snap := <-cmd.reply:
		return snap, nil
	case <-s.stopped:
		return domain.DashboardSnapshot{}, domain.ErrSessionClosed
	case <-ctx.Done():
		return domain.DashboardSnapshot{}, ctx.Err()
	}
}

// Run drives the session until ctx is cancelled. It starts on the default
// asset and returns nil on shutdown once in-flight work has drained.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)

	tick := time.NewTicker(s.cfg.TickInterval)
	defer tick.Stop()
	poll := time.NewTicker(s.cfg.PricePollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(s.cfg.CleanupInterval)
	defer cleanup.Stop()

	s.wg.Add(1)
	go s.publishLoop(ctx)

	s.logger.InfoContext(ctx, "dashboard session started", slog.String("asset", s.st.asset.ID))
	s.selectAsset(ctx, s.st.asset)

	for {
		select {
		case <-ctx.Done():
			if s.st.cancel != nil {
				s.st.cancel()
			}
			s.wg.Wait()
			s.logger.Info("dashboard session stopped")
			return nil

		case cmd := <-s.cmds:
			cmd.reply <- s.selectAsset(ctx, cmd.asset)
			poll.Reset(s.cfg.PricePollInterval)

		case r := <-s.results:
			if s.apply(ctx, r) {
				s.publish()
			}

		case <-tick.C:
			if s.onTick() {
				s.publish()
			}

		case <-poll.C:
			s.pollPrice()

		case <-cleanup.C:
			if s.purge(s.now()) > 0 {
				s.publish()
			}
		}
	}
}

// selectAsset clears all state, publishes the empty snapshot and only then
// issues the fetches for the new asset.
func (s *Session) selectAsset(ctx context.Context, asset domain.Asset) domain.DashboardSnapshot {
	now := s.now()
	s.reset(ctx, asset, now)
	snap := s.publish()

	s.logger.InfoContext(ctx, "asset selected",
		slog.String("asset", asset.ID),
		slog.Uint64("generation", s.st.gen),
	)
	s.loadHistory()
	s.startCycle(now)
	return snap
}

// publish stores a fresh snapshot for readers and queues it for the bus.
func (s *Session) publish() domain.DashboardSnapshot {
	snap := s.st.snapshot(s.now())
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	select {
	case s.pub <- snap:
	default:
		s.logger.Debug("snapshot publish queue full, dropping")
	}
	return snap
}

func (s *Session) alert(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, event, title, message); err != nil {
			s.logger.WarnContext(nctx, "alert delivery failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}()
}
