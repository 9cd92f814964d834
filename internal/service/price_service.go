// Package service coordinates the upstream feeds with the cache, signal bus
// and prediction store.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/metrics"
)

// PriceFeed is the upstream spot price source.
type PriceFeed interface {
	Price(ctx context.Context, assetID string) (float64, error)
	Prices(ctx context.Context, assetIDs []string) (map[string]float64, error)
}

// PriceService fetches spot prices, keeps the latest in the price cache and
// publishes every observation on the prices channel.
type PriceService struct {
	feed   PriceFeed
	cache  domain.PriceCache
	bus    domain.SignalBus
	now    func() time.Time
	logger *slog.Logger
}

// NewPriceService creates a PriceService.
func NewPriceService(feed PriceFeed, cache domain.PriceCache, bus domain.SignalBus, logger *slog.Logger) *PriceService {
	return &PriceService{
		feed:   feed,
		cache:  cache,
		bus:    bus,
		now:    time.Now,
		logger: logger.With(slog.String("component", "price_service")),
	}
}

// Price fetches the current spot price for one asset from upstream.
func (s *PriceService) Price(ctx context.Context, assetID string) (float64, error) {
	started := time.Now()
	price, err := s.feed.Price(ctx, assetID)
	metrics.ObserveFeed(metrics.FeedPrice, started, err)
	if err != nil {
		return 0, fmt.Errorf("price_service: fetch %q: %w", assetID, err)
	}
	s.record(ctx, assetID, price)
	return price, nil
}

// Prices returns spot prices for several assets, serving cached values and
// fetching only the misses. Assets unknown upstream are omitted.
func (s *PriceService) Prices(ctx context.Context, assetIDs []string) (map[string]float64, error) {
	out, err := s.cache.GetPrices(ctx, assetIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "price cache read failed", slog.String("error", err.Error()))
		out = make(map[string]float64, len(assetIDs))
	}

	var missing []string
	for _, id := range assetIDs {
		if _, ok := out[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	started := time.Now()
	fetched, err := s.feed.Prices(ctx, missing)
	metrics.ObserveFeed(metrics.FeedPrice, started, err)
	if err != nil {
		return nil, fmt.Errorf("price_service: fetch %d prices: %w", len(missing), err)
	}
	for id, price := range fetched {
		out[id] = price
		s.record(ctx, id, price)
	}
	return out, nil
}

// record caches and announces an observed price. Both steps are best effort.
func (s *PriceService) record(ctx context.Context, assetID string, price float64) {
	ts := s.now().UTC()
	if err := s.cache.SetPrice(ctx, assetID, price, ts); err != nil {
		s.logger.WarnContext(ctx, "price cache write failed",
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}

	evt, _ := json.Marshal(map[string]any{
		"event":     "price",
		"asset_id":  assetID,
		"price":     price,
		"timestamp": ts.Format(time.RFC3339Nano),
	})
	if err := s.bus.Publish(ctx, domain.ChannelPrices, evt); err != nil {
		s.logger.WarnContext(ctx, "publish price event failed",
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
}
