// Package memory provides in-process implementations of the domain cache
// interfaces for single-instance deployments without Redis.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

type priceEntry struct {
	price float64
	ts    time.Time
}

// PriceCache holds the latest price per asset.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]priceEntry
}

// NewPriceCache returns an empty PriceCache.
func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]priceEntry)}
}

// SetPrice stores the latest price for an asset.
func (c *PriceCache) SetPrice(_ context.Context, assetID string, price float64, ts time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[assetID] = priceEntry{price: price, ts: ts}
	return nil
}

// GetPrice returns domain.ErrNotFound when nothing is cached for the asset.
func (c *PriceCache) GetPrice(_ context.Context, assetID string) (float64, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.prices[assetID]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("memory: price %s: %w", assetID, domain.ErrNotFound)
	}
	return e.price, e.ts, nil
}

// GetPrices returns cached prices; missing assets are omitted.
func (c *PriceCache) GetPrices(_ context.Context, assetIDs []string) (map[string]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(assetIDs))
	for _, id := range assetIDs {
		if e, ok := c.prices[id]; ok {
			out[id] = e.price
		}
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
