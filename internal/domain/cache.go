package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to the latest spot prices.
type PriceCache interface {
	SetPrice(ctx context.Context, assetID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, assetID string) (float64, time.Time, error)
	GetPrices(ctx context.Context, assetIDs []string) (map[string]float64, error)
}

// SignalBus provides fire-and-forget pub/sub between components.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Well-known bus channels.
const (
	ChannelDashboard = "dashboard"
	ChannelPrices    = "prices"
)

// LockManager provides mutual exclusion across service instances.
type LockManager interface {
	// Acquire returns ErrLockHeld when another holder owns key. The returned
	// unlock func is safe to call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
