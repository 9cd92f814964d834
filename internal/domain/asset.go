package domain

import (
	"fmt"
	"math"
)

// Asset is a tradable cryptocurrency the dashboard can chart.
type Asset struct {
	ID       string  `json:"id"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	TickStep float64 `json:"tick_step,omitempty"` // 0 means derive from price magnitude
}

// DefaultAssets returns the built-in catalog in display order.
func DefaultAssets() []Asset {
	return []Asset{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", TickStep: 1000},
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", TickStep: 50},
		{ID: "binancecoin", Symbol: "BNB", Name: "Binance Coin", TickStep: 10},
		{ID: "cardano", Symbol: "ADA", Name: "Cardano", TickStep: 0.01},
		{ID: "solana", Symbol: "SOL", Name: "Solana"},
		{ID: "ripple", Symbol: "XRP", Name: "Ripple"},
		{ID: "polkadot", Symbol: "DOT", Name: "Polkadot"},
		{ID: "dogecoin", Symbol: "DOGE", Name: "Dogecoin"},
		{ID: "avalanche-2", Symbol: "AVAX", Name: "Avalanche"},
		{ID: "matic-network", Symbol: "MATIC", Name: "Polygon"},
	}
}

// Catalog is an immutable, ordered set of supported assets.
type Catalog struct {
	assets []Asset
	byID   map[string]Asset
}

// NewCatalog builds a catalog from assets, applying per-asset tick step
// overrides keyed by asset ID. Overrides for unknown IDs are ignored.
func NewCatalog(assets []Asset, tickSteps map[string]float64) *Catalog {
	c := &Catalog{
		assets: make([]Asset, 0, len(assets)),
		byID:   make(map[string]Asset, len(assets)),
	}
	for _, a := range assets {
		if step, ok := tickSteps[a.ID]; ok && step > 0 && !math.IsInf(step, 0) {
			a.TickStep = step
		}
		c.assets = append(c.assets, a)
		c.byID[a.ID] = a
	}
	return c
}

// Lookup returns the asset with the given ID or ErrUnknownAsset.
func (c *Catalog) Lookup(id string) (Asset, error) {
	a, ok := c.byID[id]
	if !ok {
		return Asset{}, fmt.Errorf("asset %q: %w", id, ErrUnknownAsset)
	}
	return a, nil
}

// All returns a copy of the catalog in display order.
func (c *Catalog) All() []Asset {
	out := make([]Asset, len(c.assets))
	copy(out, c.assets)
	return out
}

// IDs returns the asset IDs in display order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.assets))
	for i, a := range c.assets {
		ids[i] = a.ID
	}
	return ids
}
