package domain

import "time"

// ChartPoint is one 15-minute slot of the rendered series. A nil Predicted
// or Actual is a gap and serializes as JSON null.
type ChartPoint struct {
	Time      string   `json:"time"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
	Predicted *float64 `json:"predicted"`
	Actual    *float64 `json:"actual"`
}

// PriceRange is the y-axis extent and tick positions for the chart.
type PriceRange struct {
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Ticks []float64 `json:"ticks"`
}

// DashboardSnapshot is the full presentation state of the active session.
// Snapshots are immutable once published.
type DashboardSnapshot struct {
	Asset      Asset            `json:"asset"`
	Points     []ChartPoint     `json:"points"`
	Range      PriceRange       `json:"range"`
	LivePrice  *float64         `json:"live_price"`
	Prediction *PredictionPoint `json:"prediction"`
	Sentiment  Sentiment        `json:"sentiment,omitempty"`
	TrendPct   float64          `json:"trend_pct"`
	Error      string           `json:"error,omitempty"`
	Loading    bool             `json:"loading"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
