package domain

import "time"

// Prediction is a single response from the prediction service.
type Prediction struct {
	Price          float64 // predicted price 15 minutes ahead
	SentimentScore float64
}

// PredictionPoint is the prediction held for one 15-minute bucket.
type PredictionPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Sentiment float64   `json:"sentiment_score"`
}

// PricePoint is an observed spot price for one 15-minute bucket.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PredictionRecord is the persisted, append-only form of an issued
// prediction. RealTimePrice is 0 when no live price had been observed at
// issue time.
type PredictionRecord struct {
	ID               string    `json:"id"`
	AssetID          string    `json:"crypto_id"`
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	SentimentScore   float64   `json:"sentiment_score"`
	PredictionTime   time.Time `json:"prediction_time"`
	PredictedForTime time.Time `json:"predicted_for_time"`
	RealTimePrice    float64   `json:"real_time_price"`
	PredictedPrice   float64   `json:"predicted_price"`
}

// Sentiment is the coarse label derived from a sentiment score.
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

// sentimentThreshold separates Neutral from the directional labels.
const sentimentThreshold = 0.3

// ClassifySentiment maps a score to a label: above 0.3 is Bullish, below
// -0.3 is Bearish, anything else Neutral.
func ClassifySentiment(score float64) Sentiment {
	switch {
	case score > sentimentThreshold:
		return SentimentBullish
	case score < -sentimentThreshold:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}
