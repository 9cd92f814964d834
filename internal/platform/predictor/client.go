// Package predictor talks to the external 15-minute price prediction service.
package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

// HTTPClient is the subset of *http.Client the client uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls GET {base}/predict/{assetID}.
type Client struct {
	baseURL string
	http    HTTPClient
	logger  *slog.Logger
}

// New creates a Client. A nil httpClient gets a default with the given
// timeout.
func New(baseURL string, timeout time.Duration, httpClient HTTPClient, logger *slog.Logger) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.With(slog.String("component", "predictor")),
	}
}

type predictResponse struct {
	Prediction15m  *float64 `json:"prediction_15m"`
	SentimentScore float64  `json:"sentiment_score"`
}

// Predict returns the service's prediction for the asset.
func (c *Client) Predict(ctx context.Context, assetID string) (domain.Prediction, error) {
	endpoint := c.baseURL + "/predict/" + url.PathEscape(assetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("predictor: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("predictor: request %s: %w", assetID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Prediction{}, fmt.Errorf("predictor: %s: %w", assetID, domain.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Prediction{}, fmt.Errorf("predictor: %s: %w", assetID, domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return domain.Prediction{}, fmt.Errorf("predictor: %s: status %d: %w", assetID, resp.StatusCode, domain.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Prediction{}, fmt.Errorf("predictor: %s: unexpected status %d: %s", assetID, resp.StatusCode, string(body))
	}

	var payload predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Prediction{}, fmt.Errorf("predictor: decode %s: %w: %v", assetID, domain.ErrBadResponse, err)
	}
	if payload.Prediction15m == nil {
		return domain.Prediction{}, fmt.Errorf("predictor: %s: missing prediction_15m: %w", assetID, domain.ErrBadResponse)
	}
	p := *payload.Prediction15m
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return domain.Prediction{}, fmt.Errorf("predictor: %s: invalid prediction %v: %w", assetID, p, domain.ErrBadResponse)
	}

	c.logger.DebugContext(ctx, "prediction received",
		slog.String("asset_id", assetID),
		slog.Float64("prediction", p),
		slog.Float64("sentiment_score", payload.SentimentScore),
	)
	return domain.Prediction{Price: p, SentimentScore: payload.SentimentScore}, nil
}
