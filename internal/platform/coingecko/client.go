// Package coingecko is a minimal client for the CoinGecko simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

// HTTPClient is the subset of *http.Client the client uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds client parameters.
type Config struct {
	BaseURL string
	// APIKey is sent as x-cg-demo-api-key when set.
	APIKey  string
	Timeout time.Duration
	// RequestsPerMinute throttles outbound calls; 0 disables throttling.
	RequestsPerMinute int
}

// Client fetches USD spot prices.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPClient
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With(slog.String("component", "coingecko")),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// simplePriceResponse is {"bitcoin": {"usd": 50000}}.
type simplePriceResponse map[string]map[string]float64

// Prices returns the USD price for every requested ID the API knows about.
// Unknown IDs are omitted from the result.
func (c *Client) Prices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("coingecko: wait for rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	endpoint := c.baseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko: request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("coingecko: status %d: %w", resp.StatusCode, domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("coingecko: status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("coingecko: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload simplePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("coingecko: decode: %w: %v", domain.ErrBadResponse, err)
	}

	out := make(map[string]float64, len(payload))
	for id, quotes := range payload {
		if usd, ok := quotes["usd"]; ok && usd > 0 {
			out[id] = usd
		}
	}

	c.logger.DebugContext(ctx, "fetched prices",
		slog.Int("requested", len(ids)),
		slog.Int("received", len(out)),
		slog.Duration("latency", time.Since(start)),
	)
	return out, nil
}

// Price returns the USD price for a single asset. It returns
// domain.ErrNotFound when the API has no quote for id.
func (c *Client) Price(ctx context.Context, id string) (float64, error) {
	prices, err := c.Prices(ctx, []string{id})
	if err != nil {
		return 0, err
	}
	p, ok := prices[id]
	if !ok {
		return 0, fmt.Errorf("coingecko: price for %q: %w", id, domain.ErrNotFound)
	}
	return p, nil
}
