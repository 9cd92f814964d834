package coingecko

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.DoFunc(req)
}

func TestPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "demo", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":50000.5},"ethereum":{"usd":3000}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v3/", APIKey: "demo"}, testLogger())
	prices, err := c.Prices(context.Background(), []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"bitcoin": 50000.5, "ethereum": 3000}, prices)
}

func TestPriceMissingAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, testLogger())
	_, err := c.Price(context.Background(), "bitcoin")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPriceStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusBadGateway, domain.ErrUnavailable},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		c := New(Config{BaseURL: srv.URL}, testLogger())
		_, err := c.Price(context.Background(), "bitcoin")
		assert.ErrorIs(t, err, tt.want)
		srv.Close()
	}
}

func TestPriceMalformedBody(t *testing.T) {
	mock := &mockHTTPClient{DoFunc: func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`not json`)),
		}, nil
	}}
	c := New(Config{BaseURL: "http://unused"}, testLogger(), WithHTTPClient(mock))
	_, err := c.Price(context.Background(), "bitcoin")
	assert.ErrorIs(t, err, domain.ErrBadResponse)
}

func TestPriceTransportError(t *testing.T) {
	boom := errors.New("dial failed")
	mock := &mockHTTPClient{DoFunc: func(req *http.Request) (*http.Response, error) {
		return nil, boom
	}}
	c := New(Config{BaseURL: "http://unused"}, testLogger(), WithHTTPClient(mock))
	_, err := c.Price(context.Background(), "bitcoin")
	assert.ErrorIs(t, err, boom)
}

func TestRateLimitHonoursContext(t *testing.T) {
	calls := 0
	mock := &mockHTTPClient{DoFunc: func(req *http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"bitcoin":{"usd":1}}`)),
		}, nil
	}}
	c := New(Config{BaseURL: "http://unused", RequestsPerMinute: 1}, testLogger(), WithHTTPClient(mock))

	_, err := c.Price(context.Background(), "bitcoin")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Price(ctx, "bitcoin")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPricesEmpty(t *testing.T) {
	c := New(Config{BaseURL: "http://unused"}, testLogger())
	prices, err := c.Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}
