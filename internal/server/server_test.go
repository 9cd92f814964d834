package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/alanyoungcy/cryptopredict/internal/cache/memory"
	"github.com/alanyoungcy/cryptopredict/internal/dashboard"
	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/metrics"
	"github.com/alanyoungcy/cryptopredict/internal/server/handler"
	"github.com/alanyoungcy/cryptopredict/internal/service"
	"github.com/alanyoungcy/cryptopredict/internal/store/memory"
)

type stubFeed struct{}

func (stubFeed) Price(context.Context, string) (float64, error) { return 100, nil }

func (stubFeed) Prices(_ context.Context, ids []string) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		out[id] = 100
	}
	return out, nil
}

type stubPredictor struct{}

func (stubPredictor) Predict(context.Context, string) (domain.Prediction, error) {
	return domain.Prediction{Price: 101, SentimentScore: 0.2}, nil
}

func newTestHandler(t *testing.T, apiKey string) (http.Handler, *dashboard.Session) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := domain.NewCatalog(domain.DefaultAssets(), nil)
	bus := cachemem.NewSignalBus()

	prices := service.NewPriceService(stubFeed{}, cachemem.NewPriceCache(), bus, logger)
	predictions := service.NewPredictionService(stubPredictor{}, memory.NewPredictionStore(), catalog, logger)
	session, err := dashboard.New(dashboard.Config{DefaultAsset: "bitcoin"}, catalog, prices, predictions, bus, logger)
	require.NoError(t, err)

	h := NewHandler(Config{APIKey: apiKey}, Handlers{
		Health:    handler.NewHealthHandler(nil, logger),
		Dashboard: handler.NewDashboardHandler(session, logger),
		History:   handler.NewHistoryHandler(predictions, logger),
		Prices:    handler.NewPriceHandler(prices, catalog.IDs(), logger),
		Metrics:   metrics.Handler(),
	}, nil, logger)
	return h, session
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-API-Key", "k")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	h, _ := newTestHandler(t, "")

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/health", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/assets", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/dashboard", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/history/bitcoin", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/history/notacoin", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/prices?ids=bitcoin", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/api/dashboard/select", "").Code)
}

func TestSelectThroughRunningSession(t *testing.T) {
	h, session := newTestHandler(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.Run(ctx)

	rec := do(h, http.MethodPost, "/api/dashboard/select", `{"asset_id":"ethereum"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"ethereum"`)

	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return snap.Asset.ID == "ethereum" && snap.Prediction != nil
	}, 2*time.Second, 10*time.Millisecond)

	rec = do(h, http.MethodPost, "/api/dashboard/select", `{"asset_id":"notacoin"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthProtectsAPI(t *testing.T) {
	h, _ := newTestHandler(t, "secret")

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/dashboard", "").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
