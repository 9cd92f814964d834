package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/alanyoungcy/cryptopredict/internal/cache/memory"
	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/store/memory"
	"github.com/alanyoungcy/cryptopredict/internal/store/storetest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeFeed struct {
	prices map[string]float64
	err    error
	asked  [][]string
}

func (f *fakeFeed) Price(_ context.Context, id string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	p, ok := f.prices[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeFeed) Prices(_ context.Context, ids []string) (map[string]float64, error) {
	f.asked = append(f.asked, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64)
	for _, id := range ids {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func TestPriceServiceCachesAndPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := cachemem.NewPriceCache()
	bus := cachemem.NewSignalBus()
	sub, err := bus.Subscribe(ctx, domain.ChannelPrices)
	require.NoError(t, err)

	svc := NewPriceService(&fakeFeed{prices: map[string]float64{"bitcoin": 61000}}, cache, bus, testLogger())
	price, err := svc.Price(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 61000.0, price)

	cached, _, err := cache.GetPrice(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 61000.0, cached)

	select {
	case msg := <-sub:
		assert.Contains(t, string(msg), `"asset_id":"bitcoin"`)
	case <-time.After(time.Second):
		t.Fatal("no price event published")
	}
}

func TestPriceServiceFetchesOnlyMisses(t *testing.T) {
	ctx := context.Background()
	cache := cachemem.NewPriceCache()
	require.NoError(t, cache.SetPrice(ctx, "bitcoin", 60000, time.Now()))

	feed := &fakeFeed{prices: map[string]float64{"bitcoin": 1, "ethereum": 3000}}
	svc := NewPriceService(feed, cache, cachemem.NewSignalBus(), testLogger())

	got, err := svc.Prices(ctx, []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"bitcoin": 60000, "ethereum": 3000}, got)
	assert.Equal(t, [][]string{{"ethereum"}}, feed.asked)
}

func TestPriceServiceWrapsFeedError(t *testing.T) {
	svc := NewPriceService(&fakeFeed{err: domain.ErrUnavailable}, cachemem.NewPriceCache(), cachemem.NewSignalBus(), testLogger())
	_, err := svc.Price(context.Background(), "bitcoin")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

type fakePredictor struct {
	p   domain.Prediction
	err error
}

func (f fakePredictor) Predict(context.Context, string) (domain.Prediction, error) {
	return f.p, f.err
}

func TestPredictionServiceHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPredictionStore()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := storetest.Record("bitcoin", base.Add(time.Duration(i)*15*time.Minute), float64(100+i))
		rec.SentimentScore = []float64{0.5, 0, -0.9}[i]
		require.NoError(t, store.Insert(ctx, rec))
	}
	catalog := domain.NewCatalog(domain.DefaultAssets(), nil)
	svc := NewPredictionService(fakePredictor{}, store, catalog, testLogger())

	rows, err := svc.History(ctx, "bitcoin", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.SentimentBearish, rows[0].Sentiment)
	assert.Equal(t, domain.SentimentNeutral, rows[1].Sentiment)
	assert.Equal(t, domain.SentimentBullish, rows[2].Sentiment)

	rows, err = svc.History(ctx, "bitcoin", 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.History(ctx, "notacoin", 10)
	assert.ErrorIs(t, err, domain.ErrUnknownAsset)
}

func TestPredictionServicePredictAndSave(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPredictionStore()
	catalog := domain.NewCatalog(domain.DefaultAssets(), nil)

	svc := NewPredictionService(fakePredictor{p: domain.Prediction{Price: 62000, SentimentScore: 0.4}}, store, catalog, testLogger())
	p, err := svc.Predict(ctx, "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 62000.0, p.Price)

	require.NoError(t, svc.Save(ctx, storetest.Record("bitcoin", time.Now(), p.Price)))
	assert.Equal(t, 1, store.Len())

	failing := NewPredictionService(fakePredictor{err: errors.New("down")}, store, catalog, testLogger())
	_, err = failing.Predict(ctx, "bitcoin")
	assert.Error(t, err)
}
