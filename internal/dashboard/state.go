package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/interval"
	"github.com/alanyoungcy/cryptopredict/internal/metrics"
	"github.com/alanyoungcy/cryptopredict/internal/notify"
	"github.com/alanyoungcy/cryptopredict/internal/series"
)

// state is everything derived for the selected asset. It is replaced
// wholesale on every selection.
type state struct {
	asset  domain.Asset
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc

	prices      *series.History
	predictions *series.History
	live        *float64
	prediction  *domain.PredictionPoint
	points      []domain.ChartPoint
	rng         domain.PriceRange
	trend       float64
	errMsg      string
	loading     bool

	// bucket is the open bucket as of the last tick.
	bucket time.Time
	// inflight is the bucket of the running prediction cycle, zero if none.
	inflight time.Time
	// failing survives selection changes so recovery is reported once.
	failing bool
}

// reset drops everything held for the previous asset and cancels its
// in-flight fetches.
func (s *Session) reset(ctx context.Context, asset domain.Asset, now time.Time) {
	if s.st.cancel != nil {
		s.st.cancel()
	}
	gctx, cancel := context.WithCancel(ctx)
	s.st = state{
		asset:       asset,
		gen:         s.st.gen + 1,
		ctx:         gctx,
		cancel:      cancel,
		prices:      series.NewHistory(),
		predictions: series.NewHistory(),
		points:      []domain.ChartPoint{},
		rng:         series.EstimateRange(nil, asset.TickStep),
		loading:     true,
		bucket:      interval.Current(now),
		failing:     s.st.failing,
	}
}

// apply folds one fetch result into the state and reports whether anything
// visible changed. Results from an earlier selection are dropped.
func (s *Session) apply(ctx context.Context, r result) bool {
	if r.gen != s.st.gen {
		metrics.IncStale()
		s.logger.Debug("dropping stale result",
			slog.String("kind", r.kind.String()),
			slog.Uint64("generation", r.gen),
			slog.Uint64("current", s.st.gen),
		)
		return false
	}
	switch r.kind {
	case kindPrice:
		return s.foldPrice(r)
	case kindPrediction:
		return s.foldPrediction(ctx, r)
	case kindHistory:
		return s.foldHistory(r)
	}
	return false
}

// foldPrice records a spot price. The first observation in a bucket is kept;
// later ones only move the live price.
func (s *Session) foldPrice(r result) bool {
	if r.err != nil {
		s.logger.Warn("live price fetch failed",
			slog.String("asset", s.st.asset.ID),
			slog.String("error", r.err.Error()),
		)
		return false
	}
	price := r.price
	s.st.prices.Put(r.at, price)
	s.st.live = &price
	s.purge(r.at)
	s.recomputeRange()
	if s.currentPrediction(r.at) != nil {
		s.rebuild(r.at)
	}
	return true
}

// foldPrediction applies a cycle's outcome. Only the in-flight cycle or one
// for the open bucket may touch the state; a cycle that finishes after a
// later bucket has started is dropped so it cannot clear that bucket's error
// or replace its prediction.
func (s *Session) foldPrediction(ctx context.Context, r result) bool {
	current := interval.Current(s.now())
	if !r.bucket.Equal(s.st.inflight) && !r.bucket.Equal(current) {
		metrics.IncStale()
		s.logger.Debug("dropping late prediction",
			slog.String("asset", s.st.asset.ID),
			slog.Time("bucket", r.bucket),
			slog.Time("current", current),
		)
		return false
	}
	if r.bucket.Equal(s.st.inflight) {
		s.st.inflight = time.Time{}
	}
	s.st.loading = false

	if r.err != nil {
		s.logger.Error("prediction fetch failed",
			slog.String("asset", s.st.asset.ID),
			slog.Time("bucket", r.bucket),
			slog.String("error", r.err.Error()),
		)
		s.st.errMsg = MsgPredictionFailed
		if !s.st.failing {
			s.st.failing = true
			s.alert(ctx, notify.EventPredictionFailed, "Prediction feed failing",
				s.st.asset.ID+": "+r.err.Error())
		}
		return true
	}

	point := domain.PredictionPoint{
		Timestamp: r.bucket,
		Value:     r.prediction.Price,
		Sentiment: r.prediction.SentimentScore,
	}
	s.st.prediction = &point
	s.st.predictions.Put(r.bucket, point.Value)
	s.st.errMsg = ""
	if s.st.failing {
		s.st.failing = false
		s.alert(ctx, notify.EventPredictionRecovered, "Prediction feed recovered", s.st.asset.ID)
	}

	var live float64
	if s.st.live != nil {
		live = *s.st.live
	}
	s.persist(ctx, domain.PredictionRecord{
		ID:               uuid.NewString(),
		AssetID:          s.st.asset.ID,
		Symbol:           s.st.asset.Symbol,
		Name:             s.st.asset.Name,
		SentimentScore:   point.Sentiment,
		PredictionTime:   r.at.UTC(),
		PredictedForTime: interval.Next(r.bucket),
		RealTimePrice:    live,
		PredictedPrice:   point.Value,
	})

	s.purge(r.at)
	s.recomputeRange()
	s.rebuild(r.at)
	return true
}

// foldHistory rebuilds both histories from persisted records. Records arrive
// newest first, so the newest record for a bucket wins.
func (s *Session) foldHistory(r result) bool {
	if r.err != nil {
		s.logger.Error("prediction history load failed",
			slog.String("asset", s.st.asset.ID),
			slog.String("error", r.err.Error()),
		)
		s.st.errMsg = MsgHistoryFailed
		return true
	}

	for _, rec := range r.records {
		s.st.predictions.Put(rec.PredictedForTime, rec.PredictedPrice)
		if rec.RealTimePrice > 0 {
			s.st.prices.Put(rec.PredictedForTime, rec.RealTimePrice)
		}
	}
	s.logger.Debug("prediction history loaded",
		slog.String("asset", s.st.asset.ID),
		slog.Int("records", len(r.records)),
	)

	now := s.now()
	s.purge(now)
	s.recomputeRange()
	s.rebuild(now)
	return true
}

// onTick detects bucket boundaries; crossing one shifts the chart window and
// starts a prediction cycle for the new bucket.
func (s *Session) onTick() bool {
	now := s.now()
	b := interval.Current(now)
	if b.Equal(s.st.bucket) {
		return false
	}
	s.st.bucket = b
	s.purge(now)
	if len(s.st.points) > 0 {
		s.rebuild(now)
	}
	s.startCycle(now)
	return true
}

// purge drops history buckets that have left the trailing window.
func (s *Session) purge(now time.Time) int {
	cutoff := interval.Current(now.Add(-series.Lookback))
	return s.st.prices.Purge(cutoff) + s.st.predictions.Purge(cutoff)
}

// currentPrediction returns the prediction only while its bucket is open.
func (s *Session) currentPrediction(now time.Time) *domain.PredictionPoint {
	p := s.st.prediction
	if p == nil || !p.Timestamp.Equal(interval.Current(now)) {
		return nil
	}
	return p
}

func (s *Session) recomputeRange() {
	values := append(s.st.prices.Values(), s.st.predictions.Values()...)
	if s.st.live != nil {
		values = append(values, *s.st.live)
	}
	if s.st.prediction != nil {
		values = append(values, s.st.prediction.Value)
	}
	s.st.rng = series.EstimateRange(values, s.st.asset.TickStep)
}

func (s *Session) rebuild(now time.Time) {
	s.st.points = series.Reconcile(series.Input{
		Now:         now,
		Current:     s.currentPrediction(now),
		LivePrice:   s.st.live,
		Prices:      s.st.prices,
		Predictions: s.st.predictions,
		Location:    s.cfg.Location,
	})
	s.st.trend = series.Trend(s.st.points)
}

// snapshot copies the state into an immutable presentation record.
func (st *state) snapshot(now time.Time) domain.DashboardSnapshot {
	snap := domain.DashboardSnapshot{
		Asset:     st.asset,
		Points:    st.points,
		Range:     st.rng,
		TrendPct:  st.trend,
		Error:     st.errMsg,
		Loading:   st.loading,
		UpdatedAt: now.UTC(),
	}
	if st.live != nil {
		v := *st.live
		snap.LivePrice = &v
	}
	if st.prediction != nil {
		p := *st.prediction
		snap.Prediction = &p
		snap.Sentiment = domain.ClassifySentiment(p.Sentiment)
	}
	return snap
}
