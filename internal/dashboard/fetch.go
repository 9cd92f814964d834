package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/interval"
)

type resultKind int

const (
	kindPrice resultKind = iota
	kindPrediction
	kindHistory
)

func (k resultKind) String() string {
	switch k {
	case kindPrice:
		return "price"
	case kindPrediction:
		return "prediction"
	case kindHistory:
		return "history"
	}
	return "unknown"
}

// result is a completed fetch posted back to the loop.
type result struct {
	gen  uint64
	kind resultKind
	// at is when the fetch completed.
	at time.Time
	// bucket is the cycle a prediction belongs to.
	bucket time.Time

	price      float64
	prediction domain.Prediction
	records    []domain.PredictionRecord
	err        error
}

// post hands r to the loop unless its generation has been cancelled.
func (s *Session) post(ctx context.Context, r result) bool {
	select {
	case s.results <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// spawn runs fn for the current generation.
func (s *Session) spawn(fn func(ctx context.Context, gen uint64, asset domain.Asset)) {
	ctx, gen, asset := s.st.ctx, s.st.gen, s.st.asset
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx, gen, asset)
	}()
}

func (s *Session) pollPrice() {
	s.spawn(func(ctx context.Context, gen uint64, asset domain.Asset) {
		price, err := s.prices.Price(ctx, asset.ID)
		s.post(ctx, result{gen: gen, kind: kindPrice, at: s.now(), price: price, err: err})
	})
}

func (s *Session) loadHistory() {
	limit := s.cfg.HistoryLimit
	s.spawn(func(ctx context.Context, gen uint64, asset domain.Asset) {
		recs, err := s.predictions.Recent(ctx, asset.ID, limit)
		s.post(ctx, result{gen: gen, kind: kindHistory, at: s.now(), records: recs, err: err})
	})
}

// startCycle runs one prediction cycle for the bucket containing now: a
// fresh spot price first, then the prediction. Both results travel on the
// same channel, so the loop sees the price before the prediction. The cycle
// is skipped when the bucket already has a prediction or one is in flight.
func (s *Session) startCycle(now time.Time) {
	b := interval.Current(now)
	if s.currentPrediction(now) != nil || s.st.inflight.Equal(b) {
		return
	}
	s.st.inflight = b

	s.spawn(func(ctx context.Context, gen uint64, asset domain.Asset) {
		price, err := s.prices.Price(ctx, asset.ID)
		if !s.post(ctx, result{gen: gen, kind: kindPrice, at: s.now(), price: price, err: err}) {
			return
		}
		p, err := s.predictions.Predict(ctx, asset.ID)
		s.post(ctx, result{gen: gen, kind: kindPrediction, at: s.now(), bucket: b, prediction: p, err: err})
	})
}

// persist writes rec in the background. Failures are logged only; the
// in-memory prediction stands either way.
func (s *Session) persist(ctx context.Context, rec domain.PredictionRecord) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := s.predictions.Save(pctx, rec); err != nil {
			s.logger.ErrorContext(pctx, "persisting prediction failed",
				slog.String("asset", rec.AssetID),
				slog.String("id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// publishLoop forwards snapshots to the signal bus until ctx is done.
func (s *Session) publishLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-s.pub:
			payload, err := EncodeSnapshot(snap)
			if err != nil {
				s.logger.Error("encode snapshot failed", slog.String("error", err.Error()))
				continue
			}
			if err := s.bus.Publish(ctx, domain.ChannelDashboard, payload); err != nil {
				s.logger.WarnContext(ctx, "publish snapshot failed", slog.String("error", err.Error()))
			}
		}
	}
}
