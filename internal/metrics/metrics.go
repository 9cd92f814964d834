// Package metrics exposes Prometheus instruments for the feed pollers,
// prediction persistence, archival and the websocket hub.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cryptopredict"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Feed label values.
const (
	FeedPrice      = "price"
	FeedPrediction = "prediction"
	FeedHistory    = "history"
)

var (
	// feedRequests counts upstream fetches. Labels: feed, result.
	feedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "requests_total",
		Help:      "Upstream feed fetches by feed and result",
	}, []string{"feed", "result"})

	feedLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "latency_seconds",
		Help:      "Upstream feed fetch latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"feed"})

	persisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "predictions_persisted_total",
		Help:      "Prediction records written by result",
	}, []string{"result"})

	archived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "archive",
		Name:      "records_total",
		Help:      "Prediction records copied to cold storage",
	})

	staleResults = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "stale_results_total",
		Help:      "Fetch results discarded after an asset switch",
	})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Connected websocket clients",
	})
)

// ObserveFeed records one upstream fetch.
func ObserveFeed(feed string, started time.Time, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	feedRequests.WithLabelValues(feed, result).Inc()
	feedLatency.WithLabelValues(feed).Observe(time.Since(started).Seconds())
}

// ObservePersist records the outcome of a prediction insert.
func ObservePersist(err error) {
	if err != nil {
		persisted.WithLabelValues(ResultError).Inc()
		return
	}
	persisted.WithLabelValues(ResultOK).Inc()
}

// AddArchived adds n archived records.
func AddArchived(n int64) {
	archived.Add(float64(n))
}

// IncStale counts a discarded stale fetch result.
func IncStale() {
	staleResults.Inc()
}

// WSConnected adjusts the websocket client gauge by delta.
func WSConnected(delta int) {
	wsClients.Add(float64(delta))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
