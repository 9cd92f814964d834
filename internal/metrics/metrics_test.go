package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFeed(t *testing.T) {
	before := testutil.ToFloat64(feedRequests.WithLabelValues(FeedPrice, ResultError))
	ObserveFeed(FeedPrice, time.Now(), errors.New("timeout"))
	assert.Equal(t, before+1, testutil.ToFloat64(feedRequests.WithLabelValues(FeedPrice, ResultError)))
}

func TestObservePersist(t *testing.T) {
	before := testutil.ToFloat64(persisted.WithLabelValues(ResultOK))
	ObservePersist(nil)
	assert.Equal(t, before+1, testutil.ToFloat64(persisted.WithLabelValues(ResultOK)))
}

func TestHandlerServesMetrics(t *testing.T) {
	AddArchived(3)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cryptopredict_archive_records_total")
}
