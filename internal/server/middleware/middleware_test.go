package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	h := Auth("secret", "/api/health")(ok)

	assert.Equal(t, http.StatusUnauthorized, serve(h, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/api/health", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/ws?api_key=secret", nil)
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestAuthDisabled(t *testing.T) {
	h := Auth("")(ok)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)).Code)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(h, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.Empty(t, serve(h, req).Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/dashboard/select", nil)
	assert.Equal(t, http.StatusNoContent, serve(h, req).Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, 2)(ok)
	req := func(ip string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
		r.RemoteAddr = ip + ":5555"
		return r
	}

	assert.Equal(t, http.StatusOK, serve(h, req("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(h, req("10.0.0.1")).Code)
	limited := serve(h, req("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(h, req("10.0.0.2")).Code, "limits are per client")
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, 0)(ok)
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestClientLimiterEvictsIdle(t *testing.T) {
	start := time.Now()
	l := &clientLimiter{rps: 1, burst: 1, visitors: map[string]*visitor{}, lastGC: start}
	l.allow("a", start)
	l.allow("b", start.Add(2*idleEviction))
	assert.Len(t, l.visitors, 1)
}

func TestLoggingCapturesStatus(t *testing.T) {
	h := Logging(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	assert.Equal(t, http.StatusTeapot, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}
