package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/assert"
)

func TestLimiter_BurstThenReject(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1, Burst: 3}, nil)

	for i := 0; i < 3; i++ {
		assert.Assert(t, l.Allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.Assert(t, !l.Allow("10.0.0.1"))
	// buckets are per client
	assert.Assert(t, l.Allow("10.0.0.2"))

	m := l.GetMetrics()
	assert.Equal(t, m.TotalHits, int64(1))
	assert.Equal(t, m.ClientCount, int64(2))
	assert.Equal(t, l.RetryAfter(), 60)
}

func TestLimiter_Middleware(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 60, Burst: 1}, nil)
	h := l.Middleware(func(r *http.Request) string { return "client" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/views/dashboard", nil))
	assert.Equal(t, rr.Code, http.StatusNoContent)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/views/dashboard", nil))
	assert.Equal(t, rr.Code, http.StatusTooManyRequests)
	assert.Equal(t, rr.Header().Get("Retry-After"), "1")
}
