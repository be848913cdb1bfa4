package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/assert"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		name   string
		remote string
		xff    string
		real   string
		want   string
	}{
		{"direct public peer ignores headers", "203.0.113.5:1234", "1.2.3.4", "", "203.0.113.5"},
		{"trusted proxy forwards first hop", "10.0.0.2:80", "198.51.100.7, 10.0.0.9", "", "198.51.100.7"},
		{"trusted proxy falls back to x-real-ip", "127.0.0.1:80", "garbage", "198.51.100.8", "198.51.100.8"},
		{"trusted proxy without headers", "192.168.1.1:80", "", "", "192.168.1.1"},
		{"unparseable remote", "pipe", "", "", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.real != "" {
				r.Header.Set("X-Real-IP", tt.real)
			}
			assert.Equal(t, d.ExtractClientIP(r), tt.want)
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	assert.Assert(t, d.AddTrustedProxy("nope") != nil)
	assert.NilError(t, d.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.5:1"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, d.ExtractClientIP(r), "198.51.100.1")
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()
	assert.Assert(t, !d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/views/transactions?search=coffee", nil)))
	assert.Assert(t, d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/views/../.env", nil)))
	assert.Assert(t, d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/views/transactions?search=%3Cscript%3E", nil)))
	assert.Assert(t, d.DetectSuspiciousRequest(httptest.NewRequest("TRACE", "/", nil)))
	assert.Equal(t, d.SuspiciousRequests(), int64(3))
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, rr.Header().Get("X-Content-Type-Options"), "nosniff")
	assert.Equal(t, rr.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, rr.Header().Get("Strict-Transport-Security"), "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, rr.Header().Get("Strict-Transport-Security"), "max-age=31536000; includeSubDomains")
}
