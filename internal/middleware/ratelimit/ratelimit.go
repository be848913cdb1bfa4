package ratelimit

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"fintrack/internal/cache"
	"fintrack/internal/log"
)

// Limiter keeps one token bucket per client. Buckets live in an LRU cache so
// idle clients are forgotten and the number of tracked clients stays bounded.
type Limiter struct {
	buckets *cache.LRUCache[*rate.Limiter]
	limit   rate.Limit
	perMin  int
	burst   int
	hits    atomic.Int64
	logger  *log.Logger
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	Burst             int
	MaxClients        int
	IdleTTL           time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Burst:             10,
		MaxClients:        10000,
		IdleTTL:           10 * time.Minute,
	}
}

func NewLimiter(config Config, logger *log.Logger) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = def.Burst
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = def.IdleTTL
	}
	if logger == nil {
		logger = log.Discard()
	}

	return &Limiter{
		buckets: cache.NewLRUCache[*rate.Limiter](config.MaxClients, config.IdleTTL),
		limit:   rate.Limit(float64(config.RequestsPerMinute) / 60),
		perMin:  config.RequestsPerMinute,
		burst:   config.Burst,
		logger:  logger.WithComponent(log.ComponentRateLimit),
	}
}

// Allow reports whether clientID may make a request now
func (l *Limiter) Allow(clientID string) bool {
	bucket := l.buckets.GetOrCreate(clientID, func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})
	if bucket.Allow() {
		return true
	}
	l.hits.Add(1)
	return false
}

// RetryAfter is the wait, in whole seconds, until one token is available again
func (l *Limiter) RetryAfter() int {
	return (60 + l.perMin - 1) / l.perMin
}

// Cleaner exposes the bucket cache so a cache.Manager can expire idle clients
func (l *Limiter) Cleaner() cache.Cleaner {
	return l.buckets
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   l.hits.Load(),
		ClientCount: int64(l.buckets.Size()),
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractIP(r)

			if !l.Allow(clientIP) {
				l.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter()))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
