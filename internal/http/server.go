package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/state"
	"fintrack/internal/views"
)

// Each page is the subset of a controller the server drives. The services
// package types satisfy them.
type (
	CategoryPage interface {
		Refresh(ctx context.Context) error
		Toggle(id int64)
		State() services.CategoryState
		Delete(ctx context.Context, id int64) error
	}

	BudgetPage interface {
		ShowArchived(ctx context.Context, archived bool) error
		State() services.BudgetState
	}

	TransactionPage interface {
		ApplyFilter(ctx context.Context, f views.TransactionFilter) error
		State() services.TransactionState
	}

	AnalyticsPage interface {
		ApplyFilter(ctx context.Context, f views.AnalyticsFilter) error
		LoadCategories(ctx context.Context) error
		State() services.AnalyticsState
	}

	DashboardPage interface {
		Refresh(ctx context.Context) error
		State() services.DashboardState
	}

	CurrencyPage interface {
		SetBase(ctx context.Context, code string) error
		SetTarget(ctx context.Context, code string) error
		Refresh(ctx context.Context) error
		State() services.CurrencyState
	}

	PreferencesPage interface {
		Get() state.Preferences
		SetTheme(ctx context.Context, theme state.Theme) error
		SetLanguage(ctx context.Context, lang string) error
	}
)

// Pages wires the controllers behind each route. A nil page answers 404.
type Pages struct {
	Categories   CategoryPage
	Budgets      BudgetPage
	Transactions TransactionPage
	Analytics    AnalyticsPage
	Dashboard    DashboardPage
	Currencies   CurrencyPage
	Preferences  PreferencesPage
}

// Options configures the middleware stack
type Options struct {
	RateLimit       ratelimit.Config
	Headers         security.HeadersConfig
	TrustedProxies  []string
	CleanupInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		RateLimit:       ratelimit.DefaultConfig(),
		Headers:         security.DefaultHeadersConfig(),
		CleanupInterval: 5 * time.Minute,
	}
}

// Server exposes the derived page states as JSON
type Server struct {
	http.Server
	pages     Pages
	logger    *log.Logger
	startedAt time.Time

	// pages keep mutable filter state, so one request drives a page at a time
	pageMu sync.Mutex

	detector  *security.Detector
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	cacheMgr  *cache.Manager
	closeOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server
func NewServer(addr string, pages Pages, opts Options, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		pages:     pages,
		logger:    logger.WithComponent(log.ComponentHTTP),
		startedAt: time.Now(),
		detector:  detector,
		limiter:   ratelimit.NewLimiter(opts.RateLimit, logger),
		tracer:    trace.NewMiddleware(detector.ExtractClientIP, logger),
		cacheMgr:  cache.NewManager(logger.WithComponent(log.ComponentHTTP)),
	}
	s.cacheMgr.Register(s.limiter.Cleaner())
	s.cacheMgr.StartCleanup(opts.CleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /views/categories", s.handleCategories)
	mux.HandleFunc("POST /views/categories/{id}/toggle", s.handleToggleCategory)
	mux.HandleFunc("DELETE /views/categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("GET /views/budgets", s.handleBudgets)
	mux.HandleFunc("GET /views/transactions", s.handleTransactions)
	mux.HandleFunc("GET /views/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /views/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /views/rates", s.handleRates)
	mux.HandleFunc("GET /views/preferences", s.handlePreferences)
	mux.HandleFunc("PUT /views/preferences", s.handleUpdatePreferences)

	headers := security.NewHeadersMiddleware(opts.Headers)
	limit := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})

	var handler http.Handler = mux
	handler = s.rejectSuspicious(handler)
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request rejected",
				log.FieldRequestID, trace.GetRequestID(r.Context()),
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldPath, r.URL.Path)
			BadRequestError("bad request").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the cache cleanup and then the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.cacheMgr.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
