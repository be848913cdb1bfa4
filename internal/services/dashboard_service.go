package services

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/latest"
	"fintrack/internal/log"
	"fintrack/internal/views"
)

// DashboardLoadFailed is the message shown next to the retry control
const DashboardLoadFailed = "Failed to load dashboard data."

type SummaryGateway interface {
	Summary(ctx context.Context, q api.AnalyticsQuery) (*core.AnalyticsSummary, error)
}

type DashboardState struct {
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	Retryable bool             `json:"retryable"`
	View      *views.Dashboard `json:"view,omitempty"`
}

// DashboardService loads the default summary. On failure the previous data is
// dropped and the page offers a retry.
type DashboardService struct {
	gw     SummaryGateway
	lang   Languages
	logger *log.Logger
	seq    latest.Sequencer

	mu      sync.RWMutex
	summary *core.AnalyticsSummary
	loading bool
	err     error
}

func NewDashboardService(gw SummaryGateway, lang Languages, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DashboardService{gw: gw, lang: lang, logger: logger.WithComponent(log.ComponentDashboard)}
}

// Refresh fetches the summary; Retry is the same call
func (s *DashboardService) Refresh(ctx context.Context) error {
	ticket := s.seq.Begin()
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	summary, err := s.gw.Summary(ctx, api.AnalyticsQuery{})
	if !ticket.Current() {
		discardStale(ctx, s.logger, ticket, "dashboard summary")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		s.summary = nil
		s.logger.ErrorContext(ctx, "Failed to fetch dashboard data", log.FieldError, err)
		return fmt.Errorf("dashboard summary: %w", err)
	}
	s.summary = summary
	return nil
}

func (s *DashboardService) Retry(ctx context.Context) error {
	return s.Refresh(ctx)
}

func (s *DashboardService) State() DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := DashboardState{Loading: s.loading}
	if s.err != nil {
		st.Error = DashboardLoadFailed
		st.Retryable = true
		return st
	}
	if s.summary != nil {
		d := views.BuildDashboard(*s.summary, localeOf(s.lang))
		st.View = &d
	}
	return st
}
