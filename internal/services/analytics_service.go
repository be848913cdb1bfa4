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

type AnalyticsGateway interface {
	Summary(ctx context.Context, q api.AnalyticsQuery) (*core.AnalyticsSummary, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
}

type AnalyticsState struct {
	LoadState
	Filter     views.AnalyticsFilter `json:"filter"`
	Charts     *views.Charts         `json:"charts,omitempty"`
	Categories []core.Category       `json:"categories"`
}

// AnalyticsService keeps the last summary so a language switch only re-labels
type AnalyticsService struct {
	gw     AnalyticsGateway
	lang   Languages
	logger *log.Logger
	seq    latest.Sequencer

	mu         sync.RWMutex
	filter     views.AnalyticsFilter
	summary    *core.AnalyticsSummary
	categories []core.Category
	loading    bool
	err        error
}

func NewAnalyticsService(gw AnalyticsGateway, lang Languages, logger *log.Logger) *AnalyticsService {
	if logger == nil {
		logger = log.Discard()
	}
	return &AnalyticsService{
		gw:     gw,
		lang:   lang,
		logger: logger.WithComponent(log.ComponentAnalytics),
		filter: views.DefaultAnalyticsFilter(),
	}
}

func (s *AnalyticsService) SetPeriod(ctx context.Context, p core.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.filter.SetPeriod(p)
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *AnalyticsService) SetGroupBy(ctx context.Context, g core.GroupBy) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.filter.SetGroupBy(g)
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *AnalyticsService) SetCategory(ctx context.Context, id *int64) error {
	s.mu.Lock()
	s.filter.SetCategory(id)
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// ApplyFilter replaces the whole filter at once
func (s *AnalyticsService) ApplyFilter(ctx context.Context, f views.AnalyticsFilter) error {
	if err := f.Period.Validate(); err != nil {
		return err
	}
	if err := f.GroupBy.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *AnalyticsService) Refresh(ctx context.Context) error {
	ticket := s.seq.Begin()
	s.mu.Lock()
	s.loading = true
	f := s.filter
	s.mu.Unlock()

	summary, err := s.gw.Summary(ctx, api.AnalyticsQuery{GroupBy: f.GroupBy, Period: f.Period, CategoryID: f.CategoryID})
	if !ticket.Current() {
		discardStale(ctx, s.logger, ticket, "analytics summary")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = err
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch analytics", log.FieldError, err)
		return fmt.Errorf("analytics summary: %w", err)
	}
	s.summary = summary
	return nil
}

// LoadCategories fills the category filter dropdown
func (s *AnalyticsService) LoadCategories(ctx context.Context) error {
	cats, err := s.gw.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	s.mu.Lock()
	s.categories = cats
	s.mu.Unlock()
	return nil
}

// State renders the charts under the current language without fetching
func (s *AnalyticsService) State() AnalyticsState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := AnalyticsState{
		LoadState:  loadState(s.loading, s.err),
		Filter:     s.filter,
		Categories: append([]core.Category(nil), s.categories...),
	}
	if s.summary != nil {
		charts := views.BuildCharts(*s.summary, localeOf(s.lang), views.AnalyticsPalette)
		st.Charts = &charts
	}
	return st
}
