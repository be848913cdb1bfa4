package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/state"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics := s.limiter.GetMetrics()
	NewResponse().Body(map[string]any{
		"status":             "ok",
		"timestamp":          time.Now().Format(time.RFC3339),
		"uptime":             time.Since(s.startedAt).Round(time.Second).String(),
		"requests":           s.tracer.GetMetrics().TotalRequests,
		"rate_limit_hits":    metrics.TotalHits,
		"rate_limit_clients": metrics.ClientCount,
	}).Write(w)
}

func (s *Server) logFailure(r *http.Request, view string, err error) {
	if err == nil {
		return
	}
	s.logger.WarnContext(r.Context(), "View refresh failed",
		log.FieldRequestID, trace.GetRequestID(r.Context()),
		log.FieldView, view,
		log.FieldError, err)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if s.pages.Categories == nil {
		NotFoundError("categories view not available").Write(w)
		return
	}
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	err := s.pages.Categories.Refresh(r.Context())
	s.logFailure(r, "categories", err)
	pageResponse(s.pages.Categories.State(), err).Write(w)
}

// handleToggleCategory flips one node without refetching
func (s *Server) handleToggleCategory(w http.ResponseWriter, r *http.Request) {
	if s.pages.Categories == nil {
		NotFoundError("categories view not available").Write(w)
		return
	}
	id, err := parsePathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	s.pages.Categories.Toggle(id)
	NewResponse().Body(s.pages.Categories.State()).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if s.pages.Categories == nil {
		NotFoundError("categories view not available").Write(w)
		return
	}
	id, err := parsePathID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	if err := s.pages.Categories.Delete(r.Context(), id); err != nil {
		s.logFailure(r, "categories", err)
		FromError(err).Write(w)
		return
	}
	NewResponse().Body(s.pages.Categories.State()).Write(w)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	if s.pages.Budgets == nil {
		NotFoundError("budgets view not available").Write(w)
		return
	}
	archived, err := parseBool(r.URL.Query(), "archived")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	err = s.pages.Budgets.ShowArchived(r.Context(), archived)
	s.logFailure(r, "budgets", err)
	pageResponse(s.pages.Budgets.State(), err).Write(w)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if s.pages.Transactions == nil {
		NotFoundError("transactions view not available").Write(w)
		return
	}
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	err = s.pages.Transactions.ApplyFilter(r.Context(), filter)
	s.logFailure(r, "transactions", err)
	pageResponse(s.pages.Transactions.State(), err).Write(w)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if s.pages.Analytics == nil {
		NotFoundError("analytics view not available").Write(w)
		return
	}
	filter, err := ParseAnalyticsFilter(r.URL.Query())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	// the dropdown is cosmetic; a failure here does not fail the page
	if err := s.pages.Analytics.LoadCategories(r.Context()); err != nil {
		s.logFailure(r, "analytics", err)
	}
	err = s.pages.Analytics.ApplyFilter(r.Context(), filter)
	s.logFailure(r, "analytics", err)
	pageResponse(s.pages.Analytics.State(), err).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.pages.Dashboard == nil {
		NotFoundError("dashboard view not available").Write(w)
		return
	}
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	err := s.pages.Dashboard.Refresh(r.Context())
	s.logFailure(r, "dashboard", err)
	pageResponse(s.pages.Dashboard.State(), err).Write(w)
}

// handleRates validates both codes before touching the page. A new base
// reloads the table and the history; a new target alone reloads the history.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if s.pages.Currencies == nil {
		NotFoundError("rates view not available").Write(w)
		return
	}
	q := r.URL.Query()
	base, target := strings.TrimSpace(q.Get("base")), strings.TrimSpace(q.Get("target"))
	for _, code := range []string{base, target} {
		if code == "" {
			continue
		}
		if _, err := core.NormalizeCurrency(code); err != nil {
			FromError(err).Write(w)
			return
		}
	}

	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	ctx := r.Context()
	page := s.pages.Currencies
	var err error
	switch {
	case base == "" && target == "":
		err = page.Refresh(ctx)
	case base == "":
		err = page.SetTarget(ctx, target)
	case target == "":
		err = page.SetBase(ctx, base)
	default:
		err = errors.Join(page.SetTarget(ctx, target), page.SetBase(ctx, base))
	}
	s.logFailure(r, "rates", err)
	pageResponse(page.State(), err).Write(w)
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	if s.pages.Preferences == nil {
		NotFoundError("preferences not available").Write(w)
		return
	}
	NewResponse().Body(s.pages.Preferences.Get()).Write(w)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if s.pages.Preferences == nil {
		NotFoundError("preferences not available").Write(w)
		return
	}
	var in PreferencesUpdate
	if err := decodeBody(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx := r.Context()
	if in.Theme != "" {
		if err := s.pages.Preferences.SetTheme(ctx, state.Theme(in.Theme)); err != nil {
			FromError(err).Write(w)
			return
		}
	}
	if in.Language != "" {
		if err := s.pages.Preferences.SetLanguage(ctx, in.Language); err != nil {
			FromError(err).Write(w)
			return
		}
	}
	NewResponse().Body(s.pages.Preferences.Get()).Write(w)
}
