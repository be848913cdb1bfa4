package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/latest"
	"fintrack/internal/log"
	"fintrack/internal/views"
)

const defaultTarget = "USD"

type CurrencyGateway interface {
	Rates(ctx context.Context, base string) (*core.ExchangeRateSet, error)
	History(ctx context.Context, base, target string) ([]core.RatePoint, error)
	SetManualRate(ctx context.Context, in core.ManualRate) error
}

type CurrencyState struct {
	LoadState
	Base    string               `json:"base"`
	Target  string               `json:"target"`
	Table   views.RateTable      `json:"table"`
	History []views.HistoryPoint `json:"history"`
}

// CurrencyService drives the exchange-rates page. Rates follow the base;
// history follows both base and target.
type CurrencyService struct {
	gw         CurrencyGateway
	lang       Languages
	logger     *log.Logger
	ratesSeq   latest.Sequencer
	historySeq latest.Sequencer

	mu      sync.RWMutex
	base    string
	target  string
	rates   core.ExchangeRateSet
	history []core.RatePoint
	stale   bool
	loading bool
	err     error
}

func NewCurrencyService(gw CurrencyGateway, lang Languages, logger *log.Logger) *CurrencyService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CurrencyService{
		gw:     gw,
		lang:   lang,
		logger: logger.WithComponent(log.ComponentCurrency),
		base:   core.DefaultBaseCurrency,
		target: defaultTarget,
	}
}

func (s *CurrencyService) SetBase(ctx context.Context, code string) error {
	code, err := core.NormalizeCurrency(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.base = code
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// SetTarget changes the history pair only; the rate table is unaffected
func (s *CurrencyService) SetTarget(ctx context.Context, code string) error {
	code, err := core.NormalizeCurrency(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.target = code
	s.mu.Unlock()
	return s.refreshHistory(ctx)
}

// Refresh loads the rate table and the history series concurrently
func (s *CurrencyService) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.refreshRates(gctx) })
	g.Go(func() error { return s.refreshHistory(gctx) })
	return g.Wait()
}

func (s *CurrencyService) refreshRates(ctx context.Context) error {
	ticket := s.ratesSeq.Begin()
	s.mu.Lock()
	s.loading = true
	base := s.base
	s.mu.Unlock()

	set, err := s.gw.Rates(ctx, base)
	if !ticket.Current() {
		discardStale(ctx, s.logger, ticket, "rates")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = err
	if err != nil {
		// the previous table stays on screen, flagged as out of date
		s.stale = len(s.rates.Rates) > 0
		s.logger.ErrorContext(ctx, "Failed to fetch rates", log.FieldCurrency, base, log.FieldError, err)
		return fmt.Errorf("rates for %s: %w", base, err)
	}
	s.rates = *set
	s.stale = false
	return nil
}

func (s *CurrencyService) refreshHistory(ctx context.Context) error {
	ticket := s.historySeq.Begin()
	s.mu.RLock()
	base, target := s.base, s.target
	s.mu.RUnlock()

	points, err := s.gw.History(ctx, base, target)
	if !ticket.Current() {
		discardStale(ctx, s.logger, ticket, "rate history")
		return nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to fetch rate history", log.FieldCurrency, base+"/"+target, log.FieldError, err)
		return fmt.Errorf("history %s/%s: %w", base, target, err)
	}

	s.mu.Lock()
	s.history = points
	s.mu.Unlock()
	return nil
}

// ManualOverride pins a rate on the backend and then reloads the table. A
// failed reload keeps the previous table marked stale; there is no rollback.
func (s *CurrencyService) ManualOverride(ctx context.Context, in core.ManualRate) error {
	if err := s.gw.SetManualRate(ctx, in); err != nil {
		return fmt.Errorf("set manual rate %s/%s: %w", in.Base, in.Target, err)
	}
	s.logger.InfoContext(ctx, "Manual rate saved", log.FieldCurrency, in.Base+"/"+in.Target, "rate", in.Rate)

	if err := s.refreshRates(ctx); err != nil {
		s.logger.WarnContext(ctx, "Rate table is stale after manual override", log.FieldError, err)
	}
	return nil
}

func (s *CurrencyService) State() CurrencyState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table := views.BuildRateTable(s.rates, localeOf(s.lang))
	table.Stale = s.stale
	return CurrencyState{
		LoadState: loadState(s.loading, s.err),
		Base:      s.base,
		Target:    s.target,
		Table:     table,
		History:   views.BuildHistory(s.history),
	}
}
