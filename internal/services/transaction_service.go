package services

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/latest"
	"fintrack/internal/log"
	"fintrack/internal/views"
)

type TransactionGateway interface {
	ListTransactions(ctx context.Context, q api.TransactionQuery) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, in core.TransactionInput) (int64, error)
	UpdateTransaction(ctx context.Context, id int64, in core.TransactionUpdate) error
	DeleteTransaction(ctx context.Context, id int64) error
}

type TransactionState struct {
	LoadState
	Filter views.TransactionFilter `json:"filter"`
	Rows   []views.TransactionRow  `json:"rows"`
}

// TransactionService owns the list filter. Every change re-fetches with all
// five dimensions and every mutation re-fetches under the current filter.
type TransactionService struct {
	gw     TransactionGateway
	pub    Publisher
	lang   Languages
	logger *log.Logger
	seq    latest.Sequencer

	mu      sync.RWMutex
	filter  views.TransactionFilter
	items   []core.Transaction
	loading bool
	err     error
}

func NewTransactionService(gw TransactionGateway, pub Publisher, lang Languages, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		gw:     gw,
		pub:    pub,
		lang:   lang,
		logger: logger.WithComponent(log.ComponentTransaction),
	}
}

func (s *TransactionService) update(ctx context.Context, fn func(f *views.TransactionFilter) error) error {
	s.mu.Lock()
	next := s.filter
	err := fn(&next)
	if err == nil {
		s.filter = next
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *TransactionService) SetType(ctx context.Context, t string) error {
	return s.update(ctx, func(f *views.TransactionFilter) error { return f.SetType(t) })
}

func (s *TransactionService) SetCategory(ctx context.Context, id *int64) error {
	return s.update(ctx, func(f *views.TransactionFilter) error { f.SetCategory(id); return nil })
}

func (s *TransactionService) SetSearch(ctx context.Context, q string) error {
	return s.update(ctx, func(f *views.TransactionFilter) error { f.SetSearch(q); return nil })
}

func (s *TransactionService) SetDateRange(ctx context.Context, start, end string) error {
	return s.update(ctx, func(f *views.TransactionFilter) error { return f.SetDateRange(start, end) })
}

// ApplyFilter replaces every dimension at once
func (s *TransactionService) ApplyFilter(ctx context.Context, filter views.TransactionFilter) error {
	return s.update(ctx, func(f *views.TransactionFilter) error { *f = filter; return nil })
}

func (s *TransactionService) ResetFilter(ctx context.Context) error {
	return s.update(ctx, func(f *views.TransactionFilter) error { f.Reset(); return nil })
}

func (s *TransactionService) Refresh(ctx context.Context) error {
	ticket := s.seq.Begin()
	s.mu.Lock()
	s.loading = true
	q := s.filter.Query()
	s.mu.Unlock()

	items, err := s.gw.ListTransactions(ctx, q)
	if !ticket.Current() {
		discardStale(ctx, s.logger, ticket, "list transactions")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = err
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch transactions", log.FieldError, err)
		return fmt.Errorf("list transactions: %w", err)
	}
	s.items = items
	return nil
}

func (s *TransactionService) State() TransactionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TransactionState{
		LoadState: loadState(s.loading, s.err),
		Filter:    s.filter,
		Rows:      views.BuildTransactionRows(s.items, localeOf(s.lang)),
	}
}

func (s *TransactionService) Create(ctx context.Context, in core.TransactionInput) (int64, error) {
	id, err := s.gw.CreateTransaction(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction created", log.FieldEntityID, id)
	publishChange(ctx, s.pub, s.logger, amqp.EntityTransaction, amqp.OpCreated, id)
	return id, refetchErr(s.Refresh(ctx))
}

func (s *TransactionService) Update(ctx context.Context, id int64, in core.TransactionUpdate) error {
	if err := s.gw.UpdateTransaction(ctx, id, in); err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	publishChange(ctx, s.pub, s.logger, amqp.EntityTransaction, amqp.OpUpdated, id)
	return refetchErr(s.Refresh(ctx))
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.gw.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	publishChange(ctx, s.pub, s.logger, amqp.EntityTransaction, amqp.OpDeleted, id)
	return refetchErr(s.Refresh(ctx))
}
