package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/latest"
	"fintrack/internal/log"
	"fintrack/internal/views"
)

type BudgetGateway interface {
	ListBudgets(ctx context.Context, archived bool) ([]core.Budget, error)
	CreateBudget(ctx context.Context, in core.BudgetInput) error
	UpdateBudget(ctx context.Context, id int64, patch core.BudgetPatch) error
	DeleteBudget(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]core.Category, error)
}

type BudgetState struct {
	LoadState
	ShowArchived bool               `json:"show_archived"`
	Budgets      []views.BudgetView `json:"budgets"`
	Categories   []core.Category    `json:"categories"`
}

// BudgetService shows exactly the set the backend returned for the archived flag
type BudgetService struct {
	gw       BudgetGateway
	pub      Publisher
	lang     Languages
	currency func() string
	logger   *log.Logger
	seq      latest.Sequencer

	mu           sync.RWMutex
	showArchived bool
	budgets      []core.Budget
	categories   []core.Category
	loading      bool
	err          error
}

// NewBudgetService builds the controller. currency supplies the user's base
// currency for labels; nil means the backend default.
func NewBudgetService(gw BudgetGateway, pub Publisher, lang Languages, currency func() string, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.Discard()
	}
	if currency == nil {
		currency = func() string { return core.DefaultBaseCurrency }
	}
	return &BudgetService{
		gw:       gw,
		pub:      pub,
		lang:     lang,
		currency: currency,
		logger:   logger.WithComponent(log.ComponentBudget),
	}
}

// ShowArchived switches between active and archived budgets and re-fetches
func (s *BudgetService) ShowArchived(ctx context.Context, archived bool) error {
	s.mu.Lock()
	s.showArchived = archived
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh loads budgets and the expense categories offered by the create form
func (s *BudgetService) Refresh(ctx context.Context) error {
	ticket := s.seq.Begin()
	s.mu.Lock()
	s.loading = true
	archived := s.showArchived
	s.mu.Unlock()

	var budgets []core.Budget
	var expense []core.Category
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.gw.ListBudgets(gctx, archived)
		return err
	})
	g.Go(func() error {
		cats, err := s.gw.ListCategories(gctx)
		if err != nil {
			return err
		}
		for _, c := range cats {
			if c.Type == core.Expense {
				expense = append(expense, c)
			}
		}
		return nil
	})
	err := g.Wait()

	if !ticket.Current() {
		discardStale(ctx, s.logger, ticket, "list budgets")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = err
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch budgets", log.FieldError, err)
		return fmt.Errorf("list budgets: %w", err)
	}
	s.budgets = budgets
	s.categories = expense
	s.logger.DebugContext(ctx, "Budgets loaded", log.FieldCount, len(budgets), "archived", archived)
	return nil
}

func (s *BudgetService) State() BudgetState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BudgetState{
		LoadState:    loadState(s.loading, s.err),
		ShowArchived: s.showArchived,
		Budgets:      views.BuildBudgets(s.budgets, s.currency(), localeOf(s.lang)),
		Categories:   append([]core.Category(nil), s.categories...),
	}
}

func (s *BudgetService) Create(ctx context.Context, in core.BudgetInput) error {
	if err := s.gw.CreateBudget(ctx, in); err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	publishChange(ctx, s.pub, s.logger, amqp.EntityBudget, amqp.OpCreated, 0)
	return refetchErr(s.Refresh(ctx))
}

func (s *BudgetService) Update(ctx context.Context, id int64, patch core.BudgetPatch) error {
	if err := s.gw.UpdateBudget(ctx, id, patch); err != nil {
		return fmt.Errorf("update budget %d: %w", id, err)
	}
	publishChange(ctx, s.pub, s.logger, amqp.EntityBudget, amqp.OpUpdated, id)
	return refetchErr(s.Refresh(ctx))
}

// ToggleArchive flips the archived flag of a budget currently on screen
func (s *BudgetService) ToggleArchive(ctx context.Context, id int64) error {
	s.mu.RLock()
	var found *core.Budget
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			b := s.budgets[i]
			found = &b
			break
		}
	}
	s.mu.RUnlock()
	if found == nil {
		return fmt.Errorf("toggle archive: budget %d not loaded", id)
	}
	archived := !found.Archived
	return s.Update(ctx, id, core.BudgetPatch{Archived: &archived})
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	if err := s.gw.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	publishChange(ctx, s.pub, s.logger, amqp.EntityBudget, amqp.OpDeleted, id)
	return refetchErr(s.Refresh(ctx))
}
