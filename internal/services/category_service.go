package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/latest"
	"fintrack/internal/log"
	"fintrack/internal/views"
)

// CategoryInUseMessage is shown when the backend refuses a delete
const CategoryInUseMessage = "Cannot delete category in use or containing subcategories."

// SystemCategoryMessage is shown when a built-in category is deleted
const SystemCategoryMessage = "System categories cannot be deleted."

var (
	// ErrCategoryInUse is returned when a category still has transactions or children
	ErrCategoryInUse = errors.New("category in use or has subcategories")
	// ErrSystemCategory is returned when deleting a built-in category
	ErrSystemCategory = errors.New("system category cannot be deleted")
)

type CategoryGateway interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, in core.CategoryInput) (int64, error)
	UpdateCategory(ctx context.Context, id int64, in core.CategoryInput) error
	DeleteCategory(ctx context.Context, id int64) error
}

// CategoryState is a consistent snapshot of the categories page
type CategoryState struct {
	LoadState
	Tree     views.Tree     `json:"tree"`
	Rows     []views.Row    `json:"rows"`
	Expanded map[int64]bool `json:"expanded"`
}

// CategoryService owns the category tree and its expand/collapse state
type CategoryService struct {
	gw     CategoryGateway
	pub    Publisher
	logger *log.Logger
	seq    latest.Sequencer

	mu       sync.RWMutex
	tree     views.Tree
	expanded map[int64]bool
	loading  bool
	err      error
}

func NewCategoryService(gw CategoryGateway, pub Publisher, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.Discard()
	}
	return &CategoryService{
		gw:       gw,
		pub:      pub,
		logger:   logger.WithComponent(log.ComponentCategory),
		expanded: map[int64]bool{},
	}
}

// Refresh re-reads the flat list and rebuilds the tree. Expansion resets.
func (s *CategoryService) Refresh(ctx context.Context) error {
	ticket := s.seq.Begin()
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	cats, err := s.gw.ListCategories(ctx)
	if !ticket.Current() {
		discardStale(ctx, s.logger, ticket, "list categories")
		return nil
	}

	var tree views.Tree
	if err == nil {
		tree = views.BuildTree(cats)
		for _, d := range tree.Dropped {
			s.logger.WarnContext(ctx, "Category left out of tree",
				log.FieldEntityID, d.ID,
				"reason", string(d.Reason))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.err = err
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch categories", log.FieldError, err)
		return fmt.Errorf("list categories: %w", err)
	}
	s.tree = tree
	s.expanded = map[int64]bool{}
	return nil
}

// Toggle flips the expansion of one node
func (s *CategoryService) Toggle(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded[id] = !s.expanded[id]
}

func (s *CategoryService) State() CategoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expanded := make(map[int64]bool, len(s.expanded))
	for k, v := range s.expanded {
		if v {
			expanded[k] = true
		}
	}
	return CategoryState{
		LoadState: loadState(s.loading, s.err),
		Tree:      s.tree,
		Rows:      s.tree.Flatten(expanded),
		Expanded:  expanded,
	}
}

// Tree returns the last successfully built tree
func (s *CategoryService) Tree() views.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

func (s *CategoryService) Create(ctx context.Context, in core.CategoryInput) (int64, error) {
	id, err := s.gw.CreateCategory(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created", log.FieldEntityID, id)
	publishChange(ctx, s.pub, s.logger, amqp.EntityCategory, amqp.OpCreated, id)
	return id, refetchErr(s.Refresh(ctx))
}

func (s *CategoryService) Update(ctx context.Context, id int64, in core.CategoryInput) error {
	if err := s.gw.UpdateCategory(ctx, id, in); err != nil {
		return fmt.Errorf("update category %d: %w", id, err)
	}
	publishChange(ctx, s.pub, s.logger, amqp.EntityCategory, amqp.OpUpdated, id)
	return refetchErr(s.Refresh(ctx))
}

// Delete removes a category. System categories are refused locally with
// ErrSystemCategory; a backend conflict becomes ErrCategoryInUse.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if n := s.Tree().Find(id); n != nil && !views.Deletable(n.Category) {
		return fmt.Errorf("delete category %d: %w", id, ErrSystemCategory)
	}
	if err := s.gw.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, api.ErrConflict) {
			return fmt.Errorf("delete category %d: %w: %w", id, ErrCategoryInUse, err)
		}
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	publishChange(ctx, s.pub, s.logger, amqp.EntityCategory, amqp.OpDeleted, id)
	return refetchErr(s.Refresh(ctx))
}
