package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/repository"
)

// CategoryLedger keeps one counter per normalized category name, equal to the
// number of tasks holding that category. Only TaskService adjusts it.
type CategoryLedger struct {
	store repository.Store
}

// NewCategoryLedger binds a ledger to a store, usually a transaction.
func NewCategoryLedger(store repository.Store) *CategoryLedger {
	return &CategoryLedger{store: store}
}

// Increment counts one more task under name. Blank names are ignored.
func (l *CategoryLedger) Increment(ctx context.Context, name string) error {
	normalized := models.NormalizeCategory(name)
	if normalized == "" {
		return nil
	}
	if err := l.store.Categories().Increment(ctx, normalized); err != nil {
		return fmt.Errorf("failed to increment category %q: %w", normalized, err)
	}
	return nil
}

// Decrement counts one task less under name and drops the record at zero.
// Blank and unknown names are ignored.
func (l *CategoryLedger) Decrement(ctx context.Context, name string) error {
	normalized := models.NormalizeCategory(name)
	if normalized == "" {
		return nil
	}
	if err := l.store.Categories().Decrement(ctx, normalized); err != nil {
		return fmt.Errorf("failed to decrement category %q: %w", normalized, err)
	}
	return nil
}

// Resync replaces every record with counts recomputed from the tasks table.
func (l *CategoryLedger) Resync(ctx context.Context) ([]repository.CategoryCount, error) {
	counts, err := l.store.Tasks().CategoryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count task categories: %w", err)
	}
	if err := l.store.Categories().ReplaceAll(ctx, counts); err != nil {
		return nil, fmt.Errorf("failed to replace categories: %w", err)
	}
	return counts, nil
}

// CategoryService exposes the ledger to handlers and the CLI.
type CategoryService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(store repository.Store, logger *zap.Logger) *CategoryService {
	return &CategoryService{store: store, logger: logger}
}

// List returns all categories, most used first.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Get returns the category with the normalized form of name.
func (s *CategoryService) Get(ctx context.Context, name string) (*models.Category, error) {
	normalized := models.NormalizeCategory(name)
	if normalized == "" {
		return nil, ErrCategoryNotFound
	}

	category, err := s.store.Categories().FindByName(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return category, nil
}

// Sync rebuilds the ledger from the tasks. Admin only.
func (s *CategoryService) Sync(ctx context.Context, actor Actor) ([]models.Category, error) {
	if !actor.IsAdmin {
		return nil, ErrAdminRequired
	}

	var counts []repository.CategoryCount
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		counts, err = NewCategoryLedger(tx).Resync(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("category resync failed", zap.Error(err), zap.Uint64("actor_id", actor.ID))
		return nil, err
	}

	s.logger.Info("categories resynchronized",
		zap.Int("categories", len(counts)),
		zap.Uint64("actor_id", actor.ID),
	)

	return s.List(ctx)
}
