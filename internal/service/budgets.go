package service

import (
	"context"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.uber.org/zap"
)

// BudgetService manages monthly category budgets.
type BudgetService struct {
	store      port.BudgetStore
	categories port.CategoryStore
	logger     *zap.Logger
}

// NewBudgetService creates a new budget service.
func NewBudgetService(store port.BudgetStore, categories port.CategoryStore, logger *zap.Logger) *BudgetService {
	return &BudgetService{store: store, categories: categories, logger: logger}
}

// List returns the budgets of one month, or all budgets when month and
// year are zero.
func (s *BudgetService) List(ctx context.Context, userID string, month, year int) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "BudgetService.List")
	defer span.End()

	if month < 0 || month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	return s.store.ListBudgets(ctx, userID, month, year)
}

// Create adds a budget. A second budget for the same category and month
// is a conflict.
func (s *BudgetService) Create(ctx context.Context, userID string, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "BudgetService.Create")
	defer span.End()

	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, b.CategoryID); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, userID, b, ""); err != nil {
		return nil, err
	}

	b.ID = ""
	b.UserID = userID
	return s.store.CreateBudget(ctx, b)
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "BudgetService.Update")
	defer span.End()

	if err := b.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBudget(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, b.CategoryID); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, userID, b, id); err != nil {
		return nil, err
	}

	b.ID, b.UserID = id, userID
	return s.store.UpdateBudget(ctx, b)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "BudgetService.Delete")
	defer span.End()

	return s.store.DeleteBudget(ctx, userID, id)
}

func (s *BudgetService) ensureUnique(ctx context.Context, userID string, b *domain.Budget, selfID string) error {
	existing, err := s.store.ListBudgets(ctx, userID, b.Month, b.Year)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.CategoryID == b.CategoryID && e.ID != selfID {
			s.logger.Debug("duplicate budget rejected",
				zap.String("user_id", userID),
				zap.String("category_id", b.CategoryID),
				zap.Int("month", b.Month),
				zap.Int("year", b.Year),
			)
			return &domain.ErrConflict{Message: "budget already exists for this category and month"}
		}
	}
	return nil
}

func (s *BudgetService) checkCategory(ctx context.Context, userID, categoryID string) error {
	if _, err := s.categories.GetCategory(ctx, userID, categoryID); err != nil {
		if isNotFound(err) {
			return &domain.ErrValidation{Field: "category_id", Message: "unknown category"}
		}
		return err
	}
	return nil
}
