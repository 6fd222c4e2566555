package service

import (
	"context"
	"strings"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.uber.org/zap"
)

// DefaultCategories are seeded for every new account.
var DefaultCategories = []domain.Category{
	{Name: "Makanan & Minuman", Color: "#FF7043", Icon: "🍜", Type: domain.TxExpense},
	{Name: "Transportasi", Color: "#42A5F5", Icon: "🛵", Type: domain.TxExpense},
	{Name: "Belanja", Color: "#AB47BC", Icon: "🛍️", Type: domain.TxExpense},
	{Name: "Tagihan & Utilitas", Color: "#FFCA28", Icon: "💡", Type: domain.TxExpense},
	{Name: "Hiburan", Color: "#EC407A", Icon: "🎬", Type: domain.TxExpense},
	{Name: "Kesehatan", Color: "#66BB6A", Icon: "💊", Type: domain.TxExpense},
	{Name: domain.OtherCategoryName, Color: "#9E9E9E", Icon: "📦", Type: domain.TxExpense},
	{Name: "Gaji", Color: "#26A69A", Icon: "💰", Type: domain.TxIncome},
	{Name: domain.OtherCategoryName, Color: "#9E9E9E", Icon: "📦", Type: domain.TxIncome},
}

// CategoryService manages a user's categories.
type CategoryService struct {
	store  port.CategoryStore
	logger *zap.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(store port.CategoryStore, logger *zap.Logger) *CategoryService {
	return &CategoryService{store: store, logger: logger}
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "CategoryService.List")
	defer span.End()

	return s.store.ListCategories(ctx, userID)
}

func (s *CategoryService) Create(ctx context.Context, userID string, c *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "CategoryService.Create")
	defer span.End()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.Type == c.Type && strings.EqualFold(e.Name, c.Name) {
			return nil, &domain.ErrConflict{Message: "category already exists: " + c.Name}
		}
	}

	c.ID = ""
	c.UserID = userID
	return s.store.CreateCategory(ctx, c)
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, c *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "CategoryService.Update")
	defer span.End()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCategory(ctx, userID, id); err != nil {
		return nil, err
	}
	c.ID, c.UserID = id, userID
	return s.store.UpdateCategory(ctx, c)
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "CategoryService.Delete")
	defer span.End()

	return s.store.DeleteCategory(ctx, userID, id)
}

// SeedDefaults creates the default categories for a new user.
func (s *CategoryService) SeedDefaults(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "CategoryService.SeedDefaults")
	defer span.End()

	for _, c := range DefaultCategories {
		c.UserID = userID
		if _, err := s.store.CreateCategory(ctx, &c); err != nil {
			return err
		}
	}
	s.logger.Info("seeded default categories", zap.String("user_id", userID), zap.Int("count", len(DefaultCategories)))
	return nil
}
