package port

import (
	"context"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

// Every store method is scoped by an explicit user id. Lookups of a
// missing or foreign row return *domain.ErrNotFound.

// TransactionStore persists transactions.
type TransactionStore interface {
	ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	GetCategory(ctx context.Context, userID, id string) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error
}

// BudgetStore persists budgets. Creating a second budget for the same
// (category, month, year) returns *domain.ErrConflict.
type BudgetStore interface {
	ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.Budget, error)
	GetBudget(ctx context.Context, userID, id string) (*domain.Budget, error)
	CreateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error)
	UpdateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, id string) error
}

// GoalStore persists savings goals.
type GoalStore interface {
	ListGoals(ctx context.Context, userID string) ([]domain.Goal, error)
	GetGoal(ctx context.Context, userID, id string) (*domain.Goal, error)
	CreateGoal(ctx context.Context, g *domain.Goal) (*domain.Goal, error)
	UpdateGoal(ctx context.Context, g *domain.Goal) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
}

// BillStore persists bills.
type BillStore interface {
	ListBills(ctx context.Context, userID string) ([]domain.Bill, error)
	GetBill(ctx context.Context, userID, id string) (*domain.Bill, error)
	CreateBill(ctx context.Context, b *domain.Bill) (*domain.Bill, error)
	UpdateBill(ctx context.Context, b *domain.Bill) (*domain.Bill, error)
	DeleteBill(ctx context.Context, userID, id string) error
}

// InvestmentStore persists investment holdings.
type InvestmentStore interface {
	ListInvestments(ctx context.Context, userID string) ([]domain.Investment, error)
	GetInvestment(ctx context.Context, userID, id string) (*domain.Investment, error)
	CreateInvestment(ctx context.Context, i *domain.Investment) (*domain.Investment, error)
	UpdateInvestment(ctx context.Context, i *domain.Investment) (*domain.Investment, error)
	DeleteInvestment(ctx context.Context, userID, id string) error
}

// SettingsStore persists per-user settings.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error)
	GetSettingsByChatID(ctx context.Context, chatID int64) (*domain.UserSettings, error)
	UpsertSettings(ctx context.Context, s *domain.UserSettings) (*domain.UserSettings, error)
	// ListNotifiable returns settings with a linked chat and notifications on.
	ListNotifiable(ctx context.Context) ([]domain.UserSettings, error)
}

// UserStore persists accounts and refresh tokens.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

// Store is the full persistence surface, implemented by the Supabase
// and SQLite adapters.
type Store interface {
	TransactionStore
	CategoryStore
	BudgetStore
	GoalStore
	BillStore
	InvestmentStore
	SettingsStore
	UserStore

	Ping(ctx context.Context) error
}
