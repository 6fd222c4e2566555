package supabase

import (
	"context"
	"strconv"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// Categories, budgets, goals, bills and investments
// ============================================================

const (
	tableCategories  = "categories"
	tableBudgets     = "budgets"
	tableGoals       = "goals"
	tableBills       = "bills"
	tableInvestments = "investments"
)

// --- Categories ---

func (c *Client) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()

	q := owned(userID, "")
	q.Set("order", "type.asc,name.asc")
	return selectRows[domain.Category](ctx, c, tableCategories, q)
}

func (c *Client) GetCategory(ctx context.Context, userID, id string) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCategory")
	defer span.End()

	return selectOne[domain.Category](ctx, c, tableCategories, "category", id, owned(userID, id))
}

func (c *Client) CreateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCategory")
	defer span.End()

	row := *cat
	row.ID = uuid.NewString()
	return insertRow[domain.Category](ctx, c, tableCategories, row)
}

func (c *Client) UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCategory")
	defer span.End()

	return updateRows[domain.Category](ctx, c, tableCategories, "category", cat.ID, owned(cat.UserID, cat.ID), map[string]any{
		"name":  cat.Name,
		"color": cat.Color,
		"icon":  cat.Icon,
		"type":  cat.Type,
	})
}

func (c *Client) DeleteCategory(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCategory")
	defer span.End()

	return deleteRows(ctx, c, tableCategories, "category", id, owned(userID, id))
}

// --- Budgets ---

func (c *Client) ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBudgets")
	defer span.End()

	q := owned(userID, "")
	if month > 0 {
		q.Set("month", "eq."+strconv.Itoa(month))
	}
	if year > 0 {
		q.Set("year", "eq."+strconv.Itoa(year))
	}
	q.Set("order", "year.desc,month.desc")
	return selectRows[domain.Budget](ctx, c, tableBudgets, q)
}

func (c *Client) GetBudget(ctx context.Context, userID, id string) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBudget")
	defer span.End()

	return selectOne[domain.Budget](ctx, c, tableBudgets, "budget", id, owned(userID, id))
}

// CreateBudget relies on the (user_id, category_id, month, year) unique
// index; a duplicate comes back as 409 and maps to *domain.ErrConflict.
func (c *Client) CreateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBudget")
	defer span.End()

	row := *b
	row.ID = uuid.NewString()
	return insertRow[domain.Budget](ctx, c, tableBudgets, row)
}

func (c *Client) UpdateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBudget")
	defer span.End()

	return updateRows[domain.Budget](ctx, c, tableBudgets, "budget", b.ID, owned(b.UserID, b.ID), map[string]any{
		"category_id":  b.CategoryID,
		"amount_limit": b.Limit,
		"month":        b.Month,
		"year":         b.Year,
	})
}

func (c *Client) DeleteBudget(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBudget")
	defer span.End()

	return deleteRows(ctx, c, tableBudgets, "budget", id, owned(userID, id))
}

// --- Goals ---

func (c *Client) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListGoals")
	defer span.End()

	q := owned(userID, "")
	q.Set("order", "name.asc")
	return selectRows[domain.Goal](ctx, c, tableGoals, q)
}

func (c *Client) GetGoal(ctx context.Context, userID, id string) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetGoal")
	defer span.End()

	return selectOne[domain.Goal](ctx, c, tableGoals, "goal", id, owned(userID, id))
}

func (c *Client) CreateGoal(ctx context.Context, g *domain.Goal) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateGoal")
	defer span.End()

	row := *g
	row.ID = uuid.NewString()
	return insertRow[domain.Goal](ctx, c, tableGoals, row)
}

func (c *Client) UpdateGoal(ctx context.Context, g *domain.Goal) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateGoal")
	defer span.End()

	return updateRows[domain.Goal](ctx, c, tableGoals, "goal", g.ID, owned(g.UserID, g.ID), map[string]any{
		"name":           g.Name,
		"target_amount":  g.TargetAmount,
		"current_amount": g.CurrentAmount,
		"deadline":       g.Deadline,
		"icon":           g.Icon,
		"color":          g.Color,
	})
}

func (c *Client) DeleteGoal(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteGoal")
	defer span.End()

	return deleteRows(ctx, c, tableGoals, "goal", id, owned(userID, id))
}

// --- Bills ---

func (c *Client) ListBills(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBills")
	defer span.End()

	q := owned(userID, "")
	q.Set("order", "due_date.asc")
	return selectRows[domain.Bill](ctx, c, tableBills, q)
}

func (c *Client) GetBill(ctx context.Context, userID, id string) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBill")
	defer span.End()

	return selectOne[domain.Bill](ctx, c, tableBills, "bill", id, owned(userID, id))
}

func (c *Client) CreateBill(ctx context.Context, b *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBill")
	defer span.End()

	row := *b
	row.ID = uuid.NewString()
	return insertRow[domain.Bill](ctx, c, tableBills, row)
}

func (c *Client) UpdateBill(ctx context.Context, b *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBill")
	defer span.End()

	return updateRows[domain.Bill](ctx, c, tableBills, "bill", b.ID, owned(b.UserID, b.ID), map[string]any{
		"name":         b.Name,
		"amount":       b.Amount,
		"category_id":  nullable(b.CategoryID),
		"due_date":     b.DueDate,
		"frequency":    b.Frequency,
		"is_paid":      b.IsPaid,
		"last_paid_at": b.LastPaidAt,
	})
}

func (c *Client) DeleteBill(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBill")
	defer span.End()

	return deleteRows(ctx, c, tableBills, "bill", id, owned(userID, id))
}

// --- Investments ---

func (c *Client) ListInvestments(ctx context.Context, userID string) ([]domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvestments")
	defer span.End()

	q := owned(userID, "")
	q.Set("order", "started_at.asc")
	return selectRows[domain.Investment](ctx, c, tableInvestments, q)
}

func (c *Client) GetInvestment(ctx context.Context, userID, id string) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInvestment")
	defer span.End()

	return selectOne[domain.Investment](ctx, c, tableInvestments, "investment", id, owned(userID, id))
}

func (c *Client) CreateInvestment(ctx context.Context, i *domain.Investment) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInvestment")
	defer span.End()

	row := *i
	row.ID = uuid.NewString()
	return insertRow[domain.Investment](ctx, c, tableInvestments, row)
}

func (c *Client) UpdateInvestment(ctx context.Context, i *domain.Investment) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateInvestment")
	defer span.End()

	return updateRows[domain.Investment](ctx, c, tableInvestments, "investment", i.ID, owned(i.UserID, i.ID), map[string]any{
		"name":            i.Name,
		"kind":            i.Kind,
		"amount_invested": i.AmountInvested,
		"current_value":   i.CurrentValue,
		"started_at":      i.StartedAt,
	})
}

func (c *Client) DeleteInvestment(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteInvestment")
	defer span.End()

	return deleteRows(ctx, c, tableInvestments, "investment", id, owned(userID, id))
}
