package sqlite

import (
	"context"
	"database/sql"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/google/uuid"
)

// queryAll runs query and scans every row with scan.
func queryAll[T any](ctx context.Context, s *Store, op, resource string, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, op, resource, "")
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, mapErr(err, op, resource, "")
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, op, resource, "")
	}
	return out, nil
}

func queryOne[T any](ctx context.Context, s *Store, op, resource, id string, scan func(rowScanner) (T, error), query string, args ...any) (*T, error) {
	v, err := scan(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapErr(err, op, resource, id)
	}
	return &v, nil
}

// --- Categories ---

const categoryColumns = "id, user_id, name, color, icon, type"

func scanCategory(r rowScanner) (domain.Category, error) {
	var c domain.Category
	err := r.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Icon, &c.Type)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListCategories")
	defer span.End()

	return queryAll(ctx, s, "list categories", "category", scanCategory,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id = ? ORDER BY type, name", userID)
}

func (s *Store) GetCategory(ctx context.Context, userID, id string) (*domain.Category, error) {
	return queryOne(ctx, s, "get category", "category", id, scanCategory,
		"SELECT "+categoryColumns+" FROM categories WHERE id = ? AND user_id = ?", id, userID)
}

func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateCategory")
	defer span.End()

	row := *c
	row.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, "INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		row.ID, row.UserID, row.Name, row.Color, row.Icon, string(row.Type))
	if err != nil {
		return nil, mapErr(err, "create category", "category", row.ID)
	}
	return &row, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	err := s.execOwned(ctx, "update category", "category", c.ID,
		"UPDATE categories SET name = ?, color = ?, icon = ?, type = ? WHERE id = ? AND user_id = ?",
		c.Name, c.Color, c.Icon, string(c.Type), c.ID, c.UserID)
	if err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, c.UserID, c.ID)
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.execOwned(ctx, "delete category", "category", id,
		"DELETE FROM categories WHERE id = ? AND user_id = ?", id, userID)
}

// --- Budgets ---

const budgetColumns = "id, user_id, category_id, amount_limit, month, year"

func scanBudget(r rowScanner) (domain.Budget, error) {
	var b domain.Budget
	err := r.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Limit, &b.Month, &b.Year)
	return b, err
}

// ListBudgets filters by month and year when they are positive.
func (s *Store) ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListBudgets")
	defer span.End()

	return queryAll(ctx, s, "list budgets", "budget", scanBudget,
		`SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND (? = 0 OR month = ?) AND (? = 0 OR year = ?)
		ORDER BY year DESC, month DESC`,
		userID, month, month, year, year)
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (*domain.Budget, error) {
	return queryOne(ctx, s, "get budget", "budget", id, scanBudget,
		"SELECT "+budgetColumns+" FROM budgets WHERE id = ? AND user_id = ?", id, userID)
}

// CreateBudget relies on the unique (user_id, category_id, month, year)
// constraint for the one-budget-per-month rule.
func (s *Store) CreateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateBudget")
	defer span.End()

	row := *b
	row.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, "INSERT INTO budgets ("+budgetColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		row.ID, row.UserID, row.CategoryID, row.Limit, row.Month, row.Year)
	if err != nil {
		return nil, mapErr(err, "create budget", "budget", row.ID)
	}
	return &row, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	err := s.execOwned(ctx, "update budget", "budget", b.ID,
		"UPDATE budgets SET category_id = ?, amount_limit = ?, month = ?, year = ? WHERE id = ? AND user_id = ?",
		b.CategoryID, b.Limit, b.Month, b.Year, b.ID, b.UserID)
	if err != nil {
		return nil, err
	}
	return s.GetBudget(ctx, b.UserID, b.ID)
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.execOwned(ctx, "delete budget", "budget", id,
		"DELETE FROM budgets WHERE id = ? AND user_id = ?", id, userID)
}

// --- Goals ---

const goalColumns = "id, user_id, name, target_amount, current_amount, deadline, icon, color"

func scanGoal(r rowScanner) (domain.Goal, error) {
	var (
		g        domain.Goal
		deadline sql.NullString
	)
	if err := r.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &deadline, &g.Icon, &g.Color); err != nil {
		return g, err
	}
	var err error
	g.Deadline, err = parseNullTime(deadline)
	return g, err
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListGoals")
	defer span.End()

	return queryAll(ctx, s, "list goals", "goal", scanGoal,
		"SELECT "+goalColumns+" FROM goals WHERE user_id = ? ORDER BY name", userID)
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (*domain.Goal, error) {
	return queryOne(ctx, s, "get goal", "goal", id, scanGoal,
		"SELECT "+goalColumns+" FROM goals WHERE id = ? AND user_id = ?", id, userID)
}

func (s *Store) CreateGoal(ctx context.Context, g *domain.Goal) (*domain.Goal, error) {
	row := *g
	row.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, "INSERT INTO goals ("+goalColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		row.ID, row.UserID, row.Name, row.TargetAmount, row.CurrentAmount, formatNullTime(row.Deadline), row.Icon, row.Color)
	if err != nil {
		return nil, mapErr(err, "create goal", "goal", row.ID)
	}
	return &row, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g *domain.Goal) (*domain.Goal, error) {
	err := s.execOwned(ctx, "update goal", "goal", g.ID,
		`UPDATE goals SET name = ?, target_amount = ?, current_amount = ?, deadline = ?, icon = ?, color = ?
		WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount, g.CurrentAmount, formatNullTime(g.Deadline), g.Icon, g.Color, g.ID, g.UserID)
	if err != nil {
		return nil, err
	}
	return s.GetGoal(ctx, g.UserID, g.ID)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.execOwned(ctx, "delete goal", "goal", id,
		"DELETE FROM goals WHERE id = ? AND user_id = ?", id, userID)
}

// --- Bills ---

const billColumns = "id, user_id, name, amount, category_id, due_date, frequency, is_paid, last_paid_at"

func scanBill(r rowScanner) (domain.Bill, error) {
	var (
		b          domain.Bill
		categoryID sql.NullString
		due        string
		lastPaid   sql.NullString
	)
	if err := r.Scan(&b.ID, &b.UserID, &b.Name, &b.Amount, &categoryID, &due, &b.Frequency, &b.IsPaid, &lastPaid); err != nil {
		return b, err
	}
	b.CategoryID = categoryID.String
	var err error
	if b.DueDate, err = parseTime(due); err != nil {
		return b, err
	}
	b.LastPaidAt, err = parseNullTime(lastPaid)
	return b, err
}

func (s *Store) ListBills(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListBills")
	defer span.End()

	return queryAll(ctx, s, "list bills", "bill", scanBill,
		"SELECT "+billColumns+" FROM bills WHERE user_id = ? ORDER BY due_date", userID)
}

func (s *Store) GetBill(ctx context.Context, userID, id string) (*domain.Bill, error) {
	return queryOne(ctx, s, "get bill", "bill", id, scanBill,
		"SELECT "+billColumns+" FROM bills WHERE id = ? AND user_id = ?", id, userID)
}

func (s *Store) CreateBill(ctx context.Context, b *domain.Bill) (*domain.Bill, error) {
	row := *b
	row.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, "INSERT INTO bills ("+billColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		row.ID, row.UserID, row.Name, row.Amount, nullString(row.CategoryID), formatTime(row.DueDate),
		row.Frequency, row.IsPaid, formatNullTime(row.LastPaidAt))
	if err != nil {
		return nil, mapErr(err, "create bill", "bill", row.ID)
	}
	return &row, nil
}

func (s *Store) UpdateBill(ctx context.Context, b *domain.Bill) (*domain.Bill, error) {
	err := s.execOwned(ctx, "update bill", "bill", b.ID,
		`UPDATE bills SET name = ?, amount = ?, category_id = ?, due_date = ?, frequency = ?, is_paid = ?, last_paid_at = ?
		WHERE id = ? AND user_id = ?`,
		b.Name, b.Amount, nullString(b.CategoryID), formatTime(b.DueDate), b.Frequency, b.IsPaid,
		formatNullTime(b.LastPaidAt), b.ID, b.UserID)
	if err != nil {
		return nil, err
	}
	return s.GetBill(ctx, b.UserID, b.ID)
}

func (s *Store) DeleteBill(ctx context.Context, userID, id string) error {
	return s.execOwned(ctx, "delete bill", "bill", id,
		"DELETE FROM bills WHERE id = ? AND user_id = ?", id, userID)
}

// --- Investments ---

const investmentColumns = "id, user_id, name, kind, amount_invested, current_value, started_at"

func scanInvestment(r rowScanner) (domain.Investment, error) {
	var (
		i       domain.Investment
		started string
	)
	if err := r.Scan(&i.ID, &i.UserID, &i.Name, &i.Kind, &i.AmountInvested, &i.CurrentValue, &started); err != nil {
		return i, err
	}
	var err error
	i.StartedAt, err = parseTime(started)
	return i, err
}

func (s *Store) ListInvestments(ctx context.Context, userID string) ([]domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListInvestments")
	defer span.End()

	return queryAll(ctx, s, "list investments", "investment", scanInvestment,
		"SELECT "+investmentColumns+" FROM investments WHERE user_id = ? ORDER BY name", userID)
}

func (s *Store) GetInvestment(ctx context.Context, userID, id string) (*domain.Investment, error) {
	return queryOne(ctx, s, "get investment", "investment", id, scanInvestment,
		"SELECT "+investmentColumns+" FROM investments WHERE id = ? AND user_id = ?", id, userID)
}

func (s *Store) CreateInvestment(ctx context.Context, i *domain.Investment) (*domain.Investment, error) {
	row := *i
	row.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, "INSERT INTO investments ("+investmentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		row.ID, row.UserID, row.Name, row.Kind, row.AmountInvested, row.CurrentValue, formatTime(row.StartedAt))
	if err != nil {
		return nil, mapErr(err, "create investment", "investment", row.ID)
	}
	return &row, nil
}

func (s *Store) UpdateInvestment(ctx context.Context, i *domain.Investment) (*domain.Investment, error) {
	err := s.execOwned(ctx, "update investment", "investment", i.ID,
		`UPDATE investments SET name = ?, kind = ?, amount_invested = ?, current_value = ?, started_at = ?
		WHERE id = ? AND user_id = ?`,
		i.Name, i.Kind, i.AmountInvested, i.CurrentValue, formatTime(i.StartedAt), i.ID, i.UserID)
	if err != nil {
		return nil, err
	}
	return s.GetInvestment(ctx, i.UserID, i.ID)
}

func (s *Store) DeleteInvestment(ctx context.Context, userID, id string) error {
	return s.execOwned(ctx, "delete investment", "investment", id,
		"DELETE FROM investments WHERE id = ? AND user_id = ?", id, userID)
}
