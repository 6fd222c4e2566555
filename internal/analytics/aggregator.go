package analytics

import (
	"sort"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

// UncategorizedName labels expenses without a category reference.
const UncategorizedName = "Uncategorized"

// MonthInput is everything AggregateMonth needs for one month. Budgets
// for other months and transactions outside the month are ignored.
type MonthInput struct {
	Year         int
	Month        int
	Location     *time.Location
	Transactions []domain.Transaction
	Budgets      []domain.Budget
	Goals        []domain.Goal
	Categories   []domain.Category
}

// MonthRange returns [start, end) of the calendar month in loc.
func MonthRange(year, month int, loc *time.Location) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, &domain.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	if year < 1 {
		return time.Time{}, time.Time{}, &domain.ErrValidation{Field: "year", Message: "must be positive"}
	}
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0), nil
}

// TrailingWindow returns [start, end) covering the last `months`
// calendar months up to and including the month of now.
func TrailingWindow(now time.Time, months int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	if months < 1 {
		months = 1
	}
	local := now.In(loc)
	end := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	return end.AddDate(0, -months, 0), end
}

// ComputeStats sums income and expense over txns. Amounts are taken as
// absolute values keyed by type; transfers are skipped.
func ComputeStats(txns []domain.Transaction) domain.MonthlyStats {
	var s domain.MonthlyStats
	for _, t := range txns {
		switch t.Type {
		case domain.TxIncome:
			s.Income += t.AbsAmount()
		case domain.TxExpense:
			s.Expense += t.AbsAmount()
		default:
			continue
		}
		s.TransactionCount++
	}
	s.Balance = s.Income - s.Expense
	return s
}

// AggregateMonth builds the monthly report. Budget spend is always
// recomputed from the transactions.
func AggregateMonth(in MonthInput) (*domain.MonthlyReport, error) {
	start, end, err := MonthRange(in.Year, in.Month, in.Location)
	if err != nil {
		return nil, err
	}

	monthTxns := make([]domain.Transaction, 0, len(in.Transactions))
	for _, t := range in.Transactions {
		if !t.OccurredAt.Before(start) && t.OccurredAt.Before(end) {
			monthTxns = append(monthTxns, t)
		}
	}

	stats := ComputeStats(monthTxns)
	stats.Year, stats.Month = in.Year, in.Month

	report := &domain.MonthlyReport{
		Stats:      stats,
		Categories: categoryBreakdown(monthTxns, in),
		Goals:      SummarizeGoals(in.Goals),
	}
	for _, c := range report.Categories {
		if c.Budget != nil && c.Budget.OverBudget {
			report.OverBudget++
		}
	}
	return report, nil
}

func categoryBreakdown(monthTxns []domain.Transaction, in MonthInput) []domain.CategoryBreakdown {
	byID := make(map[string]*domain.CategoryBreakdown)
	get := func(id string) *domain.CategoryBreakdown {
		if b, ok := byID[id]; ok {
			return b
		}
		b := &domain.CategoryBreakdown{CategoryID: id, Name: UncategorizedName}
		byID[id] = b
		return b
	}

	for _, t := range monthTxns {
		if t.Type != domain.TxExpense {
			continue
		}
		b := get(t.CategoryID)
		b.Spent += t.AbsAmount()
		b.Count++
	}

	for _, bud := range in.Budgets {
		if bud.Month != in.Month || bud.Year != in.Year {
			continue
		}
		b := get(bud.CategoryID)
		b.Budget = BudgetUsage(bud, b.Spent)
	}

	for _, c := range in.Categories {
		if b, ok := byID[c.ID]; ok && c.ID != "" {
			b.Name, b.Color, b.Icon = c.Name, c.Color, c.Icon
		}
	}

	out := make([]domain.CategoryBreakdown, 0, len(byID))
	for _, b := range byID {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spent != out[j].Spent {
			return out[i].Spent > out[j].Spent
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// BudgetUsage compares spent against a budget. Ratio keeps the raw value
// so callers can tell how far over budget a category is; DisplayPct is
// capped at 100.
func BudgetUsage(b domain.Budget, spent int64) *domain.BudgetStatus {
	st := &domain.BudgetStatus{
		BudgetID:   b.ID,
		Limit:      b.Limit,
		Spent:      spent,
		Remaining:  b.Limit - spent,
		OverBudget: spent > b.Limit,
	}
	if b.Limit > 0 {
		st.Ratio = float64(spent) / float64(b.Limit)
	}
	st.DisplayPct = st.Ratio * 100
	if st.DisplayPct > 100 {
		st.DisplayPct = 100
	}
	return st
}

// SummarizeGoals counts completed and in-progress goals.
func SummarizeGoals(goals []domain.Goal) domain.GoalSummary {
	s := domain.GoalSummary{Goals: make([]domain.GoalProgress, 0, len(goals))}
	for _, g := range goals {
		done := g.Completed()
		if done {
			s.Completed++
		} else {
			s.InProgress++
		}
		s.Goals = append(s.Goals, domain.GoalProgress{
			GoalID:    g.ID,
			Name:      g.Name,
			Target:    g.TargetAmount,
			Current:   g.CurrentAmount,
			Progress:  g.Progress(),
			Completed: done,
		})
	}
	return s
}

// AverageMonthlyExpense averages expense totals over the given number of
// months. It returns 0 when months is not positive.
func AverageMonthlyExpense(txns []domain.Transaction, months int) int64 {
	if months <= 0 {
		return 0
	}
	return ComputeStats(txns).Expense / int64(months)
}

// Runway is balance divided by average monthly expense, in months. ok is
// false when there is no expense to divide by.
func Runway(balance, avgMonthlyExpense int64) (months float64, ok bool) {
	if avgMonthlyExpense <= 0 {
		return 0, false
	}
	if balance <= 0 {
		return 0, true
	}
	return float64(balance) / float64(avgMonthlyExpense), true
}
