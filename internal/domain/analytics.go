package domain

import "time"

// ============================================================
// Monthly analytics
// ============================================================

// MonthlyStats is the income/expense/balance triple for one month.
// Transfers never contribute to either total.
type MonthlyStats struct {
	Year             int   `json:"year"`
	Month            int   `json:"month"`
	Income           int64 `json:"income"`
	Expense          int64 `json:"expense"`
	Balance          int64 `json:"balance"`
	TransactionCount int   `json:"transaction_count"`
}

// BudgetStatus joins a category's spend with its budget for the month.
type BudgetStatus struct {
	BudgetID   string  `json:"budget_id"`
	Limit      int64   `json:"limit"`
	Spent      int64   `json:"spent"`
	Remaining  int64   `json:"remaining"`
	Ratio      float64 `json:"ratio"`       // unclamped spent/limit
	DisplayPct float64 `json:"display_pct"` // capped at 100
	OverBudget bool    `json:"over_budget"`
}

// CategoryBreakdown is the expense total of one category in a month.
type CategoryBreakdown struct {
	CategoryID string        `json:"category_id"`
	Name       string        `json:"name"`
	Color      string        `json:"color,omitempty"`
	Icon       string        `json:"icon,omitempty"`
	Spent      int64         `json:"spent"`
	Count      int           `json:"count"`
	Budget     *BudgetStatus `json:"budget,omitempty"`
}

// GoalProgress is one goal's progress snapshot.
type GoalProgress struct {
	GoalID    string  `json:"goal_id"`
	Name      string  `json:"name"`
	Target    int64   `json:"target"`
	Current   int64   `json:"current"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

// GoalSummary counts completed versus in-progress goals.
type GoalSummary struct {
	Completed  int            `json:"completed"`
	InProgress int            `json:"in_progress"`
	Goals      []GoalProgress `json:"goals"`
}

// MonthlyReport is the full aggregate for one (year, month).
type MonthlyReport struct {
	Stats      MonthlyStats        `json:"stats"`
	Categories []CategoryBreakdown `json:"categories"`
	Goals      GoalSummary         `json:"goals"`
	OverBudget int                 `json:"over_budget_count"`
}

// ============================================================
// Recurring charges
// ============================================================

// Cadence is the detected billing period of a recurring charge.
type Cadence string

const (
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
	CadenceYearly  Cadence = "yearly"
)

// Verdict is the outcome of classifying one merchant/amount group.
type Verdict string

const (
	// VerdictRecurring: periodic charges at a stable amount.
	VerdictRecurring Verdict = "recurring"
	// VerdictNotEnoughData: fewer than two distinct charge days so far.
	VerdictNotEnoughData Verdict = "not_enough_data"
	// VerdictIrregular: enough history, but the spacing is not periodic.
	VerdictIrregular Verdict = "irregular"
)

// RecurringCharge is a merchant billed repeatedly at a near-constant
// amount. It is derived on every detection run and never persisted.
type RecurringCharge struct {
	Merchant    string    `json:"merchant"`
	Amount      int64     `json:"amount"`
	Frequency   int       `json:"frequency"`
	LastSeen    time.Time `json:"last_seen"`
	Cadence     Cadence   `json:"cadence"`
	MonthlyCost int64     `json:"monthly_cost"`
	CategoryID  string    `json:"category_id,omitempty"`
}

// RecurringReport is returned by the recurring-charges endpoint.
type RecurringReport struct {
	WindowMonths int               `json:"window_months"`
	From         time.Time         `json:"from"`
	To           time.Time         `json:"to"`
	Charges      []RecurringCharge `json:"charges"`
	TotalMonthly int64             `json:"total_monthly"`
}

// ============================================================
// Insights
// ============================================================

// InsightBlock is one human-readable paragraph of analytics narrative.
type InsightBlock struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// InsightsResponse bundles the numbers with their narrative.
type InsightsResponse struct {
	Stats     MonthlyStats      `json:"stats"`
	Recurring []RecurringCharge `json:"recurring"`
	Blocks    []InsightBlock    `json:"blocks"`
	Runway    *float64          `json:"runway_months,omitempty"`
}

// ============================================================
// Dashboard & scheduled detection
// ============================================================

// Dashboard combines independent reads. Any section may be nil when its
// read failed; Warnings then names the failed sections.
type Dashboard struct {
	Report        *MonthlyReport    `json:"report,omitempty"`
	Goals         *GoalSummary      `json:"goals,omitempty"`
	UpcomingBills []Bill            `json:"upcoming_bills"`
	Recurring     []RecurringCharge `json:"recurring"`
	Warnings      []string          `json:"warnings,omitempty"`
}

// SubscriptionRunSummary is the JSON result of a scheduled detection run.
type SubscriptionRunSummary struct {
	StartedAt    time.Time `json:"started_at"`
	UsersScanned int       `json:"users_scanned"`
	Candidates   int       `json:"candidates"`
	Notified     int       `json:"notified"`
	Failed       int       `json:"failed"`
	Errors       []string  `json:"errors,omitempty"`
}
