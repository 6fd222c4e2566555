package domain

import (
	"strings"
	"time"
)

// ============================================================
// Categories
// ============================================================

// OtherCategoryName is the fallback category for anything the
// categorizers could not place.
const OtherCategoryName = "Other"

// Category groups transactions and budgets.
type Category struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
	Type   TxType `json:"type"` // expense or income
}

// Validate checks a category before it is stored.
func (c *Category) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if c.Type == "" {
		c.Type = TxExpense
	}
	if c.Type != TxExpense && c.Type != TxIncome {
		return &ErrValidation{Field: "type", Message: "must be expense or income"}
	}
	return nil
}

// ============================================================
// Budgets
// ============================================================

// Budget caps spending in one category for one calendar month.
// There is at most one budget per (category, month, year).
type Budget struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	CategoryID string `json:"category_id"`
	Limit      int64  `json:"amount_limit"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

// Validate checks a budget before it is stored.
func (b *Budget) Validate() error {
	if b.CategoryID == "" {
		return &ErrValidation{Field: "category_id", Message: "required"}
	}
	if b.Limit <= 0 {
		return &ErrValidation{Field: "amount_limit", Message: "must be positive"}
	}
	if b.Month < 1 || b.Month > 12 {
		return &ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}
	if b.Year < 2000 || b.Year > 9999 {
		return &ErrValidation{Field: "year", Message: "out of range"}
	}
	return nil
}

// ============================================================
// Goals
// ============================================================

// Goal is a savings target.
type Goal struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	TargetAmount  int64      `json:"target_amount"`
	CurrentAmount int64      `json:"current_amount"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Icon          string     `json:"icon"`
	Color         string     `json:"color"`
}

// Completed reports whether the goal has reached its target.
func (g Goal) Completed() bool {
	return g.CurrentAmount >= g.TargetAmount
}

// Progress returns current/target clamped to [0, 1].
func (g Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 1
	}
	p := float64(g.CurrentAmount) / float64(g.TargetAmount)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Validate checks a goal before it is stored.
func (g *Goal) Validate() error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if g.TargetAmount <= 0 {
		return &ErrValidation{Field: "target_amount", Message: "must be positive"}
	}
	if g.CurrentAmount < 0 {
		return &ErrValidation{Field: "current_amount", Message: "must not be negative"}
	}
	return nil
}

// ============================================================
// Bills
// ============================================================

// Bill frequencies.
const (
	BillMonthly = "monthly"
	BillYearly  = "yearly"
	BillWeekly  = "weekly"
	BillOnce    = "once"
)

// Bill is a user-declared recurring payment with a due date.
type Bill struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	Amount     int64      `json:"amount"`
	CategoryID string     `json:"category_id,omitempty"`
	DueDate    time.Time  `json:"due_date"`
	Frequency  string     `json:"frequency"`
	IsPaid     bool       `json:"is_paid"`
	LastPaidAt *time.Time `json:"last_paid_at,omitempty"`
}

// Validate checks a bill before it is stored.
func (b *Bill) Validate() error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if b.Amount <= 0 {
		return &ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if b.DueDate.IsZero() {
		return &ErrValidation{Field: "due_date", Message: "required"}
	}
	if b.Frequency == "" {
		b.Frequency = BillMonthly
	}
	switch b.Frequency {
	case BillMonthly, BillYearly, BillWeekly, BillOnce:
	default:
		return &ErrValidation{Field: "frequency", Message: "must be monthly, yearly, weekly or once"}
	}
	return nil
}

// NextDueDate returns the due date after the current one. A one-off bill
// keeps its date.
func (b Bill) NextDueDate() time.Time {
	switch b.Frequency {
	case BillWeekly:
		return b.DueDate.AddDate(0, 0, 7)
	case BillYearly:
		return b.DueDate.AddDate(1, 0, 0)
	case BillMonthly:
		return b.DueDate.AddDate(0, 1, 0)
	}
	return b.DueDate
}

// ============================================================
// Investments
// ============================================================

// Investment is a holding tracked at cost and current value.
type Investment struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"` // stock, mutual_fund, gold, crypto, deposit, other
	AmountInvested int64     `json:"amount_invested"`
	CurrentValue   int64     `json:"current_value"`
	StartedAt      time.Time `json:"started_at"`
}

// Gain returns current value minus cost.
func (i Investment) Gain() int64 {
	return i.CurrentValue - i.AmountInvested
}

// Validate checks an investment before it is stored.
func (i *Investment) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return &ErrValidation{Field: "name", Message: "required"}
	}
	if i.AmountInvested < 0 || i.CurrentValue < 0 {
		return &ErrValidation{Field: "amount_invested", Message: "must not be negative"}
	}
	if i.Kind == "" {
		i.Kind = "other"
	}
	return nil
}

// PortfolioSummary aggregates a user's investments.
type PortfolioSummary struct {
	Holdings      []Investment `json:"holdings"`
	TotalInvested int64        `json:"total_invested"`
	TotalValue    int64        `json:"total_value"`
	TotalGain     int64        `json:"total_gain"`
	GainPct       float64      `json:"gain_pct"`
}

// ============================================================
// Users & settings
// ============================================================

// User is an account holder.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSettings holds per-user preferences and the chat link used for
// notifications.
type UserSettings struct {
	UserID         string `json:"user_id"`
	Currency       string `json:"currency"`
	Language       string `json:"language"` // "id" or "en"
	Timezone       string `json:"timezone"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
	NotifyEnabled  bool   `json:"notify_enabled"`
}

// Location resolves the settings timezone, falling back to def.
func (s UserSettings) Location(def *time.Location) *time.Location {
	if s.Timezone == "" {
		return def
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return def
	}
	return loc
}

// ============================================================
// Generic API responses
// ============================================================

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
}

// UsageSnapshot summarizes AI and notification counters since start-up.
// Returned by GET /v1/metrics/usage.
type UsageSnapshot struct {
	PromptTokens        int64   `json:"prompt_tokens"`
	CompletionTokens    int64   `json:"completion_tokens"`
	EstimatedCostUsd    float64 `json:"estimated_cost_usd"`
	Categorizations     int64   `json:"categorizations"`
	FallbackRate        float64 `json:"fallback_rate"`
	DraftCacheHitRate   float64 `json:"draft_cache_hit_rate"`
	NotificationsSent   int64   `json:"notifications_sent"`
	NotificationsFailed int64   `json:"notifications_failed"`
	RecurringDetected   int64   `json:"recurring_detected"`
}
