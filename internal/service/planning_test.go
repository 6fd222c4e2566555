package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.uber.org/zap"
)

func TestBudgetCreate_OnePerCategoryAndMonth(t *testing.T) {
	store := newMemStore()
	svc := service.NewBudgetService(store, store, zap.NewNop())
	food := store.seedCategory("u1", "Makanan", domain.TxExpense)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", &domain.Budget{CategoryID: food, Limit: 1000000, Month: 3, Year: 2024}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Create(ctx, "u1", &domain.Budget{CategoryID: food, Limit: 500000, Month: 3, Year: 2024})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict for duplicate budget, got %v", err)
	}

	if _, err := svc.Create(ctx, "u1", &domain.Budget{CategoryID: food, Limit: 500000, Month: 4, Year: 2024}); err != nil {
		t.Errorf("next month must be allowed, got %v", err)
	}
}

func TestBudgetUpdate_SelfIsNotAConflict(t *testing.T) {
	store := newMemStore()
	svc := service.NewBudgetService(store, store, zap.NewNop())
	food := store.seedCategory("u1", "Makanan", domain.TxExpense)
	ctx := context.Background()

	b, err := svc.Create(ctx, "u1", &domain.Budget{CategoryID: food, Limit: 1000000, Month: 3, Year: 2024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, err := svc.Update(ctx, "u1", b.ID, &domain.Budget{CategoryID: food, Limit: 750000, Month: 3, Year: 2024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Limit != 750000 {
		t.Errorf("expected new limit, got %d", updated.Limit)
	}
}

func TestBudgetCreate_Validation(t *testing.T) {
	store := newMemStore()
	svc := service.NewBudgetService(store, store, zap.NewNop())
	food := store.seedCategory("u1", "Makanan", domain.TxExpense)

	tests := []struct {
		name  string
		b     domain.Budget
		field string
	}{
		{"missing category", domain.Budget{Limit: 1, Month: 1, Year: 2024}, "category_id"},
		{"zero limit", domain.Budget{CategoryID: food, Month: 1, Year: 2024}, "amount_limit"},
		{"month 13", domain.Budget{CategoryID: food, Limit: 1, Month: 13, Year: 2024}, "month"},
		{"unknown category", domain.Budget{CategoryID: "nope", Limit: 1, Month: 1, Year: 2024}, "category_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", &tt.b)
			var verr *domain.ErrValidation
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestCategoryCreate_DuplicateNameIsConflict(t *testing.T) {
	store := newMemStore()
	svc := service.NewCategoryService(store, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", &domain.Category{Name: "Kopi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Create(ctx, "u1", &domain.Category{Name: " kopi "})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, "u1", &domain.Category{Name: "Kopi", Type: domain.TxIncome}); err != nil {
		t.Errorf("same name with another type must be allowed, got %v", err)
	}
}

func TestCategorySeedDefaults(t *testing.T) {
	store := newMemStore()
	svc := service.NewCategoryService(store, zap.NewNop())

	if err := svc.SeedDefaults(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cats, _ := store.ListCategories(context.Background(), "u1")
	if len(cats) != len(service.DefaultCategories) {
		t.Errorf("expected %d categories, got %d", len(service.DefaultCategories), len(cats))
	}
}

func TestGoalContribute(t *testing.T) {
	store := newMemStore()
	svc := service.NewGoalService(store, zap.NewNop())
	ctx := context.Background()

	g, err := svc.Create(ctx, "u1", &domain.Goal{Name: "Laptop", TargetAmount: 1000000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g, err = svc.Contribute(ctx, "u1", g.ID, 1000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.Completed() {
		t.Error("goal must be complete once current reaches target")
	}

	_, err = svc.Contribute(ctx, "u1", g.ID, -2000000)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error for overdraw, got %v", err)
	}

	summary, err := svc.Summary(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Completed != 1 || summary.InProgress != 0 {
		t.Errorf("expected 1 completed goal, got %+v", summary)
	}
}

func TestBillMarkPaid_RollsForward(t *testing.T) {
	store := newMemStore()
	svc := service.NewBillService(store, store, zap.NewNop())
	ctx := context.Background()
	due := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	b, err := svc.Create(ctx, "u1", &domain.Bill{Name: "Internet", Amount: 350000, DueDate: due})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paid, err := svc.MarkPaid(ctx, "u1", b.ID, true, due)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.IsPaid {
		t.Error("monthly bills roll forward instead of staying paid")
	}
	if !paid.DueDate.After(due) || paid.LastPaidAt == nil {
		t.Errorf("expected next due date and paid timestamp, got %+v", paid)
	}

	txns, _ := store.ListTransactions(ctx, "u1", domain.TransactionFilter{})
	if len(txns) != 1 || txns[0].Amount != -350000 || txns[0].Type != domain.TxExpense {
		t.Errorf("expected one recorded expense, got %+v", txns)
	}
}

func TestBillMarkPaid_OnceStaysPaid(t *testing.T) {
	store := newMemStore()
	svc := service.NewBillService(store, store, zap.NewNop())
	ctx := context.Background()
	due := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	b, err := svc.Create(ctx, "u1", &domain.Bill{Name: "STNK", Amount: 500000, DueDate: due, Frequency: domain.BillOnce})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.MarkPaid(ctx, "u1", b.ID, false, due); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.MarkPaid(ctx, "u1", b.ID, false, due)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict paying twice, got %v", err)
	}
}

func TestBillUpcoming(t *testing.T) {
	store := newMemStore()
	svc := service.NewBillService(store, store, zap.NewNop())
	ctx := context.Background()
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

	for _, b := range []domain.Bill{
		{Name: "Listrik", Amount: 1, DueDate: now.AddDate(0, 0, 3)},
		{Name: "Overdue", Amount: 1, DueDate: now.AddDate(0, 0, -2)},
		{Name: "Later", Amount: 1, DueDate: now.AddDate(0, 0, 30)},
		{Name: "Paid", Amount: 1, DueDate: now.AddDate(0, 0, 1), IsPaid: true},
	} {
		b.UserID = "u1"
		store.CreateBill(ctx, &b)
	}

	got, err := svc.Upcoming(ctx, "u1", 7, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Overdue" || got[1].Name != "Listrik" {
		t.Errorf("expected overdue then Listrik, got %+v", got)
	}
}

func TestInvestmentPortfolio(t *testing.T) {
	store := newMemStore()
	svc := service.NewInvestmentService(store, zap.NewNop())
	ctx := context.Background()

	svc.Create(ctx, "u1", &domain.Investment{Name: "Reksa Dana", AmountInvested: 1000000, CurrentValue: 1100000})
	svc.Create(ctx, "u1", &domain.Investment{Name: "Emas", AmountInvested: 1000000, CurrentValue: 900000})
	svc.Create(ctx, "u1", &domain.Investment{Name: "Saham", AmountInvested: 2000000, CurrentValue: 2400000})

	p, err := svc.Portfolio(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TotalInvested != 4000000 || p.TotalValue != 4400000 || p.TotalGain != 400000 {
		t.Errorf("unexpected totals: %+v", p)
	}
	if p.GainPct != 10 {
		t.Errorf("expected 10%% gain, got %f", p.GainPct)
	}
}

func TestSettings_DefaultsAndTelegramLink(t *testing.T) {
	store := newMemStore()
	svc := service.NewSettingsService(store, "Asia/Jakarta", zap.NewNop())
	ctx := context.Background()

	st, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Currency != "IDR" || st.Language != domain.LangIndonesian || st.Timezone != "Asia/Jakarta" {
		t.Errorf("unexpected defaults: %+v", st)
	}

	if _, err := svc.LinkTelegram(ctx, "u1", 4242); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.LinkTelegram(ctx, "u2", 4242)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict linking a taken chat, got %v", err)
	}

	owner, err := svc.ResolveChat(ctx, 4242)
	if err != nil || owner.UserID != "u1" || !owner.NotifyEnabled {
		t.Errorf("expected u1 with notifications on, got %+v, %v", owner, err)
	}

	_, err = svc.Update(ctx, "u1", &domain.UserSettings{Timezone: "Mars/Olympus"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error for bad timezone, got %v", err)
	}
}
