package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "monev.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrate_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monev.db")
	v1, err := Migrate(path, zap.NewNop())
	if err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	v2, err := Migrate(path, zap.NewNop())
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Errorf("expected version 1 twice, got %d and %d", v1, v2)
	}
}

func TestTransactions_ListFiltersAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := func(d int) time.Time { return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC) }
	for _, tx := range []domain.Transaction{
		{UserID: "u1", Amount: -50000, Description: "lunch", Type: domain.TxExpense, CategoryID: "food", OccurredAt: at(2)},
		{UserID: "u1", Amount: 5000000, Description: "salary", Type: domain.TxIncome, OccurredAt: at(1)},
		{UserID: "u1", Amount: -120000, MerchantName: "Netflix", Type: domain.TxExpense, OccurredAt: at(5)},
		{UserID: "u2", Amount: -1, Description: "other user", Type: domain.TxExpense, OccurredAt: at(3)},
		{UserID: "u1", Amount: -9000, Description: "april", Type: domain.TxExpense, OccurredAt: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)},
	} {
		tx.PaymentMethod = domain.PayCash
		if _, err := s.CreateTransaction(ctx, &tx); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	march := domain.TransactionFilter{
		From: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	got, err := s.ListTransactions(ctx, "u1", march)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 March rows for u1, got %d", len(got))
	}
	if got[0].MerchantName != "Netflix" || got[2].Description != "salary" {
		t.Errorf("expected newest first, got %q .. %q", got[0].MerchantName, got[2].Description)
	}
	if !got[0].OccurredAt.Equal(at(5)) {
		t.Errorf("occurred_at round trip: got %v", got[0].OccurredAt)
	}

	march.Type = domain.TxExpense
	march.Limit = 1
	march.Offset = 1
	got, err = s.ListTransactions(ctx, "u1", march)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Description != "lunch" {
		t.Errorf("expected the second expense only, got %+v", got)
	}

	got, err = s.ListTransactions(ctx, "u1", domain.TransactionFilter{CategoryID: "food"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].CategoryID != "food" {
		t.Errorf("expected category filter to match one row, got %+v", got)
	}
}

func TestTransactions_OwnershipAndNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.CreateTransaction(ctx, &domain.Transaction{UserID: "u1", Amount: -1000, Description: "x", Type: domain.TxExpense, PaymentMethod: domain.PayCash, OccurredAt: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var nf *domain.ErrNotFound
	if _, err := s.GetTransaction(ctx, "u2", tx.ID); !errors.As(err, &nf) {
		t.Errorf("foreign read: expected not found, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "u2", tx.ID); !errors.As(err, &nf) {
		t.Errorf("foreign delete: expected not found, got %v", err)
	}

	tx.Verified = true
	tx.CategoryID = "food"
	updated, err := s.UpdateTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Verified || updated.CategoryID != "food" {
		t.Errorf("update not persisted: %+v", updated)
	}

	if err := s.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "u1", tx.ID); !errors.As(err, &nf) {
		t.Errorf("after delete: expected not found, got %v", err)
	}
}

func TestBudgets_DuplicateMonthIsConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &domain.Budget{UserID: "u1", CategoryID: "food", Limit: 1000000, Month: 3, Year: 2024}
	if _, err := s.CreateBudget(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := s.CreateBudget(ctx, b)
	var cf *domain.ErrConflict
	if !errors.As(err, &cf) {
		t.Fatalf("expected conflict, got %v", err)
	}

	b.Month = 4
	if _, err := s.CreateBudget(ctx, b); err != nil {
		t.Fatalf("next month should be allowed: %v", err)
	}

	march, err := s.ListBudgets(ctx, "u1", 3, 2024)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(march) != 1 {
		t.Errorf("expected 1 March budget, got %d", len(march))
	}
	all, err := s.ListBudgets(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Month != 4 {
		t.Errorf("expected both budgets newest first, got %+v", all)
	}
}

func TestGoalsAndBills_NullableTimes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := s.CreateGoal(ctx, &domain.Goal{UserID: "u1", Name: "Laptop", TargetAmount: 15000000})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	got, err := s.GetGoal(ctx, "u1", g.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if got.Deadline != nil {
		t.Errorf("expected nil deadline, got %v", got.Deadline)
	}

	deadline := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	got.Deadline = &deadline
	got.CurrentAmount = 500000
	if got, err = s.UpdateGoal(ctx, got); err != nil {
		t.Fatalf("update goal: %v", err)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) || got.CurrentAmount != 500000 {
		t.Errorf("goal update not persisted: %+v", got)
	}

	due := time.Date(2024, time.March, 25, 0, 0, 0, 0, time.UTC)
	bill, err := s.CreateBill(ctx, &domain.Bill{UserID: "u1", Name: "Internet", Amount: 350000, DueDate: due, Frequency: domain.BillMonthly})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	paid := due.Add(-24 * time.Hour)
	bill.IsPaid = true
	bill.LastPaidAt = &paid
	bill.DueDate = bill.NextDueDate()
	if bill, err = s.UpdateBill(ctx, bill); err != nil {
		t.Fatalf("update bill: %v", err)
	}
	if !bill.IsPaid || bill.LastPaidAt == nil || bill.DueDate.Month() != time.April {
		t.Errorf("bill update not persisted: %+v", bill)
	}
}

func TestSettings_UpsertAndNotifiable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.UpsertSettings(ctx, &domain.UserSettings{UserID: "u1", Currency: "IDR", Language: "id", NotifyEnabled: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.UpsertSettings(ctx, &domain.UserSettings{UserID: "u2", Currency: "IDR", Language: "en", TelegramChatID: 7, NotifyEnabled: false}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, err := s.ListNotifiable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected nobody notifiable yet, got %+v", list)
	}

	updated, err := s.UpsertSettings(ctx, &domain.UserSettings{UserID: "u1", Currency: "IDR", Language: "en", TelegramChatID: 42, NotifyEnabled: true})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if updated.Language != "en" || updated.TelegramChatID != 42 {
		t.Errorf("expected merged settings, got %+v", updated)
	}

	list, err = s.ListNotifiable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].UserID != "u1" {
		t.Errorf("expected only u1 notifiable, got %+v", list)
	}

	byChat, err := s.GetSettingsByChatID(ctx, 42)
	if err != nil || byChat.UserID != "u1" {
		t.Errorf("lookup by chat: %+v, %v", byChat, err)
	}

	_, err = s.UpsertSettings(ctx, &domain.UserSettings{UserID: "u2", TelegramChatID: 42})
	var cf *domain.ErrConflict
	if !errors.As(err, &cf) {
		t.Errorf("linking a taken chat: expected conflict, got %v", err)
	}
}

func TestUsersAndRefreshTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, &domain.User{Email: "ani@example.com", Name: "Ani", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err = s.CreateUser(ctx, &domain.User{Email: "ani@example.com", PasswordHash: "x"})
	var cf *domain.ErrConflict
	if !errors.As(err, &cf) {
		t.Errorf("duplicate email: expected conflict, got %v", err)
	}

	byEmail, err := s.GetUserByEmail(ctx, "ani@example.com")
	if err != nil || byEmail.ID != u.ID || byEmail.PasswordHash != "hash" {
		t.Fatalf("get by email: %+v, %v", byEmail, err)
	}

	expires := time.Now().Add(time.Hour)
	if err := s.StoreRefreshToken(ctx, u.ID, "h1", expires); err != nil {
		t.Fatalf("store token: %v", err)
	}
	tok, err := s.GetRefreshToken(ctx, "h1")
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if tok.Revoked || tok.UserID != u.ID || !tok.ExpiresAt.Equal(expires.UTC()) {
		t.Errorf("unexpected token: %+v", tok)
	}

	if err := s.RevokeRefreshToken(ctx, "h1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if tok, _ = s.GetRefreshToken(ctx, "h1"); !tok.Revoked {
		t.Error("expected token revoked")
	}

	var nf *domain.ErrNotFound
	if err := s.RevokeRefreshToken(ctx, "missing"); !errors.As(err, &nf) {
		t.Errorf("revoking unknown token: expected not found, got %v", err)
	}
}
