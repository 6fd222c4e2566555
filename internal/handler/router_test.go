package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/handler"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/cache"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/rules"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/sqlite"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.uber.org/zap"
)

const cronSecret = "cron-test-secret"

type recordingBroadcaster struct {
	messages []domain.OutboundMessage
}

func (b *recordingBroadcaster) Publish(_ context.Context, msg domain.OutboundMessage) error {
	b.messages = append(b.messages, msg)
	return nil
}

// newTestAPI wires every service over a throwaway SQLite database.
func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "monev.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	drafts := cache.New[domain.Draft](time.Minute)
	t.Cleanup(drafts.Close)

	categories := service.NewCategoryService(store, logger)
	settings := service.NewSettingsService(store, "Asia/Jakarta", logger)
	categorizer := service.NewCategorizationService(nil, rules.New(rules.DefaultRules), store, 0, metrics, logger)
	txns := service.NewTransactionService(store, store, categorizer, metrics, logger)
	analyticsSvc := service.NewAnalyticsService(store, settings, service.AnalyticsConfig{WindowMonths: 6, AmountTolerance: 0.05}, metrics, logger)
	goals := service.NewGoalService(store, logger)
	bills := service.NewBillService(store, store, logger)

	svc := handler.Services{
		Auth:          service.NewAuthService(store, categories, "test-secret", 15*time.Minute, 24*time.Hour, logger),
		Transactions:  txns,
		Categories:    categories,
		Budgets:       service.NewBudgetService(store, store, logger),
		Goals:         goals,
		Bills:         bills,
		Investments:   service.NewInvestmentService(store, logger),
		Settings:      settings,
		Analytics:     analyticsSvc,
		Dashboard:     service.NewDashboardService(analyticsSvc, goals, bills, metrics, logger),
		Ingest:        service.NewIngestService(nil, categorizer, txns, drafts, metrics, logger),
		Subscriptions: service.NewSubscriptionJob(store, analyticsSvc, &recordingBroadcaster{}, 2, metrics, logger),
		Store:         store,
	}
	return handler.NewRouter(svc, handler.Options{CronSecret: cronSecret}, metrics, logger)
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "budi@example.com", "name": "Budi", "password": "rahasia123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func TestProbes(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, handler.Options{}, observability.NewMetrics(), zap.NewNop())

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping", "/v1/metrics/usage"} {
		rec := do(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestAPIWithoutStore(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, handler.Options{}, observability.NewMetrics(), zap.NewNop())

	rec := do(t, router, http.MethodGet, "/v1/transactions", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestHealthzReportsStore(t *testing.T) {
	h := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	var health domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "healthy" || len(health.Services) != 2 {
		t.Errorf("unexpected health: %+v", health)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestAPI(t)

	for _, token := range []string{"", "not-a-jwt"} {
		rec := do(t, h, http.MethodGet, "/v1/transactions", token, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: expected 401, got %d", token, rec.Code)
		}
	}
}

func TestRegisterSeedsCategories(t *testing.T) {
	h := newTestAPI(t)
	token := register(t, h)

	rec := do(t, h, http.MethodGet, "/v1/categories", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cats []domain.Category
	json.NewDecoder(rec.Body).Decode(&cats)
	if len(cats) == 0 {
		t.Fatal("expected default categories")
	}

	dup := do(t, h, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "budi@example.com", "name": "Budi", "password": "rahasia123",
	})
	if dup.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", dup.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	h := newTestAPI(t)
	token := register(t, h)

	rec := do(t, h, http.MethodPost, "/v1/transactions", token, map[string]any{
		"amount": 150000, "type": "expense", "payment_method": "ewallet",
		"merchant_name": "Grab", "description": "ojek ke kantor",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var tx domain.Transaction
	json.NewDecoder(rec.Body).Decode(&tx)
	if tx.Amount != -150000 || tx.CategoryID == "" || !tx.Verified {
		t.Errorf("unexpected transaction: %+v", tx)
	}

	rec = do(t, h, http.MethodGet, "/v1/transactions?type=expense", token, nil)
	var list []domain.Transaction
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != tx.ID {
		t.Errorf("expected the created transaction, got %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/v1/analytics/monthly", token, nil)
	var report domain.MonthlyReport
	json.NewDecoder(rec.Body).Decode(&report)
	if report.Stats.Expense != 150000 || report.Stats.Balance != -150000 {
		t.Errorf("unexpected stats: %+v", report.Stats)
	}

	rec = do(t, h, http.MethodDelete, "/v1/transactions/"+tx.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/v1/transactions/"+tx.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestInvalidQueryParams(t *testing.T) {
	h := newTestAPI(t)
	token := register(t, h)

	for _, path := range []string{
		"/v1/transactions?limit=abc",
		"/v1/transactions?type=gift",
		"/v1/transactions?from=yesterday",
		"/v1/analytics/monthly?month=13",
	} {
		rec := do(t, h, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestBudgetConflict(t *testing.T) {
	h := newTestAPI(t)
	token := register(t, h)

	rec := do(t, h, http.MethodGet, "/v1/categories", token, nil)
	var cats []domain.Category
	json.NewDecoder(rec.Body).Decode(&cats)

	budget := map[string]any{"category_id": cats[0].ID, "amount_limit": 500000, "month": 3, "year": 2024}
	if rec := do(t, h, http.MethodPost, "/v1/budgets", token, budget); rec.Code != http.StatusCreated {
		t.Fatalf("first budget: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodPost, "/v1/budgets", token, budget); rec.Code != http.StatusConflict {
		t.Errorf("second budget: expected 409, got %d", rec.Code)
	}
}

func TestTextIngestAndConfirm(t *testing.T) {
	h := newTestAPI(t)
	token := register(t, h)

	rec := do(t, h, http.MethodPost, "/v1/ingest/text", token, map[string]string{"text": "kopi 25rb"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var draft domain.Draft
	json.NewDecoder(rec.Body).Decode(&draft)
	if draft.ID == "" || draft.Extraction.Amount != 25000 {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	rec = do(t, h, http.MethodPost, "/v1/ingest/drafts/"+draft.ID+"/confirm", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirm: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodPost, "/v1/ingest/drafts/"+draft.ID+"/confirm", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second confirm: expected 404, got %d", rec.Code)
	}
}

func TestMonthlyPDF(t *testing.T) {
	h := newTestAPI(t)
	token := register(t, h)

	rec := do(t, h, http.MethodGet, "/v1/reports/monthly.pdf?year=2024&month=3", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "monev-2024-03.pdf") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestCronSubscriptions(t *testing.T) {
	h := newTestAPI(t)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing secret", "", http.StatusUnauthorized},
		{"wrong secret", "nope", http.StatusUnauthorized},
		{"valid secret", cronSecret, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/cron/subscriptions", tt.token, nil)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestCronDisabledWithoutSecret(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, handler.Options{}, observability.NewMetrics(), zap.NewNop())

	rec := do(t, router, http.MethodGet, "/v1/cron/subscriptions", "anything", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
