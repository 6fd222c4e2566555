package service_test

import (
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/cache"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.uber.org/zap"
)

// services bundles the wired service graph over one memStore.
type services struct {
	store      *memStore
	metrics    *observability.Metrics
	settings   *service.SettingsService
	categorize *service.CategorizationService
	txns       *service.TransactionService
	analytics  *service.AnalyticsService
	goals      *service.GoalService
	bills      *service.BillService
	dashboard  *service.DashboardService
	drafts     *cache.InMemory[domain.Draft]
}

func newServices(ai, rules *mockCategorizer) *services {
	store := newMemStore()
	metrics := observability.NewMetrics()
	log := zap.NewNop()

	var aiCat, rulesCat port.Categorizer
	if ai != nil {
		aiCat = ai
	}
	if rules != nil {
		rulesCat = rules
	}

	settings := service.NewSettingsService(store, "UTC", log)
	categorize := service.NewCategorizationService(aiCat, rulesCat, store, 0, metrics, log)
	txns := service.NewTransactionService(store, store, categorize, metrics, log)
	analyticsSvc := service.NewAnalyticsService(store, settings, service.AnalyticsConfig{}, metrics, log)
	goals := service.NewGoalService(store, log)
	bills := service.NewBillService(store, store, log)

	return &services{
		store:      store,
		metrics:    metrics,
		settings:   settings,
		categorize: categorize,
		txns:       txns,
		analytics:  analyticsSvc,
		goals:      goals,
		bills:      bills,
		dashboard:  service.NewDashboardService(analyticsSvc, goals, bills, metrics, log),
		drafts:     cache.New[domain.Draft](time.Minute),
	}
}
