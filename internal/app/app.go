// Package app assembles the stores, clients and services shared by the
// Monev binaries.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/config"
	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/cache"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/openai"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/rules"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/sqlite"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/supabase"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.uber.org/zap"
)

// App is the wired service graph.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Store   port.Store

	Auth          *service.AuthService
	Transactions  *service.TransactionService
	Categories    *service.CategoryService
	Budgets       *service.BudgetService
	Goals         *service.GoalService
	Bills         *service.BillService
	Investments   *service.InvestmentService
	Settings      *service.SettingsService
	Analytics     *service.AnalyticsService
	Dashboard     *service.DashboardService
	Ingest        *service.IngestService
	Subscriptions *service.SubscriptionJob

	closers []func() error
}

// New opens the configured store and builds every service. broadcaster
// receives the scheduled subscription notifications and may be nil when
// the job is never run.
func New(ctx context.Context, cfg *config.Config, broadcaster port.Broadcaster, metrics *observability.Metrics, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: metrics}

	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store, err := a.openStore(ctx, httpClient, resilienceCfg)
	if err != nil {
		return nil, err
	}
	a.Store = store

	// --- AI collaborators ---
	ruleSet, err := rules.Load(cfg.CategoryRulesFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load category rules: %w", err)
	}
	logger.Info("category rules loaded", zap.Int("rules", ruleSet.Len()))

	var aiCategorizer port.Categorizer
	var extractor port.Extractor
	if cfg.OpenAIAPIKey != "" {
		ai := openai.NewClient(
			&http.Client{Timeout: cfg.AITimeout + 5*time.Second},
			openai.Options{
				BaseURL: cfg.OpenAIBaseURL,
				APIKey:  cfg.OpenAIAPIKey,
				Model:   cfg.OpenAIModel,
				Timeout: cfg.AITimeout,
			},
			resilience.NewCircuitBreaker("openai"),
			resilienceCfg,
			metrics,
			logger,
		)
		aiCategorizer, extractor = ai, ai
		logger.Info("AI categorization and extraction enabled", zap.String("model", cfg.OpenAIModel))
	} else {
		logger.Warn("OPENAI_API_KEY not set: keyword rules only, receipt and voice ingest unavailable")
	}

	// --- Services ---
	drafts := cache.New[domain.Draft](cfg.CacheTTL)
	a.closers = append(a.closers, func() error { drafts.Close(); return nil })

	a.Categories = service.NewCategoryService(store, logger)
	a.Settings = service.NewSettingsService(store, cfg.Timezone, logger)
	categorizer := service.NewCategorizationService(aiCategorizer, ruleSet, store, cfg.AIMinConfidence, metrics, logger)
	a.Transactions = service.NewTransactionService(store, store, categorizer, metrics, logger)
	a.Budgets = service.NewBudgetService(store, store, logger)
	a.Goals = service.NewGoalService(store, logger)
	a.Bills = service.NewBillService(store, store, logger)
	a.Investments = service.NewInvestmentService(store, logger)
	a.Analytics = service.NewAnalyticsService(store, a.Settings, service.AnalyticsConfig{
		WindowMonths:    cfg.DetectionWindowMonths,
		AmountTolerance: cfg.AmountTolerance,
	}, metrics, logger)
	a.Dashboard = service.NewDashboardService(a.Analytics, a.Goals, a.Bills, metrics, logger)
	a.Ingest = service.NewIngestService(extractor, categorizer, a.Transactions, drafts, metrics, logger)
	a.Auth = service.NewAuthService(store, a.Categories, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	a.Subscriptions = service.NewSubscriptionJob(store, a.Analytics, broadcaster, cfg.NotifyConcurrency, metrics, logger)

	return a, nil
}

func (a *App) openStore(ctx context.Context, httpClient *http.Client, resilienceCfg resilience.Config) (port.Store, error) {
	cfg := a.Config
	switch cfg.DataBackend {
	case config.BackendSupabase:
		a.Logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		return supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			cfg.HTTPTimeout,
			a.Logger,
		), nil
	case config.BackendSQLite:
		a.Logger.Info("using SQLite as data backend", zap.String("path", cfg.SQLitePath))
		store, err := sqlite.Open(ctx, cfg.SQLitePath, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// Close releases the store and caches.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// DryRunNotifier logs messages instead of sending them. It stands in for
// Telegram when no bot token is configured.
type DryRunNotifier struct {
	Logger *zap.Logger
}

// SendMessage logs the message.
func (n DryRunNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	n.Logger.Info("dry-run notification", zap.Int64("chat_id", chatID), zap.String("text", text))
	return nil
}
