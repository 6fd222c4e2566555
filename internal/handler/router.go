package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the API serves. Nil members disable their
// routes.
type Services struct {
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
	Store         Pinger
}

// Options tunes the router.
type Options struct {
	CronSecret     string
	MaxUploadBytes int64
}

const defaultMaxUpload = 10 << 20

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/usage", usageHandler(metrics))

		// Scheduler triggers
		r.Route("/cron", func(r chi.Router) {
			r.Use(CronSecretMiddleware(opts.CronSecret, logger))
			r.Get("/subscriptions", cronSubscriptionsHandler(svc.Subscriptions, logger))
			r.Post("/subscriptions", cronSubscriptionsHandler(svc.Subscriptions, logger))
		})

		if svc.Auth == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "auth service unavailable: store not configured")
			}))
			return
		}

		// --- Authentication ---
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(svc.Auth, logger))
			r.Post("/login", authLoginHandler(svc.Auth, logger))
			r.Post("/refresh", authRefreshHandler(svc.Auth, logger))
			r.Post("/logout", authLogoutHandler(svc.Auth, logger))
			r.With(JWTAuthMiddleware(svc.Auth, logger)).Get("/me", authMeHandler(svc.Auth, logger))
		})

		// --- Protected API ---
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Auth, logger))

			if svc.Transactions != nil {
				r.Route("/transactions", func(r chi.Router) {
					r.Get("/", listTransactionsHandler(svc.Transactions, svc.Settings, logger))
					r.Post("/", createTransactionHandler(svc.Transactions, logger))
					r.Get("/{id}", getTransactionHandler(svc.Transactions, logger))
					r.Put("/{id}", updateTransactionHandler(svc.Transactions, logger))
					r.Delete("/{id}", deleteTransactionHandler(svc.Transactions, logger))
					r.Post("/{id}/verify", verifyTransactionHandler(svc.Transactions, logger))
				})
			}

			if svc.Categories != nil {
				r.Route("/categories", func(r chi.Router) {
					r.Get("/", listCategoriesHandler(svc.Categories, logger))
					r.Post("/", createCategoryHandler(svc.Categories, logger))
					r.Put("/{id}", updateCategoryHandler(svc.Categories, logger))
					r.Delete("/{id}", deleteCategoryHandler(svc.Categories, logger))
				})
			}

			if svc.Budgets != nil {
				r.Route("/budgets", func(r chi.Router) {
					r.Get("/", listBudgetsHandler(svc.Budgets, logger))
					r.Post("/", createBudgetHandler(svc.Budgets, logger))
					r.Put("/{id}", updateBudgetHandler(svc.Budgets, logger))
					r.Delete("/{id}", deleteBudgetHandler(svc.Budgets, logger))
				})
			}

			if svc.Goals != nil {
				r.Route("/goals", func(r chi.Router) {
					r.Get("/", listGoalsHandler(svc.Goals, logger))
					r.Post("/", createGoalHandler(svc.Goals, logger))
					r.Get("/summary", goalSummaryHandler(svc.Goals, logger))
					r.Put("/{id}", updateGoalHandler(svc.Goals, logger))
					r.Delete("/{id}", deleteGoalHandler(svc.Goals, logger))
					r.Post("/{id}/contribute", contributeGoalHandler(svc.Goals, logger))
				})
			}

			if svc.Bills != nil {
				r.Route("/bills", func(r chi.Router) {
					r.Get("/", listBillsHandler(svc.Bills, logger))
					r.Post("/", createBillHandler(svc.Bills, logger))
					r.Get("/upcoming", upcomingBillsHandler(svc.Bills, logger))
					r.Put("/{id}", updateBillHandler(svc.Bills, logger))
					r.Delete("/{id}", deleteBillHandler(svc.Bills, logger))
					r.Post("/{id}/pay", payBillHandler(svc.Bills, logger))
				})
			}

			if svc.Investments != nil {
				r.Route("/investments", func(r chi.Router) {
					r.Get("/", portfolioHandler(svc.Investments, logger))
					r.Post("/", createInvestmentHandler(svc.Investments, logger))
					r.Put("/{id}", updateInvestmentHandler(svc.Investments, logger))
					r.Delete("/{id}", deleteInvestmentHandler(svc.Investments, logger))
				})
			}

			if svc.Settings != nil {
				r.Get("/settings", getSettingsHandler(svc.Settings, logger))
				r.Put("/settings", updateSettingsHandler(svc.Settings, logger))
				r.Post("/settings/telegram", linkTelegramHandler(svc.Settings, logger))
			}

			if svc.Analytics != nil && svc.Settings != nil {
				r.Get("/analytics/monthly", monthlyReportHandler(svc.Analytics, svc.Settings, logger))
				r.Get("/analytics/recurring", recurringHandler(svc.Analytics, logger))
				r.Get("/analytics/insights", insightsHandler(svc.Analytics, svc.Settings, logger))
				r.Get("/reports/monthly.pdf", monthlyPDFHandler(svc.Analytics, svc.Settings, logger))
			}
			if svc.Dashboard != nil && svc.Settings != nil {
				r.Get("/dashboard", dashboardHandler(svc.Dashboard, svc.Settings, logger))
			}

			if svc.Ingest != nil {
				r.Route("/ingest", func(r chi.Router) {
					r.Post("/receipt", ingestUploadHandler(svc.Ingest, domain.MediaImage, opts.MaxUploadBytes, logger))
					r.Post("/voice", ingestUploadHandler(svc.Ingest, domain.MediaAudio, opts.MaxUploadBytes, logger))
					r.Post("/text", ingestTextHandler(svc.Ingest, logger))
					r.Get("/drafts/{id}", getDraftHandler(svc.Ingest, logger))
					r.Post("/drafts/{id}/confirm", confirmDraftHandler(svc.Ingest, logger))
					r.Delete("/drafts/{id}", discardDraftHandler(svc.Ingest, logger))
				})
			}
		})
	})

	return r
}

// ============================================================
// Probes & usage
// ============================================================

func healthzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := []domain.ServiceHealth{{Name: "monev-api", Status: "healthy"}}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			start := time.Now()
			status := "healthy"
			if err := store.Ping(ctx); err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "store", Status: status, LatencyMs: time.Since(start).Milliseconds(),
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
			}
		}
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func usageHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.UsageSnapshot())
	}
}
