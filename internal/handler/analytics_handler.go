package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/infra/export"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Analytics & reports
// ============================================================

func monthlyReportHandler(svc *service.AnalyticsService, settings *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/monthly")
		defer span.End()
		userID := UserIDFromContext(ctx)

		year, month, err := monthParams(r, time.Now(), settings.Location(ctx, userID))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("report.year", year), attribute.Int("report.month", month))

		report, err := svc.MonthlyReport(ctx, userID, year, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func recurringHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/recurring")
		defer span.End()

		months, err := queryInt(r, "months", 0)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		report, err := svc.Recurring(ctx, UserIDFromContext(ctx), months)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func insightsHandler(svc *service.AnalyticsService, settings *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/insights")
		defer span.End()
		userID := UserIDFromContext(ctx)

		year, month, err := monthParams(r, time.Now(), settings.Location(ctx, userID))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		resp, err := svc.Insights(ctx, userID, year, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func dashboardHandler(svc *service.DashboardService, settings *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()
		userID := UserIDFromContext(ctx)

		year, month, err := monthParams(r, time.Now(), settings.Location(ctx, userID))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		d, err := svc.Get(ctx, userID, year, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func monthlyPDFHandler(svc *service.AnalyticsService, settings *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/monthly.pdf")
		defer span.End()
		userID := UserIDFromContext(ctx)

		loc := settings.Location(ctx, userID)
		year, month, err := monthParams(r, time.Now(), loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		report, err := svc.MonthlyReport(ctx, userID, year, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		doc := export.MonthlyReport{Report: report, GeneratedAt: time.Now().In(loc)}
		if st, err := settings.Get(ctx, userID); err == nil {
			doc.Lang = st.Language
		}
		if rr, err := svc.Recurring(ctx, userID, 0); err != nil {
			logger.Warn("pdf report: recurring detection failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			doc.Recurring = rr.Charges
		}

		var buf bytes.Buffer
		if err := export.WriteMonthlyPDF(&buf, doc); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="monev-%04d-%02d.pdf"`, year, month))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

// ============================================================
// Scheduled jobs
// ============================================================

func cronSubscriptionsHandler(job *service.SubscriptionJob, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" /v1/cron/subscriptions")
		defer span.End()

		if job == nil {
			writeError(w, http.StatusServiceUnavailable, "subscription job not configured")
			return
		}

		summary, err := job.Run(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

