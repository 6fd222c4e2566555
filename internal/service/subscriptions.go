package service

import (
	"context"
	"sync"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/analytics"
	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxReportedErrors caps the error strings kept in a run summary.
const maxReportedErrors = 20

// SubscriptionJob is the scheduled scan: for every user with a linked
// chat it detects recurring charges and broadcasts the list. Delivery is
// best-effort; one user's failure never stops the run.
type SubscriptionJob struct {
	settings    port.SettingsStore
	analytics   *AnalyticsService
	broadcaster port.Broadcaster
	concurrency int
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewSubscriptionJob creates the job. concurrency bounds parallel users.
func NewSubscriptionJob(
	settings port.SettingsStore,
	analytics *AnalyticsService,
	broadcaster port.Broadcaster,
	concurrency int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SubscriptionJob {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SubscriptionJob{
		settings:    settings,
		analytics:   analytics,
		broadcaster: broadcaster,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run scans every notifiable user once. Only failing to list users is
// returned as an error; everything else lands in the summary.
func (j *SubscriptionJob) Run(ctx context.Context) (*domain.SubscriptionRunSummary, error) {
	ctx, span := tracer.Start(ctx, "SubscriptionJob.Run")
	defer span.End()

	start := time.Now()
	defer func() { j.metrics.RecordRequestDuration("subscription_job", time.Since(start)) }()

	users, err := j.settings.ListNotifiable(ctx)
	if err != nil {
		j.metrics.IncrExternalError("store")
		return nil, err
	}

	summary := &domain.SubscriptionRunSummary{StartedAt: start.UTC(), UsersScanned: len(users)}
	var mu sync.Mutex
	fail := func(userID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		summary.Failed++
		if len(summary.Errors) < maxReportedErrors {
			summary.Errors = append(summary.Errors, userID+": "+err.Error())
		}
	}

	var g errgroup.Group
	g.SetLimit(j.concurrency)
	for _, u := range users {
		g.Go(func() error {
			report, err := j.analytics.Recurring(ctx, u.UserID, 0)
			if err != nil {
				j.logger.Warn("subscription scan failed", zap.String("user_id", u.UserID), zap.Error(err))
				fail(u.UserID, err)
				return nil
			}
			if len(report.Charges) == 0 {
				return nil
			}

			mu.Lock()
			summary.Candidates += len(report.Charges)
			mu.Unlock()
			j.metrics.AddRecurringDetected(len(report.Charges))

			msg := domain.OutboundMessage{
				ID:       uuid.NewString(),
				UserID:   u.UserID,
				ChatID:   u.TelegramChatID,
				Kind:     domain.MessageSubscriptions,
				Text:     analytics.RenderText([]domain.InsightBlock{analytics.RecurringBlock(report.Charges, u.Language)}),
				QueuedAt: time.Now().UTC(),
			}
			if err := j.broadcaster.Publish(ctx, msg); err != nil {
				fail(u.UserID, err)
				return nil
			}

			mu.Lock()
			summary.Notified++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("users", summary.UsersScanned),
		attribute.Int("candidates", summary.Candidates),
		attribute.Int("notified", summary.Notified),
		attribute.Int("failed", summary.Failed),
	)
	j.logger.Info("subscription scan finished",
		zap.Int("users", summary.UsersScanned),
		zap.Int("candidates", summary.Candidates),
		zap.Int("notified", summary.Notified),
		zap.Int("failed", summary.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return summary, nil
}
