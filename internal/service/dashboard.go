package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// upcomingBillDays is how far ahead the dashboard looks for bills.
const upcomingBillDays = 7

// DashboardService assembles the home screen from independent reads.
type DashboardService struct {
	analytics *AnalyticsService
	goals     *GoalService
	bills     *BillService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(analytics *AnalyticsService, goals *GoalService, bills *BillService, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{analytics: analytics, goals: goals, bills: bills, metrics: metrics, logger: logger}
}

// Get runs every section concurrently. Each read is retried once; a
// section that still fails is left empty and named in Warnings instead
// of failing the whole dashboard.
func (s *DashboardService) Get(ctx context.Context, userID string, year, month int) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Get")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard", time.Since(start)) }()

	if month < 1 || month > 12 {
		return nil, &domain.ErrValidation{Field: "month", Message: "must be between 1 and 12"}
	}

	d := &domain.Dashboard{
		UpcomingBills: []domain.Bill{},
		Recurring:     []domain.RecurringCharge{},
	}
	var mu sync.Mutex
	warn := func(section string, err error) {
		s.logger.Warn("dashboard section failed",
			zap.String("user_id", userID),
			zap.String("section", section),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("store")
		mu.Lock()
		d.Warnings = append(d.Warnings, section)
		mu.Unlock()
	}

	// Plain Group: one failing branch must not cancel the others.
	var g errgroup.Group

	g.Go(func() error {
		r, err := retryOnce(ctx, func() (*domain.MonthlyReport, error) {
			return s.analytics.MonthlyReport(ctx, userID, year, month)
		})
		if err != nil {
			warn("report", err)
			return nil
		}
		d.Report = r
		return nil
	})
	g.Go(func() error {
		gs, err := retryOnce(ctx, func() (*domain.GoalSummary, error) {
			return s.goals.Summary(ctx, userID)
		})
		if err != nil {
			warn("goals", err)
			return nil
		}
		d.Goals = gs
		return nil
	})
	g.Go(func() error {
		bills, err := retryOnce(ctx, func() ([]domain.Bill, error) {
			return s.bills.Upcoming(ctx, userID, upcomingBillDays, time.Now())
		})
		if err != nil {
			warn("bills", err)
			return nil
		}
		d.UpcomingBills = bills
		return nil
	})
	g.Go(func() error {
		rr, err := retryOnce(ctx, func() (*domain.RecurringReport, error) {
			return s.analytics.Recurring(ctx, userID, 0)
		})
		if err != nil {
			warn("recurring", err)
			return nil
		}
		d.Recurring = rr.Charges
		return nil
	})

	_ = g.Wait()
	return d, nil
}

// retryOnce calls fn a second time when the first attempt fails and the
// context is still live. Validation errors are returned as-is.
func retryOnce[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil {
		return v, nil
	}
	var verr *domain.ErrValidation
	if errors.As(err, &verr) || ctx.Err() != nil {
		return v, err
	}
	return fn()
}
