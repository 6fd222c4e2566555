package service

import (
	"context"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/analytics"
	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalyticsConfig tunes the analytics reads.
type AnalyticsConfig struct {
	// WindowMonths is the trailing window for recurring detection and
	// runway averages.
	WindowMonths    int
	AmountTolerance float64
}

// AnalyticsService reads a user's data and feeds it through the pure
// analytics package.
type AnalyticsService struct {
	store    port.Store
	settings *SettingsService
	cfg      AnalyticsConfig
	now      func() time.Time
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(store port.Store, settings *SettingsService, cfg AnalyticsConfig, metrics *observability.Metrics, logger *zap.Logger) *AnalyticsService {
	if cfg.WindowMonths <= 0 {
		cfg.WindowMonths = 3
	}
	if cfg.AmountTolerance <= 0 {
		cfg.AmountTolerance = analytics.DefaultDetectOptions().AmountTolerance
	}
	return &AnalyticsService{
		store:    store,
		settings: settings,
		cfg:      cfg,
		now:      time.Now,
		metrics:  metrics,
		logger:   logger,
	}
}

// WindowMonths is the configured detection window.
func (s *AnalyticsService) WindowMonths() int { return s.cfg.WindowMonths }

// MonthlyReport aggregates one calendar month in the user's timezone.
func (s *AnalyticsService) MonthlyReport(ctx context.Context, userID string, year, month int) (*domain.MonthlyReport, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.MonthlyReport")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Int("year", year), attribute.Int("month", month))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("monthly_report", time.Since(start)) }()

	loc := s.settings.Location(ctx, userID)
	from, to, err := analytics.MonthRange(year, month, loc)
	if err != nil {
		return nil, err
	}

	in := analytics.MonthInput{Year: year, Month: month, Location: loc}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txns, err := s.listAll(gCtx, userID, domain.TransactionFilter{From: from, To: to})
		in.Transactions = txns
		return err
	})
	g.Go(func() error {
		budgets, err := s.store.ListBudgets(gCtx, userID, month, year)
		in.Budgets = budgets
		return err
	})
	g.Go(func() error {
		goals, err := s.store.ListGoals(gCtx, userID)
		in.Goals = goals
		return err
	})
	g.Go(func() error {
		cats, err := s.store.ListCategories(gCtx, userID)
		in.Categories = cats
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("monthly report read failed", zap.String("user_id", userID), zap.Error(err))
		s.metrics.IncrExternalError("store")
		return nil, err
	}

	return analytics.AggregateMonth(in)
}

// Recurring detects recurring charges over the trailing window ending
// this month. months <= 0 uses the configured window.
func (s *AnalyticsService) Recurring(ctx context.Context, userID string, months int) (*domain.RecurringReport, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.Recurring")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if months <= 0 {
		months = s.cfg.WindowMonths
	}
	if months > 24 {
		return nil, &domain.ErrValidation{Field: "months", Message: "must be at most 24"}
	}

	loc := s.settings.Location(ctx, userID)
	from, to := analytics.TrailingWindow(s.now(), months, loc)
	txns, err := s.listAll(ctx, userID, domain.TransactionFilter{
		From: from,
		To:   to,
		Type: domain.TxExpense,
	})
	if err != nil {
		return nil, err
	}

	charges := analytics.DetectRecurring(txns, analytics.DetectOptions{
		AmountTolerance: s.cfg.AmountTolerance,
		Location:        loc,
	})
	report := &domain.RecurringReport{
		WindowMonths: months,
		From:         from,
		To:           to,
		Charges:      charges,
	}
	for _, c := range charges {
		report.TotalMonthly += c.MonthlyCost
	}
	span.SetAttributes(attribute.Int("recurring.count", len(charges)))
	return report, nil
}

const (
	// transactionPage is the page size used for report scans. Stores may
	// return fewer rows per page (PostgREST max-rows), so paging stops
	// only on an empty page.
	transactionPage = 500
	// maxWindowRows bounds the rows pulled for one scan.
	maxWindowRows = 10000
)

// listAll pages through every transaction matching f, newest first.
// Hitting maxWindowRows is logged and the scan stops there.
func (s *AnalyticsService) listAll(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	all := []domain.Transaction{}
	f.Limit = transactionPage
	for {
		f.Offset = len(all)
		page, err := s.store.ListTransactions(ctx, userID, f)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		if len(all) >= maxWindowRows {
			s.logger.Warn("transaction scan truncated",
				zap.String("user_id", userID),
				zap.Int("rows", len(all)),
				zap.Time("from", f.From),
			)
			return all[:maxWindowRows], nil
		}
	}
}

// Insights returns the month's numbers plus narrative blocks. Only the
// monthly report is required; recurring detection and runway degrade
// to empty on failure.
func (s *AnalyticsService) Insights(ctx context.Context, userID string, year, month int) (*domain.InsightsResponse, error) {
	ctx, span := tracer.Start(ctx, "AnalyticsService.Insights")
	defer span.End()

	report, err := s.MonthlyReport(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	lang := domain.LangIndonesian
	if st, err := s.settings.Get(ctx, userID); err == nil {
		lang = st.Language
	}

	recurring := []domain.RecurringCharge{}
	if rr, err := s.Recurring(ctx, userID, 0); err != nil {
		s.logger.Warn("insights: recurring detection failed", zap.String("user_id", userID), zap.Error(err))
	} else {
		recurring = rr.Charges
	}

	resp := &domain.InsightsResponse{
		Stats:     report.Stats,
		Recurring: recurring,
		Blocks:    analytics.FormatInsights(report.Stats, recurring, lang),
	}

	if months, ok, err := s.runway(ctx, userID); err != nil {
		s.logger.Warn("insights: runway failed", zap.String("user_id", userID), zap.Error(err))
	} else if ok {
		resp.Runway = &months
		resp.Blocks = append(resp.Blocks, analytics.RunwayBlock(months, lang))
	}
	return resp, nil
}

// runway divides the window's net balance by its average monthly spend.
func (s *AnalyticsService) runway(ctx context.Context, userID string) (float64, bool, error) {
	loc := s.settings.Location(ctx, userID)
	from, to := analytics.TrailingWindow(s.now(), s.cfg.WindowMonths, loc)
	txns, err := s.listAll(ctx, userID, domain.TransactionFilter{From: from, To: to})
	if err != nil {
		return 0, false, err
	}
	stats := analytics.ComputeStats(txns)
	months, ok := analytics.Runway(stats.Balance, analytics.AverageMonthlyExpense(txns, s.cfg.WindowMonths))
	return months, ok, nil
}
