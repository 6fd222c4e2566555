package service

import (
	"context"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.uber.org/zap"
)

// InvestmentService manages investment holdings.
type InvestmentService struct {
	store  port.InvestmentStore
	logger *zap.Logger
}

// NewInvestmentService creates a new investment service.
func NewInvestmentService(store port.InvestmentStore, logger *zap.Logger) *InvestmentService {
	return &InvestmentService{store: store, logger: logger}
}

// Portfolio lists holdings with totals and overall gain.
func (s *InvestmentService) Portfolio(ctx context.Context, userID string) (*domain.PortfolioSummary, error) {
	ctx, span := tracer.Start(ctx, "InvestmentService.Portfolio")
	defer span.End()

	holdings, err := s.store.ListInvestments(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &domain.PortfolioSummary{Holdings: holdings}
	if p.Holdings == nil {
		p.Holdings = []domain.Investment{}
	}
	for _, h := range holdings {
		p.TotalInvested += h.AmountInvested
		p.TotalValue += h.CurrentValue
	}
	p.TotalGain = p.TotalValue - p.TotalInvested
	if p.TotalInvested > 0 {
		p.GainPct = float64(p.TotalGain) / float64(p.TotalInvested) * 100
	}
	return p, nil
}

func (s *InvestmentService) Create(ctx context.Context, userID string, i *domain.Investment) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "InvestmentService.Create")
	defer span.End()

	if err := i.Validate(); err != nil {
		return nil, err
	}
	i.ID = ""
	i.UserID = userID
	return s.store.CreateInvestment(ctx, i)
}

func (s *InvestmentService) Update(ctx context.Context, userID, id string, i *domain.Investment) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "InvestmentService.Update")
	defer span.End()

	if err := i.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetInvestment(ctx, userID, id); err != nil {
		return nil, err
	}
	i.ID, i.UserID = id, userID
	return s.store.UpdateInvestment(ctx, i)
}

func (s *InvestmentService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "InvestmentService.Delete")
	defer span.End()

	return s.store.DeleteInvestment(ctx, userID, id)
}
