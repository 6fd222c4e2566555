package service

import (
	"context"

	"github.com/creativealip-rgb/Monev-sub001/internal/analytics"
	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.uber.org/zap"
)

// GoalService manages savings goals.
type GoalService struct {
	store  port.GoalStore
	logger *zap.Logger
}

// NewGoalService creates a new goal service.
func NewGoalService(store port.GoalStore, logger *zap.Logger) *GoalService {
	return &GoalService{store: store, logger: logger}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "GoalService.List")
	defer span.End()

	return s.store.ListGoals(ctx, userID)
}

// Summary counts completed and in-progress goals.
func (s *GoalService) Summary(ctx context.Context, userID string) (*domain.GoalSummary, error) {
	ctx, span := tracer.Start(ctx, "GoalService.Summary")
	defer span.End()

	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum := analytics.SummarizeGoals(goals)
	return &sum, nil
}

func (s *GoalService) Create(ctx context.Context, userID string, g *domain.Goal) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "GoalService.Create")
	defer span.End()

	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.ID = ""
	g.UserID = userID
	return s.store.CreateGoal(ctx, g)
}

func (s *GoalService) Update(ctx context.Context, userID, id string, g *domain.Goal) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "GoalService.Update")
	defer span.End()

	if err := g.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetGoal(ctx, userID, id); err != nil {
		return nil, err
	}
	g.ID, g.UserID = id, userID
	return s.store.UpdateGoal(ctx, g)
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "GoalService.Delete")
	defer span.End()

	return s.store.DeleteGoal(ctx, userID, id)
}

// Contribute adds amount to the goal's current amount. A negative amount
// withdraws; the balance never drops below zero.
func (s *GoalService) Contribute(ctx context.Context, userID, id string, amount int64) (*domain.Goal, error) {
	ctx, span := tracer.Start(ctx, "GoalService.Contribute")
	defer span.End()

	if amount == 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be zero"}
	}
	g, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if g.CurrentAmount+amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "withdrawal exceeds saved amount"}
	}

	wasDone := g.Completed()
	g.CurrentAmount += amount
	updated, err := s.store.UpdateGoal(ctx, g)
	if err != nil {
		return nil, err
	}
	if !wasDone && updated.Completed() {
		s.logger.Info("goal completed", zap.String("user_id", userID), zap.String("goal_id", id))
	}
	return updated, nil
}
