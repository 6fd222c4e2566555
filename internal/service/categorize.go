package service

import (
	"context"
	"strings"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Suggestion sources.
const (
	SourceAI       = "ai"
	SourceRules    = "rules"
	SourceFallback = "fallback"
)

// DefaultMinConfidence is the lowest AI confidence accepted as-is.
const DefaultMinConfidence = 0.5

// CategorizationService picks a category for a transaction. It asks the
// AI categorizer first, then the keyword rules, and finally settles on
// the user's "Other" category, creating it if needed. Collaborator
// failures never fail the caller.
type CategorizationService struct {
	ai            port.Categorizer
	rules         port.Categorizer
	categories    port.CategoryStore
	minConfidence float64
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewCategorizationService wires the chain. ai and rules may be nil.
func NewCategorizationService(
	ai, rules port.Categorizer,
	categories port.CategoryStore,
	minConfidence float64,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CategorizationService {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &CategorizationService{
		ai:            ai,
		rules:         rules,
		categories:    categories,
		minConfidence: minConfidence,
		metrics:       metrics,
		logger:        logger,
	}
}

// Resolve returns the chosen category id together with the suggestion
// that led to it. Only a store failure is returned as an error.
func (s *CategorizationService) Resolve(ctx context.Context, userID string, txType domain.TxType, merchant, description string) (string, domain.CategorySuggestion, error) {
	ctx, span := tracer.Start(ctx, "CategorizationService.Resolve")
	defer span.End()

	if txType == domain.TxTransfer {
		return "", domain.CategorySuggestion{Source: SourceFallback}, nil
	}

	all, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return "", domain.CategorySuggestion{}, err
	}
	byName := make(map[string]domain.Category)
	var names []string
	for _, c := range all {
		if c.Type != txType {
			continue
		}
		byName[strings.ToLower(c.Name)] = c
		names = append(names, c.Name)
	}

	for _, step := range []struct {
		source string
		cat    port.Categorizer
	}{{SourceAI, s.ai}, {SourceRules, s.rules}} {
		if step.cat == nil || (merchant == "" && description == "") {
			continue
		}
		sug, err := step.cat.Categorize(ctx, merchant, description, names)
		if err != nil {
			s.logger.Warn("categorizer failed, falling through",
				zap.String("source", step.source),
				zap.String("user_id", userID),
				zap.Error(err),
			)
			s.metrics.IncrExternalError(step.source)
			continue
		}
		if sug == nil || sug.Confidence < s.minConfidence {
			continue
		}
		if c, ok := byName[strings.ToLower(strings.TrimSpace(sug.Category))]; ok {
			sug.Source = step.source
			sug.Category = c.Name
			s.metrics.IncrCategorization(step.source)
			span.SetAttributes(attribute.String("category.source", step.source))
			return c.ID, *sug, nil
		}
	}

	other, err := s.otherCategory(ctx, userID, txType, byName)
	if err != nil {
		return "", domain.CategorySuggestion{}, err
	}
	s.metrics.IncrCategorization(SourceFallback)
	span.SetAttributes(attribute.String("category.source", SourceFallback))
	return other.ID, domain.CategorySuggestion{
		Category: other.Name,
		Source:   SourceFallback,
		Reason:   "no confident match",
	}, nil
}

func (s *CategorizationService) otherCategory(ctx context.Context, userID string, txType domain.TxType, byName map[string]domain.Category) (*domain.Category, error) {
	if c, ok := byName[strings.ToLower(domain.OtherCategoryName)]; ok {
		return &c, nil
	}
	created, err := s.categories.CreateCategory(ctx, &domain.Category{
		UserID: userID,
		Name:   domain.OtherCategoryName,
		Type:   txType,
		Color:  "#9E9E9E",
		Icon:   "📦",
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("created fallback category", zap.String("user_id", userID), zap.String("type", string(txType)))
	return created, nil
}
