package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

const categorizePrompt = `You categorize personal finance transactions for an Indonesian user.
Pick exactly one category from this list: %s.
Answer with a JSON object {"category": string, "confidence": number between 0 and 1, "reason": string}.
If nothing fits, answer with category "Other" and a low confidence.`

type categorizeAnswer struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Categorize asks the model to choose one of candidates.
func (c *Client) Categorize(ctx context.Context, merchantName, description string, candidates []string) (*domain.CategorySuggestion, error) {
	ctx, span := tracer.Start(ctx, "OpenAI.Categorize")
	defer span.End()
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	if len(candidates) == 0 {
		return &domain.CategorySuggestion{Category: domain.OtherCategoryName}, nil
	}

	content, err := c.completeJSON(ctx, "categorize", []chatMessage{
		{Role: "system", Content: fmt.Sprintf(categorizePrompt, strings.Join(candidates, ", "))},
		{Role: "user", Content: fmt.Sprintf("Merchant: %s\nDescription: %s", merchantName, description)},
	})
	if err != nil {
		return nil, err
	}

	var ans categorizeAnswer
	if err := json.Unmarshal([]byte(content), &ans); err != nil {
		return nil, &domain.ErrExternalService{Service: "openai/categorize", Err: &resilience.Permanent{Err: err}}
	}
	if ans.Confidence < 0 {
		ans.Confidence = 0
	}
	if ans.Confidence > 1 {
		ans.Confidence = 1
	}
	return &domain.CategorySuggestion{
		Category:   strings.TrimSpace(ans.Category),
		Confidence: ans.Confidence,
		Reason:     ans.Reason,
	}, nil
}
