package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const extractPrompt = `You read Indonesian receipts, chat messages and voice transcripts and extract one transaction.
Answer with a JSON object:
{"amount": string (total paid, digits only, e.g. "125000"), "merchant_name": string, "date": "YYYY-MM-DD" or "",
 "description": string, "type": "expense" or "income"}.
Use empty strings for anything you cannot read. Never invent an amount.`

type extractAnswer struct {
	Amount       json.RawMessage `json:"amount"`
	MerchantName string          `json:"merchant_name"`
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Type         string          `json:"type"`
}

// Extract reads a transaction out of m. Audio is transcribed first and
// the transcript is returned alongside the fields.
func (c *Client) Extract(ctx context.Context, m domain.Media) (*domain.Extraction, error) {
	ctx, span := tracer.Start(ctx, "OpenAI.Extract")
	defer span.End()
	span.SetAttributes(attribute.String("media.kind", string(m.Kind)))

	var (
		user       chatMessage
		transcript string
	)
	switch m.Kind {
	case domain.MediaImage:
		mime := m.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		user = chatMessage{Role: "user", Content: []contentPart{
			{Type: "text", Text: "Extract the transaction from this receipt."},
			{Type: "image_url", ImageURL: &imageURL{URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(m.Data)}},
		}}
	case domain.MediaAudio:
		text, err := c.transcribe(ctx, m)
		if err != nil {
			return nil, err
		}
		if text == "" {
			return &domain.Extraction{}, nil
		}
		transcript = text
		user = chatMessage{Role: "user", Content: text}
	case domain.MediaText:
		user = chatMessage{Role: "user", Content: m.Text}
	default:
		return nil, &domain.ErrValidation{Field: "media", Message: "unsupported media kind " + string(m.Kind)}
	}

	content, err := c.completeJSON(ctx, "extract", []chatMessage{{Role: "system", Content: extractPrompt}, user})
	if err != nil {
		return nil, err
	}

	var ans extractAnswer
	if err := json.Unmarshal([]byte(content), &ans); err != nil {
		return nil, &domain.ErrExternalService{Service: "openai/extract", Err: err}
	}

	out := &domain.Extraction{
		MerchantName: strings.TrimSpace(ans.MerchantName),
		Description:  strings.TrimSpace(ans.Description),
		Transcript:   transcript,
	}
	if amount, err := parseAnswerAmount(ans.Amount); err == nil {
		out.Amount = amount
	} else {
		c.logger.Debug("openai: unreadable amount", zap.String("raw", string(ans.Amount)), zap.Error(err))
	}
	if t, err := time.Parse("2006-01-02", ans.Date); err == nil {
		out.Date = &t
	}
	switch domain.TxType(ans.Type) {
	case domain.TxExpense, domain.TxIncome:
		out.Type = domain.TxType(ans.Type)
	}
	return out, nil
}

// parseAnswerAmount accepts the amount as a JSON string or number.
func parseAnswerAmount(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s == `""` {
		return 0, errors.New("empty amount")
	}
	s = strings.TrimPrefix(strings.Trim(s, `"`), "-")
	return domain.ParseAmount(s)
}
