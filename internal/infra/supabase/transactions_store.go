package supabase

import (
	"context"
	"strconv"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// TransactionStore: table "transactions"
// ============================================================

const tableTransactions = "transactions"

func (c *Client) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	q := owned(userID, "")
	switch {
	case !f.From.IsZero() && !f.To.IsZero():
		q.Set("and", "(occurred_at.gte."+f.From.UTC().Format(time.RFC3339)+",occurred_at.lt."+f.To.UTC().Format(time.RFC3339)+")")
	case !f.From.IsZero():
		q.Set("occurred_at", "gte."+f.From.UTC().Format(time.RFC3339))
	case !f.To.IsZero():
		q.Set("occurred_at", "lt."+f.To.UTC().Format(time.RFC3339))
	}
	if f.Type != "" {
		q.Set("type", "eq."+string(f.Type))
	}
	if f.CategoryID != "" {
		q.Set("category_id", "eq."+f.CategoryID)
	}
	q.Set("order", "occurred_at.desc,created_at.desc")
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	rows, err := selectRows[domain.Transaction](ctx, c, tableTransactions, q)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}

func (c *Client) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	return selectOne[domain.Transaction](ctx, c, tableTransactions, "transaction", id, owned(userID, id))
}

func (c *Client) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	row := *tx
	row.ID = uuid.NewString()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return insertRow[domain.Transaction](ctx, c, tableTransactions, row)
}

func (c *Client) UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	return updateRows[domain.Transaction](ctx, c, tableTransactions, "transaction", tx.ID, owned(tx.UserID, tx.ID), map[string]any{
		"amount":         tx.Amount,
		"description":    tx.Description,
		"merchant_name":  tx.MerchantName,
		"category_id":    nullable(tx.CategoryID),
		"type":           tx.Type,
		"payment_method": tx.PaymentMethod,
		"occurred_at":    tx.OccurredAt.UTC().Format(time.RFC3339),
		"verified":       tx.Verified,
		"source":         tx.Source,
	})
}

func (c *Client) DeleteTransaction(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	return deleteRows(ctx, c, tableTransactions, "transaction", id, owned(userID, id))
}

// nullable maps an empty foreign key to SQL NULL.
func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}

