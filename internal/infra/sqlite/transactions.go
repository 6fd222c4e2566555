package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const transactionColumns = `id, user_id, amount, description, merchant_name, category_id, type,
	payment_method, occurred_at, verified, source, created_at`

func scanTransaction(r rowScanner) (domain.Transaction, error) {
	var (
		t                   domain.Transaction
		categoryID          sql.NullString
		occurredAt, created string
	)
	err := r.Scan(&t.ID, &t.UserID, &t.Amount, &t.Description, &t.MerchantName, &categoryID,
		&t.Type, &t.PaymentMethod, &occurredAt, &t.Verified, &t.Source, &created)
	if err != nil {
		return t, err
	}
	t.CategoryID = categoryID.String
	if t.OccurredAt, err = parseTime(occurredAt); err != nil {
		return t, err
	}
	t.CreatedAt, err = parseTime(created)
	return t, err
}

func (s *Store) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if !f.From.IsZero() {
		where = append(where, "occurred_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "occurred_at < ?")
		args = append(args, formatTime(f.To))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}

	query := "SELECT " + transactionColumns + " FROM transactions WHERE " + strings.Join(where, " AND ") +
		" ORDER BY occurred_at DESC, created_at DESC"
	switch {
	case f.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	case f.Offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, "list transactions", "transaction", "")
	}
	defer rows.Close()

	out := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, mapErr(err, "scan transaction", "transaction", "")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "list transactions", "transaction", "")
	}
	span.SetAttributes(attribute.Int("rows", len(out)))
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetTransaction")
	defer span.End()

	row := s.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, mapErr(err, "get transaction", "transaction", id)
	}
	return &t, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateTransaction")
	defer span.End()

	t := *tx
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, t.Amount, t.Description, t.MerchantName, nullString(t.CategoryID), string(t.Type),
		string(t.PaymentMethod), formatTime(t.OccurredAt), t.Verified, t.Source, formatTime(t.CreatedAt))
	if err != nil {
		return nil, mapErr(err, "create transaction", "transaction", t.ID)
	}
	return &t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateTransaction")
	defer span.End()

	err := s.execOwned(ctx, "update transaction", "transaction", tx.ID,
		`UPDATE transactions SET amount = ?, description = ?, merchant_name = ?, category_id = ?, type = ?,
			payment_method = ?, occurred_at = ?, verified = ?, source = ?
		WHERE id = ? AND user_id = ?`,
		tx.Amount, tx.Description, tx.MerchantName, nullString(tx.CategoryID), string(tx.Type),
		string(tx.PaymentMethod), formatTime(tx.OccurredAt), tx.Verified, tx.Source, tx.ID, tx.UserID)
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(ctx, tx.UserID, tx.ID)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteTransaction")
	defer span.End()

	return s.execOwned(ctx, "delete transaction", "transaction", id,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
}
