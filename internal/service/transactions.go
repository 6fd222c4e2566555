package service

import (
	"context"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// TransactionService records and edits transactions.
type TransactionService struct {
	store       port.TransactionStore
	categories  port.CategoryStore
	categorizer *CategorizationService
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(
	store port.TransactionStore,
	categories port.CategoryStore,
	categorizer *CategorizationService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		store:       store,
		categories:  categories,
		categorizer: categorizer,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *TransactionService) List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be one of expense, income, transfer"}
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return nil, &domain.ErrValidation{Field: "from", Message: "must be before to"}
	}
	return s.store.ListTransactions(ctx, userID, f)
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Get")
	defer span.End()

	return s.store.GetTransaction(ctx, userID, id)
}

// Create stores a new transaction. Without a category it is categorized
// automatically; categorizer trouble degrades to "Other".
func (s *TransactionService) Create(ctx context.Context, userID string, in *domain.TransactionInput) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transaction_create", time.Since(start)) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{UserID: userID, CreatedAt: time.Now().UTC()}
	applyInput(tx, in)
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = time.Now().UTC()
	}
	if in.Verified == nil {
		tx.Verified = tx.Source == domain.SourceManual
	}

	if tx.CategoryID != "" {
		if err := s.checkCategory(ctx, userID, tx.CategoryID); err != nil {
			return nil, err
		}
	} else if s.categorizer != nil {
		id, sug, err := s.categorizer.Resolve(ctx, userID, tx.Type, tx.MerchantName, tx.Description)
		if err != nil {
			return nil, err
		}
		tx.CategoryID = id
		span.SetAttributes(attribute.String("category.source", sug.Source))
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		s.logger.Error("failed to create transaction", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id string, in *domain.TransactionInput) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Update")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != "" && in.CategoryID != tx.CategoryID {
		if err := s.checkCategory(ctx, userID, in.CategoryID); err != nil {
			return nil, err
		}
	}

	categoryID := tx.CategoryID
	applyInput(tx, in)
	if tx.CategoryID == "" {
		tx.CategoryID = categoryID
	}
	return s.store.UpdateTransaction(ctx, tx)
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "TransactionService.Delete")
	defer span.End()

	return s.store.DeleteTransaction(ctx, userID, id)
}

// Verify marks an OCR/voice/chat transaction as checked by the user.
func (s *TransactionService) Verify(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionService.Verify")
	defer span.End()

	tx, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if tx.Verified {
		return tx, nil
	}
	tx.Verified = true
	return s.store.UpdateTransaction(ctx, tx)
}

func (s *TransactionService) checkCategory(ctx context.Context, userID, categoryID string) error {
	if _, err := s.categories.GetCategory(ctx, userID, categoryID); err != nil {
		if isNotFound(err) {
			return &domain.ErrValidation{Field: "category_id", Message: "unknown category"}
		}
		return err
	}
	return nil
}

// applyInput copies in onto tx. Amounts are stored signed: expenses
// negative, income positive, transfers as given.
func applyInput(tx *domain.Transaction, in *domain.TransactionInput) {
	tx.Amount = signedAmount(in.Type, in.Amount)
	tx.Description = in.Description
	tx.MerchantName = in.MerchantName
	tx.CategoryID = in.CategoryID
	tx.Type = in.Type
	tx.PaymentMethod = in.PaymentMethod
	if in.OccurredAt != nil {
		tx.OccurredAt = in.OccurredAt.UTC()
	}
	if in.Verified != nil {
		tx.Verified = *in.Verified
	}
	if in.Source != "" {
		tx.Source = in.Source
	}
	if tx.Source == "" {
		tx.Source = domain.SourceManual
	}
}

func signedAmount(t domain.TxType, amount int64) int64 {
	abs := amount
	if abs < 0 {
		abs = -abs
	}
	switch t {
	case domain.TxExpense:
		return -abs
	case domain.TxIncome:
		return abs
	}
	return amount
}
