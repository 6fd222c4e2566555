package service

import (
	"context"
	"sort"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.uber.org/zap"
)

// BillService manages declared bills and their due dates.
type BillService struct {
	store  port.BillStore
	txns   port.TransactionStore
	logger *zap.Logger
}

// NewBillService creates a new bill service. txns is used when paying a
// bill should also record the expense.
func NewBillService(store port.BillStore, txns port.TransactionStore, logger *zap.Logger) *BillService {
	return &BillService{store: store, txns: txns, logger: logger}
}

func (s *BillService) List(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "BillService.List")
	defer span.End()

	return s.store.ListBills(ctx, userID)
}

func (s *BillService) Create(ctx context.Context, userID string, b *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "BillService.Create")
	defer span.End()

	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.ID = ""
	b.UserID = userID
	return s.store.CreateBill(ctx, b)
}

func (s *BillService) Update(ctx context.Context, userID, id string, b *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "BillService.Update")
	defer span.End()

	if err := b.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetBill(ctx, userID, id); err != nil {
		return nil, err
	}
	b.ID, b.UserID = id, userID
	return s.store.UpdateBill(ctx, b)
}

func (s *BillService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "BillService.Delete")
	defer span.End()

	return s.store.DeleteBill(ctx, userID, id)
}

// MarkPaid settles the current period of a bill. Repeating bills roll
// forward to their next due date; one-off bills stay paid. With record
// set, an expense transaction is stored as well.
func (s *BillService) MarkPaid(ctx context.Context, userID, id string, record bool, now time.Time) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "BillService.MarkPaid")
	defer span.End()

	b, err := s.store.GetBill(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if b.IsPaid {
		return nil, &domain.ErrConflict{Message: "bill already paid"}
	}

	paidAt := now.UTC()
	b.LastPaidAt = &paidAt
	if b.Frequency == domain.BillOnce {
		b.IsPaid = true
	} else {
		b.DueDate = b.NextDueDate()
	}

	if record && s.txns != nil {
		if _, err := s.txns.CreateTransaction(ctx, &domain.Transaction{
			UserID:        userID,
			Amount:        -b.Amount,
			Description:   b.Name,
			MerchantName:  b.Name,
			CategoryID:    b.CategoryID,
			Type:          domain.TxExpense,
			PaymentMethod: domain.PayTransfer,
			OccurredAt:    paidAt,
			Verified:      true,
			Source:        domain.SourceManual,
			CreatedAt:     paidAt,
		}); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateBill(ctx, b)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bill paid",
		zap.String("user_id", userID),
		zap.String("bill_id", id),
		zap.Time("next_due", updated.DueDate),
	)
	return updated, nil
}

// Upcoming returns unpaid bills due within days of now, overdue ones
// included, earliest first.
func (s *BillService) Upcoming(ctx context.Context, userID string, days int, now time.Time) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "BillService.Upcoming")
	defer span.End()

	if days < 0 {
		return nil, &domain.ErrValidation{Field: "days", Message: "must not be negative"}
	}
	bills, err := s.store.ListBills(ctx, userID)
	if err != nil {
		return nil, err
	}

	horizon := now.AddDate(0, 0, days)
	out := []domain.Bill{}
	for _, b := range bills {
		if !b.IsPaid && !b.DueDate.After(horizon) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}
