package domain

import (
	"strings"
	"time"
)

// TxType classifies a transaction's effect on the user's balance.
type TxType string

const (
	TxExpense  TxType = "expense"
	TxIncome   TxType = "income"
	TxTransfer TxType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TxType) Valid() bool {
	switch t {
	case TxExpense, TxIncome, TxTransfer:
		return true
	}
	return false
}

// PaymentMethod is how a transaction was paid.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayDebit    PaymentMethod = "debit"
	PayCredit   PaymentMethod = "credit"
	PayEWallet  PaymentMethod = "ewallet"
	PayTransfer PaymentMethod = "transfer"
	PayOther    PaymentMethod = "other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayDebit, PayCredit, PayEWallet, PayTransfer, PayOther:
		return true
	}
	return false
}

// Transaction sources.
const (
	SourceManual   = "manual"
	SourceOCR      = "ocr"
	SourceVoice    = "voice"
	SourceTelegram = "telegram"
)

// Transaction is a single income, expense or transfer record.
// Amount is in minor currency units; the sign follows the caller's
// convention and aggregation always uses the absolute value with Type.
type Transaction struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Amount        int64         `json:"amount"`
	Description   string        `json:"description"`
	MerchantName  string        `json:"merchant_name,omitempty"`
	CategoryID    string        `json:"category_id,omitempty"`
	Type          TxType        `json:"type"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	OccurredAt    time.Time     `json:"occurred_at"`
	Verified      bool          `json:"verified"`
	Source        string        `json:"source,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// AbsAmount returns |Amount|.
func (t Transaction) AbsAmount() int64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// TransactionInput is the body for creating or updating a transaction.
type TransactionInput struct {
	Amount        int64         `json:"amount"`
	Description   string        `json:"description"`
	MerchantName  string        `json:"merchant_name,omitempty"`
	CategoryID    string        `json:"category_id,omitempty"`
	Type          TxType        `json:"type"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	OccurredAt    *time.Time    `json:"occurred_at,omitempty"`
	Verified      *bool         `json:"verified,omitempty"`
	Source        string        `json:"source,omitempty"`
}

// Validate checks the required fields of a transaction input.
func (in *TransactionInput) Validate() error {
	if in.Amount == 0 {
		return &ErrValidation{Field: "amount", Message: "must not be zero"}
	}
	if strings.TrimSpace(in.Description) == "" && strings.TrimSpace(in.MerchantName) == "" {
		return &ErrValidation{Field: "description", Message: "description or merchant_name is required"}
	}
	if !in.Type.Valid() {
		return &ErrValidation{Field: "type", Message: "must be one of expense, income, transfer"}
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = PayCash
	}
	if !in.PaymentMethod.Valid() {
		return &ErrValidation{Field: "payment_method", Message: "unknown payment method"}
	}
	return nil
}

// TransactionFilter narrows a transaction listing. From is inclusive,
// To is exclusive; zero values leave that side open. A zero Limit means
// no limit. Results are ordered newest first.
type TransactionFilter struct {
	From       time.Time
	To         time.Time
	Type       TxType
	CategoryID string
	Limit      int
	Offset     int
}
