package domain

import "time"

// ============================================================
// AI collaborators: categorization and extraction
// ============================================================

// CategorySuggestion is what a categorizer proposes for a transaction.
type CategorySuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Source     string  `json:"source"` // ai, rules, fallback
}

// Extraction is the best-effort result of reading a receipt, voice note
// or free text. Every field may be empty; Amount is zero when unknown.
type Extraction struct {
	Amount       int64      `json:"amount"`
	MerchantName string     `json:"merchant_name,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
	Description  string     `json:"description,omitempty"`
	Type         TxType     `json:"type,omitempty"`
	Transcript   string     `json:"transcript,omitempty"`
}

// MediaKind tells the extractor what the payload is.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaText  MediaKind = "text"
)

// Media is an uploaded receipt image, voice note or chat text.
type Media struct {
	Kind     MediaKind
	MimeType string
	Filename string
	Data     []byte
	Text     string
}

// Draft is an extracted transaction waiting for the user to confirm it.
// Drafts live in the cache only; nothing is persisted before ConfirmDraft.
type Draft struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	Source     string             `json:"source"`
	Extraction Extraction         `json:"extraction"`
	Suggestion CategorySuggestion `json:"suggestion"`
	CategoryID string             `json:"category_id,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ConfirmDraftRequest lets the user correct a draft before saving it.
type ConfirmDraftRequest struct {
	Amount        *int64        `json:"amount,omitempty"`
	MerchantName  *string       `json:"merchant_name,omitempty"`
	Description   *string       `json:"description,omitempty"`
	CategoryID    *string       `json:"category_id,omitempty"`
	Type          TxType        `json:"type,omitempty"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	OccurredAt    *time.Time    `json:"occurred_at,omitempty"`
}
