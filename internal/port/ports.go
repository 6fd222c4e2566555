// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

// Categorizer proposes a category for a transaction. candidates are the
// category names the user already has.
type Categorizer interface {
	Categorize(ctx context.Context, merchantName, description string, candidates []string) (*domain.CategorySuggestion, error)
}

// Extractor reads transaction fields out of a receipt image, a voice
// note or free text. Results are best-effort and always need user
// confirmation.
type Extractor interface {
	Extract(ctx context.Context, media domain.Media) (*domain.Extraction, error)
}

// Notifier delivers a text message to one chat recipient.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Broadcaster hands a message off for delivery, either directly or
// through a queue.
type Broadcaster interface {
	Publish(ctx context.Context, msg domain.OutboundMessage) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
