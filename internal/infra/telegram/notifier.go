// Package telegram delivers notifications and runs the chat bot used
// for quick entry, receipt and voice capture, and on-demand summaries.
package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

var tracer = otel.Tracer("telegram")

// Sender is the part of *tele.Bot the notifier needs.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier sends HTML messages to a chat through the bot API.
type Notifier struct {
	sender  Sender
	cb      *gobreaker.CircuitBreaker
	cfg     resilience.Config
	timeout time.Duration
	logger  *zap.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(sender Sender, cb *gobreaker.CircuitBreaker, cfg resilience.Config, timeout time.Duration, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, cb: cb, cfg: cfg, timeout: timeout, logger: logger}
}

// SendMessage delivers text to chatID. Flood limits and server errors
// are retried; a blocked bot or unknown chat is not.
func (n *Notifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	ctx, span := tracer.Start(ctx, "Telegram.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat.id", chatID))

	err := resilience.Call(ctx, n.cb, n.cfg, "telegram", n.timeout, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := n.sender.Send(tele.ChatID(chatID), text, tele.ModeHTML, tele.NoPreview)
		return classify(err)
	})
	if err == nil {
		return nil
	}

	n.logger.Warn("telegram: send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	var (
		open *domain.ErrCircuitOpen
		to   *domain.ErrTimeout
	)
	if errors.As(err, &open) || errors.As(err, &to) {
		return err
	}
	return &domain.ErrExternalService{Service: "telegram", Err: err}
}

// classify marks client errors other than flood control as permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return err
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
		return &resilience.Permanent{Err: err}
	}
	return err
}
