package service

import (
	"context"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.uber.org/zap"
)

// Dispatcher delivers outbound messages straight through a Notifier.
// It is the in-process Broadcaster when no queue is configured, and the
// handler the queue consumer calls for each message.
type Dispatcher struct {
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over notifier.
func NewDispatcher(notifier port.Notifier, metrics *observability.Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, metrics: metrics, logger: logger}
}

// Publish sends msg now. Delivery failures are counted, logged and
// returned so the caller can tally them.
func (d *Dispatcher) Publish(ctx context.Context, msg domain.OutboundMessage) error {
	ctx, span := tracer.Start(ctx, "Dispatcher.Publish")
	defer span.End()

	if msg.ChatID == 0 {
		return &domain.ErrValidation{Field: "chat_id", Message: "required"}
	}
	if err := d.notifier.SendMessage(ctx, msg.ChatID, msg.Text); err != nil {
		d.metrics.IncrNotification("failed")
		d.metrics.IncrExternalError("telegram")
		d.logger.Warn("notification delivery failed",
			zap.String("user_id", msg.UserID),
			zap.String("kind", msg.Kind),
			zap.Error(err),
		)
		return err
	}
	d.metrics.IncrNotification("sent")
	return nil
}
