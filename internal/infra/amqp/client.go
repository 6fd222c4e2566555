// Package amqp queues outbound chat messages on RabbitMQ so broadcasts
// survive restarts and are delivered by a separate worker.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("amqp")

const publishTimeout = 5 * time.Second

// Client publishes to and consumes from one durable queue bound to a
// direct exchange.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *zap.Logger
}

// NewClient dials url and declares the exchange and queue.
func NewClient(url, exchangeName, queueName string, logger *zap.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}
	if err := c.setup(); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// The routing key is the queue name.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Publish queues msg as a persistent JSON message. It implements
// port.Broadcaster.
func (c *Client) Publish(ctx context.Context, msg domain.OutboundMessage) error {
	ctx, span := tracer.Start(ctx, "AMQP.Publish")
	defer span.End()
	span.SetAttributes(attribute.String("message.kind", msg.Kind))

	body, err := Encode(&msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.QueuedAt,
		Body:         body,
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "amqp", Err: err}
	}

	c.logger.Debug("amqp: message queued",
		zap.String("id", msg.ID),
		zap.String("kind", msg.Kind),
		zap.String("user_id", msg.UserID),
	)
	return nil
}

// Handler delivers one queued message.
type Handler func(ctx context.Context, msg domain.OutboundMessage) error

// Consume delivers queued messages to handle until ctx is done. prefetch
// bounds unacknowledged deliveries in flight.
func (c *Client) Consume(ctx context.Context, prefetch int, handle Handler) error {
	if prefetch > 0 {
		if err := c.channel.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}

	deliveries, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.logger.Info("amqp: consuming", zap.String("queue", c.queueName))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("amqp: stopping consumer", zap.Error(ctx.Err()))
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.process(ctx, d, handle)
		}
	}
}

func (c *Client) process(ctx context.Context, d amqp091.Delivery, handle Handler) {
	msg, err := Decode(d.Body)
	if err != nil {
		c.logger.Error("amqp: undecodable message dropped", zap.Error(err))
		d.Nack(false, false)
		return
	}

	err = handle(ctx, *msg)
	switch Settle(err, d.Redelivered) {
	case Ack:
		d.Ack(false)
	case Requeue:
		c.logger.Warn("amqp: delivery failed, requeueing", zap.String("id", msg.ID), zap.Error(err))
		d.Nack(false, true)
	case Drop:
		c.logger.Error("amqp: delivery failed, dropping", zap.String("id", msg.ID), zap.Error(err))
		d.Nack(false, false)
	}
}

// Close closes the channel and connection.
func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// ============================================================
// Message codec and settlement
// ============================================================

// Encode marshals msg, filling in its id and queue time when missing.
func Encode(msg *domain.OutboundMessage) ([]byte, error) {
	if msg.ChatID == 0 {
		return nil, &domain.ErrValidation{Field: "chat_id", Message: "required"}
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.QueuedAt.IsZero() {
		msg.QueuedAt = time.Now().UTC()
	}
	return json.Marshal(msg)
}

// Decode unmarshals and checks a queued message.
func Decode(body []byte) (*domain.OutboundMessage, error) {
	var msg domain.OutboundMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if msg.ChatID == 0 || msg.Text == "" {
		return nil, errors.New("decode message: chat_id and text are required")
	}
	return &msg, nil
}

// Outcome is what happens to a delivery after handling.
type Outcome int

const (
	Ack Outcome = iota
	Requeue
	Drop
)

// Settle decides a delivery's fate. Caller errors are dropped at once;
// other failures get one redelivery.
func Settle(err error, redelivered bool) Outcome {
	if err == nil {
		return Ack
	}
	if domain.IsCallerError(err) || redelivered {
		return Drop
	}
	return Requeue
}
