package domain

import "time"

// Message kinds carried through the broadcast queue.
const (
	MessageSubscriptions = "subscriptions"
	MessageSummary       = "summary"
	MessageBillReminder  = "bill_reminder"
)

// OutboundMessage is one chat message queued for delivery.
type OutboundMessage struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	ChatID   int64     `json:"chat_id"`
	Kind     string    `json:"kind"`
	Text     string    `json:"text"`
	QueuedAt time.Time `json:"queued_at"`
}
