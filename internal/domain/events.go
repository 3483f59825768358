package domain

import (
	"context"
	"time"
)

const (
	EventOrderCreated            = "order_created"
	EventOrderSubmitted          = "order_submitted"
	EventOrderFailed             = "order_failed"
	EventOrderCompleted          = "order_completed"
	EventEarnBroadcastSubmitted  = "earn_transaction_broadcast_submitted"
	EventSpendBroadcastSubmitted = "spend_transaction_broadcast_submitted"
)

// OrderEvent is the analytics record emitted on lifecycle changes.
// Publishing is fire-and-forget and must never fail the primary operation.
type OrderEvent struct {
	Type     string      `json:"type"`
	OrderID  string      `json:"order_id"`
	OfferID  string      `json:"offer_id"`
	UserID   string      `json:"user_id,omitempty"`
	DeviceID string      `json:"device_id,omitempty"`
	AppID    string      `json:"app_id,omitempty"`
	Origin   OrderOrigin `json:"origin"`
	FlowType string      `json:"flow_type"`
	Amount   int64       `json:"amount"`
	Status   OrderStatus `json:"status"`
	Time     time.Time   `json:"time"`
}

type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}
