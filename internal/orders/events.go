package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

const orderEventVersion = 1

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	Version        int                  `json:"version"`
	EventID        string               `json:"eventId"`
	Type           enums.OrderEventType `json:"type"`
	OccurredAt     time.Time            `json:"occurredAt"`
	OrderID        uuid.UUID            `json:"orderId"`
	UserID         uuid.UUID            `json:"userId"`
	Status         enums.OrderStatus    `json:"status"`
	PreviousStatus *enums.OrderStatus   `json:"previousStatus,omitempty"`
	TotalCents     int64                `json:"totalCents"`
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }

type messageSender interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// PubSubPublisher sends order events as JSON messages to a single topic.
type PubSubPublisher struct {
	sender messageSender
	topic  string
}

// NewPubSubPublisher wraps a Pub/Sub client for the orders topic.
func NewPubSubPublisher(sender messageSender, topic string) (*PubSubPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("pubsub sender required")
	}
	if topic == "" {
		return nil, fmt.Errorf("orders topic required")
	}
	return &PubSubPublisher{sender: sender, topic: topic}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding order event: %w", err)
	}
	attrs := map[string]string{
		"event_type": event.Type.String(),
		"event_id":   event.EventID,
		"order_id":   event.OrderID.String(),
	}
	if _, err := p.sender.Publish(ctx, p.topic, data, attrs); err != nil {
		return fmt.Errorf("publishing %s: %w", event.Type, err)
	}
	return nil
}

func newOrderEvent(eventType enums.OrderEventType, orderID, userID uuid.UUID, status enums.OrderStatus, previous *enums.OrderStatus, totalCents int64, at time.Time) OrderEvent {
	return OrderEvent{
		Version:        orderEventVersion,
		EventID:        uuid.NewString(),
		Type:           eventType,
		OccurredAt:     at,
		OrderID:        orderID,
		UserID:         userID,
		Status:         status,
		PreviousStatus: previous,
		TotalCents:     totalCents,
	}
}
