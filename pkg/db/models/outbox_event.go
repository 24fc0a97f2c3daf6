package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxEvent is a domain event recorded in the same transaction as the rows
// it describes and relayed to Pub/Sub afterwards.
type OutboxEvent struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	EventType    string          `gorm:"column:event_type;type:text;not null"`
	AggregateID  uuid.UUID       `gorm:"column:aggregate_id;type:uuid;not null;index"`
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	AttemptCount int             `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string         `gorm:"column:last_error"`
	PublishedAt  *time.Time      `gorm:"column:published_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;not null"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
