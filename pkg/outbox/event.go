package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Event is a domain event queued for relay. ID doubles as the message id seen
// by subscribers; a zero ID is replaced on insert.
type Event struct {
	ID          uuid.UUID
	Type        string
	AggregateID uuid.UUID
	Payload     any
}

// Attributes returns the Pub/Sub attributes attached to a relayed row.
func Attributes(row models.OutboxEvent) map[string]string {
	return map[string]string{
		"event_id":     row.ID.String(),
		"event_type":   row.EventType,
		"aggregate_id": row.AggregateID.String(),
		"created_at":   row.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
