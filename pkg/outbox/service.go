package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Service writes events into the outbox inside the caller's transaction.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("outbox repository required")
	}
	return &Service{repo: repo, logg: logg, now: time.Now}, nil
}

// Enqueue records event using tx. The row becomes visible to the relay only
// when tx commits.
func (s *Service) Enqueue(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errTxRequired
	}
	if strings.TrimSpace(event.Type) == "" {
		return errors.New("event type required")
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", event.Type, err)
	}
	row := &models.OutboxEvent{
		ID:          event.ID,
		EventType:   event.Type,
		AggregateID: event.AggregateID,
		Payload:     json.RawMessage(payload),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.InsertTx(tx.WithContext(ctx), row); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"outbox_id":    row.ID.String(),
			"event_type":   row.EventType,
			"aggregate_id": row.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}
