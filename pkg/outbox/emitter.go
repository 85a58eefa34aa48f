package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/pubsub"
)

// Emitter queues events inside the caller's transaction, so an event exists if and
// only if the change it describes was committed.
type Emitter struct {
	repo *Repository
	logg *logger.Logger
}

func NewEmitter(repo *Repository, logg *logger.Logger) *Emitter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Emitter{repo: repo, logg: logg}
}

// Emit stores event for aggregateID (the order, product, ...).
func (e *Emitter) Emit(ctx context.Context, tx *gorm.DB, aggregateID uuid.UUID, event pubsub.Event) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event.Type, err)
	}

	row := &models.OutboxEvent{
		EventID:     event.ID,
		EventType:   event.Type,
		CompanyID:   event.CompanyID,
		AggregateID: aggregateID,
		Payload:     string(payload),
	}
	if err := e.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("queue %s: %w", event.Type, err)
	}

	ctx = e.logg.WithFields(ctx, map[string]any{
		"event_id":     event.ID.String(),
		"event_type":   event.Type,
		"aggregate_id": aggregateID.String(),
	})
	e.logg.Info(ctx, "outbox event queued")
	return nil
}

// Decode turns a stored row back into its envelope.
func Decode(row models.OutboxEvent) (pubsub.Event, error) {
	var event pubsub.Event
	if err := json.Unmarshal([]byte(row.Payload), &event); err != nil {
		return pubsub.Event{}, fmt.Errorf("decode outbox event %s: %w", row.ID, err)
	}
	return event, nil
}
