package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
)

// Event is the envelope every domain event is published in.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	CompanyID  uuid.UUID       `json:"company_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent marshals data into an envelope stamped with a fresh id.
func NewEvent(eventType string, companyID uuid.UUID, occurredAt time.Time, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		CompanyID:  companyID,
		OccurredAt: occurredAt.UTC(),
		Data:       raw,
	}, nil
}

// Message builds the Pub/Sub message. Ordering by company keeps one restaurant's
// events in sequence for consumers that enable ordering.
func (e Event) Message() (*pubsub.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}
	return &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":   e.ID.String(),
			"event_type": e.Type,
			"company_id": e.CompanyID.String(),
		},
		OrderingKey: e.CompanyID.String(),
	}, nil
}

// EventPublisher sends envelopes to one topic and waits for the server ack.
type EventPublisher struct {
	publisher *pubsub.Publisher
}

func NewEventPublisher(publisher *pubsub.Publisher) *EventPublisher {
	if publisher != nil {
		publisher.EnableMessageOrdering = true
	}
	return &EventPublisher{publisher: publisher}
}

func (p *EventPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.publisher == nil {
		return fmt.Errorf("publisher not configured")
	}
	msg, err := event.Message()
	if err != nil {
		return err
	}
	if _, err := p.publisher.Publish(ctx, msg).Get(ctx); err != nil {
		p.publisher.ResumePublish(msg.OrderingKey)
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Stop flushes pending messages.
func (p *EventPublisher) Stop() {
	if p != nil && p.publisher != nil {
		p.publisher.Stop()
	}
}
