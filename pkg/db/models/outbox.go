package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxEvent is a domain event written in the same transaction as the change it
// describes and later drained to Pub/Sub. Payload holds the full event envelope.
type OutboxEvent struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	EventID     uuid.UUID  `gorm:"column:event_id;type:uuid;not null;uniqueIndex:idx_outbox_events_event_id"`
	EventType   string     `gorm:"column:event_type;not null"`
	CompanyID   uuid.UUID  `gorm:"column:company_id;type:uuid;not null"`
	AggregateID uuid.UUID  `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload     string     `gorm:"column:payload;type:jsonb;not null"`
	Attempts    int        `gorm:"column:attempt_count;not null;default:0"`
	LastError   *string    `gorm:"column:last_error"`
	PublishedAt *time.Time `gorm:"column:published_at;index:idx_outbox_events_pending,priority:1"`
	DeadAt      *time.Time `gorm:"column:dead_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index:idx_outbox_events_pending,priority:2"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
