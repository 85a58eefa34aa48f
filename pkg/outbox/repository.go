package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saborhub/saborhub-backend/pkg/db/models"
)

const maxErrorLen = 1024

var errTxRequired = errors.New("transaction required")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event *models.OutboxEvent) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Create(event).Error
}

// FetchPendingTx returns the oldest events that are neither published nor dead. On
// Postgres the rows are locked with SKIP LOCKED so several publishers can share the table.
func (r *Repository) FetchPendingTx(tx *gorm.DB, limit int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errTxRequired
	}
	q := tx.Where("published_at IS NULL AND dead_at IS NULL").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	var rows []models.OutboxEvent
	err := q.Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"published_at": at}).Error
}

func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    truncate(cause.Error()),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkDeadTx parks an event that will never be retried.
func (r *Repository) MarkDeadTx(tx *gorm.DB, id uuid.UUID, cause error, at time.Time) error {
	if tx == nil {
		return errTxRequired
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    truncate(cause.Error()),
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"dead_at":       at,
		}).Error
}

// ListDead returns parked events, newest first, for inspection.
func (r *Repository) ListDead(limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.OutboxEvent
	err := r.db.Where("dead_at IS NOT NULL").
		Order("dead_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// DeletePublishedBefore purges published events older than cutoff. Dead events are
// kept until someone looks at them.
func (r *Repository) DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		return 0, errTxRequired
	}
	res := tx.Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func truncate(message string) string {
	if len(message) <= maxErrorLen {
		return message
	}
	return message[:maxErrorLen]
}
