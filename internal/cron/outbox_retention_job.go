package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
	ListDead(limit int) ([]models.OutboxEvent, error)
}

// deadSample caps how many parked events one run reports.
const deadSample = 20

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	Retention  time.Duration
}

// NewOutboxRetentionJob returns nil, nil when retention is not positive, which leaves
// published events in place forever.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Retention <= 0 {
		return nil, nil
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: params.Retention,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      outboxRetentionRepo
	retention time.Duration
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(tx, cutoff)
		deleted = rows
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(ctx, "outbox retention cleanup complete")
	j.reportDead(ctx)
	return nil
}

// reportDead surfaces parked events, which retention never deletes. A failed lookup
// does not fail the job.
func (j *outboxRetentionJob) reportDead(ctx context.Context) {
	dead, err := j.repo.ListDead(deadSample)
	if err != nil {
		j.logg.Error(ctx, "listing dead outbox events", err)
		return
	}
	if len(dead) == 0 {
		return
	}
	ids := make([]string, 0, len(dead))
	for _, row := range dead {
		ids = append(ids, row.ID.String())
	}
	j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
		"dead_events": len(dead),
		"dead_ids":    ids,
	}), "outbox has dead events awaiting inspection")
}
