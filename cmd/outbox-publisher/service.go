package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/outbox"
	"github.com/saborhub/saborhub-backend/pkg/pubsub"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchPendingTx(tx *gorm.DB, limit int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID, at time.Time) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error
	MarkDeadTx(tx *gorm.DB, id uuid.UUID, cause error, at time.Time) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event pubsub.Event) error
}

type ServiceParams struct {
	Config     config.OutboxConfig
	Logger     *logger.Logger
	DB         dbClient
	Repository outboxRepository
	Publisher  eventPublisher
	Now        func() time.Time
}

// Service drains the outbox table into Pub/Sub. Rows are published oldest first and
// marked in the same transaction that locked them.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	publisher    eventPublisher
	now          func() time.Time
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("event publisher is required")
	}

	batch := params.Config.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	poll := params.Config.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		publisher:    params.Publisher,
		now:          now,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: poll,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	backoff := s.pollInterval
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}
		backoff = s.pollInterval

		if processed > 0 {
			continue
		}
		if err := s.sleep(ctx, withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

// processBatch publishes one batch and reports how many rows it touched.
func (s *Service) processBatch(ctx context.Context) (int, error) {
	processed := 0
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.FetchPendingTx(tx, s.batchSize)
		if err != nil {
			return fmt.Errorf("fetch pending: %w", err)
		}
		processed = len(rows)

		for _, row := range rows {
			fields := eventFields(row)

			event, err := outbox.Decode(row)
			if err != nil {
				s.logg.Warn(s.logg.WithFields(ctx, withError(fields, err)), "outbox event undecodable, parking")
				if markErr := s.repo.MarkDeadTx(tx, row.ID, err, s.now()); markErr != nil {
					return fmt.Errorf("mark dead %s: %w", row.ID, markErr)
				}
				continue
			}

			if err := s.publish(ctx, event); err != nil {
				attempt := row.Attempts + 1
				fields["attempt_count"] = attempt
				if attempt >= s.maxAttempts {
					s.logg.Warn(s.logg.WithFields(ctx, withError(fields, err)), "outbox event reached max attempts, parking")
					if markErr := s.repo.MarkDeadTx(tx, row.ID, err, s.now()); markErr != nil {
						return fmt.Errorf("mark dead %s: %w", row.ID, markErr)
					}
					continue
				}
				s.logg.Warn(s.logg.WithFields(ctx, withError(fields, err)), "outbox publish failed")
				if markErr := s.repo.MarkFailedTx(tx, row.ID, err); markErr != nil {
					return fmt.Errorf("mark failure %s: %w", row.ID, markErr)
				}
				continue
			}

			if markErr := s.repo.MarkPublishedTx(tx, row.ID, s.now()); markErr != nil {
				return fmt.Errorf("mark published %s: %w", row.ID, markErr)
			}
			s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		}
		return nil
	})
	return processed, err
}

func (s *Service) publish(ctx context.Context, event pubsub.Event) error {
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	return s.publisher.Publish(publishCtx, event)
}

func eventFields(row models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_id":      row.EventID.String(),
		"event_type":    row.EventType,
		"company_id":    row.CompanyID.String(),
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.Attempts,
	}
	if row.LastError != nil {
		fields["last_error"] = *row.LastError
	}
	return fields
}

func withError(fields map[string]any, err error) map[string]any {
	fields["error"] = err.Error()
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
