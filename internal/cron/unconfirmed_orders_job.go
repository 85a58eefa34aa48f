package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/saborhub/saborhub-backend/pkg/logger"
)

type orderExpirer interface {
	ExpireUnconfirmed(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type UnconfirmedOrdersJobParams struct {
	Logger    *logger.Logger
	Orders    orderExpirer
	TTL       time.Duration
	BatchSize int
}

// NewUnconfirmedOrdersJob cancels PIX orders whose payment was not confirmed within
// TTL. A non-positive TTL disables the job (nil, nil).
func NewUnconfirmedOrdersJob(params UnconfirmedOrdersJobParams) (Job, error) {
	if params.TTL <= 0 {
		return nil, nil
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &unconfirmedOrdersJob{
		logg:  params.Logger,
		svc:   params.Orders,
		ttl:   params.TTL,
		batch: params.BatchSize,
		now:   time.Now,
	}, nil
}

type unconfirmedOrdersJob struct {
	logg  *logger.Logger
	svc   orderExpirer
	ttl   time.Duration
	batch int
	now   func() time.Time
}

func (j *unconfirmedOrdersJob) Name() string { return "unconfirmed-orders" }

func (j *unconfirmedOrdersJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.svc.ExpireUnconfirmed(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("expire unconfirmed orders after %d: %w", expired, err)
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"cutoff":         cutoff,
			"orders_expired": expired,
		}), "unconfirmed orders canceled")
	}
	return nil
}
