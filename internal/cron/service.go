package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saborhub/saborhub-backend/pkg/logger"
	"github.com/saborhub/saborhub-backend/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.Jobs
	Interval time.Duration
}

// Service runs the registered maintenance jobs on a fixed cadence. Only the instance
// holding the lock runs a cycle.
type Service struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  *metrics.Jobs
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	}

	svc := &Service{
		logg:     params.Logger,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
		now:      time.Now,
	}
	if params.Registry != nil {
		svc.jobs = params.Registry.Jobs()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	return svc, nil
}

// Run executes a cycle right away and then once per interval until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "maintenance cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	if len(s.jobs) == 0 {
		return nil
	}
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !acquired {
		s.logg.Info(ctx, "another cron instance holds the lock; skipping this cycle")
		return nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	failed := 0
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		if err := s.runJob(ctx, job); err != nil {
			failed++
		}
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"jobs":   len(s.jobs),
		"failed": failed,
	}), "maintenance cycle finished")
	return nil
}

// runJob reports a failure but never aborts the cycle.
func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithField(ctx, "job", name)

	started := s.now()
	err := job.Run(jobCtx)
	elapsed := s.now().Sub(started)
	s.metrics.Observe(name, elapsed, err)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return err
	}
	s.logg.Debug(jobCtx, "job completed")
	return nil
}
