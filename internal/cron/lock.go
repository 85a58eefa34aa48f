package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/saborhub/saborhub-backend/pkg/instance"
)

const defaultLockTTL = 10 * time.Minute

// Lock keeps two cron workers from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease tagged with an owner token. The TTL frees the lock
// if its owner dies mid-cycle.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	token string
	held  bool
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{
		store: store,
		key:   key,
		ttl:   ttl,
		token: fmt.Sprintf("%s/%s", instance.GetID(), uuid.NewString()),
	}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.store.SetNX(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	l.held = ok
	return ok, nil
}

// Release deletes the key only while this lock's token is still stored. A lease
// that expired and was taken by another worker is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	l.held = false

	current, err := l.store.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read lock owner: %w", err)
	case current != l.token:
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
