package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/pkg/instance"
)

const (
	defaultLockTTL  = 5 * time.Second
	defaultLockWait = 2 * time.Second
	lockPoll        = 25 * time.Millisecond
)

// ErrSessionBusy is returned when another request kept the session lease for the
// whole wait.
var ErrSessionBusy = errors.New("cart session is busy")

// SessionLocker serializes load-modify-save cycles on one session cart. The
// returned unlock is safe to call once the caller is done writing.
type SessionLocker interface {
	Lock(ctx context.Context, companyID uuid.UUID, sessionID string) (unlock func(), err error)
}

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartLockKey(companyID, sessionID string) string
}

// RedisLocker holds a short SETNX lease per session. The TTL frees a session whose
// holder died between load and save.
type RedisLocker struct {
	store leaseStore
	ttl   time.Duration
	wait  time.Duration
	poll  time.Duration
}

func NewRedisLocker(store leaseStore, ttl, wait time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis client required for session lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisLocker{store: store, ttl: ttl, wait: wait, poll: lockPoll}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, companyID uuid.UUID, sessionID string) (func(), error) {
	key := l.store.CartLockKey(companyID.String(), sessionID)
	token := fmt.Sprintf("%s/%s", instance.GetID(), uuid.NewString())
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.store.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("setnx %s: %w", key, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrSessionBusy
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// release drops the lease only while it still carries token. It runs on a fresh
// context so a canceled request does not leave the session locked until the TTL.
func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	current, err := l.store.Get(ctx, key)
	if err != nil || current != token {
		return
	}
	_ = l.store.Del(ctx, key)
}
