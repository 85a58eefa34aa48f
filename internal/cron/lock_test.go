package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryLockStore struct {
	values map[string]string
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryLockStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestRedisLockExcludesSecondOwner(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	ctx := context.Background()

	first, err := NewRedisLock(store, "sh:cron:lock:test", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "sh:cron:lock:test", 0)

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second owner must not acquire")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if _, held := store.values["sh:cron:lock:test"]; !held {
		t.Fatal("non-owner release must not free the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("lock should be free after owner release")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected missing client error")
	}
	if _, err := NewRedisLock(&memoryLockStore{}, "", 0); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestRedisLockLeavesExpiredLeaseToNewOwner(t *testing.T) {
	store := &memoryLockStore{values: map[string]string{}}
	ctx := context.Background()
	lock, err := NewRedisLock(store, "sh:cron:lock:test", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}

	// lease expired and another worker took it
	store.values["sh:cron:lock:test"] = "other-worker"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["sh:cron:lock:test"] != "other-worker" {
		t.Fatal("release must not delete another owner's lease")
	}
}
