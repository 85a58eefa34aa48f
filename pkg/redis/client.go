package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

var errNotInitialized = errors.New("redis client not initialized")

// cmdable is the slice of go-redis the helpers below use; tests swap in a fake.
type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	GetEx(context.Context, string, time.Duration) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client backs session carts, idempotency records, rate limit counters and the
// cron lock.
type Client struct {
	store cmdable
	raw   *redis.Client
}

type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore is what the idempotency middleware needs.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Set(context.Context, string, any, time.Duration) error
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// New dials redis and fails fast when the server does not answer PING.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_db", opts.DB), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig starts from the URL when present, else from Address. Explicit
// config values fill whatever the URL left unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address}
	default:
		return nil, errors.New("redis url or address is required")
	}

	opts.Password = orDefault(opts.Password, cfg.Password)
	opts.DB = orDefault(opts.DB, cfg.DB)
	opts.PoolSize = orDefault(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = orDefault(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = orDefault(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = orDefault(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = orDefault(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func orDefault[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}

// IsNil reports whether err means the key does not exist.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) ready() error {
	if c == nil || c.store == nil {
		return errNotInitialized
	}
	return nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	return c.store.Get(ctx, key).Result()
}

// GetTouch returns the value at key and pushes its expiry out by ttl.
func (c *Client) GetTouch(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	return c.store.GetEx(ctx, key, ttl).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// IncrWithTTL increments key and arms its expiry on the first hit of a window.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil || count != 1 || ttl <= 0 {
		return count, err
	}
	return count, c.store.Expire(ctx, key, ttl).Err()
}

// FixedWindowAllow counts a hit against scope and reports whether it fits in limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	count, err := c.IncrWithTTL(ctx, c.RateLimitKey(scope), window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.store.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
