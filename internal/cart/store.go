package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saborhub/saborhub-backend/internal/pricing"
	pkgredis "github.com/saborhub/saborhub-backend/pkg/redis"
)

// State is everything persisted for one session cart.
type State struct {
	Cart      pricing.Cart          `json:"cart"`
	Delivery  *pricing.DeliveryInfo `json:"delivery,omitempty"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Store persists session carts. Load returns a zero State when nothing is stored.
type Store interface {
	Load(ctx context.Context, companyID uuid.UUID, sessionID string) (State, error)
	Save(ctx context.Context, companyID uuid.UUID, sessionID string, state State) error
	Delete(ctx context.Context, companyID uuid.UUID, sessionID string) error
}

type redisClient interface {
	GetTouch(ctx context.Context, key string, ttl time.Duration) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(companyID, sessionID string) string
}

// RedisStore keeps each cart as a JSON document with a sliding TTL: every read or
// write pushes the expiry out again.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

func NewRedisStore(client redisClient, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, companyID uuid.UUID, sessionID string) (State, error) {
	raw, err := s.client.GetTouch(ctx, s.client.CartKey(companyID.String(), sessionID), s.ttl)
	if err != nil {
		if pkgredis.IsNil(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("load cart: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("decode cart: %w", err)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, companyID uuid.UUID, sessionID string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(companyID.String(), sessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, companyID uuid.UUID, sessionID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(companyID.String(), sessionID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
