package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chaitanyaponnada/projecthub/internal/redisx"
)

type Store interface {
	// Get returns the user's cart, or a fresh empty cart when none is
	// stored.
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: redisx.TTLCart}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{UserID: userID, UpdatedAt: time.Now().UTC()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	key := fmt.Sprintf(redisx.KeyCart, c.UserID)
	if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}
