package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

type snapshotClient interface {
	Get(ctx context.Context, key string) (string, error)
	Update(ctx context.Context, key string, ttl time.Duration, fn redisclient.UpdateFunc) error
	Del(ctx context.Context, keys ...string) error
	CartKey(owner string) string
}

// RedisStore keeps each cart as a JSON blob under sf:cart:<owner>.
type RedisStore struct {
	client snapshotClient
	ttl    time.Duration
}

// NewRedisStore builds a redis-backed cart store.
func NewRedisStore(client snapshotClient, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, owner string) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(owner))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return newCart(owner), nil
		}
		return nil, err
	}
	return decodeCart(owner, raw)
}

func (s *RedisStore) Mutate(ctx context.Context, owner string, fn MutateFunc) (*Cart, error) {
	var result *Cart
	err := s.client.Update(ctx, s.client.CartKey(owner), s.ttl, func(current string, exists bool) (string, error) {
		c := newCart(owner)
		if exists {
			decoded, err := decodeCart(owner, current)
			if err != nil {
				return "", err
			}
			c = decoded
		}
		if err := fn(c); err != nil {
			return "", err
		}
		payload, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("encoding cart: %w", err)
		}
		result = c
		return string(payload), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RedisStore) Delete(ctx context.Context, owner string) error {
	return s.client.Del(ctx, s.client.CartKey(owner))
}

func decodeCart(owner, raw string) (*Cart, error) {
	c := newCart(owner)
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, fmt.Errorf("decoding cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	c.OwnerKey = owner
	return c, nil
}
