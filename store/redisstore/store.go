// Package redisstore provides a Redis-backed idempotency store.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fxsml/mediator/behavior"
)

// DefaultPrefix is the key prefix used when Config.Prefix is empty.
const DefaultPrefix = "mediator:idempotency:"

// Config configures a Store.
type Config struct {
	// Prefix is prepended to every key. Defaults to DefaultPrefix.
	Prefix string
}

// Store claims idempotency keys with SET NX.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// New creates a Store using client.
func New(client redis.UniversalClient, cfg Config) *Store {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: cfg.Prefix}
}

// Dial connects to the Redis server at addr and verifies the connection.
func Dial(ctx context.Context, addr string, cfg Config) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, cfg), nil
}

// Claim implements behavior.IdempotencyStore.
func (s *Store) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Release implements behavior.IdempotencyStore.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ behavior.IdempotencyStore = (*Store)(nil)
