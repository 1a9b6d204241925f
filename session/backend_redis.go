package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the blob under a single Redis key, letting several
// dashboard processes on one host share a session.
type RedisBackend struct {
	redis  redis.UniversalClient
	prefix string
	name   string
	ttl    time.Duration
}

// NewRedisBackend creates a backend storing the record at "prefix:name".
// A zero ttl keeps the record until it is cleared.
func NewRedisBackend(client redis.UniversalClient, prefix, name string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "gs"
	}
	return &RedisBackend{
		redis:  client,
		prefix: prefix,
		name:   name,
		ttl:    ttl,
	}
}

func (b *RedisBackend) key() string {
	return b.prefix + ":" + b.name
}

func (b *RedisBackend) Get(ctx context.Context) ([]byte, error) {
	data, err := b.redis.Get(ctx, b.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return data, nil
}

func (b *RedisBackend) Put(ctx context.Context, data []byte) error {
	if err := b.redis.Set(ctx, b.key(), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context) error {
	if err := b.redis.Del(ctx, b.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (b *RedisBackend) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := b.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return time.Since(start), nil
}
