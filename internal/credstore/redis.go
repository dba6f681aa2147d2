package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces credential keys: fitgoalz:<scope>:<key>.
const redisKeyPrefix = "fitgoalz:"

// RedisStore keeps credentials in Redis without expiry; the backend
// decides when a token stops being valid.
type RedisStore struct {
	client *redis.Client
	scope  string
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL, scope string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// A CLI issues a handful of commands per run.
	opt.PoolSize = 2
	opt.MinIdleConns = 0
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewRedisWithClient(client, scope), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, scope string) *RedisStore {
	return &RedisStore{client: client, scope: normalizeScope(scope)}
}

func (r *RedisStore) key(key string) string {
	return redisKeyPrefix + r.scope + ":" + key
}

// Get returns the value for key or ErrNotFound.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get credential: %w", err)
	}
	return v, nil
}

// Set stores value under key.
func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set credential: %w", err)
	}
	return nil
}

// Delete removes key; DEL on a missing key is not an error.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete credential: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
