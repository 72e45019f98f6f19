// Package store provides storage backends for ShopAssist.
//
// This file implements a Redis-backed TTL key-value store for questionnaire
// state and cached profiles shared across processes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis client timeout defaults, in seconds.
const (
	DefaultRedisReadTimeout  = 3
	DefaultRedisWriteTimeout = 3
	DefaultRedisDialTimeout  = 5
)

// RedisKV is a KVStore backed by a Redis server.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to the Redis server at the given URL
// (redis://[:password@]host:port/db) and verifies the connection.
func NewRedisKV(url string) (*RedisKV, error) {
	slog.Debug("RedisKV.NewRedisKV: connecting", "url_set", url != "")
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.ReadTimeout = DefaultRedisReadTimeout * time.Second
	opts.WriteTimeout = DefaultRedisWriteTimeout * time.Second
	opts.DialTimeout = DefaultRedisDialTimeout * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Error("RedisKV ping failed", "error", err)
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	slog.Debug("RedisKV connected")
	return &RedisKV{client: client}, nil
}

// Get returns the value for key if present.
func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		slog.Error("RedisKV Get failed", "error", err, "key", key)
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key with the given TTL. A ttl <= 0 stores without
// expiry.
func (s *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("RedisKV Set failed", "error", err, "key", key)
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *RedisKV) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		slog.Error("RedisKV Delete failed", "error", err, "key", key)
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisKV) Close() error {
	return s.client.Close()
}
