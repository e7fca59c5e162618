// Package redis provides a Redis-backed implementation of the
// storage.Storage interface.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/otus/scoring-api/internal/config"
	"github.com/otus/scoring-api/internal/storage"
)

// socketTimeout bounds dialing and every read/write on the connection.
const socketTimeout = 10 * time.Second

// commands is the part of *goredis.Client used here.
type commands interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Close() error
}

// Redis is the concrete implementation of storage.Storage.
type Redis struct {
	client commands
}

// New builds a client for cfg.Store.Redis. go-redis connects lazily, so a
// Redis that is down at boot surfaces as retries on the first request,
// not as a startup failure.
func New(cfg *config.Config) *Redis {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Store.Redis.Addr,
		Password:     cfg.Store.Redis.Password,
		DB:           cfg.Store.Redis.DB,
		DialTimeout:  socketTimeout,
		ReadTimeout:  socketTimeout,
		WriteTimeout: socketTimeout,
		// Resilient owns retries.
		MaxRetries: -1,
	})
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
