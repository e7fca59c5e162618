package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetryCount is the attempt budget the shipped configs use.
const DefaultRetryCount = 5

// Options bound the retry budget of a Resilient client.
type Options struct {
	// RetryCount is the number of attempts per call, at least one.
	RetryCount int
	// RetryInterval is the pause between two attempts.
	RetryInterval time.Duration
	// OpTimeout bounds a single attempt. Zero means no per-attempt bound.
	OpTimeout time.Duration
}

// Resilient retries backend calls a fixed number of times with a fixed
// pause. It is safe for concurrent use if the backend is.
type Resilient struct {
	backend Storage
	opts    Options
	log     *slog.Logger
}

func NewResilient(backend Storage, opts Options) *Resilient {
	if opts.RetryCount < 1 {
		opts.RetryCount = 1
	}
	return &Resilient{
		backend: backend,
		opts:    opts,
		log:     slog.Default().With(slog.String("component", "storage")),
	}
}

// CacheGet returns the cached value and true on a hit. A miss, an expired
// key and an exhausted retry budget all return false.
func (r *Resilient) CacheGet(ctx context.Context, key string) (string, bool) {
	var value string
	err := r.retry(ctx, "cache_get", func(ctx context.Context) error {
		v, err := r.backend.Get(ctx, key)
		value = v
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Warn("cache read degraded to miss", slog.String("key", key), slog.String("error", err.Error()))
		}
		return "", false
	}
	return value, true
}

// CacheSet stores value under key with ttl. Failures are logged and dropped.
func (r *Resilient) CacheSet(ctx context.Context, key, value string, ttl time.Duration) {
	err := r.retry(ctx, "cache_set", func(ctx context.Context) error {
		return r.backend.Set(ctx, key, value, ttl)
	})
	if err != nil {
		r.log.Warn("cache write dropped", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Get returns the value under key, ErrNotFound, or an error wrapping
// ErrConnection once every attempt has failed.
func (r *Resilient) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.retry(ctx, "get", func(ctx context.Context) error {
		v, err := r.backend.Get(ctx, key)
		value = v
		return err
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key without expiry, or returns an error wrapping
// ErrConnection once every attempt has failed.
func (r *Resilient) Set(ctx context.Context, key, value string) error {
	return r.retry(ctx, "set", func(ctx context.Context) error {
		return r.backend.Set(ctx, key, value, 0)
	})
}

func (r *Resilient) Close() error {
	return r.backend.Close()
}

func (r *Resilient) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.opts.RetryCount; attempt++ {
		r.log.Debug("storage attempt", slog.String("op", op), slog.Int("attempt", attempt))

		err := r.attempt(ctx, fn)
		if err == nil || errors.Is(err, ErrNotFound) {
			return err
		}
		lastErr = err
		r.log.Warn("storage call failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt == r.opts.RetryCount {
			break
		}
		if err := sleep(ctx, r.opts.RetryInterval); err != nil {
			return fmt.Errorf("%w: %s interrupted after %d attempts: %w", ErrConnection, op, attempt, err)
		}
	}
	return fmt.Errorf("%w: %s gave up after %d retries: %w", ErrConnection, op, r.opts.RetryCount, lastErr)
}

func (r *Resilient) attempt(ctx context.Context, fn func(context.Context) error) error {
	if r.opts.OpTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
	defer cancel()
	return fn(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
