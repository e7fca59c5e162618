// Package storage defines the Storage interface, the key/value contract a
// backend (Redis, SQLite) must satisfy, and Resilient, the retrying client
// the rest of the application talks to.
//
// Handlers and scoring code never see a backend directly. They depend on
// Resilient, which turns a flaky backend into two read paths:
//
//   - the cache path (CacheGet / CacheSet) is best-effort: when retries
//     run out it behaves like a miss and never returns an error;
//   - the hard path (Get / Set) returns ErrConnection when retries run out.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the key does not exist. It is a result, not a
	// failure, and is never retried.
	ErrNotFound = errors.New("storage: key not found")

	// ErrConnection means every attempt failed.
	ErrConnection = errors.New("storage: connection failed")
)

// Storage is the backend contract.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Close() error
}
