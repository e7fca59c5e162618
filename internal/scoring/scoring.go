// Package scoring computes the online score of a client and looks up
// client interests. Both read through a Store; scores are cached for an
// hour, interests are read from the authoritative path.
package scoring

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/otus/scoring-api/internal/storage"
	"github.com/otus/scoring-api/internal/types"
)

// ScoreTTL is how long a computed score stays in the cache.
const ScoreTTL = time.Hour

// Store is the subset of storage.Resilient used here.
type Store interface {
	CacheGet(ctx context.Context, key string) (string, bool)
	CacheSet(ctx context.Context, key, value string, ttl time.Duration)
	Get(ctx context.Context, key string) (string, error)
}

// Input holds the validated online_score arguments. Empty strings and
// nil pointers mean the argument was null.
type Input struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  *time.Time
	Gender    *types.Gender
}

// ScoreKey returns the cache key for in.
func ScoreKey(in Input) string {
	var birthday string
	if in.Birthday != nil {
		birthday = in.Birthday.Format("20060102")
	}
	sum := md5.Sum([]byte(strings.Join([]string{in.FirstName, in.LastName, in.Phone, birthday}, "")))
	return "uid:" + hex.EncodeToString(sum[:])
}

// GetScore returns the cached score for in, or computes and caches it.
// Cache failures degrade to recomputation, so GetScore never fails.
func GetScore(ctx context.Context, store Store, in Input) float64 {
	key := ScoreKey(in)
	if cached, ok := store.CacheGet(ctx, key); ok {
		if score, err := strconv.ParseFloat(cached, 64); err == nil && score != 0 {
			return score
		}
	}

	var score float64
	if in.Phone != "" {
		score += 1.5
	}
	if in.Email != "" {
		score += 1.5
	}
	if in.Birthday != nil && in.Gender != nil {
		score += 1.5
	}
	if in.FirstName != "" && in.LastName != "" {
		score += 0.5
	}

	store.CacheSet(ctx, key, strconv.FormatFloat(score, 'f', -1, 64), ScoreTTL)
	return score
}

// InterestsKey returns the store key holding a client's interests.
func InterestsKey(clientID int64) string {
	return "i:" + strconv.FormatInt(clientID, 10)
}

// GetInterests reads the JSON list of interests stored for clientID. A
// missing key yields an empty list.
func GetInterests(ctx context.Context, store Store, clientID int64) ([]string, error) {
	raw, err := store.Get(ctx, InterestsKey(clientID))
	if errors.Is(err, storage.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetInterests: client %d: %w", clientID, err)
	}

	interests := []string{}
	if err := json.Unmarshal([]byte(raw), &interests); err != nil {
		return nil, fmt.Errorf("GetInterests: client %d: decode: %w", clientID, err)
	}
	if interests == nil {
		interests = []string{}
	}
	return interests, nil
}

// Service binds the scoring functions to a Store.
type Service struct {
	Store Store
}

func (s Service) GetScore(ctx context.Context, in Input) (float64, error) {
	return GetScore(ctx, s.Store, in), nil
}

func (s Service) GetInterests(ctx context.Context, clientID int64) ([]string, error) {
	return GetInterests(ctx, s.Store, clientID)
}
