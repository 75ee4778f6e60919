package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the caching layer behind the collection services. Values are
// opaque byte payloads; callers own serialization.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// GamesKey names a cached collection page for a user. Full crawls and
// single pages cache under distinct keys.
func GamesKey(username string, page int, allPages bool) string {
	return fmt.Sprintf("games-%s-%d-%t", username, page, allPages)
}

// ProfileKey names a cached profile for a user.
func ProfileKey(username string) string {
	return "profile-" + username
}
