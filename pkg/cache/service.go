package cache

import (
	"context"
	"time"
)

// CacheService defines the behavior for caching mechanisms. Values are
// opaque bytes so local and shared backends are interchangeable.
type CacheService interface {
	// Get retrieves a value from the cache
	// Returns value, true if found
	// Returns nil, false if not found or the backend is unreachable
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set adds a value to the cache with a duration
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error
}
