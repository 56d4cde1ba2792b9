package cache

import (
	"time"
)

// CacheService is a generic expiring key/value cache. The scraper uses it to
// remember rate-limit blocks across runs so a 429ing host is left alone
// until the block expires.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
