package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService backs CacheService with memcached. Rate-limit blocks live
// here so separate worker runs, and separate worker processes, see the same
// blocked hosts.
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService connects to the memcached server at serverAddr.
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get returns the value for key. A missing or expired key is an error
// (memcache.ErrCacheMiss), which callers treat as "not blocked".
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores value under key until expiration. memcached takes whole seconds;
// sub-second durations round down.
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete removes key, lifting a block early.
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}
