package memory

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"taskmanager/internal/core/port"
)

const cleanupInterval = time.Minute

type memoryRepository struct {
	store *gocache.Cache
}

// NewMemoryRepository is the in-process cache used when no Redis address is
// configured.
func NewMemoryRepository(defaultTTL time.Duration) port.CacheRepository {
	return &memoryRepository{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *memoryRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}

	data := make([]byte, len(value))
	copy(data, value)

	c.store.Set(key, data, ttl)

	return nil
}

func (c *memoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, found := c.store.Get(key)

	if !found {
		return nil, port.ErrCacheMiss
	}

	return value.([]byte), nil
}

func (c *memoryRepository) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)

	return nil
}

func (c *memoryRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}

	return nil
}

func (c *memoryRepository) Close() error {
	c.store.Flush()

	return nil
}
