package respcache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache backed by go-cache.
type Memory struct {
	c *gocache.Cache
}

// NewMemory returns a Memory cache whose entries expire after ttl. Expired
// entries are purged every 2*ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Memory{c: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	record(ok)
	if !ok {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte) error {
	m.c.SetDefault(key, val)
	return nil
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
