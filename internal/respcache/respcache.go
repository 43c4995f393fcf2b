// Package respcache caches encoded API responses for coordinate lookups.
// Location data only changes through the offline importer, so entries are
// kept for a fixed TTL and never invalidated.
package respcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/locality/internal/config"
	"github.com/sells-group/locality/internal/metrics"
)

// Cache stores opaque response bodies by key.
type Cache interface {
	// Get reports ok=false on a miss. Errors are backend failures; callers
	// should treat them as a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte) error
	Close() error
}

// New builds the cache selected by cfg.Driver.
func New(cfg config.CacheConfig) (Cache, error) {
	ttl := time.Duration(cfg.TTLSecs) * time.Second
	switch cfg.Driver {
	case "", "none":
		return Nop{}, nil
	case "memory":
		return NewMemory(ttl), nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, ttl), nil
	default:
		return nil, eris.Errorf("respcache: unknown driver %q", cfg.Driver)
	}
}

// Key joins a prefix and parameters with colons. Floats use %g so that
// 19.0750 and 19.075 share an entry.
func Key(prefix string, params ...any) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		b.WriteByte(':')
		switch v := p.(type) {
		case float64:
			fmt.Fprintf(&b, "%g", v)
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}

func record(ok bool) {
	if ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Close() error                                      { return nil }
