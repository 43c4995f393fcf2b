// Package resolve recovers which State, District or Place a slug ends with.
//
// Tries are built lazily from the store, at most once per kind for the life
// of a Cache, and never refreshed: locations added after the first build stay
// invisible until the process restarts. Lookups that hit a slug the store no
// longer has are reported as drift rather than as misses.
package resolve

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/metrics"
	"github.com/sells-group/locality/internal/slugtrie"
)

// SlugSource supplies every slug of a kind for a trie build.
type SlugSource interface {
	ListSlugs(ctx context.Context, kind location.Kind) ([]string, error)
}

type lazyTrie struct {
	mu   sync.Mutex
	trie atomic.Pointer[slugtrie.Trie]
}

// Cache holds one suffix trie per location kind.
type Cache struct {
	src    SlugSource
	tries  map[location.Kind]*lazyTrie
	builds atomic.Int64
}

// NewCache returns a Cache that builds from src on first use.
func NewCache(src SlugSource) *Cache {
	c := &Cache{
		src:   src,
		tries: make(map[location.Kind]*lazyTrie, len(location.Kinds)),
	}
	for _, k := range location.Kinds {
		c.tries[k] = &lazyTrie{}
	}
	return c
}

// Trie returns the trie for kind, building it if this is the first call.
// Concurrent first callers block until the single build finishes; a failed
// build is not remembered and the next caller retries.
func (c *Cache) Trie(ctx context.Context, kind location.Kind) (*slugtrie.Trie, error) {
	lt, ok := c.tries[kind]
	if !ok {
		return nil, eris.Errorf("resolve: unknown kind %q", kind)
	}
	if t := lt.trie.Load(); t != nil {
		return t, nil
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()
	if t := lt.trie.Load(); t != nil {
		return t, nil
	}

	start := time.Now()
	slugs, err := c.src.ListSlugs(ctx, kind)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve: load %s slugs", kind)
	}
	t := slugtrie.Build(slugs)
	lt.trie.Store(t)
	c.builds.Add(1)

	metrics.TrieBuildsTotal.WithLabelValues(string(kind)).Inc()
	metrics.TrieSlugs.WithLabelValues(string(kind)).Set(float64(t.Len()))
	zap.L().Info("built suffix trie",
		zap.String("component", "resolve.cache"),
		zap.String("kind", string(kind)),
		zap.Int("slugs", t.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return t, nil
}

// StateTrie returns the state trie.
func (c *Cache) StateTrie(ctx context.Context) (*slugtrie.Trie, error) {
	return c.Trie(ctx, location.KindState)
}

// DistrictTrie returns the district trie.
func (c *Cache) DistrictTrie(ctx context.Context) (*slugtrie.Trie, error) {
	return c.Trie(ctx, location.KindDistrict)
}

// PlaceTrie returns the place trie.
func (c *Cache) PlaceTrie(ctx context.Context) (*slugtrie.Trie, error) {
	return c.Trie(ctx, location.KindPlace)
}

// Warm builds every trie concurrently. It is meant for process startup so
// the first request does not pay for the store scan.
func (c *Cache) Warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range location.Kinds {
		g.Go(func() error {
			_, err := c.Trie(gctx, k)
			return err
		})
	}
	return g.Wait()
}

// Builds returns how many tries this cache has built.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}
