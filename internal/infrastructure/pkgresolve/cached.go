package pkgresolve

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
)

type cacheKey struct {
	script    string
	spec      string
	marker    string
	namespace bool
}

type cacheEntry struct {
	res domain.Resolution
	err error
}

// CachedResolver wraps Resolver with caching.
// Results, including failures, are memoized per script, spec and options.
type CachedResolver struct {
	inner   application.PackageResolver
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

// NewCachedResolver creates a new cached resolver.
func NewCachedResolver() *CachedResolver {
	return &CachedResolver{inner: Resolver{}, entries: make(map[cacheKey]cacheEntry)}
}

func (c *CachedResolver) Resolve(ctx context.Context, script string, spec domain.PackageSpec, opts application.ResolveConfig) (domain.Resolution, error) {
	key := cacheKey{script: script, spec: spec.String(), marker: opts.Marker, namespace: opts.NamespacePackages}

	c.mu.RLock()
	if e, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return e.res, e.err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if e, ok := c.entries[key]; ok {
		return e.res, e.err
	}

	res, err := c.inner.Resolve(ctx, script, spec, opts)
	if ctx.Err() == nil {
		c.entries[key] = cacheEntry{res: res, err: err}
	}
	return res, err
}

// Reset clears the cache, forcing fresh resolution on next call.
func (c *CachedResolver) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
}
