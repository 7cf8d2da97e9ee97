package cache

import (
	"context"
	"sync"

	"github.com/Polqt/hieraengine/internal/herrors"
)

type memoryCacheKey struct {
	keyID string
	merge bool
	facts string
}

func factsCacheKey(facts map[string]string) string {
	pairs := normalizeFacts(facts)
	out := make([]byte, 0, 32*len(pairs))
	for _, p := range pairs {
		out = append(out, p.Key...)
		out = append(out, '=')
		out = append(out, p.Value...)
		out = append(out, ';')
	}
	return string(out)
}

// MemoryCache is an in-process Cache used by engine unit tests.
type MemoryCache struct {
	mu   sync.Mutex
	rows map[memoryCacheKey]cacheEntry
}

type cacheEntry struct {
	facts  map[string]string
	result any
}

// NewMemoryCache returns an empty in-memory Cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{rows: make(map[memoryCacheKey]cacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, keyID string, facts map[string]string, merge bool) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.rows[memoryCacheKey{keyID, merge, factsCacheKey(facts)}]
	if !ok {
		return nil, herrors.New(herrors.NotFound, "cache miss")
	}
	return entry.result, nil
}

func (c *MemoryCache) Put(_ context.Context, keyID string, facts map[string]string, merge bool, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[memoryCacheKey{keyID, merge, factsCacheKey(facts)}] = cacheEntry{facts: facts, result: result}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, keyID string, facts map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, entry := range c.rows {
		if k.keyID != keyID {
			continue
		}
		if isFactSubset(facts, entry.facts) {
			delete(c.rows, k)
		}
	}
	return nil
}

func (c *MemoryCache) ClearAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = make(map[memoryCacheKey]cacheEntry)
	return nil
}

// isFactSubset reports whether every key/value in sub is present in super,
// mirroring the $all semantics MongoCache.Invalidate uses.
func isFactSubset(sub, super map[string]string) bool {
	for k, v := range sub {
		if super[k] != v {
			return false
		}
	}
	return true
}

var _ Cache = (*MemoryCache)(nil)
