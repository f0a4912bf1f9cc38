package mcp

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/cortex-positions/internal/indexer/parsers"
)

// ResultCache memoizes extraction results by source content, so repeated
// calls for an unchanged file skip parsing. Capacity is counted in symbols.
type ResultCache struct {
	cache otter.Cache[string, *parsers.Result]
}

// NewResultCache creates a cache holding up to capacity symbols.
func NewResultCache(capacity int) (*ResultCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	cache, err := otter.MustBuilder[string, *parsers.Result](capacity).
		CollectStats().
		Cost(func(_ string, r *parsers.Result) uint32 {
			return uint32(len(r.Symbols) + 1)
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build result cache: %w", err)
	}
	return &ResultCache{cache: cache}, nil
}

// cacheKey identifies one extraction: language, options and exact source bytes.
func cacheKey(language string, opts parsers.Options, source []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%t\x00%t\x00", language, opts.Strict, opts.SkipMacros)
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for key.
func (c *ResultCache) Get(key string) (*parsers.Result, bool) {
	return c.cache.Get(key)
}

// Set stores a result. Results are shared between callers and must not be mutated.
func (c *ResultCache) Set(key string, r *parsers.Result) {
	c.cache.Set(key, r)
}

// Stats reports hits and misses since creation.
func (c *ResultCache) Stats() (hits, misses int64) {
	s := c.cache.Stats()
	return s.Hits(), s.Misses()
}

// Close stops the cache's background work.
func (c *ResultCache) Close() {
	c.cache.Close()
}
