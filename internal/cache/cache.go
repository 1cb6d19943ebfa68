package cache

import (
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultChainLimit is the compiled-in bound on distinct keys
	// sharing one hash bucket.
	DefaultChainLimit = 4

	// ChainLimitEnvVar overrides the collision-chain limit when no
	// constructor value is supplied.
	ChainLimitEnvVar = "FORMATDETECT_CACHE_CHAIN_LIMIT"
)

// DetectionCache memoizes classification results by canonical document.
// Keys are xxhash values of the canonical serialization; entries whose
// canonical strings differ but share a hash bucket form a collision
// chain, bounded by the configured limit. Safe for concurrent use.
type DetectionCache struct {
	mu         sync.Mutex
	buckets    map[uint64][]entry
	chainLimit int
	hash       func(string) uint64
	logger     *slog.Logger

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry struct {
	canonical string
	value     any
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// New creates a detection cache. A positive chainLimit wins over the
// environment override; zero or negative means "not set", falling back
// to the env var and then the compiled-in default. Invalid overrides
// are rejected with a logged warning, never silently disabling the bound.
func New(chainLimit int) *DetectionCache {
	logger := slog.Default().With("component", "detection_cache")

	limit := chainLimit
	if limit <= 0 {
		limit = resolveChainLimit(logger)
	}

	return &DetectionCache{
		buckets:    make(map[uint64][]entry),
		chainLimit: limit,
		hash:       xxhash.Sum64String,
		logger:     logger,
	}
}

// newWithHash swaps the key hash. Tests use it to force bucket
// collisions, which xxhash will not produce on demand.
func newWithHash(chainLimit int, hash func(string) uint64) *DetectionCache {
	c := New(chainLimit)
	c.hash = hash
	return c
}

// resolveChainLimit applies the env var > default precedence.
func resolveChainLimit(logger *slog.Logger) int {
	raw, set := os.LookupEnv(ChainLimitEnvVar)
	if !set {
		return DefaultChainLimit
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("invalid cache chain limit override, keeping default",
			"env", ChainLimitEnvVar, "value", raw, "default", DefaultChainLimit)
		return DefaultChainLimit
	}
	if parsed <= 0 {
		logger.Warn("non-positive cache chain limit override, keeping default",
			"env", ChainLimitEnvVar, "value", parsed, "default", DefaultChainLimit)
		return DefaultChainLimit
	}

	return parsed
}

// ChainLimit returns the effective collision-chain bound.
func (c *DetectionCache) ChainLimit() int {
	return c.chainLimit
}

// Get retrieves the cached value for a canonical document.
// The second return is false on miss (not an error).
func (c *DetectionCache) Get(canonical string) (any, bool) {
	key := c.hash(canonical)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.buckets[key] {
		if e.canonical == canonical {
			c.hits++
			c.logger.Debug("cache hit", "key", key)
			return e.value, true
		}
	}

	c.misses++
	c.logger.Debug("cache miss", "key", key)
	return nil, false
}

// Put stores a value for a canonical document. Re-inserting the same
// document replaces its entry in place, so a chain only grows when
// distinct documents collide; overflow evicts the oldest chain entry.
func (c *DetectionCache) Put(canonical string, value any) {
	key := c.hash(canonical)

	c.mu.Lock()
	defer c.mu.Unlock()

	chain := c.buckets[key]
	for i, e := range chain {
		if e.canonical == canonical {
			chain[i].value = value
			return
		}
	}

	chain = append(chain, entry{canonical: canonical, value: value})
	if len(chain) > c.chainLimit {
		evicted := len(chain) - c.chainLimit
		chain = chain[evicted:]
		c.evictions += uint64(evicted)
		c.logger.Debug("collision chain overflow", "key", key, "evicted", evicted)
	}
	c.buckets[key] = chain
}

// Clear drops every entry. Counters are reset as well.
func (c *DetectionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buckets = make(map[uint64][]entry)
	c.hits = 0
	c.misses = 0
	c.evictions = 0
	c.logger.Debug("cache cleared")
}

// Len returns the number of cached entries across all buckets.
func (c *DetectionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for _, chain := range c.buckets {
		n += len(chain)
	}
	return n
}

// ChainLen returns the collision-chain length for a canonical document's
// bucket. Used by tests to verify the bound.
func (c *DetectionCache) ChainLen(canonical string) int {
	key := c.hash(canonical)

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets[key])
}

// Stats returns a snapshot of cache counters.
func (c *DetectionCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	for _, chain := range c.buckets {
		n += len(chain)
	}

	return Stats{
		Entries:   n,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
