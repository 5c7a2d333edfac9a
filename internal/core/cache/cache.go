package cache

import (
	"time"

	"github.com/maypok86/otter"

	"github.com/bandradar/bandradar/internal/core"
)

// DefaultMaxEntries bounds the result cache when no limit is configured.
const DefaultMaxEntries = 10000

// Entry is one cached verification outcome together with the decision
// that produced it. The TTL is outcome-dependent, so it is carried on
// the entry rather than fixed on the cache.
type Entry struct {
	Result    core.VerificationResult
	Decision  core.Decision
	StoredAt  time.Time
	ExpiresAt time.Time
}

// ResultCache is a bounded in-memory cache of verification results with
// per-entry TTLs. Eviction under pressure is handled by otter.
type ResultCache struct {
	entries otter.CacheWithVariableTTL[string, Entry]
	clock   func() time.Time
}

// New creates a result cache bounded to maxEntries.
func New(maxEntries int) (*ResultCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	entries, err := otter.MustBuilder[string, Entry](maxEntries).
		Cost(func(_ string, _ Entry) uint32 { return 1 }).
		WithVariableTTL().
		Build()
	if err != nil {
		return nil, err
	}

	return &ResultCache{
		entries: entries,
		clock:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// NewWithClock creates a result cache with an injectable clock for tests.
func NewWithClock(maxEntries int, clock func() time.Time) (*ResultCache, error) {
	c, err := New(maxEntries)
	if err != nil {
		return nil, err
	}
	c.clock = clock
	return c, nil
}

// Get returns the cached entry for key if present and not expired.
func (c *ResultCache) Get(key string) (Entry, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false
	}
	// otter expires lazily; double-check against the injected clock so
	// tests with fake time behave the same as production.
	if !entry.ExpiresAt.IsZero() && !c.clock().Before(entry.ExpiresAt) {
		c.entries.Delete(key)
		return Entry{}, false
	}
	return entry, true
}

// GetFresh returns the entry only if it is newer than maxAge. A zero
// maxAge disables the freshness check.
func (c *ResultCache) GetFresh(key string, maxAge time.Duration) (Entry, bool) {
	entry, ok := c.Get(key)
	if !ok {
		return Entry{}, false
	}
	if maxAge > 0 && c.clock().Sub(entry.StoredAt) > maxAge {
		return Entry{}, false
	}
	return entry, true
}

// Set stores a result under key for ttl. A non-positive ttl means the
// outcome must not be cached and any stale entry is dropped.
func (c *ResultCache) Set(key string, result core.VerificationResult, decision core.Decision, ttl time.Duration) {
	if ttl <= 0 {
		c.entries.Delete(key)
		return
	}

	now := c.clock()
	c.entries.Set(key, Entry{
		Result:    result,
		Decision:  decision,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}, ttl)
}

// Delete removes the entry for key.
func (c *ResultCache) Delete(key string) {
	c.entries.Delete(key)
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	return c.entries.Size()
}

// Close releases the cache's internal resources.
func (c *ResultCache) Close() {
	c.entries.Close()
}
