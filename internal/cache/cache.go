package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Entry is an immutable snapshot of one delivered research result,
// keyed by fingerprint. It is returned verbatim on cache hits and must
// never be mutated after insertion.
type Entry struct {
	Text         string // protocol content block text, as delivered
	Learnings    []string
	VisitedURLs  []string
	ReportURL    string  // signed retrieval URL when offloaded, empty otherwise
	ReportSizeKB float64 // 0 when unknown
}

// ResultCache maps request fingerprints to result entries. It is
// bounded by a maximum entry count (least-recently-used eviction) and
// a TTL (lazy expiry on access). Safe for concurrent use.
//
// The cache deliberately provides no single-flight de-duplication: two
// identical requests in flight at the same time will both invoke the
// pipeline, and the second write wins. Writes are idempotent snapshots,
// so this is a cost, not a correctness bug.
type ResultCache struct {
	lru *expirable.LRU[string, Entry]
	ttl time.Duration
}

// New creates a ResultCache holding at most size entries, each valid
// for ttl. The caller is expected to pass an already-clamped TTL
// (config.ClampTTL); the value is fixed for the cache's lifetime.
func New(size int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		lru: expirable.NewLRU[string, Entry](size, nil, ttl),
		ttl: ttl,
	}
}

// Get returns the entry for fingerprint fp if present and fresh.
func (c *ResultCache) Get(fp string) (Entry, bool) {
	return c.lru.Get(fp)
}

// Put stores entry under fingerprint fp, evicting the least-recently
// used entry if the cache is at capacity. Last write wins.
func (c *ResultCache) Put(fp string, entry Entry) {
	c.lru.Add(fp, entry)
}

// Len reports the number of live entries.
func (c *ResultCache) Len() int {
	return c.lru.Len()
}

// TTL reports the configured entry lifetime.
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}
