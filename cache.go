package integritykit

import (
	"context"
	"encoding/binary"
	"os"
	"sync"
	"time"
)

// DefaultCacheTTL is the default lifetime of a cached fingerprint.
const DefaultCacheTTL = 5 * time.Minute

// CacheStatistics contains fingerprint cache performance metrics.
type CacheStatistics struct {
	Hits    int64
	Misses  int64
	Size    int64
	HitRate float64
}

// fingerprintEntry is a single cached fingerprint with expiration.
type fingerprintEntry struct {
	report     FingerprintReport
	expiration time.Time
	hasExpiry  bool
}

// FingerprintCache memoizes fingerprints for the cache-check use case.
//
// Entries are keyed by a 64-bit xxHash of the path plus the file's size and
// modification time, so a changed file never serves a stale fingerprint: any
// metadata change produces a new key and the old entry ages out via TTL.
// The cache is safe for concurrent use.
type FingerprintCache struct {
	generator *FingerprintGenerator
	ttl       time.Duration

	mu      sync.RWMutex
	entries map[uint64]*fingerprintEntry
	hits    int64
	misses  int64
}

// NewFingerprintCache creates a cache in front of the given generator.
// A TTL of 0 means entries never expire; a negative TTL selects
// DefaultCacheTTL.
func NewFingerprintCache(generator *FingerprintGenerator, ttl time.Duration) *FingerprintCache {
	if ttl < 0 {
		ttl = DefaultCacheTTL
	}
	return &FingerprintCache{
		generator: generator,
		ttl:       ttl,
		entries:   make(map[uint64]*fingerprintEntry),
	}
}

// cacheKey derives the entry key from the path and the file metadata that
// must invalidate the fingerprint when it changes.
func cacheKey(path string, size int64, modTime time.Time) uint64 {
	var meta [16]byte
	binary.LittleEndian.PutUint64(meta[:8], uint64(size))
	binary.LittleEndian.PutUint64(meta[8:], uint64(modTime.UnixNano()))
	return Digest64([]byte(path), meta[:])
}

// FingerprintFile returns the cached fingerprint for the file, generating
// and storing it on a miss. Stat failures are reported exactly as the
// underlying generator reports them.
func (c *FingerprintCache) FingerprintFile(ctx context.Context, path string) (*FingerprintReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Op: "fingerprint", Path: path, Err: ErrNotExist}
		}
		return nil, &PathError{Op: "fingerprint", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &PathError{Op: "fingerprint", Path: path, Err: ErrIsDir}
	}

	key := cacheKey(path, info.Size(), info.ModTime())

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && (!entry.hasExpiry || time.Now().Before(entry.expiration)) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		report := entry.report
		return &report, nil
	}

	report, err := c.generator.FingerprintFile(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.misses++
	c.entries[key] = &fingerprintEntry{
		report:     *report,
		expiration: time.Now().Add(c.ttl),
		hasExpiry:  c.ttl > 0,
	}
	c.mu.Unlock()

	return report, nil
}

// Purge removes all expired entries and returns how many were removed.
func (c *FingerprintCache) Purge() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.hasExpiry && now.After(entry.expiration) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *FingerprintCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*fingerprintEntry)
}

// Stats returns cache performance metrics.
func (c *FingerprintCache) Stats() CacheStatistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStatistics{
		Hits:   c.hits,
		Misses: c.misses,
		Size:   int64(len(c.entries)),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
