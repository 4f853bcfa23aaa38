// Package cache stores delegated breakdowns so repeated salaries skip the
// round trip to the tax authority.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/shopspring/decimal"
)

const (
	breakdownKeyPrefix = "breakdown:"
	defaultCacheTTL    = 5 * time.Minute
)

// Cache holds breakdowns by key. A miss is reported as ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (b tax.Breakdown, ok bool, err error)
	Set(ctx context.Context, key string, b tax.Breakdown) error
}

// Key builds the cache key for a salary under the named schedule. Salaries are
// keyed by whole cents.
func Key(scheduleName string, salary float64) string {
	cents := decimal.NewFromFloat(salary).Shift(2).Round(0)
	return fmt.Sprintf("%s%s:%s", breakdownKeyPrefix, scheduleName, cents.String())
}

type memoryEntry struct {
	breakdown tax.Breakdown
	expires   time.Time
}

// MemoryCache is an in-process Cache with per-entry expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache. A zero ttl uses the default.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the breakdown stored under key if it has not expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (tax.Breakdown, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return tax.Breakdown{}, false, nil
	}
	if c.now().After(entry.expires) {
		c.mu.Lock()
		// A Set may have refreshed the entry since the read lock was released.
		if current, ok := c.entries[key]; ok && c.now().After(current.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return tax.Breakdown{}, false, nil
	}
	return entry.breakdown, true, nil
}

// Set stores b under key.
func (c *MemoryCache) Set(ctx context.Context, key string, b tax.Breakdown) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{breakdown: b, expires: c.now().Add(c.ttl)}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
