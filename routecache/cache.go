// Package routecache memoizes final routing decisions in two tiers: a
// process-local map for the hot path and a shared key-value cache (typically
// Redis) so sibling processes reuse each other's decisions. Entries are
// written under an exact key and a stop-word-stripped fuzzy key; shared-tier
// unavailability degrades performance, never correctness.
package routecache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/routecore/routecore/logging"
)

// Route is one cached routing decision.
type Route struct {
	Category   string    `json:"category"`
	Skills     []string  `json:"skills"`
	Confidence float64   `json:"confidence"`
	Method     string    `json:"method"`
	CachedAt   time.Time `json:"cachedAt"`
	HitCount   int       `json:"hitCount"`
}

// SharedCache is the external key-value tier. Implementations must support
// per-key TTLs and pattern deletion.
type SharedCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// Options configures a Cache.
type Options struct {
	// Shared is the external tier. Nil runs the cache process-local only.
	Shared SharedCache

	// LocalCapacity bounds the process-local tier. Insertion at 80% of
	// capacity first evicts the oldest 20% of entries by insertion order.
	LocalCapacity int

	// MinConfidenceToCache gates writes; decisions below it are not memoized.
	MinConfidenceToCache float64

	// SharedTTL bounds shared-tier entries.
	SharedTTL time.Duration

	Logger logging.Logger
}

// Cache is the two-tier route cache. Safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	local map[string]*Route
	order []string

	opts   Options
	logger logging.Logger
	now    func() time.Time
}

// New constructs a Cache with production defaults: 1000 local entries,
// 0.6 minimum confidence, 300s shared TTL.
func New(optFns ...func(o *Options)) *Cache {
	opts := Options{
		LocalCapacity:        1000,
		MinConfidenceToCache: 0.6,
		SharedTTL:            300 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &Cache{
		local:  make(map[string]*Route),
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Get looks a route up: local exact, local fuzzy, shared exact, shared fuzzy.
// A shared hit is promoted into the local tier. Returns nil on miss; shared
// tier errors count as misses.
func (c *Cache) Get(ctx context.Context, organizationID, text string) *Route {
	exact := ExactKey(organizationID, text)
	fuzzy := FuzzyKey(organizationID, text)

	c.mu.Lock()
	for _, key := range []string{exact, fuzzy} {
		if route, ok := c.local[key]; ok {
			route.HitCount++
			copied := *route
			c.mu.Unlock()
			return &copied
		}
	}
	c.mu.Unlock()

	if c.opts.Shared == nil {
		return nil
	}

	for _, key := range []string{exact, fuzzy} {
		raw, ok, err := c.opts.Shared.Get(ctx, key)
		if err != nil {
			c.logger.Warn("shared route cache read failed", "key", key, "error", err)
			continue
		}
		if !ok {
			continue
		}
		var route Route
		if err := json.Unmarshal([]byte(raw), &route); err != nil {
			c.logger.Warn("corrupt shared route cache entry", "key", key, "error", err)
			continue
		}
		route.HitCount++
		c.promote(exact, fuzzy, route)
		return &route
	}

	return nil
}

// Put memoizes a routing decision under both keys in both tiers, provided its
// confidence clears the write gate. Shared-tier failures are logged and
// swallowed; the response path never waits on them being durable.
func (c *Cache) Put(ctx context.Context, organizationID, text, category string, skills []string, confidence float64, method string) {
	if confidence < c.opts.MinConfidenceToCache {
		return
	}

	route := Route{
		Category:   category,
		Skills:     skills,
		Confidence: confidence,
		Method:     method,
		CachedAt:   c.now(),
	}
	exact := ExactKey(organizationID, text)
	fuzzy := FuzzyKey(organizationID, text)

	c.promote(exact, fuzzy, route)

	if c.opts.Shared == nil {
		return
	}
	payload, err := json.Marshal(route)
	if err != nil {
		c.logger.Warn("route cache encode failed", "error", err)
		return
	}
	for _, key := range []string{exact, fuzzy} {
		if err := c.opts.Shared.Set(ctx, key, string(payload), c.opts.SharedTTL); err != nil {
			c.logger.Warn("shared route cache write failed", "key", key, "error", err)
		}
	}
}

// InvalidateOrg drops every cached route belonging to one organization from
// both tiers and returns how many entries were removed.
func (c *Cache) InvalidateOrg(ctx context.Context, organizationID string) int {
	prefix := orgPrefix(organizationID)

	c.mu.Lock()
	removed := 0
	kept := c.order[:0]
	for _, key := range c.order {
		if strings.HasPrefix(key, prefix) {
			delete(c.local, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	c.mu.Unlock()

	if c.opts.Shared != nil {
		n, err := c.opts.Shared.DeletePattern(ctx, orgPattern(organizationID))
		if err != nil {
			c.logger.Warn("shared route cache invalidation failed", "organization_id", organizationID, "error", err)
		} else {
			removed += n
		}
	}

	return removed
}

// Len reports the local-tier entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.local)
}

// promote installs a route into the local tier under both keys, evicting the
// oldest 20% of entries once the tier reaches 80% of capacity. Eviction is
// insertion-order based, not true LRU.
func (c *Cache) promote(exact, fuzzy string, route Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	highWater := c.opts.LocalCapacity * 80 / 100
	if len(c.local) >= highWater && highWater > 0 {
		drop := c.opts.LocalCapacity / 5
		if drop < 1 {
			drop = 1
		}
		if drop > len(c.order) {
			drop = len(c.order)
		}
		for _, key := range c.order[:drop] {
			delete(c.local, key)
		}
		c.order = append(c.order[:0], c.order[drop:]...)
	}

	// Both keys share one entry so the hit count stays in step no matter
	// which key matched.
	copied := route
	for _, key := range []string{exact, fuzzy} {
		if _, exists := c.local[key]; !exists {
			c.order = append(c.order, key)
		}
		c.local[key] = &copied
	}
}
