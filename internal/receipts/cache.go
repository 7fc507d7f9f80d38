package receipts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// CacheOptions configures the caching decorator.
type CacheOptions struct {
	// TTL is the snapshot freshness window; <= 0 means never expire by time.
	TTL time.Duration
	// MaxReceipts caps total cached receipts across all traces; <= 0 means
	// no cap.
	MaxReceipts int
}

// CachedStore is a read-through, write-invalidate cache over any Store. It
// never changes chain ordering or content versus the wrapped store; it only
// skips repeat reads while a snapshot is live.
type CachedStore struct {
	store Store
	ttl   time.Duration
	max   int

	mu          sync.Mutex
	chains      map[string][]Receipt
	lastRefresh map[string]time.Time
	total       int
	now         func() time.Time
}

// NewCachedStore wraps store with a chain cache.
func NewCachedStore(store Store, opts CacheOptions) *CachedStore {
	return &CachedStore{
		store:       store,
		ttl:         opts.TTL,
		max:         opts.MaxReceipts,
		chains:      make(map[string][]Receipt),
		lastRefresh: make(map[string]time.Time),
		now:         time.Now,
	}
}

// Add implements Store: delegate, then drop the cached chain for that trace
// so the next read refetches.
func (c *CachedStore) Add(ctx context.Context, r Receipt) (Receipt, error) {
	added, err := c.store.Add(ctx, r)
	if err != nil {
		return nil, err
	}
	if traceID := added.TraceID(); traceID != "" {
		c.mu.Lock()
		c.evict(traceID)
		c.mu.Unlock()
	}
	return added, nil
}

// Chain implements Store: return a live snapshot or refresh from the
// wrapped store, then enforce the size cap.
func (c *CachedStore) Chain(ctx context.Context, traceID string) ([]Receipt, error) {
	c.mu.Lock()
	if snap, ok := c.chains[traceID]; ok && c.live(traceID) {
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	fresh, err := c.store.Chain(ctx, traceID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.evict(traceID)
	c.chains[traceID] = fresh
	c.lastRefresh[traceID] = c.now()
	c.total += len(fresh)
	c.enforceSize()
	c.mu.Unlock()
	return fresh, nil
}

// Path implements Store.
func (c *CachedStore) Path() string { return c.store.Path() }

// Close implements Store.
func (c *CachedStore) Close() error { return c.store.Close() }

// Stats reports cache occupancy, for debugging and operator surfaces.
func (c *CachedStore) Stats() (traces, cached int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chains), c.total
}

// live reports whether the snapshot for traceID is within its TTL.
// Callers hold c.mu.
func (c *CachedStore) live(traceID string) bool {
	ts, ok := c.lastRefresh[traceID]
	if !ok {
		return false
	}
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(ts) <= c.ttl
}

// evict removes one trace's snapshot. Callers hold c.mu.
func (c *CachedStore) evict(traceID string) {
	if snap, ok := c.chains[traceID]; ok {
		c.total -= len(snap)
		delete(c.chains, traceID)
		delete(c.lastRefresh, traceID)
	}
}

// enforceSize evicts whole snapshots, oldest refresh first, until the total
// receipt count fits the cap. Callers hold c.mu.
func (c *CachedStore) enforceSize() {
	if c.max <= 0 || c.total <= c.max {
		return
	}
	order := make([]string, 0, len(c.lastRefresh))
	for traceID := range c.lastRefresh {
		order = append(order, traceID)
	}
	sort.Slice(order, func(i, j int) bool {
		return c.lastRefresh[order[i]].Before(c.lastRefresh[order[j]])
	})
	for _, traceID := range order {
		if c.total <= c.max {
			break
		}
		c.evict(traceID)
	}
}
