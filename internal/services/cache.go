package services

import (
	"sync"
	"time"

	"retrace/internal/types"
)

// cacheTTL bounds how long a default-window snapshot is served without
// recomputation.
const cacheTTL = 5 * time.Minute

// resultCache memoizes the single most recent default-window snapshot.
// Custom date-range snapshots are never stored. Explicit invalidation (rule
// change, history mutation, manual refresh) clears it regardless of age.
type resultCache struct {
	mu         sync.Mutex
	snapshot   *types.AnalyticsSnapshot
	days       int
	computedAt time.Time
}

// get returns the stored snapshot when the window matches and the entry is
// still fresh, else nil.
func (c *resultCache) get(days int, now time.Time) *types.AnalyticsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil || c.days != days {
		return nil
	}
	if now.Sub(c.computedAt) >= cacheTTL {
		return nil
	}
	return c.snapshot
}

// put overwrites the entry with a fresh default-window snapshot.
func (c *resultCache) put(snapshot *types.AnalyticsSnapshot, days int, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
	c.days = days
	c.computedAt = now
}

// clear drops the entry unconditionally.
func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	c.days = 0
	c.computedAt = time.Time{}
}
