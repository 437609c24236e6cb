package session

import (
	"sync"
	"time"

	"devplanet/internal/analysis"
)

// DefaultAchievementBuffer is the achievement ring capacity used when
// none is configured.
const DefaultAchievementBuffer = 10

// Cache holds the latest analysis result, a most-recent-first ring of
// achievement notifications, and the aggregate session counters. It is
// written only from inbound stream events (or the local fallback path)
// and read by any consumer.
type Cache struct {
	mu           sync.RWMutex
	result       analysis.Result
	hasResult    bool
	achievements []analysis.Achievement
	capacity     int
	stats        analysis.SessionStats
}

// NewCache builds a cache with the given achievement ring capacity.
// Non-positive capacities fall back to DefaultAchievementBuffer.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultAchievementBuffer
	}
	return &Cache{capacity: capacity}
}

// SetResult replaces the latest analysis result wholesale.
func (c *Cache) SetResult(r analysis.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = r
	c.hasResult = true
}

// Result returns the latest analysis result. The second return is
// false before any result has arrived.
func (c *Cache) Result() (analysis.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result, c.hasResult
}

// Reset replaces the latest result with the empty baseline, stamped at
// now. Used when the tracked input becomes empty.
func (c *Cache) Reset(now time.Time) {
	c.SetResult(*analysis.EmptyResult(now))
}

// AddAchievement prepends a notification to the ring, evicting the
// oldest entry once capacity is reached.
func (c *Cache) AddAchievement(a analysis.Achievement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.achievements = append([]analysis.Achievement{a}, c.achievements...)
	if len(c.achievements) > c.capacity {
		c.achievements = c.achievements[:c.capacity]
	}
}

// Achievements returns the ring contents, most recent first.
func (c *Cache) Achievements() []analysis.Achievement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]analysis.Achievement, len(c.achievements))
	copy(out, c.achievements)
	return out
}

// SetStats replaces the aggregate counters wholesale. Counters are
// never incremented field-by-field locally; the backend owns them.
func (c *Cache) SetStats(s analysis.SessionStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = s
}

// Stats returns the current aggregate counters.
func (c *Cache) Stats() analysis.SessionStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
