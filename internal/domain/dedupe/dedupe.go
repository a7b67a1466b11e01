// Package dedupe defines the interface for alert cooldown tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Default gate configuration constants.
const (
	defaultMaxSize  = 10000
	defaultCooldown = 5 * time.Minute
)

// Gate records the last alert time per entity so one fall episode
// produces one notification. ShouldAlert is the ONLY decision method -
// thread-safe and atomic.
type Gate interface {
	// ShouldAlert atomically checks whether an alert for key is outside
	// its cooldown window and, if so, records at as the new last alert
	// time. Returns false while the entity is still cooling down.
	ShouldAlert(ctx context.Context, key string, at time.Time) bool

	// Forget drops an entity's cooldown record, allowing the next
	// alert through immediately. Used when dispatch failed entirely
	// and the alert should be retryable.
	Forget(ctx context.Context, key string)

	Size() int64
}

// inMemoryGate implements Gate with a bounded map keyed by entity.
// When full, the entry with the oldest last-alert time is evicted;
// an evicted entity simply alerts again on its next fall.
type inMemoryGate struct {
	mu       sync.Mutex
	last     map[string]time.Time
	maxSize  int
	cooldown time.Duration
	size     atomic.Int64
}

// NewInMemoryGate creates a new in-memory gate with configuration options.
func NewInMemoryGate(opts ...Option) Gate {
	g := &inMemoryGate{
		maxSize:  defaultMaxSize,
		cooldown: defaultCooldown,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.last = make(map[string]time.Time)

	return g
}

// ShouldAlert atomically checks and records the alert time for key.
func (g *inMemoryGate) ShouldAlert(ctx context.Context, key string, at time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev, ok := g.last[key]; ok {
		if at.Sub(prev) < g.cooldown {
			return false
		}
		g.last[key] = at
		return true
	}

	if g.maxSize > 0 && len(g.last) >= g.maxSize {
		g.evictOldest()
	}
	g.last[key] = at
	g.size.Add(1)
	return true
}

// Forget drops the cooldown record for key.
func (g *inMemoryGate) Forget(ctx context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.last[key]; ok {
		delete(g.last, key)
		g.size.Add(-1)
	}
}

// evictOldest removes the entry with the oldest last-alert time.
// Must be called with g.mu held.
func (g *inMemoryGate) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for key, at := range g.last {
		if first || at.Before(oldest) {
			oldestKey, oldest = key, at
			first = false
		}
	}
	if !first {
		delete(g.last, oldestKey)
		g.size.Add(-1)
	}
}

// Size returns the current number of tracked entities.
func (g *inMemoryGate) Size() int64 {
	return g.size.Load()
}
