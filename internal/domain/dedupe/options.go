// Package dedupe defines the interface for alert cooldown tracking.
package dedupe

import "time"

// Option applies a configuration option to the inMemoryGate.
type Option func(*inMemoryGate)

// WithMaxSize sets the maximum number of entities tracked in memory.
// If maxSize <= 0 the gate is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(g *inMemoryGate) {
		g.maxSize = maxSize
	}
}

// WithCooldown sets the per-entity suppression window between alerts.
func WithCooldown(d time.Duration) Option {
	return func(g *inMemoryGate) {
		if d > 0 {
			g.cooldown = d
		}
	}
}
