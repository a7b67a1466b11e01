// Package notify fans confirmed fall events out to notification
// channels and the event store.
package notify

import (
	"context"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
)

// Channel is one notification sink (MQTT publish, Telegram message).
// Implementations must not panic past their boundary; a failed send is
// reported through the returned error only.
type Channel interface {
	// Name identifies the channel in results, logs and metrics.
	Name() string

	// Send delivers one event, honoring ctx for timeout/cancellation.
	Send(ctx context.Context, event model.FallEvent) error
}

// Outcome is the per-sink delivery result.
type Outcome int

// Outcome values.
const (
	Delivered Outcome = iota
	Failed
	TimedOut
	Skipped
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	default:
		return "skipped"
	}
}

// ChannelResult is one channel's outcome for one event.
type ChannelResult struct {
	Channel string  `json:"channel"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// DispatchResult aggregates the per-channel outcomes and the store
// outcome for one event. Notification delivery and durable logging are
// independent concerns; a store failure never downgrades a delivered
// channel.
type DispatchResult struct {
	EventID  string          `json:"event_id"`
	Channels []ChannelResult `json:"channels"`
	Store    ChannelResult   `json:"store"`

	// Suppressed is true when the alert gate swallowed the event
	// inside an entity's cooldown window and no fan-out was attempted.
	Suppressed bool `json:"suppressed,omitempty"`
}

// Alerted reports whether at least one notification channel delivered.
func (r DispatchResult) Alerted() bool {
	for _, c := range r.Channels {
		if c.Outcome == Delivered {
			return true
		}
	}
	return false
}
