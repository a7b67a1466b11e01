// Package repository provides the durable, append-only fall event log.
package repository

import (
	"context"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/types"
)

// EventStore appends confirmed fall events and serves read queries.
// Append-only: the core never updates or deletes events, except for
// the caregiver-facing acknowledgement status.
type EventStore interface {
	// Append durably records one event and returns its row id.
	Append(ctx context.Context, event model.FallEvent) (int64, error)

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]types.EventView, error)

	// Count returns the total number of stored events.
	Count(ctx context.Context) (int64, error)

	// UpdateStatus moves an event between acknowledgement states,
	// e.g. "pending" -> "acknowledged".
	UpdateStatus(ctx context.Context, id int64, status string) error

	// Close releases the underlying storage.
	Close() error
}

// Acknowledgement statuses.
const (
	StatusPending      = "pending"
	StatusAcknowledged = "acknowledged"
)
