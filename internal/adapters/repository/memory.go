package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/types"
)

// MemoryStore implements EventStore on an in-process slice. Used when
// no database path is configured, and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []types.EventView
	nextID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Append records one event.
func (s *MemoryStore) Append(ctx context.Context, event model.FallEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.events = append(s.events, types.EventView{
		ID:         id,
		EventID:    event.EventID,
		Source:     event.Source,
		EntityID:   event.EntityID,
		TrackID:    event.TrackID,
		DetectedAt: event.DetectedAt,
		Confidence: event.Confidence,
		Status:     StatusPending,
	})
	return id, nil
}

// Recent returns up to limit events, newest first.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]types.EventView, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, ErrInvalidLimit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit > n {
		limit = n
	}
	out := make([]types.EventView, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// Count returns the total number of stored events.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.events)), nil
}

// UpdateStatus moves an event between acknowledgement states.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("event %d: %w", id, ErrNotFound)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
