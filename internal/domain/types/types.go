// Package types contains common read shapes used across the application
package types

import "time"

// EventView is the read shape for a stored fall event.
type EventView struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"event_id"`
	Source     string    `json:"source"`
	EntityID   string    `json:"entity_id"`
	TrackID    int64     `json:"track_id,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
	Confidence float64   `json:"confidence"`
	Status     string    `json:"status"`
}

// TrackView is the read shape for one live track's phase.
type TrackView struct {
	TrackID  int64     `json:"track_id"`
	Phase    string    `json:"phase"`
	Posture  string    `json:"posture"`
	LastSeen time.Time `json:"last_seen"`
}
