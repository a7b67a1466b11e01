package model

import "time"

// Event sources.
const (
	SourceCamera = "camera"
	SourceDevice = "device"
)

// FallEvent is an immutable record of one confirmed fall episode.
// Created once by the track state machine (or built from a wearable
// device report) and handed to the dispatcher; never mutated after
// creation.
type FallEvent struct {
	EventID    string    `json:"event_id"` // unique id for idempotency
	Source     string    `json:"source"`   // "camera" or "device"
	EntityID   string    `json:"entity_id"`
	TrackID    int64     `json:"track_id,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
	Confidence float64   `json:"confidence"`

	// Window is the rolling-history snapshot that supported the
	// confirmation. Empty for device-originated events.
	Window []PostureSample `json:"window,omitempty"`

	// Optional device GPS fix.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	HasGPSFix bool    `json:"has_gps_fix,omitempty"`
}
