package simfeed

import "time"

// Config holds configuration for the simulated feed run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Tracks     int           // Number of simulated people
	Episodes   int           // Fall episodes per track
	FPS        int           // Simulated camera frame rate
	Workers    int           // Number of concurrent submit workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for the generated script
	LogFile    string        // Log file for run output
	Verbose    bool          // Enable verbose logging
}

// Keypoint mirrors the API payload for a single pose keypoint.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Observation mirrors the API payload for POST /observations.
type Observation struct {
	TrackID   int64               `json:"track_id"`
	TS        string              `json:"ts"`
	Box       []float64           `json:"box"`
	Keypoints map[string]Keypoint `json:"keypoints"`
}

// Event mirrors the API payload returned by GET /events.
type Event struct {
	ID         int64   `json:"id"`
	EventID    string  `json:"event_id"`
	Source     string  `json:"source"`
	EntityID   string  `json:"entity_id"`
	TrackID    int64   `json:"track_id"`
	DetectedAt string  `json:"detected_at"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

// Track mirrors the API payload returned by GET /tracks.
type Track struct {
	TrackID  int64  `json:"track_id"`
	Phase    string `json:"phase"`
	Posture  string `json:"posture"`
	LastSeen string `json:"last_seen"`
}

// AckResponse represents the response from observation submission.
type AckResponse struct {
	Status string `json:"status"`
}

// Stats holds run statistics.
type Stats struct {
	ObservationsGenerated int
	ObservationsSubmitted int
	ObservationsAccepted  int
	ObservationsRejected  int
	ObservationsFailed    int
	EpisodesSimulated     int
	EventsDetected        int
	StartTime             time.Time
	EndTime               time.Time
	Duration              time.Duration
}
