// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
	"github.com/wikibird2024/intergrate-fall/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest pushes an observation for async processing. Returns false on backpressure.
	Ingest(ctx context.Context, obs model.Observation) bool

	// Read operations expose the event log and live track state.
	RecentEvents(ctx context.Context, limit int) ([]types.EventView, error)
	Tracks(ctx context.Context) []types.TrackView

	// AcknowledgeEvent marks a stored event as acknowledged by a caregiver.
	AcknowledgeEvent(ctx context.Context, id int64) error
}

// EventView mirrors the read shape returned by event queries.
type EventView = types.EventView

// TrackView mirrors the read shape returned by track queries.
type TrackView = types.TrackView

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	observationsHandler *ObservationsHandler
	eventsHandler       *EventsHandler
	tracksHandler       *TracksHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxEventsLimit int) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		observationsHandler: NewObservationsHandler(deps),
		eventsHandler:       NewEventsHandler(deps, maxEventsLimit),
		tracksHandler:       NewTracksHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/observations", MetricsMiddleware(s.observationsHandler.HandlePostObservation, "observations"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleAckEvent, "events_ack"))
	mux.HandleFunc("/tracks", MetricsMiddleware(s.tracksHandler.HandleGetTracks, "tracks"))
}

// keypointPayload mirrors the OpenAPI schema for a single keypoint.
type keypointPayload struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// observationRequest mirrors the OpenAPI schema for POST /observations.
type observationRequest struct {
	TrackID   int64                      `json:"track_id"`
	TS        string                     `json:"ts"`
	Box       []float64                  `json:"box"`
	Keypoints map[string]keypointPayload `json:"keypoints"`
}

const boxCoordinates = 4

func (o observationRequest) validate() error {
	switch {
	case o.TrackID < 0:
		return errors.New("track_id must be non-negative")
	case strings.TrimSpace(o.TS) == "":
		return errors.New("missing ts")
	case len(o.Box) != boxCoordinates:
		return errors.New("box must be [x1, y1, x2, y2]")
	}
	if o.Box[2] <= o.Box[0] || o.Box[3] <= o.Box[1] {
		return errors.New("box must have positive width and height")
	}
	if _, err := time.Parse(time.RFC3339, o.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

// toModel converts a validated request into a domain observation.
func (o observationRequest) toModel() model.Observation {
	ts, _ := time.Parse(time.RFC3339, o.TS)
	kps := make(map[string]model.Keypoint, len(o.Keypoints))
	for name, kp := range o.Keypoints {
		kps[name] = model.Keypoint{X: kp.X, Y: kp.Y, Confidence: kp.Confidence}
	}
	return model.Observation{
		TrackID:   o.TrackID,
		Timestamp: ts,
		Box:       model.BoundingBox{X1: o.Box[0], Y1: o.Box[1], X2: o.Box[2], Y2: o.Box[3]},
		Keypoints: kps,
	}
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
