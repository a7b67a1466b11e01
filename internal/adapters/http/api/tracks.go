// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// TrackDependencies defines the interface for live track queries.
type TrackDependencies interface {
	Tracks(ctx context.Context) []TrackView
}

// TracksHandler handles live track state requests.
type TracksHandler struct {
	deps TrackDependencies
}

// NewTracksHandler creates a new tracks handler.
func NewTracksHandler(deps TrackDependencies) *TracksHandler {
	return &TracksHandler{deps: deps}
}

// HandleGetTracks handles GET /tracks requests.
func (h *TracksHandler) HandleGetTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	tracks := h.deps.Tracks(r.Context())
	if tracks == nil {
		tracks = []TrackView{}
	}
	writeJSON(w, http.StatusOK, tracks)
}
