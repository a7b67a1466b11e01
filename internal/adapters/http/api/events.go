// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/wikibird2024/intergrate-fall/internal/adapters/repository"
)

// EventDependencies defines the interface for event log operations.
type EventDependencies interface {
	RecentEvents(ctx context.Context, limit int) ([]EventView, error)
	AcknowledgeEvent(ctx context.Context, id int64) error
}

// EventsHandler handles event log requests.
type EventsHandler struct {
	deps     EventDependencies
	maxLimit int
}

const defaultEventsLimit = 20

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, maxLimit int) *EventsHandler {
	return &EventsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetEvents handles GET /events?limit=N requests.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_events"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultEventsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = parsed
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	events, err := h.deps.RecentEvents(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if events == nil {
		events = []EventView{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleAckEvent handles POST /events/{id}/ack requests.
func (h *EventsHandler) HandleAckEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.ack_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /events/
	path := strings.TrimPrefix(r.URL.Path, "/events/")
	idStr, ok := strings.CutSuffix(path, "/ack")
	if !ok || idStr == "" || strings.Contains(idStr, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.AcknowledgeEvent(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "acknowledged"})
}
