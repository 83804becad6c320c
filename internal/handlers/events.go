package handlers

import (
	"errors"
	"net/http"

	"bookshelf/internal/contextutil"
	"bookshelf/internal/events"
)

// EventsHandler streams library change events over a websocket.
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// ServeHTTP upgrades the connection and blocks until the client goes away.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	logger.DebugContext(ctx, "event stream opened")
	if err := h.hub.Attach(w, r); err != nil {
		if errors.Is(err, events.ErrClosed) {
			logger.InfoContext(ctx, "event hub stopped, rejecting subscriber")
			return
		}
		// The upgrader has already written the HTTP error.
		logger.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}
	logger.DebugContext(ctx, "event stream closed")
}
