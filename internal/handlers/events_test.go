package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bookshelf/internal/events"
)

func TestEventsHandler_RejectsPlainHTTP(t *testing.T) {
	hub := events.NewHub()
	w := httptest.NewRecorder()

	NewEventsHandler(hub).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEventsHandler_StreamsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := events.NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(NewEventsHandler(hub))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(ctx, events.Event{Type: events.BookAdded, BookID: 4, Title: "Dune"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got events.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.Type != events.BookAdded || got.BookID != 4 {
		t.Errorf("event = %+v", got)
	}
}
