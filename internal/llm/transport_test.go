package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestEndpoint_RetriesTemporaryErrors(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		status    int
		retries   int
		wantCalls int32
		wantErr   bool
	}{
		{name: "rate limited then ok", failures: 1, status: http.StatusTooManyRequests, retries: 2, wantCalls: 2},
		{name: "server error then ok", failures: 2, status: http.StatusBadGateway, retries: 2, wantCalls: 3},
		{name: "gives up after retries", failures: 5, status: http.StatusServiceUnavailable, retries: 2, wantCalls: 3, wantErr: true},
		{name: "client errors are final", failures: 5, status: http.StatusUnprocessableEntity, retries: 2, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tt.failures {
					http.Error(w, "busy", tt.status)
					return
				}
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			e := newEndpoint(server.URL, "k", time.Second)
			e.retries = tt.retries
			e.backoff = time.Millisecond

			var out struct {
				OK bool `json:"ok"`
			}
			err := e.post(context.Background(), "/x", map[string]string{"a": "b"}, &out)

			if (err != nil) != tt.wantErr {
				t.Fatalf("post() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !out.OK {
				t.Error("response not decoded")
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestEndpoint_StopsRetryingWhenContextEnds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	e := newEndpoint(server.URL, "", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := e.post(ctx, "/x", struct{}{}, &struct{}{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("post() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("post() waited out Retry-After despite the context ending")
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "", want: 0},
		{in: "3", want: 3 * time.Second},
		{in: "-1", want: 0},
		{in: "Wed, 21 Oct 2015 07:28:00 GMT", want: 0},
		{in: "600", want: maxBackoff},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.in); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAPIError_Temporary(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
	}
	for _, tt := range tests {
		if got := (&APIError{StatusCode: tt.status}).Temporary(); got != tt.want {
			t.Errorf("APIError{%d}.Temporary() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
