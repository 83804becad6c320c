package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/contextutil"
)

const (
	defaultRetries = 2
	defaultBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// endpoint posts JSON to an OpenAI-compatible API. Rate limiting and server
// errors are retried with exponential backoff, honoring Retry-After.
type endpoint struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retries int
	backoff time.Duration
}

func newEndpoint(baseURL, apiKey string, timeout time.Duration) endpoint {
	return endpoint{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
}

func (e endpoint) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	wait := e.backoff
	for attempt := 0; ; attempt++ {
		retryAfter, err := e.once(ctx, path, body, out)
		var apiErr *APIError
		if err == nil || !errors.As(err, &apiErr) || !apiErr.Temporary() || attempt >= e.retries {
			return err
		}

		delay := max(wait, retryAfter)
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "model endpoint busy, retrying",
			"path", path, "status", apiErr.StatusCode, "attempt", attempt+1, "delay", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		wait = min(wait*2, maxBackoff)
	}
}

// once sends one request. The returned duration is the server's Retry-After hint.
func (e endpoint) once(ctx context.Context, path string, body []byte, out any) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return retryAfter(resp.Header.Get("Retry-After")), &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return 0, nil
}

// retryAfter parses a Retry-After value given in seconds, capped at maxBackoff.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, maxBackoff)
}
