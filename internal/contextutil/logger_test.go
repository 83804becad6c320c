package contextutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	if got := LoggerFromContext(context.Background()); got != slog.Default() {
		t.Error("LoggerFromContext() without logger should return slog.Default()")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithLogger(context.Background(), logger)
	if got := LoggerFromContext(ctx); got != logger {
		t.Error("LoggerFromContext() should return the logger stored by WithLogger")
	}

	wrong := context.WithValue(context.Background(), loggerKey, "not a logger")
	if got := LoggerFromContext(wrong); got != slog.Default() {
		t.Error("LoggerFromContext() with wrong value type should return slog.Default()")
	}
}
