package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func captureDefault(t *testing.T, level, format string) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(NewHandler(&buf, level, format)))
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromContext_RequestID(t *testing.T) {
	buf := captureDefault(t, "info", "json")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "upload_id", "u1").Info("roster accepted", "rows", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", entry["request_id"])
	}
	if entry["upload_id"] != "u1" || entry["rows"] != float64(3) {
		t.Errorf("fields = %v", entry)
	}
}

func TestFromContext_NoRequestID(t *testing.T) {
	buf := captureDefault(t, "info", "text")

	FromContext(context.Background()).Info("hello")
	if bytes.Contains(buf.Bytes(), []byte("request_id")) {
		t.Errorf("unexpected request_id in %q", buf.String())
	}
}

func TestNewHandler_Level(t *testing.T) {
	buf := captureDefault(t, "warn", "text")

	slog.Info("dropped")
	slog.Warn("kept")
	if bytes.Contains(buf.Bytes(), []byte("dropped")) || !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Errorf("level filtering failed: %q", buf.String())
	}
}
