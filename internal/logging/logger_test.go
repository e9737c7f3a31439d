package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

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
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("visible", "batch_id", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %s", out)
	}
	if !strings.Contains(out, `"batch_id":7`) {
		t.Errorf("output = %s, want batch_id field", out)
	}
}

func TestFromContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "text"))
	defer slog.SetDefault(prev)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "file", "pumps.csv").Info("ingestion started")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-42") {
		t.Errorf("output = %s, want request_id", out)
	}
	if !strings.Contains(out, "file=pumps.csv") {
		t.Errorf("output = %s, want file field", out)
	}
}

func TestNewContextCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "debug", "text").With("batch_id", 12)

	ctx := NewContext(context.Background(), base)
	WithFields(ctx, "evicted_id", 3).Info("batch evicted")

	out := buf.String()
	if !strings.Contains(out, "batch_id=12") || !strings.Contains(out, "evicted_id=3") {
		t.Errorf("output = %s, want batch_id and evicted_id", out)
	}
}
