package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatByEnvironment(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			log.Info("marker created")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"marker created"`)
			} else {
				assert.Contains(t, buf.String(), "marker created")
				assert.Contains(t, buf.String(), colorReset)
			}
		})
	}
}

func TestNew_ExplicitFormatWins(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Environment: "development", Writer: &buf})
	log.Info("test")

	assert.Contains(t, buf.String(), `"msg":"test"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("experience applied", "user_id", 7, "level", 3, "note", "two words")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "experience applied")
	assert.Contains(t, out, "user_id=7")
	assert.Contains(t, out, "level=3")
	assert.Contains(t, out, `note="two words"`)
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.Equal(t, h, h.WithGroup(""))

	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "store")}).WithGroup("marker"))
	log.Info("saved", "id", 42)

	out := buf.String()
	assert.Contains(t, out, "component=store")
	assert.Contains(t, out, "marker.id=42")
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo, AddSource: true}))
	log.Info("test message")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatLevel(t *testing.T) {
	str, color := formatLevel(slog.LevelWarn)
	assert.Equal(t, "WRN", str)
	assert.Equal(t, colorYellow, color)

	str, _ = formatLevel(slog.LevelDebug)
	assert.Equal(t, "DBG", str)
}

func TestFormatValue(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
	assert.Equal(t, now.Format(time.RFC3339), formatValue(slog.TimeValue(now)))
	assert.Equal(t, "5s", formatValue(slog.DurationValue(5*time.Second)))
	assert.Equal(t, "42", formatValue(slog.IntValue(42)))
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.WithError(errors.New("disk full")).Info("write failed", "user_id", 12)

	out := buf.String()
	assert.Contains(t, out, `"error":"disk full"`)
	assert.Contains(t, out, `"user_id":12`)
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Component("recognition").Info("backend ready")

	assert.Contains(t, buf.String(), `"component":"recognition"`)
}
