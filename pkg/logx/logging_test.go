package logx

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.raw, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFormatTelegramLine(t *testing.T) {
	t.Parallel()
	line := []byte(`{"level":"error","time":"2026-09-01T10:00:00Z","message":"daily publish failed","err":"timeout"}`)
	got := formatTelegramLine(line)

	if !strings.HasPrefix(got, "[ERROR] daily publish failed") {
		t.Fatalf("formatted line = %q", got)
	}
	if !strings.Contains(got, "err=timeout") {
		t.Fatalf("formatted line missing field: %q", got)
	}
	if strings.Contains(got, "2026-09-01") {
		t.Fatalf("timestamp should be dropped: %q", got)
	}

	// Non-JSON input passes through trimmed.
	if got := formatTelegramLine([]byte("  plain text\n")); got != "plain text" {
		t.Fatalf("plain passthrough = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	long := strings.Repeat("x", 50)
	got := truncate(long, 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Fatalf("truncate long = %q", got)
	}
	if got := truncate(long, 5); got != "xxxxx" {
		t.Fatalf("truncate tiny = %q", got)
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	// Must not panic.
	l.Info("ignored")
	l.With(String("k", "v")).Error("still ignored", Err(nil))
}

func TestNopLoggerNotZero(t *testing.T) {
	t.Parallel()
	l := Nop()
	if l.IsZero() {
		t.Fatal("Nop logger should not report IsZero")
	}
	l.Warn("goes nowhere")
}
