package publisher

import (
	"context"
	"testing"
	"time"

	logx "animebot/pkg/logx"
)

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw    string
		hour   int
		minute int
		ok     bool
	}{
		{"09:00", 9, 0, true},
		{"23:59", 23, 59, true},
		{"0:5", 0, 5, true},
		{" 18:30 ", 18, 30, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"noon", 0, 0, false},
		{"12", 0, 0, false},
		{"-1:00", 0, 0, false},
	}
	for _, tt := range tests {
		h, m, err := ParseHHMM(tt.raw)
		if tt.ok {
			if err != nil {
				t.Fatalf("ParseHHMM(%q) error: %v", tt.raw, err)
			}
			if h != tt.hour || m != tt.minute {
				t.Fatalf("ParseHHMM(%q) = %d:%d, want %d:%d", tt.raw, h, m, tt.hour, tt.minute)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseHHMM(%q) succeeded, want error", tt.raw)
		}
	}
}

func TestDailySpec(t *testing.T) {
	t.Parallel()
	spec, err := dailySpec("09:30")
	if err != nil {
		t.Fatalf("dailySpec error: %v", err)
	}
	if spec != "30 9 * * *" {
		t.Fatalf("dailySpec = %q, want %q", spec, "30 9 * * *")
	}
	if _, err := dailySpec("25:00"); err == nil {
		t.Fatal("expected error for invalid hour")
	}
}

func TestStartComputesNextFireTime(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, At: "00:00", Timezone: "UTC"},
		func(context.Context, time.Time) error { return nil }, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop(context.Background())

	next := s.Next()
	if next.IsZero() {
		t.Fatal("Next() is zero after Start")
	}
	if h, m := next.UTC().Hour(), next.UTC().Minute(); h != 0 || m != 0 {
		t.Fatalf("next fire at %02d:%02d UTC, want 00:00", h, m)
	}
	if until := time.Until(next); until <= 0 || until > 24*time.Hour {
		t.Fatalf("next fire %v away, want within 24h", until)
	}
}

func TestStartRejectsBadAt(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, At: "9pm"},
		func(context.Context, time.Time) error { return nil }, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid At")
	}
}

func TestApplyDisableStopsSchedule(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, At: "12:00", Timezone: "UTC"},
		func(context.Context, time.Time) error { return nil }, logx.Nop())

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(ctx, Config{Enabled: false, At: "12:00", Timezone: "UTC"}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if !s.Next().IsZero() {
		t.Fatal("Next() still set after disable")
	}
	if s.Enabled() {
		t.Fatal("Enabled() still true after disable")
	}
}

func TestLocationFallback(t *testing.T) {
	t.Parallel()
	s := New(Config{Timezone: "Not/AZone"}, nil, logx.Nop())
	if got := s.Location(); got != time.Local {
		// Location before Start reports Local until a zone is loaded.
		t.Fatalf("Location() = %v, want Local", got)
	}
}
