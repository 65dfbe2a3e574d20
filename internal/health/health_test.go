package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "animebot/pkg/logx"
)

func TestHealthzReportsProbes(t *testing.T) {
	t.Parallel()
	next := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	s := New(Config{Enabled: true}, Probes{
		Entries:     func() int { return 7 },
		NextPublish: func() time.Time { return next },
		LastPublish: func() time.Time { return time.Time{} },
	}, logx.Nop())

	for _, path := range []string{"/healthz", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("content type = %q", ct)
		}

		var st Status
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if st.Status != "ok" || st.Entries != 7 {
			t.Fatalf("status = %+v", st)
		}
		if st.NextPublish == nil || !st.NextPublish.Equal(next) {
			t.Fatalf("next_publish = %v, want %v", st.NextPublish, next)
		}
		// Zero last publish is omitted entirely.
		if st.LastPublish != nil {
			t.Fatalf("last_publish = %v, want nil", st.LastPublish)
		}
	}
}

func TestHealthzNilProbes(t *testing.T) {
	t.Parallel()
	s := New(Config{}, Probes{}, logx.Nop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDefaultAddr(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true}, Probes{}, logx.Nop())
	if s.cfg.Addr != "127.0.0.1:8080" {
		t.Fatalf("default addr = %q", s.cfg.Addr)
	}
}
