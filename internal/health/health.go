// Package health exposes a tiny HTTP endpoint for hosting platforms that
// probe the process (Render/Koyeb style keep-alive checks).
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	logx "animebot/pkg/logx"
)

type Config struct {
	Enabled bool
	Addr    string
}

// Status is assembled per request from live callbacks.
type Status struct {
	Status      string     `json:"status"`
	Uptime      string     `json:"uptime"`
	Entries     int        `json:"entries"`
	NextPublish *time.Time `json:"next_publish,omitempty"`
	LastPublish *time.Time `json:"last_publish,omitempty"`
}

// Probes supplies the live values the endpoint reports.
type Probes struct {
	Entries     func() int
	NextPublish func() time.Time
	LastPublish func() time.Time
}

type Service struct {
	mu  sync.Mutex
	log logx.Logger
	cfg Config

	probes  Probes
	started time.Time
	srv     *http.Server
}

func New(cfg Config, probes Probes, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	return &Service{cfg: cfg, probes: probes, log: log, started: time.Now()}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Addr returns the (defaulted) listen address.
func (s *Service) Addr() string { return s.cfg.Addr }

func (s *Service) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Get("/healthz", s.handleHealthz)
	// Root responds too: some platforms only probe "/".
	r.Get("/", s.handleHealthz)
	return r
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	st := Status{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.probes.Entries != nil {
		st.Entries = s.probes.Entries()
	}
	if s.probes.NextPublish != nil {
		if t := s.probes.NextPublish(); !t.IsZero() {
			st.NextPublish = &t
		}
	}
	if s.probes.LastPublish != nil {
		if t := s.probes.LastPublish(); !t.IsZero() {
			st.LastPublish = &t
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Start runs the server until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.srv = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("health endpoint listening", logx.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
