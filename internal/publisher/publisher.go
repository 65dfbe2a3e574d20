// Package publisher owns the once-a-day channel post trigger.
//
// The actual post content and delivery live behind a callback; this service
// only decides when to fire it, in the operator's configured timezone.
package publisher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "animebot/pkg/logx"
)

type Config struct {
	Enabled  bool
	At       string // "HH:MM", 24h wall clock
	Timezone string // IANA TZ, e.g. "Asia/Kolkata"
}

// PublishFunc formats and sends the daily post. now is already in the
// publisher's timezone.
type PublishFunc func(ctx context.Context, now time.Time) error

type Service struct {
	mu sync.Mutex

	log     logx.Logger
	cfg     Config
	publish PublishFunc

	parser  cron.Parser
	c       *cron.Cron
	entryID cron.EntryID
	loc     *time.Location
	running bool
}

func New(cfg Config, publish PublishFunc, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		publish: publish,
		log:     log,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if err := s.startLocked(ctx); err != nil {
		return err
	}
	s.running = true
	return nil
}

func (s *Service) startLocked(ctx context.Context) error {
	spec, err := dailySpec(s.cfg.At)
	if err != nil {
		return err
	}
	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))

	id, err := s.c.AddFunc(spec, func() { s.runOnce(ctx) })
	if err != nil {
		s.c = nil
		return fmt.Errorf("publish schedule %q: %w", s.cfg.At, err)
	}
	s.entryID = id
	s.c.Start()
	s.log.Info("daily publish scheduled",
		logx.String("at", s.cfg.At),
		logx.String("tz", loc.String()),
	)
	return nil
}

func (s *Service) runOnce(ctx context.Context) {
	s.mu.Lock()
	loc := s.loc
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := s.publish(runCtx, time.Now().In(loc)); err != nil {
		s.log.Error("daily publish failed", logx.Err(err))
		return
	}
	s.log.Info("daily post published")
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.c != nil {
		stopCtx := s.c.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
		s.c = nil
	}
	s.log.Info("publisher stopped")
}

// Apply reconfigures the trigger. Changes to time/timezone restart the cron;
// enabling/disabling starts or stops it.
func (s *Service) Apply(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cfg
	s.cfg = cfg

	switch {
	case !prev.Enabled && cfg.Enabled:
		if !s.running {
			if err := s.startLocked(ctx); err != nil {
				return err
			}
			s.running = true
		}
	case prev.Enabled && !cfg.Enabled:
		if s.running && s.c != nil {
			<-s.c.Stop().Done()
			s.c = nil
		}
		s.running = false
		s.log.Info("daily publish disabled via config")
	case s.running && (prev.At != cfg.At || prev.Timezone != cfg.Timezone):
		if s.c != nil {
			<-s.c.Stop().Done()
			s.c = nil
		}
		if err := s.startLocked(ctx); err != nil {
			s.running = false
			return err
		}
		s.log.Info("daily publish rescheduled")
	}
	return nil
}

// Next returns the next fire time (zero if not running).
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}
	}
	return s.c.Entry(s.entryID).Next
}

// Location returns the active publish timezone.
func (s *Service) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loc == nil {
		return time.Local
	}
	return s.loc
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local",
			logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

func dailySpec(atHHMM string) (string, error) {
	h, m, err := ParseHHMM(atHHMM)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

// ParseHHMM parses a 24h "HH:MM" wall-clock time.
func ParseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
