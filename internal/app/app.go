package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"animebot/internal/audit"
	"animebot/internal/config"
	"animebot/internal/health"
	"animebot/internal/publisher"
	"animebot/internal/router"
	"animebot/internal/runtime/supervisor"
	"animebot/internal/schedule"
	kit "animebot/internal/transport"
	"animebot/internal/transport/telegram"
	logx "animebot/pkg/logx"
)

const (
	defaultScheduleFile = "./anime_schedule.json"
	defaultAuditFile    = "./animebot_audit.db"
)

// App owns the whole bot: config, logging, store, transport, router,
// daily publisher, and the optional health/audit services.
type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	adapter kit.Adapter
	store   *schedule.Store
	audit   *audit.Log
	pub     *publisher.Service
	hlth    *health.Service
	router  *router.Router

	// Startup values for settings that only apply on restart; compared
	// against hot-reloaded configs so silent drift gets flagged.
	auditEnabled bool
	auditPath    string

	updates chan kit.Message
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	bootLog := logx.NewConsole(cfg.Logging.Level)

	token := strings.TrimSpace(cfg.Telegram.Token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	}
	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       token,
		PollTimeout: pollTimeout,
	}, bootLog.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logxConfig(cfg), adapter)
	logSvc.SetTelegramTarget(cfg.Logging.Telegram.ChatID)
	log = log.With(logx.String("comp", "app"))

	store, err := schedule.Open(schedulePath(cfg), logSvc.Logger().With(logx.String("comp", "schedule")))
	if err != nil {
		// A corrupt schedule file at startup is fatal: silently replacing
		// it would destroy the operator's data.
		return nil, fmt.Errorf("open schedule: %w", err)
	}

	var auditLog *audit.Log
	if cfg.Audit.Enabled {
		auditLog, err = audit.Open(auditPath(cfg), logSvc.Logger().With(logx.String("comp", "audit")))
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
	}

	a := &App{
		cfgm:         cfgm,
		log:          log,
		logs:         logSvc,
		adapter:      adapter,
		store:        store,
		audit:        auditLog,
		auditEnabled: cfg.Audit.Enabled,
		auditPath:    auditPath(cfg),
		updates:      make(chan kit.Message, 256),
	}

	a.pub = publisher.New(publisher.Config{
		Enabled:  cfg.Publish.Enabled,
		At:       publishAt(cfg),
		Timezone: cfg.Publish.Timezone,
	}, a.publishScheduled, logSvc.Logger().With(logx.String("comp", "publisher")))

	a.hlth = health.New(health.Config{
		Enabled: cfg.Health.Enabled,
		Addr:    cfg.Health.Addr,
	}, health.Probes{
		Entries:     func() int { return a.store.Snapshot().Total() },
		NextPublish: a.pub.Next,
		LastPublish: a.lastPublish,
	}, logSvc.Logger().With(logx.String("comp", "health")))

	a.router = router.New(router.Deps{
		Adapter:    adapter,
		Store:      store,
		Publisher:  a.pub,
		Audit:      auditLog,
		Config:     cfgm.Get,
		PublishNow: func(ctx context.Context) error { return a.publish(ctx, audit.TriggerManual) },
	}, logSvc.Logger().With(logx.String("comp", "router")))

	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true),
	)

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validate(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	if a.pub.Enabled() {
		if err := a.pub.Start(a.sup.Context()); err != nil {
			return err
		}
	}

	if a.hlth.Enabled() {
		a.sup.Go("health.serve", a.hlth.Start)
	}

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.router.DispatchLoop(c, a.updates)
	})

	// Hot-reload fan-out.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(c, cfg)
			}
		}
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.log.Info("bot started")
	return nil
}

func (a *App) applyConfig(ctx context.Context, cfg *config.Config) {
	a.logs.Apply(logxConfig(cfg))
	a.logs.SetTelegramTarget(cfg.Logging.Telegram.ChatID)

	if err := a.pub.Apply(ctx, publisher.Config{
		Enabled:  cfg.Publish.Enabled,
		At:       publishAt(cfg),
		Timezone: cfg.Publish.Timezone,
	}); err != nil {
		a.log.Warn("publisher config apply failed", logx.Err(err))
	}

	// Some settings only apply on restart; flag changes instead of
	// silently ignoring them.
	if cfg.Health.Enabled != a.hlth.Enabled() {
		a.log.Warn("health endpoint enable/disable requires restart")
	} else if cfg.Health.Enabled && healthAddr(cfg) != a.hlth.Addr() {
		a.log.Warn("health addr change requires restart",
			logx.String("active", a.hlth.Addr()), logx.String("configured", healthAddr(cfg)))
	}
	if cfg.Audit.Enabled != a.auditEnabled {
		a.log.Warn("audit enable/disable requires restart")
	} else if cfg.Audit.Enabled && auditPath(cfg) != a.auditPath {
		a.log.Warn("audit path change requires restart",
			logx.String("active", a.auditPath), logx.String("configured", auditPath(cfg)))
	}
	if schedulePath(cfg) != a.store.Path() {
		a.log.Warn("schedule_file change requires restart",
			logx.String("active", a.store.Path()), logx.String("configured", schedulePath(cfg)))
	}
	a.log.Info("config applied")
}

// Done is closed when the app supervisor context is canceled
// (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	a.sup.Cancel()

	// Bounded shutdown steps so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- fn(stepCtx) }()
		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name))
		}
	}

	step("publisher", 2*time.Second, func(c context.Context) error { a.pub.Stop(c); return nil })
	step("health", 2*time.Second, a.hlth.Stop)
	step("adapter", 2*time.Second, a.adapter.Stop)
	step("supervisor", 2*time.Second, a.sup.Wait)
	step("audit", time.Second, func(context.Context) error { return a.audit.Close() })
	_ = a.logs.Close()

	a.log.Info("stopped")
	return nil
}

// publishScheduled is the cron callback.
func (a *App) publishScheduled(ctx context.Context, _ time.Time) error {
	return a.publish(ctx, audit.TriggerScheduled)
}

// publish formats today's post and sends it to the channel. Shared by the
// daily trigger and /post_now so both paths stay identical.
func (a *App) publish(ctx context.Context, trigger string) error {
	cfg := a.cfgm.Get()
	target := kit.TargetFromString(cfg.Telegram.Channel)
	now := time.Now().In(a.pub.Location())

	post := schedule.FormatPost(a.store.Snapshot(), now)
	if _, err := a.adapter.SendText(ctx, target, post, nil); err != nil {
		return fmt.Errorf("send to channel %s: %w", cfg.Telegram.Channel, err)
	}
	if err := a.audit.RecordPost(ctx, trigger, cfg.Telegram.Channel, len(post)); err != nil {
		a.log.Warn("audit write failed", logx.Err(err))
	}
	return nil
}

func (a *App) lastPublish() time.Time {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	last, ok, err := a.audit.LastPost(ctx)
	if err != nil || !ok {
		return time.Time{}
	}
	return last.At
}

func schedulePath(cfg *config.Config) string {
	if p := strings.TrimSpace(cfg.ScheduleFile); p != "" {
		return p
	}
	return defaultScheduleFile
}

func auditPath(cfg *config.Config) string {
	if p := strings.TrimSpace(cfg.Audit.Path); p != "" {
		return p
	}
	return defaultAuditFile
}

func healthAddr(cfg *config.Config) string {
	if a := strings.TrimSpace(cfg.Health.Addr); a != "" {
		return a
	}
	return "127.0.0.1:8080"
}

func publishAt(cfg *config.Config) string {
	if strings.TrimSpace(cfg.Publish.At) == "" {
		return "09:00"
	}
	return cfg.Publish.At
}

func logxConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

// validate rejects bad hot-reloads before they are committed.
func validate(cfg *config.Config) error {
	if _, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, _, err := publisher.ParseHHMM(publishAt(cfg)); err != nil {
		return fmt.Errorf("publish.at: %w", err)
	}
	if tz := strings.TrimSpace(cfg.Publish.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("publish.timezone: invalid %q: %w", tz, err)
		}
	}
	if len(cfg.Telegram.AdminUserIDs) == 0 {
		return fmt.Errorf("telegram.admin_user_ids must not be empty")
	}
	return nil
}
