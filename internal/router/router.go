package router

import (
	"context"
	"strings"
	"sync"
	"time"

	"animebot/internal/audit"
	"animebot/internal/config"
	"animebot/internal/publisher"
	"animebot/internal/schedule"
	kit "animebot/internal/transport"
	logx "animebot/pkg/logx"
)

const notAuthorized = "❌ You're not authorized to use this bot."

// Deps is everything the command handlers touch.
type Deps struct {
	Adapter   kit.Adapter
	Store     *schedule.Store
	Publisher *publisher.Service
	Audit     *audit.Log

	// Config returns the live (hot-reloadable) config snapshot.
	Config func() *config.Config

	// PublishNow formats today's post and sends it to the channel.
	// Shared with the daily cron trigger so /post_now and the scheduled
	// post stay identical.
	PublishNow func(ctx context.Context) error
}

type command struct {
	name   string
	handle HandlerFunc
}

// Router authenticates inbound messages and routes admin commands.
type Router struct {
	log     logx.Logger
	deps    Deps
	started time.Time

	commands map[string]command

	chain []Middleware

	// pending marks admins mid add/remove flow so /cancel has something
	// to acknowledge. The payload handler itself is content-driven.
	pendingMu sync.Mutex
	pending   map[int64]bool
}

func (r *Router) setPending(userID int64, v bool) {
	r.pendingMu.Lock()
	if v {
		r.pending[userID] = true
	} else {
		delete(r.pending, userID)
	}
	r.pendingMu.Unlock()
}

func New(deps Deps, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Router{
		log:      log,
		deps:     deps,
		started:  time.Now(),
		commands: map[string]command{},
		pending:  map[int64]bool{},
	}
	r.chain = []Middleware{
		MWPanicRecover(log),
		MWRequestLog(log),
		MWTimeout(30 * time.Second),
	}

	r.register("start", r.handleStart)
	r.register("preview", r.handlePreview)
	r.register("post_now", r.handlePostNow)
	r.register("schedule", r.handleSchedule)
	r.register("add_anime", r.handleAddPrompt)
	r.register("remove_anime", r.handleRemovePrompt)
	r.register("status", r.handleStatus)
	r.register("test", r.handleTest)
	r.register("get_chat_id", r.handleGetChatID)
	r.register("reload", r.handleReload)
	r.register("cancel", r.handleCancel)
	return r
}

func (r *Router) register(name string, h HandlerFunc) {
	r.commands[name] = command{name: name, handle: h}
}

// DispatchLoop consumes inbound messages until ctx is done.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan kit.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			r.dispatch(ctx, msg)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, msg kit.Message) {
	name, args, isCommand := splitCommand(msg.Text)

	// /get_chat_id works anywhere: it exists so the operator can discover
	// group/channel ids. Everything else is admin-in-private only.
	if isCommand && name == "get_chat_id" {
		r.run(ctx, msg, name, args)
		return
	}
	if !msg.IsPrivate {
		return
	}
	if !r.isAdmin(msg.FromID) {
		if isCommand {
			r.reply(ctx, msg, notAuthorized)
		}
		return
	}

	if isCommand {
		if _, ok := r.commands[name]; !ok {
			r.reply(ctx, msg, "❓ Unknown command. Send /start for help.")
			return
		}
		r.run(ctx, msg, name, args)
		return
	}

	// Free text from the admin: an add or remove payload block.
	if LooksLikePayload(msg.Text) {
		r.run(ctx, msg, "payload", nil)
	}
}

func (r *Router) run(ctx context.Context, msg kit.Message, name string, args []string) {
	h := r.handlerFor(name)
	if h == nil {
		return
	}
	req := &Request{Msg: msg, Command: name, Args: args}
	if err := Chain(h, r.chain...)(ctx, req); err != nil {
		// Handlers reply with their own user-facing errors; anything that
		// escapes here is unexpected.
		r.reply(ctx, msg, "⚠️ Something went wrong, check the logs.")
	}
}

func (r *Router) handlerFor(name string) HandlerFunc {
	if name == "payload" {
		return r.handlePayload
	}
	if c, ok := r.commands[name]; ok {
		return c.handle
	}
	return nil
}

func (r *Router) isAdmin(userID int64) bool {
	cfg := r.deps.Config()
	if cfg == nil {
		return false
	}
	for _, id := range cfg.Telegram.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (r *Router) reply(ctx context.Context, msg kit.Message, text string) {
	_, err := r.deps.Adapter.SendText(ctx, kit.ChatTarget{ChatID: msg.ChatID}, text, nil)
	if err != nil {
		r.log.Warn("reply failed", logx.Int64("chat_id", msg.ChatID), logx.Err(err))
	}
}

// splitCommand parses "/cmd@botname arg arg" into (cmd, args, true).
func splitCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:], true
}
