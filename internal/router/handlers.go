package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"animebot/internal/schedule"
	kit "animebot/internal/transport"
	logx "animebot/pkg/logx"
)

const helpText = `🤖 Anime Release Bot Commands:

📅 Schedule Management:
/preview - Preview today's post
/post_now - Send post immediately
/schedule - View current schedule
/add_anime - Add new anime (interactive)
/remove_anime - Remove anime from schedule
/reload - Re-read the schedule file

⚙️ Settings:
/status - Bot status
/test - Verify channel access
/get_chat_id - Show this chat's id

📝 Format for adding anime:
Day: monday/tuesday/wednesday/thursday/friday/saturday/sunday
Name: Anime Name
Time: Release time
Episode: Episode info
Platform: Platform info`

const addPrompt = `📝 Add New Anime

Please send the anime details in this format:
Day: friday
Name: Anime Name
Time: 8:30 PM
Episode: S01 E01
Platform: 🎬 YouTube [Channel Name]

Send /cancel to cancel adding anime.`

const removePrompt = `🗑️ Remove Anime

Send the anime removal details in this format:
Day: friday
Name: Anime Name`

func (r *Router) handleStart(ctx context.Context, req *Request) error {
	r.reply(ctx, req.Msg, helpText)
	return nil
}

func (r *Router) handlePreview(ctx context.Context, req *Request) error {
	now := time.Now().In(r.deps.Publisher.Location())
	post := schedule.FormatPost(r.deps.Store.Snapshot(), now)
	r.reply(ctx, req.Msg, "📋 Post Preview:\n\n"+post)
	return nil
}

func (r *Router) handlePostNow(ctx context.Context, req *Request) error {
	if err := r.deps.PublishNow(ctx); err != nil {
		r.reply(ctx, req.Msg, "❌ Sending failed: "+err.Error())
		return err
	}
	r.reply(ctx, req.Msg, "✅ Post sent successfully!")
	return nil
}

func (r *Router) handleSchedule(ctx context.Context, req *Request) error {
	r.reply(ctx, req.Msg, schedule.FormatOverview(r.deps.Store.Snapshot()))
	return nil
}

func (r *Router) handleAddPrompt(ctx context.Context, req *Request) error {
	r.setPending(req.Msg.FromID, true)
	r.reply(ctx, req.Msg, addPrompt)
	return nil
}

func (r *Router) handleRemovePrompt(ctx context.Context, req *Request) error {
	r.setPending(req.Msg.FromID, true)
	r.reply(ctx, req.Msg, removePrompt)
	return nil
}

func (r *Router) handleCancel(ctx context.Context, req *Request) error {
	r.setPending(req.Msg.FromID, false)
	r.reply(ctx, req.Msg, "❌ Operation cancelled.")
	return nil
}

// handlePayload handles the free-text "Key: value" block after /add_anime
// or /remove_anime. A block carrying Time/Episode/Platform is an add;
// day+name alone is a remove.
func (r *Router) handlePayload(ctx context.Context, req *Request) error {
	p := ParsePayload(req.Msg.Text)

	if !p.HasEntryFields() {
		return r.removeEntry(ctx, req, p)
	}
	return r.addEntry(ctx, req, p)
}

func (r *Router) addEntry(ctx context.Context, req *Request, p Payload) error {
	err := r.deps.Store.Add(p.Day, p.Entry)
	r.recordAction(ctx, req.Msg.FromID, "add", p.Day, p.Entry.Name, err)
	if err != nil {
		r.reply(ctx, req.Msg, storeErrorText(err))
		return nil
	}
	r.setPending(req.Msg.FromID, false)
	r.reply(ctx, req.Msg, fmt.Sprintf("✅ Added '%s' to %s schedule!", p.Entry.Name, strings.ToUpper(p.Day)))
	return nil
}

func (r *Router) removeEntry(ctx context.Context, req *Request, p Payload) error {
	if p.Day == "" || p.Entry.Name == "" {
		r.reply(ctx, req.Msg, "❌ Please provide both Day and Name.")
		return nil
	}
	removed, err := r.deps.Store.Remove(p.Day, p.Entry.Name)
	r.recordAction(ctx, req.Msg.FromID, "remove", p.Day, p.Entry.Name, err)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			r.reply(ctx, req.Msg, fmt.Sprintf("❌ Anime '%s' not found in %s schedule.", p.Entry.Name, strings.ToUpper(p.Day)))
			return nil
		}
		r.reply(ctx, req.Msg, storeErrorText(err))
		return nil
	}
	r.setPending(req.Msg.FromID, false)
	r.reply(ctx, req.Msg, fmt.Sprintf("✅ Removed '%s' from %s schedule!", removed.Name, strings.ToUpper(p.Day)))
	return nil
}

func (r *Router) handleStatus(ctx context.Context, req *Request) error {
	cfg := r.deps.Config()
	loc := r.deps.Publisher.Location()
	now := time.Now().In(loc)
	week := r.deps.Store.Snapshot()

	var b strings.Builder
	b.WriteString("🤖 Bot Status\n\n")
	b.WriteString("🔄 Status: Running\n")
	fmt.Fprintf(&b, "📅 Today: %s\n", now.Format("Monday, January 02, 2006"))
	fmt.Fprintf(&b, "🕒 Time: %s (%s)\n", now.Format("15:04:05"), loc.String())
	fmt.Fprintf(&b, "📺 Channel: %s\n", cfg.Telegram.Channel)
	fmt.Fprintf(&b, "⏱ Uptime: %s\n", time.Since(r.started).Round(time.Second))

	if next := r.deps.Publisher.Next(); !next.IsZero() {
		fmt.Fprintf(&b, "📤 Next post: %s\n", next.In(loc).Format("Mon 15:04"))
	} else {
		b.WriteString("📤 Next post: daily publish disabled\n")
	}
	if last, ok, err := r.deps.Audit.LastPost(ctx); err == nil && ok {
		fmt.Fprintf(&b, "📬 Last post: %s (%s)\n", last.At.In(loc).Format("Jan 02 15:04"), last.Trigger)
	}

	b.WriteString("\n📊 Schedule Summary:\n")
	fmt.Fprintf(&b, "Total anime scheduled: %d\n", week.Total())
	for _, d := range schedule.Days {
		fmt.Fprintf(&b, "• %s%s: %d anime\n", strings.ToUpper(d[:1]), d[1:], len(week[d]))
	}

	r.reply(ctx, req.Msg, b.String())
	return nil
}

// handleTest resolves the configured channel without posting, so the admin
// can verify wiring before the first scheduled publish.
func (r *Router) handleTest(ctx context.Context, req *Request) error {
	cfg := r.deps.Config()
	target := kit.TargetFromString(cfg.Telegram.Channel)

	info, err := r.deps.Adapter.ChatInfo(ctx, target)
	if err != nil {
		r.reply(ctx, req.Msg, "❌ Test failed: "+err.Error())
		return nil
	}
	name := info.Title
	if name == "" {
		name = cfg.Telegram.Channel
	}
	r.reply(ctx, req.Msg, fmt.Sprintf("✅ Bot is working correctly!\n\n"+
		"✓ Channel access: OK (%s)\n"+
		"✓ Bot token: Valid\n"+
		"✓ Admin access: Verified", name))
	return nil
}

func (r *Router) handleGetChatID(ctx context.Context, req *Request) error {
	r.reply(ctx, req.Msg, fmt.Sprintf("🆔 Chat ID: %d", req.Msg.ChatID))
	return nil
}

func (r *Router) handleReload(ctx context.Context, req *Request) error {
	err := r.deps.Store.Reload()
	r.recordAction(ctx, req.Msg.FromID, "reload", "", "", err)
	if err != nil {
		r.reply(ctx, req.Msg, "❌ Reload failed: "+err.Error())
		return nil
	}
	week := r.deps.Store.Snapshot()
	r.reply(ctx, req.Msg, fmt.Sprintf("✅ Schedule reloaded (%d anime).", week.Total()))
	return nil
}

func (r *Router) recordAction(ctx context.Context, actorID int64, action, day, name string, opErr error) {
	errMsg := ""
	if opErr != nil {
		errMsg = opErr.Error()
	}
	if err := r.deps.Audit.RecordAction(ctx, actorID, action, day, name, errMsg); err != nil {
		r.log.Warn("audit write failed", logx.Err(err))
	}
}

// storeErrorText maps each store error kind to a distinct admin-facing
// rejection message.
func storeErrorText(err error) string {
	switch {
	case errors.Is(err, schedule.ErrInvalidDay):
		return "❌ Invalid day. Use: monday, tuesday, wednesday, thursday, friday, saturday, sunday"
	case errors.Is(err, schedule.ErrInvalidEntry):
		msg := err.Error()
		if i := strings.Index(msg, "missing "); i >= 0 {
			return "❌ Missing required fields: " + msg[i+len("missing "):]
		}
		return "❌ Missing required fields. Please include Name, Time, Episode, and Platform."
	case errors.Is(err, schedule.ErrWrite):
		return "❌ Could not save the schedule; nothing was changed. Check disk space and permissions."
	case errors.Is(err, schedule.ErrCorrupt):
		return "❌ Schedule file is corrupt: " + err.Error()
	default:
		return "❌ " + err.Error()
	}
}
