package router

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"animebot/internal/config"
	"animebot/internal/publisher"
	"animebot/internal/schedule"
	kit "animebot/internal/transport"
	logx "animebot/pkg/logx"
)

// fakeAdapter records outbound texts instead of talking to Telegram.
type fakeAdapter struct {
	mu    sync.Mutex
	sends []sentText

	chatInfo    kit.ChatInfo
	chatInfoErr error
}

type sentText struct {
	to   kit.ChatTarget
	text string
}

func (f *fakeAdapter) Start(context.Context, chan<- kit.Message) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                      { return nil }

func (f *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentText{to: to, text: text})
	return kit.MessageRef{ChatID: to.ChatID}, nil
}

func (f *fakeAdapter) ChatInfo(context.Context, kit.ChatTarget) (kit.ChatInfo, error) {
	return f.chatInfo, f.chatInfoErr
}

func (f *fakeAdapter) last(t *testing.T) sentText {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sends) == 0 {
		t.Fatal("no message was sent")
	}
	return f.sends[len(f.sends)-1]
}

func (f *fakeAdapter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

const adminID = int64(42)

func newTestRouter(t *testing.T) (*Router, *fakeAdapter, *schedule.Store) {
	t.Helper()

	store, err := schedule.Open(filepath.Join(t.TempDir(), "schedule.json"), logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	adapter := &fakeAdapter{}
	cfg := &config.Config{}
	cfg.Telegram.Channel = "@testchannel"
	cfg.Telegram.AdminUserIDs = []int64{adminID}

	pub := publisher.New(publisher.Config{}, nil, logx.Nop())

	r := New(Deps{
		Adapter:    adapter,
		Store:      store,
		Publisher:  pub,
		Audit:      nil,
		Config:     func() *config.Config { return cfg },
		PublishNow: func(context.Context) error { return nil },
	}, logx.Nop())
	return r, adapter, store
}

func adminMsg(text string) kit.Message {
	return kit.Message{ChatID: 100, FromID: adminID, Text: text, IsPrivate: true}
}

func TestDispatchRejectsNonAdmin(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)

	r.dispatch(context.Background(), kit.Message{
		ChatID: 7, FromID: 999, Text: "/post_now", IsPrivate: true,
	})
	if got := adapter.last(t).text; got != notAuthorized {
		t.Fatalf("reply = %q, want authorization rejection", got)
	}

	// Non-admin free text gets no reply at all.
	before := adapter.count()
	r.dispatch(context.Background(), kit.Message{
		ChatID: 7, FromID: 999, Text: "Day: monday\nName: X", IsPrivate: true,
	})
	if adapter.count() != before {
		t.Fatal("non-admin payload text was answered")
	}
}

func TestDispatchIgnoresGroupCommands(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)

	r.dispatch(context.Background(), kit.Message{
		ChatID: -100500, FromID: adminID, Text: "/schedule", IsPrivate: false,
	})
	if adapter.count() != 0 {
		t.Fatal("group command was answered")
	}

	// get_chat_id is the one command that works anywhere.
	r.dispatch(context.Background(), kit.Message{
		ChatID: -100500, FromID: 999, Text: "/get_chat_id", IsPrivate: false,
	})
	if got := adapter.last(t).text; got != "🆔 Chat ID: -100500" {
		t.Fatalf("get_chat_id reply = %q", got)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)

	r.dispatch(context.Background(), adminMsg("/frobnicate"))
	if got := adapter.last(t).text; !strings.Contains(got, "Unknown command") {
		t.Fatalf("reply = %q, want unknown-command hint", got)
	}
}

func TestStartShowsHelp(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)

	r.dispatch(context.Background(), adminMsg("/start"))
	got := adapter.last(t).text
	for _, cmd := range []string{"/preview", "/post_now", "/add_anime", "/remove_anime", "/status"} {
		if !strings.Contains(got, cmd) {
			t.Fatalf("help text missing %s:\n%s", cmd, got)
		}
	}
}

func TestAddFlow(t *testing.T) {
	t.Parallel()
	r, adapter, store := newTestRouter(t)
	ctx := context.Background()

	r.dispatch(ctx, adminMsg("/add_anime"))
	if got := adapter.last(t).text; !strings.Contains(got, "📝 Add New Anime") {
		t.Fatalf("prompt = %q", got)
	}

	r.dispatch(ctx, adminMsg("Day: monday\nName: Dr. Stone\nTime: 7 PM\nEpisode: S04 E02\nPlatform: Crunchyroll"))
	if got := adapter.last(t).text; got != "✅ Added 'Dr. Stone' to MONDAY schedule!" {
		t.Fatalf("add reply = %q", got)
	}
	if entries := store.Snapshot()["monday"]; len(entries) != 1 || entries[0].Name != "Dr. Stone" {
		t.Fatalf("store not updated: %+v", entries)
	}
}

func TestAddInvalidDay(t *testing.T) {
	t.Parallel()
	r, adapter, store := newTestRouter(t)

	r.dispatch(context.Background(), adminMsg("Day: someday\nName: X\nTime: 7 PM\nEpisode: E1\nPlatform: TV"))
	if got := adapter.last(t).text; !strings.Contains(got, "❌ Invalid day") {
		t.Fatalf("reply = %q", got)
	}
	if got := store.Snapshot().Total(); got != 2 {
		t.Fatalf("store changed on invalid add: total = %d", got)
	}
}

func TestAddMissingFieldsNamed(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)

	r.dispatch(context.Background(), adminMsg("Day: monday\nName: X\nTime: 7 PM"))
	// Time present but Episode/Platform missing still counts as an add
	// attempt, and the reply names what is missing.
	got := adapter.last(t).text
	if !strings.Contains(got, "Missing required fields") ||
		!strings.Contains(got, "episode") || !strings.Contains(got, "platform") {
		t.Fatalf("reply = %q", got)
	}
}

func TestRemoveFlow(t *testing.T) {
	t.Parallel()
	r, adapter, store := newTestRouter(t)
	ctx := context.Background()

	r.dispatch(ctx, adminMsg("/remove_anime"))
	if got := adapter.last(t).text; !strings.Contains(got, "🗑️ Remove Anime") {
		t.Fatalf("prompt = %q", got)
	}

	r.dispatch(ctx, adminMsg("Day: friday\nName: fairy tail"))
	if got := adapter.last(t).text; got != "✅ Removed 'Fairy Tail' from FRIDAY schedule!" {
		t.Fatalf("remove reply = %q", got)
	}
	if entries := store.Snapshot()["friday"]; len(entries) != 1 {
		t.Fatalf("friday still has %d entries", len(entries))
	}

	r.dispatch(ctx, adminMsg("Day: friday\nName: fairy tail"))
	if got := adapter.last(t).text; got != "❌ Anime 'fairy tail' not found in FRIDAY schedule." {
		t.Fatalf("missing remove reply = %q", got)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)
	ctx := context.Background()

	r.dispatch(ctx, adminMsg("/add_anime"))
	r.dispatch(ctx, adminMsg("/cancel"))
	if got := adapter.last(t).text; got != "❌ Operation cancelled." {
		t.Fatalf("cancel reply = %q", got)
	}
}

func TestPostNow(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)
	published := false
	r.deps.PublishNow = func(context.Context) error { published = true; return nil }

	r.dispatch(context.Background(), adminMsg("/post_now"))
	if !published {
		t.Fatal("PublishNow was not called")
	}
	if got := adapter.last(t).text; got != "✅ Post sent successfully!" {
		t.Fatalf("reply = %q", got)
	}
}

func TestPreviewContainsPost(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)

	r.dispatch(context.Background(), adminMsg("/preview"))
	got := adapter.last(t).text
	if !strings.HasPrefix(got, "📋 Post Preview:") {
		t.Fatalf("preview reply = %q", got)
	}
	if !strings.Contains(got, "『 Anime Release Guide | Hindi Dub 』") {
		t.Fatalf("preview missing post body:\n%s", got)
	}
}

func TestChannelAccessCheck(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)
	adapter.chatInfo = kit.ChatInfo{ID: -100123, Title: "Anime Channel", Type: "channel"}

	r.dispatch(context.Background(), adminMsg("/test"))
	got := adapter.last(t).text
	for _, want := range []string{
		"✅ Bot is working correctly!",
		"✓ Channel access: OK (Anime Channel)",
		"✓ Bot token: Valid",
		"✓ Admin access: Verified",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("test reply missing %q:\n%s", want, got)
		}
	}
}

func TestChannelAccessCheckFailure(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)
	adapter.chatInfoErr = errors.New("chat not found")

	r.dispatch(context.Background(), adminMsg("/test"))
	if got := adapter.last(t).text; got != "❌ Test failed: chat not found" {
		t.Fatalf("failure reply = %q", got)
	}
}

func TestStatusSummary(t *testing.T) {
	t.Parallel()
	r, adapter, _ := newTestRouter(t)

	r.dispatch(context.Background(), adminMsg("/status"))
	got := adapter.last(t).text
	for _, want := range []string{
		"🤖 Bot Status",
		"📺 Channel: @testchannel",
		"Total anime scheduled: 2",
		"• Friday: 2 anime",
		"daily publish disabled",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("status missing %q:\n%s", want, got)
		}
	}
}
