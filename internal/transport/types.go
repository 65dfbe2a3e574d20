package transport

import (
	"context"
	"strconv"
	"strings"
)

// Message is one inbound text message, normalized away from the underlying
// bot library.
type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
	IsPrivate    bool
}

type ChatTarget struct {
	ChatID int64
	// Chat is an optional @username/channel handle. When set it takes
	// precedence over ChatID (channels are usually configured by handle).
	Chat string
}

// TargetFromString parses a configured chat reference: a numeric chat id
// or an @username/channel handle.
func TargetFromString(s string) ChatTarget {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ChatTarget{ChatID: id}
	}
	return ChatTarget{Chat: s}
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

// ChatInfo describes a resolved chat. Used to verify the bot can actually
// reach its configured channel without posting anything.
type ChatInfo struct {
	ID    int64
	Title string
	Type  string
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Adapter is the messaging platform boundary. The rest of the bot only
// speaks this interface; the Telegram implementation lives in
// transport/telegram.
type Adapter interface {
	Start(ctx context.Context, out chan<- Message) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	ChatInfo(ctx context.Context, to ChatTarget) (ChatInfo, error)
}
