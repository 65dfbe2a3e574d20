// Package audit keeps a small sqlite history of published posts and admin
// schedule mutations. It backs the /status command and the health endpoint;
// the bot works fine with it disabled.
package audit

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "animebot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Post triggers.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Log is the audit database. A nil *Log is a valid disabled log: every
// method is a no-op, so callers don't branch on whether auditing is on.
type Log struct {
	db  *sql.DB
	log logx.Logger
}

type PostRecord struct {
	At      time.Time
	Trigger string
	Chat    string
	Chars   int
}

func Open(path string, log logx.Logger) (*Log, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("audit path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 3000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	l := &Log{db: db, log: log}
	if err := l.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx, string(b))
	return err
}

func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RecordPost stores one published channel post.
func (l *Log) RecordPost(ctx context.Context, trigger, chat string, chars int) error {
	if l == nil || l.db == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO posts(at, trig, chat, chars) VALUES(?,?,?,?)`,
		time.Now().Format(time.RFC3339Nano), trigger, chat, chars,
	)
	return err
}

// LastPost returns the most recent published post, if any.
func (l *Log) LastPost(ctx context.Context) (PostRecord, bool, error) {
	if l == nil || l.db == nil {
		return PostRecord{}, false, nil
	}
	row := l.db.QueryRowContext(ctx,
		`SELECT at, trig, chat, chars FROM posts ORDER BY id DESC LIMIT 1`)
	var at string
	var r PostRecord
	if err := row.Scan(&at, &r.Trigger, &r.Chat, &r.Chars); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PostRecord{}, false, nil
		}
		return PostRecord{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return PostRecord{}, false, err
	}
	r.At = t
	return r, true, nil
}

// RecordAction stores one admin schedule mutation (add/remove/reload).
// errMsg is empty for successful actions.
func (l *Log) RecordAction(ctx context.Context, actorID int64, action, day, name, errMsg string) error {
	if l == nil || l.db == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO actions(at, actor_id, action, day, name, err) VALUES(?,?,?,?,?,?)`,
		time.Now().Format(time.RFC3339Nano), actorID, action, day, name, nullStr(errMsg),
	)
	return err
}

// CountPosts returns the number of posts ever published.
func (l *Log) CountPosts(ctx context.Context) (int, error) {
	if l == nil || l.db == nil {
		return 0, nil
	}
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
