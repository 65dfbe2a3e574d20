package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Publish controls the daily channel post trigger.
	Publish PublishConfig `json:"publish"`

	// ScheduleFile is the path of the weekly schedule JSON.
	ScheduleFile string `json:"schedule_file"`

	Health HealthConfig `json:"health,omitempty"`
	Audit  AuditConfig  `json:"audit,omitempty"`
}

type TelegramConfig struct {
	// Token may be left empty in the file and supplied via the BOT_TOKEN
	// environment variable instead (keeps secrets out of the config).
	Token string `json:"token"`

	// Channel is the publish target: @username or a numeric chat id.
	Channel string `json:"channel"`

	// AdminUserIDs are the only users allowed to issue bot commands.
	AdminUserIDs []int64 `json:"admin_user_ids"`

	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file,omitempty"`
	Telegram LoggingTelegram `json:"telegram,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram mirrors warnings and errors into an operator chat.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     int64  `json:"chat_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

type PublishConfig struct {
	Enabled bool `json:"enabled"`

	// At is the local wall-clock post time, "HH:MM" 24h.
	At string `json:"at"`

	// Timezone is an IANA name (e.g. "Asia/Kolkata"). Empty means the
	// process-local timezone.
	Timezone string `json:"timezone,omitempty"`
}

type HealthConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default "127.0.0.1:8080"
}

// AuditConfig controls the optional sqlite audit log
// (published posts + admin mutations).
type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}
