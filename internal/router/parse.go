package router

import (
	"strings"

	"animebot/internal/schedule"
)

// Payload is the parsed "Key: value" block the admin sends after
// /add_anime or /remove_anime.
type Payload struct {
	Day   string
	Entry schedule.Entry
}

// HasEntryFields reports whether the payload carries more than day+name,
// which distinguishes an add from a remove.
func (p Payload) HasEntryFields() bool {
	return p.Entry.Time != "" || p.Entry.Episode != "" || p.Entry.Platform != ""
}

// ParsePayload extracts Day/Name/Time/Episode/Platform lines from free text.
// Unknown lines are ignored; repeated keys keep the last value. Values keep
// their inner whitespace (platform strings carry emoji and brackets).
func ParsePayload(text string) Payload {
	var p Payload
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "day":
			p.Day = strings.ToLower(val)
		case "name":
			p.Entry.Name = val
		case "time":
			p.Entry.Time = val
		case "episode":
			p.Entry.Episode = val
		case "platform":
			p.Entry.Platform = val
		}
	}
	return p
}

// LooksLikePayload reports whether text is plausibly an add/remove block
// rather than chatter.
func LooksLikePayload(text string) bool {
	p := ParsePayload(text)
	return p.Day != "" || p.Entry.Name != ""
}
