package router

import (
	"testing"

	"animebot/internal/schedule"
)

func TestParsePayload(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want Payload
	}{
		{
			name: "full add block",
			text: "Day: Friday\nName: Fairy Tail\nTime: 8:30 PM\nEpisode: S03 E01\nPlatform: 🎬 YouTube [Muse India]",
			want: Payload{
				Day: "friday",
				Entry: schedule.Entry{
					Name:     "Fairy Tail",
					Time:     "8:30 PM",
					Episode:  "S03 E01",
					Platform: "🎬 YouTube [Muse India]",
				},
			},
		},
		{
			name: "remove block",
			text: "Day: monday\nName: One Piece",
			want: Payload{Day: "monday", Entry: schedule.Entry{Name: "One Piece"}},
		},
		{
			name: "time value keeps its own colon",
			text: "day: sunday\nname: X\ntime: 10:45 AM",
			want: Payload{Day: "sunday", Entry: schedule.Entry{Name: "X", Time: "10:45 AM"}},
		},
		{
			name: "mixed case keys and surrounding spaces",
			text: "  DAY :  Wednesday \n NAME:  Dan Da Dan  ",
			want: Payload{Day: "wednesday", Entry: schedule.Entry{Name: "Dan Da Dan"}},
		},
		{
			name: "unknown lines ignored, repeated key keeps last",
			text: "hello there\nDay: monday\nSeason: 2\nDay: tuesday",
			want: Payload{Day: "tuesday"},
		},
		{
			name: "plain chatter yields empty payload",
			text: "what time is the post today?",
			want: Payload{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePayload(tt.text); got != tt.want {
				t.Fatalf("ParsePayload() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHasEntryFields(t *testing.T) {
	t.Parallel()
	add := ParsePayload("Day: friday\nName: X\nTime: 5 PM\nEpisode: E01\nPlatform: TV")
	if !add.HasEntryFields() {
		t.Fatal("full block should count as an add")
	}
	rm := ParsePayload("Day: friday\nName: X")
	if rm.HasEntryFields() {
		t.Fatal("day+name only should count as a remove")
	}
}

func TestLooksLikePayload(t *testing.T) {
	t.Parallel()
	if !LooksLikePayload("Name: Bleach") {
		t.Fatal("name line should look like a payload")
	}
	if LooksLikePayload("random: chatter") {
		t.Fatal("unknown keys should not look like a payload")
	}
}

func TestSplitCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text  string
		cmd   string
		nargs int
		isCmd bool
	}{
		{"/start", "start", 0, true},
		{"/POST_NOW", "post_now", 0, true},
		{"/post_now@AnimeScheduleBot", "post_now", 0, true},
		{"/schedule extra words", "schedule", 2, true},
		{"not a command", "", 0, false},
	}
	for _, tt := range tests {
		cmd, args, isCmd := splitCommand(tt.text)
		if cmd != tt.cmd || len(args) != tt.nargs || isCmd != tt.isCmd {
			t.Fatalf("splitCommand(%q) = (%q, %d args, %v), want (%q, %d, %v)",
				tt.text, cmd, len(args), isCmd, tt.cmd, tt.nargs, tt.isCmd)
		}
	}
}
