package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Post template fragments. These are fixed literals the channel audience
// already knows; change them only together with the channel branding.
const (
	postHeader = `⟣━━━━━━━━━━━━━━━━━━━⟢

📅 %s • %d %s

『 Anime Release Guide | Hindi Dub 』
⟣━━━━━━━━━━━━━━━━━━━⟢

`

	postEntry = `⫷ %s ⫸

┃🕒 Time: %s
┃🎬 Episode: %s
┃📺 Platform: %s
┗━━━━━━━━━━━━━━━

`

	postEmpty = "🎌 No anime releases scheduled for today\n\n"

	postFooter = `📌 Daily Hindi Dub Updates Only On:

🔗

━━━━━━━━━━━━━━━━━━━
#HindiDubbedAnime  #AnimeInHindi
#DrStone #DanDaDan #FairyTail #MuseIndia #CrunchyrollHindi

━━━━━━━━━━━━━━━━━━━`
)

var upperDays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// DayKey maps a calendar date to the schedule key for that weekday.
func DayKey(date time.Time) string {
	return Days[mondayIndex(date)]
}

// mondayIndex converts time.Weekday (Sunday=0) to the canonical order
// (Monday=0).
func mondayIndex(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// FormatPost renders the channel post for date's weekday. Pure: same week
// and date always produce byte-identical output. The caller supplies date
// already in the operator's timezone.
func FormatPost(week Week, date time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, postHeader, upperDays[mondayIndex(date)], date.Day(), date.Format("Jan"))

	entries := week[DayKey(date)]
	if len(entries) == 0 {
		b.WriteString(postEmpty)
	} else {
		for _, e := range entries {
			fmt.Fprintf(&b, postEntry, e.Name, e.Time, e.Episode, e.Platform)
		}
	}

	b.WriteString(postFooter)
	return b.String()
}

// FormatOverview renders the full week for the /schedule admin command.
func FormatOverview(week Week) string {
	var b strings.Builder
	b.WriteString("📅 Current Anime Schedule:\n\n")
	for i, d := range Days {
		fmt.Fprintf(&b, "%s:\n", upperDays[i])
		entries := week[d]
		if len(entries) == 0 {
			b.WriteString("• No anime scheduled\n")
		} else {
			for n, e := range entries {
				fmt.Fprintf(&b, "%d. %s - %s - %s\n", n+1, e.Name, e.Time, e.Episode)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
