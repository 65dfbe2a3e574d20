package schedule

// Entry is one release record shown in the daily post.
//
// All four fields are free-text display strings; Time is never parsed.
type Entry struct {
	Name     string `json:"name"`
	Time     string `json:"time"`
	Episode  string `json:"episode"`
	Platform string `json:"platform"`
}

// Week maps a lowercase weekday key to that day's releases, in insertion order.
//
// A valid Week carries exactly the seven canonical keys; empty days hold an
// empty (non-nil after normalization) slice.
type Week map[string][]Entry

// Days is the canonical week order. Index 0 is Monday, matching the
// display order of the schedule overview and the daily post header.
var Days = []string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
	"sunday",
}

// ValidDay reports whether day is one of the seven canonical keys.
func ValidDay(day string) bool {
	for _, d := range Days {
		if d == day {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Mutating the copy never affects the receiver.
func (w Week) Clone() Week {
	cp := make(Week, len(Days))
	for _, d := range Days {
		entries := w[d]
		cp[d] = append(make([]Entry, 0, len(entries)), entries...)
	}
	return cp
}

// Total returns the number of entries across the whole week.
func (w Week) Total() int {
	n := 0
	for _, d := range Days {
		n += len(w[d])
	}
	return n
}

// emptyWeek returns a Week with all seven days present and empty.
func emptyWeek() Week {
	w := make(Week, len(Days))
	for _, d := range Days {
		w[d] = []Entry{}
	}
	return w
}

// defaultWeek is the seeded first-run schedule: all days empty except Friday,
// which carries two illustrative entries so a fresh deployment renders a
// non-trivial post.
func defaultWeek() Week {
	w := emptyWeek()
	w["friday"] = []Entry{
		{
			Name:     "Yaiba : Samurai Legend",
			Time:     "~~~",
			Episode:  "S01 E08",
			Platform: "📱 Amazon prime video [Anime Times]",
		},
		{
			Name:     "Fairy Tail",
			Time:     "8:30 PM",
			Episode:  "S03 E01",
			Platform: "🎬 YouTube [Muse India]",
		},
	}
	return w
}
