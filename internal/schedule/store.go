package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "animebot/pkg/logx"
)

// Store owns the schedule file and the single live in-memory Week.
//
// All mutations run under one mutex: validate, mutate in memory, persist,
// roll back on persist failure. Snapshot takes the same lock, so a reader
// never observes a half-applied mutation.
type Store struct {
	mu   sync.Mutex
	path string
	week Week
	log  logx.Logger
}

// Open loads the schedule from path. If the file does not exist, the seeded
// default week is written out immediately (self-healing bootstrap) and
// returned. An existing but unparsable file yields an error wrapping
// ErrCorrupt; the file is left untouched.
func Open(path string, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("schedule path is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Store{path: path, log: log}

	w, err := readWeek(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		s.week = defaultWeek()
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
		s.log.Info("created default schedule", logx.String("path", path))
		return s, nil
	}

	s.week = w
	s.log.Debug("schedule loaded", logx.String("path", path), logx.Int("entries", w.Total()))
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Snapshot returns a deep copy of the current week. No I/O.
func (s *Store) Snapshot() Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.week.Clone()
}

// Reload re-reads the backing file, replacing the in-memory week. The lock
// is held across read and swap so a concurrent mutation cannot land between
// them and be lost.
//
// A corrupt or missing file leaves the in-memory state untouched; after a
// successful initial Open the previously loaded week keeps serving reads.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := readWeek(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s does not exist", ErrCorrupt, s.path)
		}
		return err
	}
	s.week = w
	s.log.Info("schedule reloaded", logx.String("path", s.path), logx.Int("entries", w.Total()))
	return nil
}

// Add validates and appends e to day's list, then persists. On persist
// failure the append is rolled back and the entry is not considered added.
func (s *Store) Add(day string, e Entry) error {
	day = strings.ToLower(strings.TrimSpace(day))
	if !ValidDay(day) {
		return fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	if missing := missingFields(e); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidEntry, strings.Join(missing, ", "))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.week[day] = append(s.week[day], e)
	if err := s.persistLocked(); err != nil {
		s.week[day] = s.week[day][:len(s.week[day])-1]
		return err
	}
	s.log.Info("entry added",
		logx.String("day", day),
		logx.String("name", e.Name),
	)
	return nil
}

// Remove deletes the first entry on day whose name matches case-insensitively
// and returns it. Later duplicates stay. On persist failure the removal is
// rolled back.
func (s *Store) Remove(day, name string) (Entry, error) {
	day = strings.ToLower(strings.TrimSpace(day))
	if !ValidDay(day) {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.week[day]
	for i, e := range entries {
		if !strings.EqualFold(e.Name, name) {
			continue
		}
		s.week[day] = append(entries[:i:i], entries[i+1:]...)
		if err := s.persistLocked(); err != nil {
			s.week[day] = entries
			return Entry{}, err
		}
		s.log.Info("entry removed",
			logx.String("day", day),
			logx.String("name", e.Name),
		)
		return e, nil
	}
	return Entry{}, fmt.Errorf("%w: %q on %s", ErrNotFound, name, day)
}

// persistLocked writes the full week atomically: marshal, write a sibling
// temp file, rename into place. A crash mid-write never leaves a truncated
// schedule file behind. Caller holds s.mu.
func (s *Store) persistLocked() error {
	b, err := json.MarshalIndent(s.week, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrWrite, err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// readWeek parses and shape-checks the schedule file. Besides JSON validity
// it requires exactly the seven canonical weekday keys.
func readWeek(path string) (Week, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w Week
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	for _, d := range Days {
		if _, ok := w[d]; !ok {
			return nil, fmt.Errorf("%w: %s: missing day %q", ErrCorrupt, path, d)
		}
	}
	for k := range w {
		if !ValidDay(k) {
			return nil, fmt.Errorf("%w: %s: unexpected key %q", ErrCorrupt, path, k)
		}
		if w[k] == nil {
			w[k] = []Entry{}
		}
	}
	return w, nil
}

func missingFields(e Entry) []string {
	var missing []string
	if strings.TrimSpace(e.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(e.Time) == "" {
		missing = append(missing, "time")
	}
	if strings.TrimSpace(e.Episode) == "" {
		missing = append(missing, "episode")
	}
	if strings.TrimSpace(e.Platform) == "" {
		missing = append(missing, "platform")
	}
	return missing
}
