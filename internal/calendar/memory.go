package calendar

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend is an in-process Backend. Instance ids of recurring events
// resolve to their series, so updates and deletes apply to the whole series.
type MemoryBackend struct {
	mu     sync.RWMutex
	events map[string]*Event
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{events: make(map[string]*Event)}
}

// List returns events overlapping [from, to) ordered by start time.
func (m *MemoryBackend) List(_ context.Context, from, to time.Time, limit int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(from, to, limit, func(*Event) bool { return true })
}

// Search returns events in [from, to) whose summary, description or location
// contains query, case-insensitively.
func (m *MemoryBackend) Search(_ context.Context, query string, from, to time.Time, limit int) ([]Event, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(from, to, limit, func(ev *Event) bool {
		return MatchesQuery(ev, q)
	})
}

func (m *MemoryBackend) collect(from, to time.Time, limit int, keep func(*Event) bool) ([]Event, error) {
	var out []Event
	for _, ev := range m.events {
		if !keep(ev) {
			continue
		}
		occ, err := Expand(*ev.Clone(), from, to, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}
	SortByStart(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns an event by id.
func (m *MemoryBackend) Get(_ context.Context, id string) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[BaseID(id)]
	if !ok {
		return nil, ErrNotFound
	}
	return ev.Clone(), nil
}

// Create stores a new event under a fresh id.
func (m *MemoryBackend) Create(_ context.Context, ev *Event) (*Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	stored := ev.Clone()
	stored.ID = uuid.NewString()
	Finalize(stored)

	m.mu.Lock()
	m.events[stored.ID] = stored
	m.mu.Unlock()
	return stored.Clone(), nil
}

// Update replaces a stored event.
func (m *MemoryBackend) Update(_ context.Context, id string, ev *Event) (*Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	id = BaseID(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return nil, ErrNotFound
	}
	stored := ev.Clone()
	stored.ID = id
	Finalize(stored)
	m.events[id] = stored
	return stored.Clone(), nil
}

// Delete removes an event.
func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	id = BaseID(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// Len returns the number of stored events (series count once).
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Finalize fills backend-owned fields of a stored event.
func Finalize(ev *Event) {
	if ev.Status == "" {
		ev.Status = StatusConfirmed
	}
	if ev.HTMLLink == "" {
		ev.HTMLLink = LocalLink(ev.ID)
	}
	if ev.RequestMeet && ev.MeetLink == "" {
		ev.MeetLink = LocalMeetLink()
	}
	ev.RequestMeet = false
}

// LocalLink is the link of an event stored outside a hosted calendar.
func LocalLink(id string) string {
	return "calassist://event/" + id
}

// LocalMeetLink returns a placeholder conference link for local calendars.
func LocalMeetLink() string {
	return "calassist://meet/" + uuid.NewString()[:8]
}

// MatchesQuery reports whether ev contains a lower-cased query in its text.
func MatchesQuery(ev *Event, q string) bool {
	if q == "" {
		return true
	}
	text := strings.ToLower(ev.Summary + "\n" + ev.Description + "\n" + ev.Location)
	return strings.Contains(text, q)
}

// SortByStart orders events by start time, then id.
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
}
