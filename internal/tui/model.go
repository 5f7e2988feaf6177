// Package tui provides a terminal week view of the calendar.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/tui/theme"
)

// weekLimit caps the events loaded for one week.
const weekLimit = 500

// Model is the week view model.
type Model struct {
	backend calendar.Backend
	loc     *time.Location
	nowFunc func() time.Time

	palette *theme.Palette
	styles  *Styles
	keys    keyMap
	help    help.Model

	weekStart time.Time // Monday of the shown week
	days      [7][]calendar.Event
	day       int // 0=Monday, 6=Sunday
	index     int // selected event of the day

	loading    bool
	confirming bool // waiting for y/n on delete
	status     string
	statusTime time.Time

	width  int
	height int
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) ModelOption {
	return func(m *Model) {
		m.nowFunc = now
	}
}

// WithTheme selects the color theme.
func WithTheme(t *theme.Theme) ModelOption {
	return func(m *Model) {
		m.palette = theme.NewPalette(t)
	}
}

// New creates a week view over backend, showing the current week.
func New(backend calendar.Backend, loc *time.Location, opts ...ModelOption) *Model {
	if loc == nil {
		loc = time.Local
	}
	m := &Model{
		backend: backend,
		loc:     loc,
		nowFunc: time.Now,
		keys:    defaultKeys(),
		help:    help.New(),
		width:   100,
		height:  30,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.palette == nil {
		m.palette = theme.NewPalette(nil)
	}
	m.styles = NewStyles(m.palette)

	now := m.now()
	m.weekStart = startOfWeek(now)
	m.day = weekdayIndex(now)
	m.loading = true
	return m
}

// Init loads the first week.
func (m Model) Init() tea.Cmd {
	return loadWeek(m.backend, m.weekStart)
}

func (m Model) now() time.Time {
	return m.nowFunc().In(m.loc)
}

// selected returns the highlighted event, or nil on an empty day.
func (m Model) selected() *calendar.Event {
	events := m.days[m.day]
	if m.index < 0 || m.index >= len(events) {
		return nil
	}
	return &events[m.index]
}

// setWeek fills the day columns. Multi-day events appear on each day they
// touch.
func (m *Model) setWeek(events []calendar.Event) {
	m.days = [7][]calendar.Event{}
	for _, ev := range events {
		if ev.IsCancelled() {
			continue
		}
		for d := 0; d < 7; d++ {
			dayStart := m.weekStart.AddDate(0, 0, d)
			if ev.Start.Before(dayStart.AddDate(0, 0, 1)) && ev.End.After(dayStart) {
				m.days[d] = append(m.days[d], ev)
			}
		}
	}
	m.clampIndex()
}

func (m *Model) clampIndex() {
	if n := len(m.days[m.day]); m.index >= n {
		m.index = n - 1
	}
	if m.index < 0 {
		m.index = 0
	}
}

func startOfWeek(t time.Time) time.Time {
	return dateutil.TruncateToDay(t).AddDate(0, 0, -weekdayIndex(t))
}

// weekdayIndex returns 0 for Monday through 6 for Sunday.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
