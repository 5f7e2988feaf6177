package habit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
)

type fakeRepo struct {
	habits []Habit
}

func (r *fakeRepo) CreateHabit(_ context.Context, _ int64, h Habit) (int64, error) {
	r.habits = append(r.habits, h)
	return int64(len(r.habits)), nil
}

// Monday 2025-01-06 10:00 UTC.
var now = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

func newPlanner(repo Repository) *Planner {
	return NewPlanner(scheduler.NewFinder(scheduler.Options{}), repo, logx.Nop())
}

func TestRecurrence(t *testing.T) {
	tests := []struct {
		n    int
		rule string
	}{
		{7, "RRULE:FREQ=DAILY;COUNT=30"},
		{1, "RRULE:FREQ=WEEKLY;COUNT=12;BYDAY=MO"},
		{2, "RRULE:FREQ=WEEKLY;COUNT=12;BYDAY=MO,TH"},
		{3, "RRULE:FREQ=WEEKLY;COUNT=12;BYDAY=MO,WE,FR"},
		{5, "RRULE:FREQ=WEEKLY;COUNT=12;BYDAY=MO,TU,WE,TH,FR"},
	}
	for _, tc := range tests {
		if rule, _ := Recurrence(tc.n); rule != tc.rule {
			t.Errorf("%d sessions: expected %s, got %s", tc.n, tc.rule, rule)
		}
	}
}

func TestSchedule_FixedTime(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	repo := &fakeRepo{}

	res, err := newPlanner(repo).Schedule(context.Background(), backend, 7, Setup{
		Name: "Run", DurationMinutes: 45, SessionsPerWeek: 3, FixedTime: "07:30",
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Recurring || len(res.Events) != 1 {
		t.Fatalf("expected one recurring event, got %+v", res)
	}
	ev := res.Events[0]
	// 07:30 already passed on Monday, so the series starts Tuesday.
	want := time.Date(2025, 1, 7, 7, 30, 0, 0, time.UTC)
	if !ev.Start.Equal(want) {
		t.Errorf("expected start %v, got %v", want, ev.Start)
	}
	if len(ev.Recurrence) != 1 || ev.Recurrence[0] != "RRULE:FREQ=WEEKLY;COUNT=12;BYDAY=MO,WE,FR" {
		t.Errorf("unexpected recurrence %v", ev.Recurrence)
	}
	if len(repo.habits) != 1 || res.HabitID != 1 {
		t.Errorf("expected habit to be recorded first")
	}
}

func TestSchedule_Flexible(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	// Morning of Tuesday is taken until 08:00.
	if _, err := backend.Create(context.Background(), &calendar.Event{
		Summary: "early call",
		Start:   time.Date(2025, 1, 7, 6, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 1, 7, 8, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	res, err := newPlanner(nil).Schedule(context.Background(), backend, 7, Setup{
		Name: "Stretch", DurationMinutes: 30, SessionsPerWeek: 3, Window: "morning",
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 7, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 8, 6, 0, 0, 0, time.UTC),
	}
	if len(res.Events) != len(want) {
		t.Fatalf("expected %d sessions, got %d", len(want), len(res.Events))
	}
	for i, ev := range res.Events {
		if !ev.Start.Equal(want[i]) {
			t.Errorf("session %d: expected %v, got %v", i, want[i], ev.Start)
		}
		if ev.Description != "Habit session" {
			t.Errorf("expected habit description, got %q", ev.Description)
		}
	}
}

func TestSchedule_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		setup Setup
	}{
		{"no name", Setup{DurationMinutes: 30, SessionsPerWeek: 3}},
		{"no duration", Setup{Name: "x", SessionsPerWeek: 3}},
		{"too many sessions", Setup{Name: "x", DurationMinutes: 30, SessionsPerWeek: 8}},
		{"bad time", Setup{Name: "x", DurationMinutes: 30, SessionsPerWeek: 1, FixedTime: "7pm"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newPlanner(nil).Schedule(context.Background(), calendar.NewMemoryBackend(), 1, tc.setup, now)
			if !errors.Is(err, ErrInvalidSetup) {
				t.Errorf("expected ErrInvalidSetup, got %v", err)
			}
		})
	}
}
