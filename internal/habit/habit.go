// Package habit schedules recurring personal routines.
package habit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
)

// Errors.
var (
	ErrInvalidSetup = errors.New("invalid habit setup")
	ErrNoRoom       = errors.New("no free time for the habit in the next week")
)

const (
	flexibleHorizon = 7 * 24 * time.Hour
	dailyRule       = "RRULE:FREQ=DAILY;COUNT=30"
	weeklyCount     = 12
	sessionNote     = "Habit session"
)

var defaultWindow = scheduler.Window{StartHour: 6, EndHour: 22}

var byDay = []string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// Setup describes a habit to schedule.
type Setup struct {
	Name            string
	DurationMinutes int
	// Window is a named part of the day for flexible sessions.
	Window          string
	SessionsPerWeek int
	// FixedTime ("HH:MM") creates a single recurring event instead of
	// individual sessions.
	FixedTime string
}

// Validate checks the setup fields.
func (s Setup) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSetup)
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidSetup)
	}
	if s.SessionsPerWeek < 1 || s.SessionsPerWeek > 7 {
		return fmt.Errorf("%w: sessions per week must be 1-7", ErrInvalidSetup)
	}
	if s.FixedTime != "" {
		if _, _, err := dateutil.ParseClock(s.FixedTime); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSetup, err)
		}
	}
	return nil
}

// Habit is a stored habit record.
type Habit struct {
	ID              int64
	Name            string
	DurationMinutes int
	Window          string
	SessionsPerWeek int
	FixedTime       string
	StartDate       time.Time
}

// Repository records habits.
type Repository interface {
	CreateHabit(ctx context.Context, user int64, h Habit) (int64, error)
}

// Result describes the scheduled habit.
type Result struct {
	HabitID   int64
	Recurring bool
	Cadence   string
	Events    []*calendar.Event
}

// Planner creates habit events.
type Planner struct {
	finder *scheduler.Finder
	repo   Repository
	log    logx.Logger
}

// NewPlanner creates a Planner. repo may be nil.
func NewPlanner(finder *scheduler.Finder, repo Repository, log logx.Logger) *Planner {
	return &Planner{finder: finder, repo: repo, log: log}
}

// Schedule records the habit and creates its calendar events.
func (p *Planner) Schedule(ctx context.Context, backend calendar.Backend, user int64, s Setup, now time.Time) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	if p.repo != nil {
		id, err := p.repo.CreateHabit(ctx, user, Habit{
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			Window:          s.Window,
			SessionsPerWeek: s.SessionsPerWeek,
			FixedTime:       s.FixedTime,
			StartDate:       now,
		})
		if err != nil {
			return nil, fmt.Errorf("recording habit: %w", err)
		}
		res.HabitID = id
	}

	if s.FixedTime != "" {
		return p.recurring(ctx, backend, s, now, res)
	}
	return p.flexible(ctx, backend, s, now, res)
}

func (p *Planner) recurring(ctx context.Context, backend calendar.Backend, s Setup, now time.Time, res *Result) (*Result, error) {
	hour, minute, _ := dateutil.ParseClock(s.FixedTime)
	start := dateutil.At(now.In(p.finder.Location()), hour, minute)
	if start.Before(now) {
		start = start.AddDate(0, 0, 1)
	}

	rule, cadence := Recurrence(s.SessionsPerWeek)
	ev, err := backend.Create(ctx, &calendar.Event{
		Summary:     s.Name,
		Description: fmt.Sprintf("Habit: %s (%s)", s.Name, cadence),
		Start:       start,
		End:         start.Add(time.Duration(s.DurationMinutes) * time.Minute),
		Recurrence:  []string{rule},
		Reminders:   calendar.DefaultReminders(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating habit event: %w", err)
	}

	res.Recurring = true
	res.Cadence = cadence
	res.Events = []*calendar.Event{ev}
	return res, nil
}

// Recurrence returns the RRULE and a short cadence label for n sessions a
// week. Weekly sessions are spread 7/n days apart starting on Monday.
func Recurrence(n int) (string, string) {
	if n >= 7 {
		return dailyRule, "daily"
	}
	if n < 1 {
		n = 1
	}
	step := 7 / n
	days := make([]string, 0, n)
	for i := 0; i < 7 && len(days) < n; i += step {
		days = append(days, byDay[i])
	}
	rule := fmt.Sprintf("RRULE:FREQ=WEEKLY;COUNT=%d;BYDAY=%s", weeklyCount, strings.Join(days, ","))
	return rule, fmt.Sprintf("%d times a week", n)
}

func (p *Planner) flexible(ctx context.Context, backend calendar.Backend, s Setup, now time.Time, res *Result) (*Result, error) {
	window := defaultWindow
	if w, ok := scheduler.PreferredWindow(s.Window); ok {
		window = w
	}

	slots, err := p.finder.Find(ctx, backend, scheduler.Request{
		Duration: time.Duration(s.DurationMinutes) * time.Minute,
		From:     now,
		To:       now.Add(flexibleHorizon),
		Window:   &window,
	}, s.SessionsPerWeek)
	if err != nil {
		return nil, fmt.Errorf("searching habit sessions: %w", err)
	}
	if len(slots) == 0 {
		return nil, ErrNoRoom
	}

	for _, slot := range slots {
		ev, err := backend.Create(ctx, &calendar.Event{
			Summary:     s.Name,
			Description: sessionNote,
			Start:       slot.Start,
			End:         slot.End,
			Reminders:   calendar.DefaultReminders(),
		})
		if err != nil {
			p.log.Error("habit session not created", logx.String("habit", s.Name), logx.Err(err))
			return nil, fmt.Errorf("creating habit session: %w", err)
		}
		res.Events = append(res.Events, ev)
	}
	res.Cadence = fmt.Sprintf("%d sessions this week", len(res.Events))
	return res, nil
}
