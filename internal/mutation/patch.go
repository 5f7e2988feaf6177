// Package mutation applies structured changes to calendar events.
package mutation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

// ErrInvalidPatch is returned when a patch cannot produce a valid event.
var ErrInvalidPatch = errors.New("invalid event change")

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
}

// Valid reports whether the clock is within 00:00-23:59.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Patch is a set of optional changes to an event. Nil fields are left
// untouched.
type Patch struct {
	// Date moves the event to another day; only the calendar date is used.
	Date *time.Time
	// Clock moves the start to a time of day. Without Date the original
	// day is kept.
	Clock *Clock
	// End sets an explicit end time.
	End *time.Time
	// ShiftMinutes moves the event; positive is later. Ignored when Date
	// or Clock is set.
	ShiftMinutes *int
	// DurationMinutes recomputes the end from the resulting start.
	DurationMinutes *int

	Title       *string
	Description *string
	Location    *string

	// AddMeet and RemoveMeet toggle the video link. RemoveMeet wins.
	AddMeet    bool
	RemoveMeet bool

	Category *string
	ColorID  *string

	// ReminderMinutes of 0 removes reminders, N > 0 sets one popup.
	ReminderMinutes *int
	// DefaultReminders restores the calendar default reminders.
	DefaultReminders bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Date == nil && p.Clock == nil && p.End == nil &&
		p.ShiftMinutes == nil && p.DurationMinutes == nil &&
		p.Title == nil && p.Description == nil && p.Location == nil &&
		!p.AddMeet && !p.RemoveMeet &&
		p.Category == nil && p.ColorID == nil &&
		p.ReminderMinutes == nil && !p.DefaultReminders
}

// HasAbsoluteTime reports whether the patch pins the start to a date or
// time of day.
func (p Patch) HasAbsoluteTime() bool {
	return p.Date != nil || p.Clock != nil
}

// Resolve computes the event that results from applying p to original.
// The original is not modified.
//
// Changes are applied in order: absolute start (keeping the duration),
// explicit end, relative shift, new duration, text fields, video link,
// color and reminders.
func Resolve(original *calendar.Event, p Patch) (*calendar.Event, error) {
	ev := original.Clone()
	loc := original.Start.Location()
	length := original.Duration()

	if p.HasAbsoluteTime() {
		day := original.Start
		if p.Date != nil {
			day = p.Date.In(loc)
		}
		clock := Clock{Hour: original.Start.Hour(), Minute: original.Start.Minute()}
		if p.Clock != nil {
			if !p.Clock.Valid() {
				return nil, fmt.Errorf("%w: time %s", ErrInvalidPatch, p.Clock)
			}
			clock = *p.Clock
		}
		ev.Start = time.Date(day.Year(), day.Month(), day.Day(), clock.Hour, clock.Minute, 0, 0, loc)
		ev.End = ev.Start.Add(length)
	}

	if p.End != nil {
		ev.End = p.End.In(loc)
	}

	if p.ShiftMinutes != nil && !p.HasAbsoluteTime() {
		shift := time.Duration(*p.ShiftMinutes) * time.Minute
		ev.Start = ev.Start.Add(shift)
		ev.End = ev.End.Add(shift)
	}

	if p.DurationMinutes != nil {
		if *p.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidPatch)
		}
		ev.End = ev.Start.Add(time.Duration(*p.DurationMinutes) * time.Minute)
	}

	if !ev.End.After(ev.Start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidPatch)
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidPatch)
		}
		ev.Summary = title
	}
	if p.Description != nil {
		ev.Description = strings.TrimSpace(*p.Description)
	}
	if p.Location != nil {
		ev.Location = strings.TrimSpace(*p.Location)
	}

	switch {
	case p.RemoveMeet:
		ev.MeetLink = ""
		ev.RequestMeet = false
	case p.AddMeet:
		ev.RequestMeet = ev.MeetLink == ""
	}

	if p.Category != nil {
		id, ok := calendar.ColorForCategory(*p.Category)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidPatch, *p.Category)
		}
		ev.ColorID = id
	}
	if p.ColorID != nil {
		ev.ColorID = *p.ColorID
	}

	switch {
	case p.ReminderMinutes != nil:
		ev.Reminders = calendar.RemindersFromMinutes(p.ReminderMinutes)
	case p.DefaultReminders:
		ev.Reminders = calendar.DefaultReminders()
	}

	return ev, nil
}

// Changes lists human-readable differences between two versions of an event.
func Changes(before, after *calendar.Event) []string {
	var out []string
	if !before.Start.Equal(after.Start) || !before.End.Equal(after.End) {
		out = append(out, fmt.Sprintf("time: %s → %s",
			calendar.FormatSpan(before.Start, before.End),
			calendar.FormatSpan(after.Start, after.End)))
	}
	if before.Summary != after.Summary {
		out = append(out, fmt.Sprintf("title: %q → %q", before.Summary, after.Summary))
	}
	if before.Description != after.Description {
		out = append(out, "description updated")
	}
	if before.Location != after.Location {
		if after.Location == "" {
			out = append(out, "location removed")
		} else {
			out = append(out, "location: "+after.Location)
		}
	}
	switch {
	case before.MeetLink != "" && after.MeetLink == "" && !after.RequestMeet:
		out = append(out, "video link removed")
	case after.RequestMeet || (before.MeetLink == "" && after.MeetLink != ""):
		out = append(out, "video link added")
	}
	if before.ColorID != after.ColorID {
		if name, ok := calendar.CategoryForColor(after.ColorID); ok {
			out = append(out, "category: "+name)
		} else {
			out = append(out, "color changed")
		}
	}
	if !sameReminders(before.Reminders, after.Reminders) {
		out = append(out, "reminders: "+describeReminders(after.Reminders))
	}
	return out
}

func sameReminders(a, b calendar.Reminders) bool {
	if a.UseDefault != b.UseDefault || len(a.Overrides) != len(b.Overrides) {
		return false
	}
	for i := range a.Overrides {
		if a.Overrides[i] != b.Overrides[i] {
			return false
		}
	}
	return true
}

func describeReminders(r calendar.Reminders) string {
	if r.UseDefault {
		return "default"
	}
	if m, ok := r.FirstOverrideMinutes(); ok {
		return fmt.Sprintf("%d min before", m)
	}
	return "off"
}

// ForSeries rewrites p, aimed at one occurrence of a recurring event, into
// a patch for the series itself. A time change becomes a shift of every
// occurrence plus the new length, so the series never restarts at the
// occurrence. Patches for single events are returned unchanged.
func ForSeries(occurrence, series *calendar.Event, p Patch) (Patch, error) {
	if len(series.Recurrence) == 0 || (!p.HasAbsoluteTime() && p.End == nil && p.ShiftMinutes == nil && p.DurationMinutes == nil) {
		return p, nil
	}
	moved, err := Resolve(occurrence, p)
	if err != nil {
		return p, err
	}

	out := p
	out.Date, out.Clock, out.End = nil, nil, nil
	shift := int(moved.Start.Sub(occurrence.Start) / time.Minute)
	length := int(moved.Duration() / time.Minute)
	out.ShiftMinutes = &shift
	out.DurationMinutes = &length
	return out, nil
}
