// Package calendar defines the calendar event model and the backend contract.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Event statuses.
const (
	StatusConfirmed = "confirmed"
	StatusTentative = "tentative"
	StatusCancelled = "cancelled"
)

// Reminder methods.
const (
	MethodPopup = "popup"
	MethodEmail = "email"
)

// ReminderOverride is a single reminder fired Minutes before the start.
type ReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// Reminders is the reminder configuration of an event.
type Reminders struct {
	UseDefault bool               `json:"use_default"`
	Overrides  []ReminderOverride `json:"overrides,omitempty"`
}

// DefaultReminders returns reminders that follow the calendar default.
func DefaultReminders() Reminders {
	return Reminders{UseDefault: true}
}

// RemindersFromMinutes maps a reminder directive onto a configuration:
// nil keeps the calendar default, 0 disables reminders, and N > 0 sets a
// single popup N minutes before.
func RemindersFromMinutes(minutes *int) Reminders {
	if minutes == nil {
		return DefaultReminders()
	}
	if *minutes <= 0 {
		return Reminders{UseDefault: false, Overrides: []ReminderOverride{}}
	}
	return Reminders{
		UseDefault: false,
		Overrides:  []ReminderOverride{{Method: MethodPopup, Minutes: *minutes}},
	}
}

// FirstOverrideMinutes returns the lead time of the first override, if any.
func (r Reminders) FirstOverrideMinutes() (int, bool) {
	if len(r.Overrides) == 0 {
		return 0, false
	}
	return r.Overrides[0].Minutes, true
}

// Event is a calendar event as seen by the assistant.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Status      string
	Recurrence  []string // RFC 5545 lines, e.g. "RRULE:FREQ=WEEKLY;COUNT=12"
	ColorID     string
	HTMLLink    string
	MeetLink    string
	Reminders   Reminders

	// RequestMeet asks the backend to attach a video conference on write.
	RequestMeet bool
}

// IsCancelled reports whether the event was cancelled.
func (e *Event) IsCancelled() bool {
	return e.Status == StatusCancelled
}

// Duration returns the event length.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	cp := *e
	cp.Recurrence = append([]string(nil), e.Recurrence...)
	if e.Reminders.Overrides != nil {
		cp.Reminders.Overrides = append([]ReminderOverride{}, e.Reminders.Overrides...)
	}
	return &cp
}

// Validate checks the minimal invariants a backend write requires.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Summary) == "" {
		return ErrEmptySummary
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrMissingTime
	}
	if !e.End.After(e.Start) {
		return ErrEndBeforeStart
	}
	return nil
}

// FormatSpan renders an interval as "dd.mm HH:MM–HH:MM".
func FormatSpan(start, end time.Time) string {
	return fmt.Sprintf("%s–%s", start.Format("02.01 15:04"), end.In(start.Location()).Format("15:04"))
}

// Category names.
const (
	CategoryWork     = "work"
	CategoryMeeting  = "meeting"
	CategoryStudy    = "study"
	CategoryPersonal = "personal"
	CategoryHealth   = "health"
	CategorySport    = "sport"
	CategoryHobby    = "hobby"
	CategoryTravel   = "travel"
	CategoryFocus    = "focus"
	CategoryOther    = "other"
)

var categoryColors = map[string]string{
	CategoryWork:     "6",
	CategoryMeeting:  "2",
	CategoryStudy:    "9",
	CategoryPersonal: "5",
	CategoryHealth:   "10",
	CategorySport:    "11",
	CategoryHobby:    "7",
	CategoryTravel:   "4",
	CategoryFocus:    "1",
	CategoryOther:    "3",
}

// ColorForCategory returns the color id of a category.
func ColorForCategory(category string) (string, bool) {
	id, ok := categoryColors[strings.ToLower(strings.TrimSpace(category))]
	return id, ok
}

// CategoryForColor returns the category that owns a color id.
func CategoryForColor(colorID string) (string, bool) {
	for name, id := range categoryColors {
		if id == colorID {
			return name, true
		}
	}
	return "", false
}

// Recurrence presets.
const (
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

var recurrenceRules = map[string]string{
	RecurrenceDaily:   "RRULE:FREQ=DAILY;COUNT=30",
	RecurrenceWeekly:  "RRULE:FREQ=WEEKLY;COUNT=12",
	RecurrenceMonthly: "RRULE:FREQ=MONTHLY;COUNT=6",
}

// RecurrenceRule returns the bounded RRULE line for a preset name.
func RecurrenceRule(preset string) (string, bool) {
	rule, ok := recurrenceRules[strings.ToLower(strings.TrimSpace(preset))]
	return rule, ok
}
