// Package intent converts classifier output into typed requests.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a classifier reply holds no JSON object.
var ErrNoJSON = errors.New("no JSON object in classifier reply")

// Raw is the classifier reply as it arrives. Numeric and boolean fields
// are left untyped because models send them as numbers, strings or null.
type Raw struct {
	Intent      string          `json:"intent"`
	Confidence  any             `json:"confidence"`
	Reply       string          `json:"assistant_reply"`
	Event       *RawEvent       `json:"event,omitempty"`
	FreeSlot    *RawFreeSlot    `json:"free_slot,omitempty"`
	Agenda      *RawAgenda      `json:"agenda,omitempty"`
	EventQuery  *RawEventQuery  `json:"event_query,omitempty"`
	EventUpdate *RawEventUpdate `json:"event_update,omitempty"`
	SeriesPlan  *RawSeriesPlan  `json:"series_plan,omitempty"`
	Habit       *RawHabit       `json:"habit,omitempty"`
}

// RawEvent is a proposed new event.
type RawEvent struct {
	Title           *string `json:"title"`
	Date            *string `json:"date"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
	DurationMinutes any     `json:"duration_minutes"`
	Recurrence      *string `json:"recurrence"`
	Location        *string `json:"location"`
	Notes           *string `json:"notes"`
	NeedsMeet       any     `json:"needs_meet"`
	Category        *string `json:"category"`
	ReminderMinutes any     `json:"reminder_minutes"`
}

// RawFreeSlot is a free time search.
type RawFreeSlot struct {
	DateFrom        *string `json:"date_from"`
	DateTo          *string `json:"date_to"`
	DurationMinutes any     `json:"duration_minutes"`
	PreferredWindow *string `json:"preferred_window"`
}

// RawAgenda is an agenda request.
type RawAgenda struct {
	Date       *string `json:"date"`
	TimeWindow *string `json:"time_window"`
}

// RawEventQuery identifies existing events.
type RawEventQuery struct {
	Keywords *string `json:"keywords"`
	Date     *string `json:"date"`
}

// RawEventUpdate lists changes to an existing event.
type RawEventUpdate struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Location        *string `json:"location"`
	Date            *string `json:"date"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
	DurationMinutes any     `json:"duration_minutes"`
	ShiftMinutes    any     `json:"shift_minutes"`
	AddMeet         any     `json:"add_meet"`
	RemoveMeet      any     `json:"remove_meet"`
	Category        *string `json:"category"`
	ReminderMinutes any     `json:"reminder_minutes"`
}

// RawSeriesPlan is a deadline-bound work plan.
type RawSeriesPlan struct {
	Title           *string `json:"title"`
	Deadline        *string `json:"deadline"`
	TotalHours      any     `json:"total_hours"`
	BlockMinutes    any     `json:"block_minutes"`
	PreferredWindow *string `json:"preferred_window"`
	AllowWeekends   any     `json:"allow_weekends"`
}

// RawHabit is a habit setup.
type RawHabit struct {
	Name            *string `json:"name"`
	DurationMinutes any     `json:"duration_minutes"`
	PreferredWindow *string `json:"preferred_window"`
	SessionsPerWeek any     `json:"sessions_per_week"`
	FixedTime       *string `json:"fixed_time"`
}

// Decode extracts the first JSON object from a model reply, tolerating
// code fences and surrounding prose.
func Decode(text string) (Raw, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Raw{}, ErrNoJSON
	}

	var raw Raw
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Raw{}, fmt.Errorf("decoding classifier reply: %w", err)
	}
	return raw, nil
}
