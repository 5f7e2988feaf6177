package intent

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/mutation"
)

// Kind is a recognized user intent.
type Kind string

// Intents.
const (
	Unknown            Kind = ""
	CreateEvent        Kind = "create_event"
	ListEvents         Kind = "list_events"
	AgendaDay          Kind = "agenda_day"
	FindFreeSlot       Kind = "find_free_slot"
	EventLookup        Kind = "event_lookup"
	EventUpdate        Kind = "event_update"
	EventDelete        Kind = "event_delete"
	SeriesPlan         Kind = "series_plan"
	HabitSetup         Kind = "habit_setup"
	ProductivityReport Kind = "productivity_report"
	AnalyticsOverview  Kind = "analytics_overview"
	SmallTalk          Kind = "small_talk"
	Reset              Kind = "reset"
)

var known = map[Kind]bool{
	CreateEvent: true, ListEvents: true, AgendaDay: true, FindFreeSlot: true,
	EventLookup: true, EventUpdate: true, EventDelete: true, SeriesPlan: true,
	HabitSetup: true, ProductivityReport: true, AnalyticsOverview: true,
	SmallTalk: true, Reset: true,
}

// Kinds lists every recognized intent name.
func Kinds() []string {
	return []string{
		string(CreateEvent), string(ListEvents), string(AgendaDay), string(FindFreeSlot),
		string(EventLookup), string(EventUpdate), string(EventDelete), string(SeriesPlan),
		string(HabitSetup), string(ProductivityReport), string(AnalyticsOverview),
		string(SmallTalk), string(Reset),
	}
}

// ParseKind maps an intent name onto a Kind, returning Unknown for
// anything unrecognized.
func ParseKind(s string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if known[k] {
		return k
	}
	return Unknown
}

// Draft is a new event as requested by the user.
type Draft struct {
	Title           string
	Date            *time.Time
	Start           *mutation.Clock
	End             *mutation.Clock
	DurationMinutes *int
	Recurrence      string
	Location        string
	Notes           string
	NeedsMeet       bool
	Category        string
	ReminderMinutes *int
}

// HasExplicitTime reports whether the user named a start time.
func (d *Draft) HasExplicitTime() bool {
	return d != nil && d.Start != nil
}

// SlotSearch is a free time request.
type SlotSearch struct {
	From            *time.Time
	To              *time.Time
	DurationMinutes *int
	Window          string
}

// Agenda is an agenda request.
type Agenda struct {
	Date   *time.Time
	Window string
}

// Query identifies existing events.
type Query struct {
	Keywords string
	Date     *time.Time
}

// Series is a series plan request.
type Series struct {
	Title         string
	Deadline      *time.Time
	TotalMinutes  *int
	BlockMinutes  *int
	Window        string
	AllowWeekends bool
}

// Habit is a habit setup request.
type Habit struct {
	Name            string
	DurationMinutes *int
	Window          string
	SessionsPerWeek *int
	FixedTime       string
}

// Analysis is a normalized classifier reply. Fields that were missing or
// malformed are nil; Issues records what was dropped.
type Analysis struct {
	Intent     Kind
	Confidence float64
	Reply      string
	Event      *Draft
	SlotSearch *SlotSearch
	Agenda     *Agenda
	Query      *Query
	Patch      *mutation.Patch
	Series     *Series
	Habit      *Habit
	Issues     []string
}

type normalizer struct {
	now    time.Time
	loc    *time.Location
	issues []string
}

// Normalize interprets a raw reply relative to now in loc.
func Normalize(raw Raw, now time.Time, loc *time.Location) Analysis {
	n := &normalizer{now: now.In(loc), loc: loc}
	a := Analysis{
		Intent: ParseKind(raw.Intent),
		Reply:  strings.TrimSpace(raw.Reply),
	}
	if c, ok := n.float("confidence", raw.Confidence); ok {
		a.Confidence = math.Max(0, math.Min(1, c))
	}

	if e := raw.Event; e != nil {
		a.Event = &Draft{
			Title:           str(e.Title),
			Date:            n.day("event.date", e.Date),
			Start:           n.clock("event.start_time", e.StartTime),
			End:             n.clock("event.end_time", e.EndTime),
			DurationMinutes: n.positive("event.duration_minutes", e.DurationMinutes),
			Recurrence:      strings.ToLower(str(e.Recurrence)),
			Location:        str(e.Location),
			Notes:           str(e.Notes),
			NeedsMeet:       n.boolean("event.needs_meet", e.NeedsMeet),
			Category:        strings.ToLower(str(e.Category)),
			ReminderMinutes: n.nonNegative("event.reminder_minutes", e.ReminderMinutes),
		}
	}

	if f := raw.FreeSlot; f != nil {
		a.SlotSearch = &SlotSearch{
			From:            n.day("free_slot.date_from", f.DateFrom),
			To:              n.day("free_slot.date_to", f.DateTo),
			DurationMinutes: n.positive("free_slot.duration_minutes", f.DurationMinutes),
			Window:          strings.ToLower(str(f.PreferredWindow)),
		}
	}

	if g := raw.Agenda; g != nil {
		a.Agenda = &Agenda{
			Date:   n.day("agenda.date", g.Date),
			Window: strings.ToLower(str(g.TimeWindow)),
		}
	}

	if q := raw.EventQuery; q != nil {
		a.Query = &Query{
			Keywords: str(q.Keywords),
			Date:     n.day("event_query.date", q.Date),
		}
	}

	if u := raw.EventUpdate; u != nil {
		p := n.patch(u)
		if !p.Empty() {
			a.Patch = &p
		}
	}

	if s := raw.SeriesPlan; s != nil {
		series := &Series{
			Title:         str(s.Title),
			Deadline:      n.instant("series_plan.deadline", s.Deadline),
			BlockMinutes:  n.positive("series_plan.block_minutes", s.BlockMinutes),
			Window:        strings.ToLower(str(s.PreferredWindow)),
			AllowWeekends: n.boolean("series_plan.allow_weekends", s.AllowWeekends),
		}
		if h, ok := n.float("series_plan.total_hours", s.TotalHours); ok && h > 0 {
			m := int(math.Round(h * 60))
			series.TotalMinutes = &m
		}
		a.Series = series
	}

	if h := raw.Habit; h != nil {
		habit := &Habit{
			Name:            str(h.Name),
			DurationMinutes: n.positive("habit.duration_minutes", h.DurationMinutes),
			Window:          strings.ToLower(str(h.PreferredWindow)),
			SessionsPerWeek: n.positive("habit.sessions_per_week", h.SessionsPerWeek),
		}
		if c := n.clock("habit.fixed_time", h.FixedTime); c != nil {
			habit.FixedTime = c.String()
		}
		a.Habit = habit
	}

	a.Issues = n.issues
	return a
}

// ToPatch converts a raw update into a Patch relative to now in loc.
func ToPatch(u RawEventUpdate, now time.Time, loc *time.Location) (mutation.Patch, []string) {
	n := &normalizer{now: now.In(loc), loc: loc}
	p := n.patch(&u)
	return p, n.issues
}

func (n *normalizer) patch(u *RawEventUpdate) mutation.Patch {
	p := mutation.Patch{
		Date:            n.day("event_update.date", u.Date),
		Clock:           n.clock("event_update.start_time", u.StartTime),
		DurationMinutes: n.positive("event_update.duration_minutes", u.DurationMinutes),
		ShiftMinutes:    n.integer("event_update.shift_minutes", u.ShiftMinutes),
		AddMeet:         n.boolean("event_update.add_meet", u.AddMeet),
		RemoveMeet:      n.boolean("event_update.remove_meet", u.RemoveMeet),
		ReminderMinutes: n.nonNegative("event_update.reminder_minutes", u.ReminderMinutes),
	}
	if p.ShiftMinutes != nil && *p.ShiftMinutes == 0 {
		p.ShiftMinutes = nil
	}
	if t := strings.TrimSpace(str(u.Title)); t != "" {
		p.Title = &t
	}
	if u.Description != nil {
		d := strings.TrimSpace(*u.Description)
		p.Description = &d
	}
	if u.Location != nil {
		l := strings.TrimSpace(*u.Location)
		p.Location = &l
	}
	if c := strings.ToLower(str(u.Category)); c != "" {
		p.Category = &c
	}
	// An end time is kept as a duration from the new start time.
	if end := n.clock("event_update.end_time", u.EndTime); end != nil && p.Clock != nil && p.DurationMinutes == nil {
		mins := (end.Hour*60 + end.Minute) - (p.Clock.Hour*60 + p.Clock.Minute)
		if mins > 0 {
			p.DurationMinutes = &mins
		} else {
			n.issue("event_update.end_time", "end before start")
		}
	}
	return p
}

func (n *normalizer) issue(field, msg string) {
	n.issues = append(n.issues, field+": "+msg)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return ""
	}
	return v
}

func (n *normalizer) day(field string, s *string) *time.Time {
	v := str(s)
	if v == "" {
		return nil
	}
	if t, err := dateutil.ParseDate(v, n.loc); err == nil {
		return &t
	}
	t, err := dateutil.ParseRelativeDate(v, n.now)
	if err != nil {
		n.issue(field, err.Error())
		return nil
	}
	return &t
}

func (n *normalizer) instant(field string, s *string) *time.Time {
	v := str(s)
	if v == "" {
		return nil
	}
	if t, err := dateutil.ParseDateTime(v, n.loc); err == nil {
		return &t
	}
	return n.day(field, s)
}

func (n *normalizer) clock(field string, s *string) *mutation.Clock {
	v := str(s)
	if v == "" {
		return nil
	}
	h, m, err := dateutil.ParseClock(v)
	if err != nil {
		n.issue(field, err.Error())
		return nil
	}
	return &mutation.Clock{Hour: h, Minute: m}
}

func (n *normalizer) float(field string, v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		x = strings.TrimSpace(x)
		if x == "" || strings.EqualFold(x, "null") {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.Replace(x, ",", ".", 1), 64)
		if err != nil {
			n.issue(field, fmt.Sprintf("not a number: %q", x))
			return 0, false
		}
		return f, true
	default:
		n.issue(field, fmt.Sprintf("unexpected type %T", v))
		return 0, false
	}
}

func (n *normalizer) integer(field string, v any) *int {
	f, ok := n.float(field, v)
	if !ok {
		return nil
	}
	i := int(math.Round(f))
	return &i
}

func (n *normalizer) positive(field string, v any) *int {
	i := n.integer(field, v)
	if i != nil && *i <= 0 {
		n.issue(field, "must be positive")
		return nil
	}
	return i
}

func (n *normalizer) nonNegative(field string, v any) *int {
	i := n.integer(field, v)
	if i != nil && *i < 0 {
		n.issue(field, "must not be negative")
		return nil
	}
	return i
}

func (n *normalizer) boolean(field string, v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(x)))
		if err != nil {
			if s := strings.ToLower(strings.TrimSpace(x)); s == "yes" || s == "y" {
				return true
			}
			return false
		}
		return b
	default:
		n.issue(field, fmt.Sprintf("unexpected type %T", v))
		return false
	}
}
