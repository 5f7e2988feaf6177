package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

const productID = "-//calassist//Calendar Assistant//EN"

// ExportICS writes events as an iCalendar document.
func ExportICS(w io.Writer, events []Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		ve := cal.AddEvent(BaseID(ev.ID))
		ve.SetDtStampTime(now)
		if ev.AllDay {
			ve.SetAllDayStartAt(ev.Start)
			ve.SetAllDayEndAt(ev.End)
		} else {
			ve.SetStartAt(ev.Start)
			ve.SetEndAt(ev.End)
		}
		ve.SetSummary(ev.Summary)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.HTMLLink != "" && !strings.HasPrefix(ev.HTMLLink, "calassist:") {
			ve.SetURL(ev.HTMLLink)
		}
		if ev.IsCancelled() {
			ve.SetStatus(ical.ObjectStatusCancelled)
		}
		if rule := rruleLine(ev.Recurrence); rule != "" {
			ve.AddRrule(rule)
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// ParseICS reads VEVENTs from an iCalendar document. Floating times are
// interpreted in loc. Events without a start are skipped.
func ParseICS(r io.Reader, loc *time.Location) ([]Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var out []Event
	for _, ve := range cal.Events() {
		ev := Event{
			ID:        ve.Id(),
			Status:    StatusConfirmed,
			Reminders: DefaultReminders(),
		}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			ev.Summary = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
			ev.Description = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
			ev.Location = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
			ev.Status = StatusCancelled
		}
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
			ev.Recurrence = []string{"RRULE:" + p.Value}
		}

		if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil && !strings.Contains(p.Value, "T") {
			ev.AllDay = true
			start, err := ve.GetAllDayStartAt()
			if err != nil {
				continue
			}
			ev.Start = inLocation(start, loc)
			if end, err := ve.GetAllDayEndAt(); err == nil {
				ev.End = inLocation(end, loc)
			} else {
				ev.End = ev.Start.AddDate(0, 0, 1)
			}
		} else {
			start, err := ve.GetStartAt()
			if err != nil {
				continue
			}
			ev.Start = start.In(loc)
			if end, err := ve.GetEndAt(); err == nil {
				ev.End = end.In(loc)
			} else {
				ev.End = ev.Start.Add(time.Hour)
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

// inLocation reinterprets a date-only value as midnight in loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
