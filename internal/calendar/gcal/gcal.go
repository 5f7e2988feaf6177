// Package gcal implements calendar.Backend over the Google Calendar API.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

// Backend talks to one Google calendar.
type Backend struct {
	srv        *gcalendar.Service
	calendarID string
	loc        *time.Location
}

// New creates a Backend authorized with a credentials file.
func New(ctx context.Context, credentialsFile, calendarID string, loc *time.Location) (*Backend, error) {
	srv, err := gcalendar.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcalendar.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Backend{srv: srv, calendarID: calendarID, loc: loc}, nil
}

// ForUser returns the configured calendar. Per-user credentials are not
// managed here, so every user shares one account.
func (b *Backend) ForUser(context.Context, int64) (calendar.Backend, error) {
	return b, nil
}

// List returns single events overlapping [from, to) ordered by start.
func (b *Backend) List(ctx context.Context, from, to time.Time, limit int) ([]calendar.Event, error) {
	return b.list(ctx, "", from, to, limit)
}

// Search runs a free-text query over [from, to).
func (b *Backend) Search(ctx context.Context, query string, from, to time.Time, limit int) ([]calendar.Event, error) {
	return b.list(ctx, query, from, to, limit)
}

func (b *Backend) list(ctx context.Context, query string, from, to time.Time, limit int) ([]calendar.Event, error) {
	call := b.srv.Events.List(b.calendarID).
		Context(ctx).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	if limit > 0 {
		call = call.MaxResults(int64(limit))
	}
	if query != "" {
		call = call.Q(query)
	}

	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	out := make([]calendar.Event, 0, len(res.Items))
	for _, item := range res.Items {
		ev, err := fromAPI(item, b.loc)
		if err != nil {
			continue
		}
		out = append(out, *ev)
	}
	return out, nil
}

// Get returns one event.
func (b *Backend) Get(ctx context.Context, id string) (*calendar.Event, error) {
	item, err := b.srv.Events.Get(b.calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("getting event", err)
	}
	return fromAPI(item, b.loc)
}

// Create inserts an event.
func (b *Backend) Create(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	item := toAPI(ev)
	call := b.srv.Events.Insert(b.calendarID, item).Context(ctx)
	if item.ConferenceData != nil {
		call = call.ConferenceDataVersion(1)
	}
	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return fromAPI(created, b.loc)
}

// Update writes ev over the stored event. The stored resource is fetched
// first so attendees, attachments and other fields the model does not
// carry survive the full-resource update.
func (b *Backend) Update(ctx context.Context, id string, ev *calendar.Event) (*calendar.Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	item, err := b.srv.Events.Get(b.calendarID, id).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("getting event", err)
	}

	call := b.srv.Events.Update(b.calendarID, id, item).Context(ctx)
	if overlay(item, ev) {
		call = call.ConferenceDataVersion(1)
	}
	updated, err := call.Do()
	if err != nil {
		return nil, wrapErr("updating event", err)
	}
	return fromAPI(updated, b.loc)
}

// Delete removes an event.
func (b *Backend) Delete(ctx context.Context, id string) error {
	if err := b.srv.Events.Delete(b.calendarID, id).Context(ctx).Do(); err != nil {
		return wrapErr("deleting event", err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
		return calendar.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// toAPI converts a new event into the API representation.
func toAPI(ev *calendar.Event) *gcalendar.Event {
	item := &gcalendar.Event{}
	setFields(item, ev)
	if ev.RequestMeet && ev.MeetLink == "" {
		item.ConferenceData = meetRequest()
	}
	return item
}

// overlay copies the fields of ev onto a stored resource and reports
// whether its conference data changed.
func overlay(item *gcalendar.Event, ev *calendar.Event) bool {
	setFields(item, ev)

	hasMeet := item.HangoutLink != "" || item.ConferenceData != nil
	switch {
	case ev.RequestMeet && !hasMeet:
		item.ConferenceData = meetRequest()
		return true
	case !ev.RequestMeet && ev.MeetLink == "" && hasMeet:
		item.ConferenceData = nil
		item.HangoutLink = ""
		item.NullFields = append(item.NullFields, "ConferenceData")
		return true
	}
	return false
}

func meetRequest() *gcalendar.ConferenceData {
	return &gcalendar.ConferenceData{
		CreateRequest: &gcalendar.CreateConferenceRequest{
			RequestId:             uuid.NewString(),
			ConferenceSolutionKey: &gcalendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
		},
	}
}

// setFields writes the fields the event model owns.
func setFields(item *gcalendar.Event, ev *calendar.Event) {
	item.Summary = ev.Summary
	item.Description = ev.Description
	item.Location = ev.Location
	if ev.Status != "" {
		item.Status = ev.Status
	}
	item.Recurrence = ev.Recurrence
	item.ColorId = ev.ColorID
	item.Start = toDateTime(ev.Start, ev.AllDay)
	item.End = toDateTime(ev.End, ev.AllDay)
	item.Reminders = &gcalendar.EventReminders{
		UseDefault:      ev.Reminders.UseDefault,
		ForceSendFields: []string{"UseDefault"},
	}
	for _, o := range ev.Reminders.Overrides {
		item.Reminders.Overrides = append(item.Reminders.Overrides, &gcalendar.EventReminder{
			Method:  o.Method,
			Minutes: int64(o.Minutes),
		})
	}
	if !ev.Reminders.UseDefault && len(ev.Reminders.Overrides) == 0 {
		item.Reminders.NullFields = []string{"Overrides"}
	}
}

func toDateTime(t time.Time, allDay bool) *gcalendar.EventDateTime {
	if allDay {
		return &gcalendar.EventDateTime{Date: t.Format("2006-01-02")}
	}
	return &gcalendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: t.Location().String(),
	}
}

// fromAPI converts an API event, interpreting all-day dates in loc.
func fromAPI(item *gcalendar.Event, loc *time.Location) (*calendar.Event, error) {
	start, allDay, err := fromDateTime(item.Start, loc)
	if err != nil {
		return nil, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	end, _, err := fromDateTime(item.End, loc)
	if err != nil {
		return nil, fmt.Errorf("event %s end: %w", item.Id, err)
	}

	ev := &calendar.Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Status:      item.Status,
		Recurrence:  item.Recurrence,
		ColorID:     item.ColorId,
		HTMLLink:    item.HtmlLink,
		MeetLink:    item.HangoutLink,
		Reminders:   calendar.DefaultReminders(),
	}
	if item.Reminders != nil {
		ev.Reminders.UseDefault = item.Reminders.UseDefault
		for _, o := range item.Reminders.Overrides {
			ev.Reminders.Overrides = append(ev.Reminders.Overrides, calendar.ReminderOverride{
				Method:  o.Method,
				Minutes: int(o.Minutes),
			})
		}
	}
	return ev, nil
}

func fromDateTime(dt *gcalendar.EventDateTime, loc *time.Location) (time.Time, bool, error) {
	if dt == nil {
		return time.Time{}, false, errors.New("missing time")
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.In(loc), false, nil
	}
	if strings.TrimSpace(dt.Date) != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
		return t, true, err
	}
	return time.Time{}, false, errors.New("missing time")
}
