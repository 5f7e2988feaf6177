package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/mutation"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

const (
	textNeedTitle    = "What should the event be called, and when is it?"
	textNeedDateTime = "I am missing the date or time. Try something like \"November 12 at 14:30 for an hour\"."
)

func (e *Engine) create(ctx context.Context, t *turn, a intent.Analysis) (Reply, error) {
	d := a.Event
	if d == nil || strings.TrimSpace(d.Title) == "" {
		return say(textNeedTitle), nil
	}
	if d.Date == nil && d.Start == nil {
		return say(textNeedDateTime), nil
	}

	start, end := e.eventTimes(t, d)
	return e.createDraft(ctx, t, e.draftEvent(t, d, start, end), mutation.Options{})
}

// eventTimes resolves a draft's interval. A missing date is today, a
// missing start is the default start hour, and a missing or inverted end
// follows from the duration.
func (e *Engine) eventTimes(t *turn, d *intent.Draft) (time.Time, time.Time) {
	day := dateutil.TruncateToDay(t.now)
	if d.Date != nil {
		day = dateutil.TruncateToDay(d.Date.In(t.now.Location()))
	}
	clock := mutation.Clock{Hour: e.defaults.StartHour}
	if d.Start != nil {
		clock = *d.Start
	}
	start := dateutil.At(day, clock.Hour, clock.Minute)

	minutes := e.defaults.DurationMinutes
	if d.DurationMinutes != nil {
		minutes = *d.DurationMinutes
	}
	end := start.Add(time.Duration(minutes) * time.Minute)
	if d.End != nil {
		if explicit := dateutil.At(day, d.End.Hour, d.End.Minute); explicit.After(start) {
			end = explicit
		}
	}
	return start, end
}

func (e *Engine) draftEvent(t *turn, d *intent.Draft, start, end time.Time) *calendar.Event {
	ev := &calendar.Event{
		Summary:     strings.TrimSpace(d.Title),
		Description: d.Notes,
		Location:    d.Location,
		Start:       start,
		End:         end,
		RequestMeet: d.NeedsMeet,
	}
	if d.Recurrence != "" {
		if rule, ok := calendar.RecurrenceRule(d.Recurrence); ok {
			ev.Recurrence = []string{rule}
		} else {
			t.log.Debug("ignoring unknown recurrence", logx.String("recurrence", d.Recurrence))
		}
	}
	if color, ok := calendar.ColorForCategory(d.Category); ok {
		ev.ColorID = color
	}
	minutes := e.defaults.ReminderMinutes
	if d.ReminderMinutes != nil {
		minutes = *d.ReminderMinutes
	}
	ev.Reminders = calendar.RemindersFromMinutes(&minutes)
	return ev
}

// reusesSlot reports whether a create should take the first remaining
// free slot: the draft has no time of its own, the text points at the
// slot or one is awaiting use, and any given date matches the slot.
func (e *Engine) reusesSlot(t *turn, a intent.Analysis, message string) bool {
	d := a.Event
	if d == nil || strings.TrimSpace(d.Title) == "" || d.HasExplicitTime() {
		return false
	}
	if !session.ReferencesSlot(message) && !t.state.AwaitingSlotUse() {
		return false
	}
	c := t.state.Slots()
	if c == nil || len(c.Remaining) == 0 {
		return false
	}
	if d.Date != nil && !dateutil.SameDay(d.Date.In(t.now.Location()), c.Remaining[0].Start) {
		return false
	}
	return true
}

func (e *Engine) createInSlot(ctx context.Context, t *turn, a intent.Analysis, slot scheduler.Slot) (Reply, error) {
	t.log.Debug("using found slot", logx.Time("start", slot.Start))
	return e.createDraft(ctx, t, e.draftEvent(t, a.Event, slot.Start, slot.End), mutation.Options{})
}

// createDraft writes draft, parking it as a pending conflict when another
// event is in the way.
func (e *Engine) createDraft(ctx context.Context, t *turn, draft *calendar.Event, opts mutation.Options) (Reply, error) {
	created, err := e.mutations.Create(ctx, t.backend, draft, opts)
	var conflict *mutation.ConflictError
	if errors.As(err, &conflict) {
		t.state.SetPending(&session.CreateConflict{Draft: conflict.Draft, Blocking: conflict.Blocking})
		return conflictReply(conflict.Blocking, "Create it anyway?", "Yes, create"), nil
	}
	if err != nil {
		return e.fail(t.log, "create event", err)
	}

	t.log.Info("event created", logx.String("event", created.ID))
	ref := session.RefOf(created)
	t.state.LastEvent = &ref
	t.state.LastQuery = &session.EventQuery{Keywords: created.Summary}
	return say(fmt.Sprintf("Event created:\n%s", describeEvent(created))), nil
}

func (e *Engine) confirmConflict(ctx context.Context, t *turn) (Reply, error) {
	p, err := t.state.PopConflict()
	if err != nil {
		return e.fail(t.log, "confirm conflict", err)
	}
	force := mutation.Options{IgnoreConflicts: true}
	switch p := p.(type) {
	case *session.CreateConflict:
		return e.createDraft(ctx, t, p.Draft, force)
	case *session.UpdateConflict:
		return e.applyPatch(ctx, t, p.Original, p.Patch, force)
	}
	return e.fail(t.log, "confirm conflict", session.ErrStateLost)
}

func (e *Engine) cancelConflict(t *turn) (Reply, error) {
	if _, err := t.state.PopConflict(); err != nil {
		return say("There is no pending conflict."), nil
	}
	return say("Cancelled."), nil
}
