package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

const textAskDuration = "How long should it be? For example \"45 minutes\" or \"an hour and a half\"."

func (e *Engine) freeSlots(ctx context.Context, t *turn, a intent.Analysis) (Reply, error) {
	s := a.SlotSearch
	if s == nil {
		s = &intent.SlotSearch{}
	}

	from, to := e.slotRange(t, s)
	var window *scheduler.Window
	if w, ok := scheduler.PreferredWindow(s.Window); ok {
		window = &w
	}
	if d := t.state.SlotDraft; d != nil && s.From == nil && s.To == nil {
		from, to = d.From, d.To
		if window == nil {
			window = d.Window
		}
	}

	if s.DurationMinutes == nil {
		t.state.SlotDraft = &session.SlotDraft{From: from, To: to, Window: window}
		return say(textAskDuration), nil
	}
	return e.searchSlots(ctx, t, from, to, window, *s.DurationMinutes)
}

// slotRange turns the requested days into a search range. With no days
// the range runs from now over the configured number of days; a single
// day covers that day only. Past time is never searched.
func (e *Engine) slotRange(t *turn, s *intent.SlotSearch) (time.Time, time.Time) {
	loc := t.now.Location()
	from := t.now
	if s.From != nil {
		if day := dateutil.TruncateToDay(s.From.In(loc)); day.After(from) {
			from = day
		}
	}

	var to time.Time
	switch {
	case s.To != nil:
		to = dateutil.TruncateToDay(s.To.In(loc)).AddDate(0, 0, 1)
	case s.From != nil:
		to = dateutil.TruncateToDay(s.From.In(loc)).AddDate(0, 0, 1)
	default:
		to = dateutil.TruncateToDay(from).AddDate(0, 0, e.defaults.SearchDays)
	}
	return from, to
}

func (e *Engine) searchSlots(ctx context.Context, t *turn, from, to time.Time, window *scheduler.Window, minutes int) (Reply, error) {
	page, err := e.finder.FirstPage(ctx, t.backend, scheduler.Request{
		Duration: time.Duration(minutes) * time.Minute,
		From:     from,
		To:       to,
		Window:   window,
	})
	if err != nil {
		return e.fail(t.log, "find slots", err)
	}

	t.state.SlotDraft = nil
	t.state.SetSlots(page)
	if len(page.Slots) == 0 {
		return say(fmt.Sprintf("No free %d-minute slots in that range.", minutes)), nil
	}
	return slotsReply(page), nil
}

func slotsReply(page *scheduler.Page) Reply {
	return Reply{
		Text: "Free slots:\n" + slotLines(page.Slots) +
			"\nSay \"put <event> there\" to book the first one.",
		Buttons: []Button{
			{Label: "Earlier", Action: ActionSlotsEarlier},
			{Label: "Later", Action: ActionSlotsLater},
		},
	}
}

// navigate pages the last free-slot result.
func (e *Engine) navigate(ctx context.Context, t *turn, later bool) (Reply, error) {
	e.dropPending(t)
	c := t.state.Slots()
	if c == nil || c.Page == nil {
		return e.fail(t.log, "page slots", session.ErrStateLost)
	}

	var (
		page *scheduler.Page
		err  error
	)
	if later {
		page, err = e.finder.Later(ctx, t.backend, c.Page)
	} else {
		page, err = e.finder.Earlier(ctx, t.backend, c.Page)
	}

	switch {
	case errors.Is(err, scheduler.ErrNoLaterSlots):
		if page != nil {
			// Keep the shown slots usable; only the cursor moves.
			c.Page = page
		}
		return say("No later free slots in this range."), nil
	case errors.Is(err, scheduler.ErrNoEarlierSlots):
		return say("No earlier free slots in this range."), nil
	case err != nil:
		return e.fail(t.log, "page slots", err)
	}

	t.state.SetSlots(page)
	return slotsReply(page), nil
}
