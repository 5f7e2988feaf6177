package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/mutation"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

const (
	agendaLimit = 50
	searchLimit = 10

	// Searches without a date look this far around now.
	searchBack  = 30 * 24 * time.Hour
	searchAhead = 365 * 24 * time.Hour
)

func (e *Engine) agenda(ctx context.Context, t *turn, a intent.Analysis) (Reply, error) {
	var day *time.Time
	window := ""
	if a.Agenda != nil {
		day, window = a.Agenda.Date, a.Agenda.Window
	}
	if last := t.state.LastAgenda; last != nil {
		if day == nil {
			d := last.Day
			day = &d
		}
		if window == "" {
			window = last.Window
		}
	}
	if window == "" {
		window = scheduler.WindowFull
	}

	if day == nil {
		if a.Intent != intent.ListEvents {
			return say("Which day? For example \"tomorrow\" or \"Monday\"."), nil
		}
		return e.upcoming(ctx, t)
	}

	from, to := scheduler.AgendaRange(day.In(t.now.Location()), window)
	events, err := t.backend.List(ctx, from, to, agendaLimit)
	if err != nil {
		return e.fail(t.log, "list events", err)
	}
	t.state.LastAgenda = &session.AgendaWindow{Day: dateutil.TruncateToDay(from), Window: window}

	label := from.Format("Mon 02.01")
	if window != scheduler.WindowFull {
		label += " (" + window + ")"
	}
	if len(events) == 0 {
		return say("Nothing planned for " + label + "."), nil
	}
	ref := session.RefOf(&events[0])
	t.state.LastEvent = &ref
	return say(listing("Schedule for "+label+":", events)), nil
}

// upcoming lists the events of the next search days.
func (e *Engine) upcoming(ctx context.Context, t *turn) (Reply, error) {
	to := t.now.AddDate(0, 0, e.defaults.SearchDays)
	events, err := t.backend.List(ctx, t.now, to, agendaLimit)
	if err != nil {
		return e.fail(t.log, "list events", err)
	}
	if len(events) == 0 {
		return say(fmt.Sprintf("Nothing planned for the next %d days.", e.defaults.SearchDays)), nil
	}
	ref := session.RefOf(&events[0])
	t.state.LastEvent = &ref
	return say(listing("Upcoming events:", events)), nil
}

func listing(header string, events []calendar.Event) string {
	lines := []string{header}
	for i := range events {
		lines = append(lines, eventLine(&events[i]))
	}
	return strings.Join(lines, "\n")
}

func (e *Engine) lookup(ctx context.Context, t *turn, a intent.Analysis) (Reply, error) {
	keywords, day := queryOf(a)
	if keywords == "" {
		keywords = t.text
	}
	if utf8.RuneCountInString(keywords) < 2 {
		return say("Which event are you looking for? Give me its name or a few keywords."), nil
	}

	events, used, err := e.findEvents(ctx, t, keywords, day)
	if err != nil {
		return e.fail(t.log, "search events", err)
	}
	if len(events) == 0 {
		return say(fmt.Sprintf("No events matching %q.", keywords)), nil
	}

	t.state.LastQuery = &session.EventQuery{Keywords: used, Date: day}
	ref := session.RefOf(&events[0])
	t.state.LastEvent = &ref
	if len(events) == 1 {
		return say("Found:\n" + describeEvent(&events[0])), nil
	}

	candidates := refs(events)
	t.state.SetPending(&session.Disambiguation{Purpose: session.PurposeLookup, Candidates: candidates})
	return Reply{
		Text:    listing("Found events:", events),
		Buttons: choiceButtons(candidates, PrefixLookup, ActionCancelLookup),
	}, nil
}

func (e *Engine) chooseLookup(ctx context.Context, t *turn, i int) (Reply, error) {
	ref, _, err := t.state.PopChoice(session.PurposeLookup, i)
	if err != nil {
		return e.fail(t.log, "choose event", err)
	}
	ev, err := t.backend.Get(ctx, ref.ID)
	if err != nil {
		return e.fail(t.log, "get event", err)
	}
	t.state.LastEvent = &ref
	return say(describeEvent(ev)), nil
}

func (e *Engine) update(ctx context.Context, t *turn, a intent.Analysis) (Reply, error) {
	if a.Patch == nil || a.Patch.Empty() {
		return say("What should change? For example \"at 16:30\", \"2 hours later\" or \"make it 45 minutes\"."), nil
	}
	patch := *a.Patch

	keywords, day := queryOf(a)
	if keywords == "" && t.state.LastEvent != nil {
		return e.updateRef(ctx, t, *t.state.LastEvent, patch)
	}
	if keywords == "" && t.state.LastQuery != nil {
		keywords = t.state.LastQuery.Keywords
	}
	if keywords == "" {
		return say("Which event should I change? For example: \"move the seminar to 20:00\"."), nil
	}

	events, used, err := e.findEvents(ctx, t, keywords, day)
	if err != nil {
		return e.fail(t.log, "search events", err)
	}
	if len(events) == 0 {
		return say(fmt.Sprintf("No events matching %q.", keywords)), nil
	}
	t.state.LastQuery = &session.EventQuery{Keywords: used, Date: day}

	if len(events) == 1 {
		return e.updateRef(ctx, t, session.RefOf(&events[0]), patch)
	}

	candidates := refs(events)
	t.state.SetPending(&session.Disambiguation{
		Purpose:    session.PurposeUpdate,
		Candidates: candidates,
		Patch:      patch,
	})
	return Reply{
		Text:    fmt.Sprintf("Found %d events matching %q. Which one should I change?", len(events), used),
		Buttons: choiceButtons(candidates, PrefixUpdate, ActionCancelUpdate),
	}, nil
}

func (e *Engine) chooseUpdate(ctx context.Context, t *turn, i int) (Reply, error) {
	ref, d, err := t.state.PopChoice(session.PurposeUpdate, i)
	if err != nil {
		return e.fail(t.log, "choose event", err)
	}
	return e.updateRef(ctx, t, ref, d.Patch)
}

// updateRef loads the stored event behind ref and applies p to it. For an
// occurrence of a recurring event the whole series is changed, moved by
// the same amount as the occurrence.
func (e *Engine) updateRef(ctx context.Context, t *turn, ref session.EventRef, p mutation.Patch) (Reply, error) {
	original, err := t.backend.Get(ctx, calendar.BaseID(ref.ID))
	if err != nil {
		return e.fail(t.log, "get event", err)
	}
	if len(original.Recurrence) > 0 {
		occurrence := original.Clone()
		occurrence.Start, occurrence.End = ref.Start, ref.End
		if p, err = mutation.ForSeries(occurrence, original, p); err != nil {
			return e.fail(t.log, "update event", err)
		}
	}
	return e.applyPatch(ctx, t, original, p, mutation.Options{})
}

// applyPatch updates original, parking the change as a pending conflict
// when the new time overlaps another event.
func (e *Engine) applyPatch(ctx context.Context, t *turn, original *calendar.Event, p mutation.Patch, opts mutation.Options) (Reply, error) {
	updated, err := e.mutations.Apply(ctx, t.backend, original, p, opts)
	var conflict *mutation.ConflictError
	if errors.As(err, &conflict) {
		t.state.SetPending(&session.UpdateConflict{
			Original: conflict.Original,
			Patch:    conflict.Patch,
			Blocking: conflict.Blocking,
		})
		return conflictReply(conflict.Blocking, "Update it anyway?", "Yes, update"), nil
	}
	if err != nil {
		return e.fail(t.log, "update event", err)
	}

	t.log.Info("event updated", logx.String("event", updated.ID))
	ref := session.RefOf(updated)
	t.state.LastEvent = &ref
	t.state.LastQuery = &session.EventQuery{Keywords: updated.Summary}

	msg := "Event updated:\n" + describeEvent(updated)
	if changes := mutation.Changes(original, updated); len(changes) > 0 {
		msg += "\nChanged: " + strings.Join(changes, "; ")
	}
	return say(msg), nil
}

func (e *Engine) delete(ctx context.Context, t *turn, a intent.Analysis) (Reply, error) {
	keywords, day := queryOf(a)
	if keywords == "" && t.state.LastQuery != nil {
		keywords = t.state.LastQuery.Keywords
	}
	if keywords == "" {
		if last := t.state.LastEvent; last != nil {
			return e.askDelete(t, *last), nil
		}
		return say("Which event should I delete? For example: \"delete the seminar\"."), nil
	}

	events, used, err := e.findEvents(ctx, t, keywords, day)
	if err != nil {
		return e.fail(t.log, "search events", err)
	}
	if len(events) == 0 {
		return say(fmt.Sprintf("No events matching %q.", keywords)), nil
	}
	t.state.LastQuery = &session.EventQuery{Keywords: used, Date: day}

	if len(events) == 1 {
		return e.askDelete(t, session.RefOf(&events[0])), nil
	}

	candidates := refs(events)
	t.state.SetPending(&session.Disambiguation{Purpose: session.PurposeDelete, Candidates: candidates})
	return Reply{
		Text:    fmt.Sprintf("Found %d events matching %q. Which one should I delete?", len(events), used),
		Buttons: choiceButtons(candidates, PrefixDelete, ActionCancelDelete),
	}, nil
}

func (e *Engine) askDelete(t *turn, ref session.EventRef) Reply {
	t.state.SetPending(&session.DeleteConfirm{EventID: ref.ID, Summary: ref.Summary})
	return Reply{
		Text: fmt.Sprintf("Delete this event?\n- %s, %s",
			title(ref.Summary), calendar.FormatSpan(ref.Start, ref.End)),
		Buttons: []Button{
			{Label: "Yes, delete", Action: ActionConfirmDelete},
			{Label: "Cancel", Action: ActionCancelDelete},
		},
	}
}

func (e *Engine) chooseDelete(t *turn, i int) (Reply, error) {
	ref, _, err := t.state.PopChoice(session.PurposeDelete, i)
	if err != nil {
		return e.fail(t.log, "choose event", err)
	}
	return e.askDelete(t, ref), nil
}

func (e *Engine) confirmDelete(ctx context.Context, t *turn) (Reply, error) {
	d, err := t.state.PopDelete()
	if err != nil {
		return e.fail(t.log, "confirm delete", err)
	}
	if err := t.backend.Delete(ctx, d.EventID); err != nil {
		return e.fail(t.log, "delete event", err)
	}

	t.log.Info("event deleted", logx.String("event", d.EventID))
	if last := t.state.LastEvent; last != nil && calendar.BaseID(last.ID) == calendar.BaseID(d.EventID) {
		t.state.LastEvent = nil
	}
	return say(fmt.Sprintf("Deleted %q.", title(d.Summary))), nil
}

// cancelChoice drops a pending list or confirmation belonging to purpose.
func (e *Engine) cancelChoice(t *turn, purpose session.Purpose, done string) (Reply, error) {
	switch p := t.state.Pending().(type) {
	case *session.Disambiguation:
		if p.Purpose == purpose {
			t.state.ClearPending()
			return say(done), nil
		}
	case *session.DeleteConfirm:
		if purpose == session.PurposeDelete {
			t.state.ClearPending()
			return say(done), nil
		}
	}
	return say("There is nothing to cancel."), nil
}

func queryOf(a intent.Analysis) (string, *time.Time) {
	if a.Query == nil {
		return "", nil
	}
	return strings.TrimSpace(a.Query.Keywords), a.Query.Date
}

// findEvents searches for keywords, retrying once with a loosened form.
// It returns the matches and the keywords that produced them.
func (e *Engine) findEvents(ctx context.Context, t *turn, keywords string, day *time.Time) ([]calendar.Event, string, error) {
	from, to := t.now.Add(-searchBack), t.now.Add(searchAhead)
	if day != nil {
		from = dateutil.TruncateToDay(day.In(t.now.Location()))
		to = from.AddDate(0, 0, 1)
	}

	base := strings.TrimSpace(keywords)
	seen := make(map[string]bool)
	for _, candidate := range []string{base, loosen(base)} {
		if utf8.RuneCountInString(candidate) < 2 || seen[candidate] {
			continue
		}
		seen[candidate] = true
		events, err := t.backend.Search(ctx, candidate, from, to, searchLimit)
		if err != nil {
			return nil, "", err
		}
		if len(events) > 0 {
			return events, candidate, nil
		}
	}
	return nil, base, nil
}

// loosen strips quotes, collapses whitespace and drops one trailing vowel
// so inflected forms ("seminara") still match.
func loosen(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '«', '»', '“', '”':
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= 2 {
		return s
	}
	last, size := utf8.DecodeLastRuneInString(s)
	if strings.ContainsRune("aeiouyаяуюіїеоиь", unicode.ToLower(last)) {
		return s[:len(s)-size]
	}
	return s
}
