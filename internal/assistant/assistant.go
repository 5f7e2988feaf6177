// Package assistant routes user turns to the scheduling flows. A turn is
// either free text, classified into an intent, or a button action that
// resolves something the previous turn left pending.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/analytics"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/habit"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/mutation"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/series"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

const (
	textReset   = "Okay, starting over. What would you like to plan?"
	textEmpty   = "Tell me what you would like to schedule."
	textUnknown = "I can create, move and delete events, show your agenda, find free time, plan preparation for a deadline and set up habits."
)

// Classifier turns a user message into a raw intent payload.
type Classifier interface {
	Classify(ctx context.Context, text string, now time.Time) (intent.Raw, error)
}

// Defaults fill in what a request leaves out. Zero fields take the
// built-in values.
type Defaults struct {
	DurationMinutes int
	ReminderMinutes int
	// StartHour is used when an event has a date but no time.
	StartHour  int
	SearchDays int
	ReportDays int
}

func (d Defaults) withFallbacks() Defaults {
	if d.DurationMinutes <= 0 {
		d.DurationMinutes = 60
	}
	if d.ReminderMinutes <= 0 {
		d.ReminderMinutes = 10
	}
	if d.StartHour <= 0 || d.StartHour > 23 {
		d.StartHour = 9
	}
	if d.SearchDays <= 0 {
		d.SearchDays = 7
	}
	if d.ReportDays <= 0 {
		d.ReportDays = 7
	}
	return d
}

// Deps are the collaborators of an Engine. Calendars and Classifier are
// required; the rest fall back to defaults.
type Deps struct {
	Calendars  calendar.Provider
	Classifier Classifier
	Sessions   *session.Store
	Finder     *scheduler.Finder
	Mutations  *mutation.Engine
	Series     *series.Planner
	Habits     *habit.Planner
	// Insighter adds a narrative to reports when set.
	Insighter analytics.Insighter
	Defaults  Defaults
	Now       func() time.Time
	Log       logx.Logger
}

type flow func(ctx context.Context, t *turn, a intent.Analysis) (Reply, error)

// Engine handles the turns of every user. Turns of one user are
// serialized; different users proceed in parallel.
type Engine struct {
	calendars  calendar.Provider
	classifier Classifier
	sessions   *session.Store
	finder     *scheduler.Finder
	mutations  *mutation.Engine
	series     *series.Planner
	habits     *habit.Planner
	insighter  analytics.Insighter
	defaults   Defaults
	now        func() time.Time
	log        logx.Logger

	flows map[intent.Kind]flow

	mu    sync.Mutex
	turns map[int64]*turnLock
}

// turnLock is the per-user turn mutex. refs counts the turns holding or
// waiting for it; the entry is removed when the last one finishes.
type turnLock struct {
	sync.Mutex
	refs int
}

// New creates an Engine.
func New(d Deps) *Engine {
	e := &Engine{
		calendars:  d.Calendars,
		classifier: d.Classifier,
		sessions:   d.Sessions,
		finder:     d.Finder,
		mutations:  d.Mutations,
		series:     d.Series,
		habits:     d.Habits,
		insighter:  d.Insighter,
		defaults:   d.Defaults.withFallbacks(),
		now:        d.Now,
		log:        d.Log,
		turns:      make(map[int64]*turnLock),
	}
	if e.sessions == nil {
		e.sessions = session.NewStore(e.log)
	}
	if e.finder == nil {
		e.finder = scheduler.NewFinder(scheduler.DefaultOptions())
	}
	if e.mutations == nil {
		e.mutations = mutation.NewEngine(e.log)
	}
	if e.series == nil {
		e.series = series.NewPlanner(e.finder, nil, e.log)
	}
	if e.habits == nil {
		e.habits = habit.NewPlanner(e.finder, nil, e.log)
	}
	if e.now == nil {
		e.now = time.Now
	}

	e.flows = map[intent.Kind]flow{
		intent.CreateEvent:        e.create,
		intent.ListEvents:         e.agenda,
		intent.AgendaDay:          e.agenda,
		intent.FindFreeSlot:       e.freeSlots,
		intent.EventLookup:        e.lookup,
		intent.EventUpdate:        e.update,
		intent.EventDelete:        e.delete,
		intent.SeriesPlan:         e.planSeries,
		intent.HabitSetup:         e.setupHabit,
		intent.ProductivityReport: e.report,
		intent.AnalyticsOverview:  e.report,
		intent.SmallTalk:          e.smallTalk,
	}
	return e
}

// Sessions returns the session store.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

// turn is the context of one handled message or action.
type turn struct {
	user    int64
	text    string
	now     time.Time
	state   *session.State
	backend calendar.Backend
	log     logx.Logger
}

func (e *Engine) begin(ctx context.Context, user int64, text string) (*turn, error) {
	backend, err := e.calendars.ForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return &turn{
		user:    user,
		text:    text,
		now:     e.now().In(e.finder.Location()),
		state:   e.sessions.Get(user),
		backend: backend,
		log:     e.log.With(logx.Int64("user", user)),
	}, nil
}

// lock serializes the turns of user.
func (e *Engine) lock(user int64) func() {
	e.mu.Lock()
	l, ok := e.turns[user]
	if !ok {
		l = &turnLock{}
		e.turns[user] = l
	}
	l.refs++
	e.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		e.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(e.turns, user)
		}
		e.mu.Unlock()
	}
}

// dropPending discards an outstanding confirmation; any turn that does
// not answer it makes it stale.
func (e *Engine) dropPending(t *turn) {
	if t.state.ClearPending() {
		t.log.Debug("dropped pending confirmation")
	}
}

// HandleText answers a free-text message.
func (e *Engine) HandleText(ctx context.Context, user int64, message string) (Reply, error) {
	defer e.lock(user)()

	message = strings.TrimSpace(message)
	if message == "" {
		return say(textEmpty), nil
	}
	if session.IsResetCommand(message) {
		e.sessions.Reset(user)
		return say(textReset), nil
	}

	t, err := e.begin(ctx, user, message)
	if err != nil {
		return e.fail(e.log.With(logx.Int64("user", user)), "open calendar", err)
	}

	if d := t.state.SlotDraft; d != nil {
		if minutes, ok := ParseDuration(message); ok {
			e.dropPending(t)
			return e.searchSlots(ctx, t, d.From, d.To, d.Window, minutes)
		}
	}
	if t.state.Slots() != nil {
		if later, ok := slotNavigation(message); ok {
			return e.navigate(ctx, t, later)
		}
	}

	raw, err := e.classifier.Classify(ctx, message, t.now)
	if err != nil {
		return e.fail(t.log, "classify", err)
	}
	a := intent.Normalize(raw, t.now, e.finder.Location())
	if len(a.Issues) > 0 {
		t.log.Debug("dropped malformed intent fields", logx.Any("issues", a.Issues))
	}
	t.log.Debug("message classified",
		logx.String("intent", string(a.Intent)),
		logx.Any("confidence", a.Confidence))

	if a.Intent == intent.Reset {
		e.sessions.Reset(user)
		return say(textReset), nil
	}

	e.dropPending(t)
	if a.Intent != intent.FindFreeSlot {
		t.state.SlotDraft = nil
	}

	if a.Intent == intent.CreateEvent && e.reusesSlot(t, a, message) {
		slot, _ := t.state.ConsumeSlot()
		return e.createInSlot(ctx, t, a, slot)
	}

	f, ok := e.flows[a.Intent]
	if !ok {
		return e.smallTalk(ctx, t, a)
	}
	return f(ctx, t, a)
}

// HandleAction resolves a button press.
func (e *Engine) HandleAction(ctx context.Context, user int64, action string) (Reply, error) {
	defer e.lock(user)()

	action = strings.TrimSpace(action)
	t, err := e.begin(ctx, user, action)
	if err != nil {
		return e.fail(e.log.With(logx.Int64("user", user)), "open calendar", err)
	}
	t.log.Debug("action received", logx.String("action", action))

	switch action {
	case ActionConflictConfirm:
		return e.confirmConflict(ctx, t)
	case ActionConflictCancel:
		return e.cancelConflict(t)
	case ActionConfirmDelete:
		return e.confirmDelete(ctx, t)
	case ActionCancelDelete:
		return e.cancelChoice(t, session.PurposeDelete, "Deletion cancelled.")
	case ActionCancelUpdate:
		return e.cancelChoice(t, session.PurposeUpdate, "Editing cancelled.")
	case ActionCancelLookup:
		return e.cancelChoice(t, session.PurposeLookup, "Okay.")
	case ActionSlotsEarlier:
		return e.navigate(ctx, t, false)
	case ActionSlotsLater:
		return e.navigate(ctx, t, true)
	case ActionSeriesConfirm:
		return e.commitSeries(ctx, t)
	case ActionSeriesCancel:
		return e.cancelSeries(t)
	}

	prefix, i, ok := parseChoice(action)
	if !ok {
		t.log.Warn("unknown action", logx.String("action", action))
		return say(textStateLost), nil
	}
	switch prefix {
	case PrefixDelete:
		return e.chooseDelete(t, i)
	case PrefixUpdate:
		return e.chooseUpdate(ctx, t, i)
	default:
		return e.chooseLookup(ctx, t, i)
	}
}

// fail logs err and turns it into a reply. Only cancellation of ctx is
// returned as an error.
func (e *Engine) fail(log logx.Logger, op string, err error) (Reply, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Reply{}, err
	}
	class := Classify(err)
	if class == ClassBackend {
		log.Error("request failed", logx.String("op", op), logx.Err(err))
	} else {
		log.Debug("request rejected",
			logx.String("op", op),
			logx.String("class", class.String()),
			logx.Err(err))
	}
	return say(UserMessage(err)), nil
}

func (e *Engine) smallTalk(_ context.Context, _ *turn, a intent.Analysis) (Reply, error) {
	if a.Reply != "" {
		return say(a.Reply), nil
	}
	return say(textUnknown), nil
}
