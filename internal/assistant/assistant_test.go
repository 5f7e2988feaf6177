package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/intent"
)

const user int64 = 42

// Monday morning.
var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func at(day, h, m int) time.Time {
	return time.Date(2025, 3, day, h, m, 0, 0, time.UTC)
}

func sp(s string) *string { return &s }

type scripted struct {
	replies map[string]intent.Raw
	calls   int
}

func (s *scripted) Classify(_ context.Context, text string, _ time.Time) (intent.Raw, error) {
	s.calls++
	if r, ok := s.replies[text]; ok {
		return r, nil
	}
	return intent.Raw{Intent: string(intent.SmallTalk)}, nil
}

// flakyBackend fails every create after the first ok ones.
type flakyBackend struct {
	*calendar.MemoryBackend
	ok      int
	creates int
}

func (f *flakyBackend) Create(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	f.creates++
	if f.creates > f.ok {
		return nil, errors.New("quota exceeded")
	}
	return f.MemoryBackend.Create(ctx, ev)
}

func newEngine(backend calendar.Backend, replies map[string]intent.Raw) (*Engine, *scripted) {
	c := &scripted{replies: replies}
	e := New(Deps{
		Calendars:  calendar.StaticProvider{Backend: backend},
		Classifier: c,
		Now:        func() time.Time { return now },
	})
	return e, c
}

func seed(t *testing.T, b calendar.Backend, summary string, start, end time.Time) *calendar.Event {
	t.Helper()
	ev, err := b.Create(context.Background(), &calendar.Event{Summary: summary, Start: start, End: end})
	if err != nil {
		t.Fatalf("seeding %s: %v", summary, err)
	}
	return ev
}

func send(t *testing.T, e *Engine, text string) Reply {
	t.Helper()
	r, err := e.HandleText(context.Background(), user, text)
	if err != nil {
		t.Fatalf("HandleText(%q): %v", text, err)
	}
	return r
}

func press(t *testing.T, e *Engine, action string) Reply {
	t.Helper()
	r, err := e.HandleAction(context.Background(), user, action)
	if err != nil {
		t.Fatalf("HandleAction(%q): %v", action, err)
	}
	return r
}

func hasAction(r Reply, action string) bool {
	for _, b := range r.Buttons {
		if b.Action == action {
			return true
		}
	}
	return false
}

func expectText(t *testing.T, r Reply, want string) {
	t.Helper()
	if !strings.Contains(r.Text, want) {
		t.Errorf("expected reply containing %q, got %q", want, r.Text)
	}
}

var standup = intent.Raw{
	Intent: string(intent.CreateEvent),
	Event: &intent.RawEvent{
		Title:           sp("standup"),
		Date:            sp("2025-03-10"),
		StartTime:       sp("10:00"),
		DurationMinutes: 30,
	},
}

func TestCreateConflictThenConfirm(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "review", at(10, 10, 15), at(10, 10, 45))
	e, _ := newEngine(backend, map[string]intent.Raw{"standup at 10": standup})

	r := send(t, e, "standup at 10")
	expectText(t, r, "review")
	if !hasAction(r, ActionConflictConfirm) || !hasAction(r, ActionConflictCancel) {
		t.Fatalf("expected conflict buttons, got %+v", r.Buttons)
	}
	if backend.Len() != 1 {
		t.Fatalf("expected nothing created before confirmation, got %d events", backend.Len())
	}

	r = press(t, e, ActionConflictConfirm)
	expectText(t, r, "Event created")
	if backend.Len() != 2 {
		t.Errorf("expected 2 events after confirmation, got %d", backend.Len())
	}

	r = press(t, e, ActionConflictConfirm)
	if r.Text != textStateLost {
		t.Errorf("expected state lost on repeated confirm, got %q", r.Text)
	}
	if backend.Len() != 2 {
		t.Errorf("expected no second create, got %d events", backend.Len())
	}
}

func TestCreateCancelConflict(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "review", at(10, 10, 15), at(10, 10, 45))
	e, _ := newEngine(backend, map[string]intent.Raw{"standup at 10": standup})

	send(t, e, "standup at 10")
	r := press(t, e, ActionConflictCancel)
	if r.Text != "Cancelled." {
		t.Errorf("expected Cancelled., got %q", r.Text)
	}
	if backend.Len() != 1 {
		t.Errorf("expected nothing created, got %d events", backend.Len())
	}
}

func TestCreateAsksForMissingParts(t *testing.T) {
	e, _ := newEngine(calendar.NewMemoryBackend(), map[string]intent.Raw{
		"add something": {Intent: string(intent.CreateEvent), Event: &intent.RawEvent{}},
		"add gym":       {Intent: string(intent.CreateEvent), Event: &intent.RawEvent{Title: sp("gym")}},
	})

	if r := send(t, e, "add something"); r.Text != textNeedTitle {
		t.Errorf("expected title question, got %q", r.Text)
	}
	if r := send(t, e, "add gym"); r.Text != textNeedDateTime {
		t.Errorf("expected date question, got %q", r.Text)
	}
}

func TestUpdateLastEvent(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	e, _ := newEngine(backend, map[string]intent.Raw{
		"standup at 10": standup,
		"move it to 15:00": {
			Intent:      string(intent.EventUpdate),
			EventUpdate: &intent.RawEventUpdate{StartTime: sp("15:00")},
		},
	})

	send(t, e, "standup at 10")
	r := send(t, e, "move it to 15:00")
	expectText(t, r, "Event updated")

	events, err := backend.List(context.Background(), at(10, 0, 0), at(11, 0, 0), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !events[0].Start.Equal(at(10, 15, 0)) || !events[0].End.Equal(at(10, 15, 30)) {
		t.Errorf("expected 15:00-15:30, got %v-%v", events[0].Start, events[0].End)
	}
}

func TestUpdateOccurrenceMovesWholeSeries(t *testing.T) {
	tests := []struct {
		name      string
		update    intent.RawEventUpdate
		wantStart func(day int) time.Time
		wantEnd   func(day int) time.Time
	}{
		{
			name:      "shift",
			update:    intent.RawEventUpdate{ShiftMinutes: 60},
			wantStart: func(day int) time.Time { return at(day, 19, 0) },
			wantEnd:   func(day int) time.Time { return at(day, 20, 0) },
		},
		{
			name:      "new start time",
			update:    intent.RawEventUpdate{StartTime: sp("07:30")},
			wantStart: func(day int) time.Time { return at(day, 7, 30) },
			wantEnd:   func(day int) time.Time { return at(day, 8, 30) },
		},
		{
			name:      "new length",
			update:    intent.RawEventUpdate{DurationMinutes: 45},
			wantStart: func(day int) time.Time { return at(day, 18, 0) },
			wantEnd:   func(day int) time.Time { return at(day, 18, 45) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := calendar.NewMemoryBackend()
			_, err := backend.Create(ctx, &calendar.Event{
				Summary:    "gym",
				Start:      at(10, 18, 0),
				End:        at(10, 19, 0),
				Recurrence: []string{"RRULE:FREQ=DAILY;COUNT=5"},
			})
			if err != nil {
				t.Fatalf("seeding series: %v", err)
			}
			update := tt.update
			e, _ := newEngine(backend, map[string]intent.Raw{
				"change the gym on wednesday": {
					Intent:      string(intent.EventUpdate),
					EventQuery:  &intent.RawEventQuery{Keywords: sp("gym"), Date: sp("2025-03-12")},
					EventUpdate: &update,
				},
			})

			r := send(t, e, "change the gym on wednesday")
			expectText(t, r, "Event updated")

			events, err := backend.List(ctx, at(10, 0, 0), at(16, 0, 0), 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(events) != 5 {
				t.Fatalf("expected 5 occurrences, got %d", len(events))
			}
			for i, ev := range events {
				day := 10 + i
				if !ev.Start.Equal(tt.wantStart(day)) || !ev.End.Equal(tt.wantEnd(day)) {
					t.Errorf("occurrence %d: expected %v-%v, got %v-%v",
						i, tt.wantStart(day), tt.wantEnd(day), ev.Start, ev.End)
				}
			}
		})
	}
}

func TestDeleteDisambiguationPressedTwice(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "seminar", at(11, 10, 0), at(11, 11, 0))
	seed(t, backend, "seminar", at(12, 10, 0), at(12, 11, 0))
	e, _ := newEngine(backend, map[string]intent.Raw{
		"delete the seminar": {
			Intent:     string(intent.EventDelete),
			EventQuery: &intent.RawEventQuery{Keywords: sp("seminar")},
		},
	})

	r := send(t, e, "delete the seminar")
	if len(r.Buttons) != 3 || !hasAction(r, "delete_1") || !hasAction(r, ActionCancelDelete) {
		t.Fatalf("expected two candidates and cancel, got %+v", r.Buttons)
	}

	r = press(t, e, "delete_1")
	expectText(t, r, "12.03 10:00")
	if !hasAction(r, ActionConfirmDelete) {
		t.Fatalf("expected delete confirmation, got %+v", r.Buttons)
	}

	r = press(t, e, "delete_1")
	if r.Text != textStateLost {
		t.Errorf("expected state lost on second press, got %q", r.Text)
	}
	if backend.Len() != 2 {
		t.Errorf("expected nothing deleted yet, got %d events", backend.Len())
	}

	// The confirmation survives the stale press.
	r = press(t, e, ActionConfirmDelete)
	expectText(t, r, `Deleted "seminar"`)
	if backend.Len() != 1 {
		t.Errorf("expected 1 event left, got %d", backend.Len())
	}
}

func TestDeleteLoosenedQuery(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "Seminar on databases", at(11, 10, 0), at(11, 11, 0))
	e, _ := newEngine(backend, map[string]intent.Raw{
		"delete seminara": {
			Intent:     string(intent.EventDelete),
			EventQuery: &intent.RawEventQuery{Keywords: sp("\"seminara\"")},
		},
	})

	r := send(t, e, "delete seminara")
	if !hasAction(r, ActionConfirmDelete) {
		t.Fatalf("expected a delete confirmation, got %q", r.Text)
	}
	r = press(t, e, ActionCancelDelete)
	if r.Text != "Deletion cancelled." {
		t.Errorf("expected Deletion cancelled., got %q", r.Text)
	}
	if backend.Len() != 1 {
		t.Errorf("expected nothing deleted, got %d events", backend.Len())
	}
}

func TestFreeSlotThenPutItThere(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "lectures", at(10, 8, 0), at(10, 12, 0))
	e, _ := newEngine(backend, map[string]intent.Raw{
		"an hour today": {
			Intent: string(intent.FindFreeSlot),
			FreeSlot: &intent.RawFreeSlot{
				DateFrom:        sp("2025-03-10"),
				DurationMinutes: 60,
			},
		},
		"put the call there": {
			Intent: string(intent.CreateEvent),
			Event:  &intent.RawEvent{Title: sp("call")},
		},
	})

	r := send(t, e, "an hour today")
	expectText(t, r, "10.03 12:00–13:00")

	r = send(t, e, "put the call there")
	expectText(t, r, "Event created")

	events, err := backend.Search(context.Background(), "call", at(10, 0, 0), at(11, 0, 0), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || !events[0].Start.Equal(at(10, 12, 0)) {
		t.Errorf("expected the call at 12:00, got %+v", events)
	}
}

func TestFreeSlotAsksForDuration(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	e, c := newEngine(backend, map[string]intent.Raw{
		"free time tomorrow?": {
			Intent:   string(intent.FindFreeSlot),
			FreeSlot: &intent.RawFreeSlot{DateFrom: sp("2025-03-11")},
		},
	})

	r := send(t, e, "free time tomorrow?")
	if r.Text != textAskDuration {
		t.Fatalf("expected duration question, got %q", r.Text)
	}
	r = send(t, e, "45 min")
	expectText(t, r, "11.03 08:00–08:45")
	if c.calls != 1 {
		t.Errorf("expected the duration follow-up to skip the classifier, got %d calls", c.calls)
	}
}

func TestSlotPaging(t *testing.T) {
	e, c := newEngine(calendar.NewMemoryBackend(), map[string]intent.Raw{
		"an hour this week": {
			Intent: string(intent.FindFreeSlot),
			FreeSlot: &intent.RawFreeSlot{
				DateFrom:        sp("2025-03-10"),
				DateTo:          sp("2025-03-16"),
				DurationMinutes: 60,
			},
		},
	})

	r := send(t, e, "an hour this week")
	expectText(t, r, "10.03 08:00")
	expectText(t, r, "12.03 08:00")
	if !hasAction(r, ActionSlotsLater) {
		t.Fatalf("expected paging buttons, got %+v", r.Buttons)
	}

	r = send(t, e, "later")
	expectText(t, r, "13.03 08:00")
	if strings.Contains(r.Text, "10.03") {
		t.Errorf("expected the later page to skip Monday, got %q", r.Text)
	}

	r = press(t, e, ActionSlotsEarlier)
	expectText(t, r, "10.03 08:00")
	if c.calls != 1 {
		t.Errorf("expected paging to skip the classifier, got %d calls", c.calls)
	}
}

func TestSlotPagingExhausted(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "busy", at(10, 9, 0), at(10, 20, 0))
	e, _ := newEngine(backend, map[string]intent.Raw{
		"an hour today": {
			Intent: string(intent.FindFreeSlot),
			FreeSlot: &intent.RawFreeSlot{
				DateFrom:        sp("2025-03-10"),
				DurationMinutes: 60,
			},
		},
	})

	send(t, e, "an hour today")
	if r := send(t, e, "later"); r.Text != "No later free slots in this range." {
		t.Errorf("expected later exhaustion, got %q", r.Text)
	}
	if r := send(t, e, "earlier"); r.Text != "No earlier free slots in this range." {
		t.Errorf("expected earlier exhaustion, got %q", r.Text)
	}
}

func TestPagingWithoutSearch(t *testing.T) {
	e, _ := newEngine(calendar.NewMemoryBackend(), nil)
	if r := press(t, e, ActionSlotsLater); r.Text != textStateLost {
		t.Errorf("expected state lost, got %q", r.Text)
	}
}

func TestResetDropsPending(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "review", at(10, 10, 15), at(10, 10, 45))
	e, c := newEngine(backend, map[string]intent.Raw{"standup at 10": standup})

	send(t, e, "standup at 10")
	if r := send(t, e, "start over"); r.Text != textReset {
		t.Errorf("expected reset reply, got %q", r.Text)
	}
	if c.calls != 1 {
		t.Errorf("expected reset to skip the classifier, got %d calls", c.calls)
	}
	if r := press(t, e, ActionConflictConfirm); r.Text != textStateLost {
		t.Errorf("expected state lost after reset, got %q", r.Text)
	}
	if backend.Len() != 1 {
		t.Errorf("expected nothing created, got %d events", backend.Len())
	}
}

func TestNewRequestSupersedesPending(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "review", at(10, 10, 15), at(10, 10, 45))
	e, _ := newEngine(backend, map[string]intent.Raw{"standup at 10": standup})

	send(t, e, "standup at 10")
	send(t, e, "how are you?")
	if r := press(t, e, ActionConflictConfirm); r.Text != textStateLost {
		t.Errorf("expected state lost after a new request, got %q", r.Text)
	}
}

func TestSlotPagingDropsPendingConflict(t *testing.T) {
	week := intent.Raw{
		Intent: string(intent.FindFreeSlot),
		FreeSlot: &intent.RawFreeSlot{
			DateFrom:        sp("2025-03-10"),
			DateTo:          sp("2025-03-16"),
			DurationMinutes: 60,
		},
	}
	tests := []struct {
		name string
		page func(t *testing.T, e *Engine)
	}{
		{"typed", func(t *testing.T, e *Engine) { send(t, e, "later") }},
		{"button", func(t *testing.T, e *Engine) { press(t, e, ActionSlotsLater) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := calendar.NewMemoryBackend()
			seed(t, backend, "review", at(10, 10, 15), at(10, 10, 45))
			e, _ := newEngine(backend, map[string]intent.Raw{
				"an hour this week": week,
				"standup at 10":     standup,
			})

			send(t, e, "an hour this week")
			r := send(t, e, "standup at 10")
			if !hasAction(r, ActionConflictConfirm) {
				t.Fatalf("expected a conflict prompt, got %q", r.Text)
			}
			tt.page(t, e)

			if r := press(t, e, ActionConflictConfirm); r.Text != textStateLost {
				t.Errorf("expected state lost after paging, got %q", r.Text)
			}
			if backend.Len() != 1 {
				t.Errorf("expected nothing created, got %d events", backend.Len())
			}
		})
	}
}

// chatter answers everything with small talk and is safe for concurrent use.
type chatter struct{}

func (chatter) Classify(context.Context, string, time.Time) (intent.Raw, error) {
	return intent.Raw{Intent: string(intent.SmallTalk)}, nil
}

func TestTurnLocksAreReleased(t *testing.T) {
	e := New(Deps{
		Calendars:  calendar.StaticProvider{Backend: calendar.NewMemoryBackend()},
		Classifier: chatter{},
		Now:        func() time.Time { return now },
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			_, _ = e.HandleText(context.Background(), u%4, "hello")
		}(int64(i))
	}
	wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.turns) != 0 {
		t.Errorf("expected no turn locks after all turns finished, got %d", len(e.turns))
	}
}

var exam = intent.Raw{
	Intent: string(intent.SeriesPlan),
	SeriesPlan: &intent.RawSeriesPlan{
		Title:        sp("exam"),
		Deadline:     sp("2025-03-11 12:00"),
		TotalHours:   6,
		BlockMinutes: 120,
	},
}

func TestSeriesShortfallAndCommit(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	e, _ := newEngine(backend, map[string]intent.Raw{"prepare for the exam": exam})

	r := send(t, e, "prepare for the exam")
	expectText(t, r, "Block 2")
	expectText(t, r, "Found only 2 of 3 blocks")
	if !hasAction(r, ActionSeriesConfirm) {
		t.Fatalf("expected series buttons, got %+v", r.Buttons)
	}
	if backend.Len() != 0 {
		t.Fatalf("expected preview to create nothing, got %d events", backend.Len())
	}

	r = press(t, e, ActionSeriesConfirm)
	expectText(t, r, "Created 2 blocks")
	expectText(t, r, "deadline is marked")
	if backend.Len() != 3 {
		t.Errorf("expected 2 blocks and a deadline marker, got %d events", backend.Len())
	}

	if r = press(t, e, ActionSeriesConfirm); r.Text != textStateLost {
		t.Errorf("expected state lost on repeated commit, got %q", r.Text)
	}
}

func TestSeriesPartialCommit(t *testing.T) {
	backend := &flakyBackend{MemoryBackend: calendar.NewMemoryBackend(), ok: 1}
	e, _ := newEngine(backend, map[string]intent.Raw{"prepare for the exam": exam})

	send(t, e, "prepare for the exam")
	r := press(t, e, ActionSeriesConfirm)
	expectText(t, r, "Created 1 of 2 blocks")
	if backend.Len() != 1 {
		t.Errorf("expected the first block to be kept, got %d events", backend.Len())
	}
}

func TestSeriesPastDeadline(t *testing.T) {
	e, _ := newEngine(calendar.NewMemoryBackend(), map[string]intent.Raw{
		"plan it": {
			Intent: string(intent.SeriesPlan),
			SeriesPlan: &intent.RawSeriesPlan{
				Title:    sp("exam"),
				Deadline: sp("2025-03-09 12:00"),
			},
		},
	})
	if r := send(t, e, "plan it"); r.Text != "The deadline has already passed." {
		t.Errorf("expected deadline message, got %q", r.Text)
	}
}

func TestSeriesCancel(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	e, _ := newEngine(backend, map[string]intent.Raw{"prepare for the exam": exam})

	send(t, e, "prepare for the exam")
	if r := press(t, e, ActionSeriesCancel); r.Text != "Okay, the plan was discarded." {
		t.Errorf("expected discard reply, got %q", r.Text)
	}
	if backend.Len() != 0 {
		t.Errorf("expected nothing created, got %d events", backend.Len())
	}
}

func TestHabitSetup(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	e, _ := newEngine(backend, map[string]intent.Raw{
		"yoga": {
			Intent: string(intent.HabitSetup),
			Habit:  &intent.RawHabit{Name: sp("yoga")},
		},
		"yoga 3 times a week, 30 min at 07:00": {
			Intent: string(intent.HabitSetup),
			Habit: &intent.RawHabit{
				Name:            sp("yoga"),
				DurationMinutes: 30,
				SessionsPerWeek: 3,
				FixedTime:       sp("07:00"),
			},
		},
	})

	if r := send(t, e, "yoga"); !strings.Contains(r.Text, "How long") {
		t.Errorf("expected duration question, got %q", r.Text)
	}
	r := send(t, e, "yoga 3 times a week, 30 min at 07:00")
	expectText(t, r, "3 times a week")
	if backend.Len() != 1 {
		t.Errorf("expected one recurring event, got %d", backend.Len())
	}
}

type failingInsighter struct{}

func (failingInsighter) Insight(context.Context, string) (string, error) {
	return "", errors.New("model unavailable")
}

func TestReportWithoutInsight(t *testing.T) {
	backend := calendar.NewMemoryBackend()
	seed(t, backend, "gym", at(8, 10, 0), at(8, 11, 0))
	e := New(Deps{
		Calendars:  calendar.StaticProvider{Backend: backend},
		Classifier: &scripted{replies: map[string]intent.Raw{"how was my week": {Intent: string(intent.ProductivityReport)}}},
		Insighter:  failingInsighter{},
		Now:        func() time.Time { return now },
	})

	r := send(t, e, "how was my week")
	expectText(t, r, "Booked: 1.0h")
}

func TestSmallTalk(t *testing.T) {
	e, _ := newEngine(calendar.NewMemoryBackend(), map[string]intent.Raw{
		"hi": {Intent: string(intent.SmallTalk), Reply: "Hello!"},
	})
	if r := send(t, e, "hi"); r.Text != "Hello!" {
		t.Errorf("expected Hello!, got %q", r.Text)
	}
	if r := send(t, e, "what?"); r.Text != textUnknown {
		t.Errorf("expected capabilities, got %q", r.Text)
	}
	if r := send(t, e, "   "); r.Text != textEmpty {
		t.Errorf("expected empty prompt, got %q", r.Text)
	}
}

func TestUnknownAction(t *testing.T) {
	e, _ := newEngine(calendar.NewMemoryBackend(), nil)
	if r := press(t, e, "bogus"); r.Text != textStateLost {
		t.Errorf("expected state lost, got %q", r.Text)
	}
}
