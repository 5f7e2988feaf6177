package intent

import (
	"errors"
	"testing"
	"time"
)

// Wednesday 2025-01-08 15:00 UTC.
var now = time.Date(2025, 1, 8, 15, 0, 0, 0, time.UTC)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"plain", `{"intent":"small_talk"}`, "small_talk", false},
		{"fenced", "```json\n{\"intent\":\"agenda_day\"}\n```", "agenda_day", false},
		{"with prose", `Sure! {"intent":"reset"} hope this helps`, "reset", false},
		{"no json", "I cannot help with that", "", true},
		{"broken json", `{"intent": }`, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := Decode(tc.text)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if raw.Intent != tc.want {
				t.Errorf("expected %q, got %q", tc.want, raw.Intent)
			}
		})
	}
	if _, err := Decode("nothing"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if ParseKind(" Event_Update ") != EventUpdate {
		t.Error("expected case-insensitive match")
	}
	if ParseKind("order_pizza") != Unknown {
		t.Error("expected unknown intent")
	}
	if len(Kinds()) != len(known) {
		t.Errorf("expected Kinds to list all %d intents, got %d", len(known), len(Kinds()))
	}
}

func TestNormalize_Event(t *testing.T) {
	raw, err := Decode(`{
		"intent": "create_event",
		"confidence": "0.9",
		"assistant_reply": " Done ",
		"event": {
			"title": "Dentist",
			"date": "tomorrow",
			"start_time": "9:30",
			"duration_minutes": "45",
			"needs_meet": "true",
			"category": "Health",
			"reminder_minutes": 0,
			"recurrence": null
		}
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := Normalize(raw, now, time.UTC)

	if a.Intent != CreateEvent || a.Confidence != 0.9 || a.Reply != "Done" {
		t.Errorf("unexpected header %+v", a)
	}
	e := a.Event
	if e == nil {
		t.Fatal("expected event draft")
	}
	if e.Title != "Dentist" || e.Category != "health" || !e.NeedsMeet {
		t.Errorf("unexpected draft %+v", e)
	}
	if e.Date == nil || !e.Date.Equal(time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected tomorrow, got %v", e.Date)
	}
	if !e.HasExplicitTime() || e.Start.Hour != 9 || e.Start.Minute != 30 {
		t.Errorf("expected 09:30, got %+v", e.Start)
	}
	if e.DurationMinutes == nil || *e.DurationMinutes != 45 {
		t.Errorf("expected 45 minutes, got %v", e.DurationMinutes)
	}
	if e.ReminderMinutes == nil || *e.ReminderMinutes != 0 {
		t.Errorf("expected explicit zero reminder, got %v", e.ReminderMinutes)
	}
	if e.Recurrence != "" {
		t.Errorf("expected no recurrence, got %q", e.Recurrence)
	}
}

func TestNormalize_DropsMalformedFields(t *testing.T) {
	raw := Raw{
		Intent: "find_free_slot",
		FreeSlot: &RawFreeSlot{
			DateFrom:        strp("someday"),
			DurationMinutes: "-30",
		},
	}
	a := Normalize(raw, now, time.UTC)
	if a.SlotSearch == nil {
		t.Fatal("expected slot search")
	}
	if a.SlotSearch.From != nil || a.SlotSearch.DurationMinutes != nil {
		t.Errorf("expected malformed fields to be nil, got %+v", a.SlotSearch)
	}
	if len(a.Issues) != 2 {
		t.Errorf("expected 2 issues, got %v", a.Issues)
	}
}

func TestNormalize_UnknownIntent(t *testing.T) {
	a := Normalize(Raw{Intent: "book_flight"}, now, time.UTC)
	if a.Intent != Unknown {
		t.Errorf("expected Unknown, got %q", a.Intent)
	}
}

func TestNormalize_Series(t *testing.T) {
	raw := Raw{
		Intent: "series_plan",
		SeriesPlan: &RawSeriesPlan{
			Title:         strp("Exam prep"),
			Deadline:      strp("2025-01-20 18:00"),
			TotalHours:    "2,5",
			BlockMinutes:  60.0,
			AllowWeekends: true,
		},
	}
	a := Normalize(raw, now, time.UTC)
	s := a.Series
	if s == nil {
		t.Fatal("expected series")
	}
	if s.TotalMinutes == nil || *s.TotalMinutes != 150 {
		t.Errorf("expected 150 minutes, got %v", s.TotalMinutes)
	}
	if s.Deadline == nil || !s.Deadline.Equal(time.Date(2025, 1, 20, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected deadline %v", s.Deadline)
	}
	if !s.AllowWeekends || *s.BlockMinutes != 60 {
		t.Errorf("unexpected series %+v", s)
	}
}

func TestToPatch(t *testing.T) {
	tests := []struct {
		name  string
		raw   RawEventUpdate
		check func(t *testing.T, a Analysis)
	}{
		{
			name: "shift",
			raw:  RawEventUpdate{ShiftMinutes: "120"},
			check: func(t *testing.T, a Analysis) {
				if a.Patch == nil || *a.Patch.ShiftMinutes != 120 {
					t.Errorf("expected shift 120, got %+v", a.Patch)
				}
			},
		},
		{
			name: "zero shift is no change",
			raw:  RawEventUpdate{ShiftMinutes: 0.0},
			check: func(t *testing.T, a Analysis) {
				if a.Patch != nil {
					t.Errorf("expected empty patch to be dropped, got %+v", a.Patch)
				}
			},
		},
		{
			name: "start and end become duration",
			raw:  RawEventUpdate{StartTime: strp("16:30"), EndTime: strp("18:00")},
			check: func(t *testing.T, a Analysis) {
				if a.Patch.Clock == nil || a.Patch.Clock.Hour != 16 {
					t.Errorf("expected 16:30 start, got %+v", a.Patch.Clock)
				}
				if a.Patch.DurationMinutes == nil || *a.Patch.DurationMinutes != 90 {
					t.Errorf("expected 90 minutes, got %v", a.Patch.DurationMinutes)
				}
			},
		},
		{
			name: "meet flags and category",
			raw:  RawEventUpdate{AddMeet: "yes", RemoveMeet: false, Category: strp("Work")},
			check: func(t *testing.T, a Analysis) {
				if !a.Patch.AddMeet || a.Patch.RemoveMeet || *a.Patch.Category != "work" {
					t.Errorf("unexpected patch %+v", a.Patch)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := tc.raw
			tc.check(t, Normalize(Raw{Intent: "event_update", EventUpdate: &raw}, now, time.UTC))
		})
	}

	p, issues := ToPatch(RawEventUpdate{Title: strp(" Sync ")}, now, time.UTC)
	if p.Title == nil || *p.Title != "Sync" || len(issues) != 0 {
		t.Errorf("unexpected ToPatch result %+v %v", p, issues)
	}
}

func strp(s string) *string { return &s }
