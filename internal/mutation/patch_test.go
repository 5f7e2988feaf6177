package mutation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func baseEvent() *calendar.Event {
	return &calendar.Event{
		ID:        "ev1",
		Summary:   "Planning",
		Start:     time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
		Reminders: calendar.DefaultReminders(),
	}
}

func TestResolve_Time(t *testing.T) {
	at := func(d, h, m int) time.Time { return time.Date(2025, 3, d, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		patch     Patch
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "clock only keeps date and duration",
			patch:     Patch{Clock: &Clock{Hour: 15, Minute: 30}},
			wantStart: at(10, 15, 30),
			wantEnd:   at(10, 16, 30),
		},
		{
			name:      "date only keeps clock",
			patch:     Patch{Date: timePtr(at(12, 0, 0))},
			wantStart: at(12, 10, 0),
			wantEnd:   at(12, 11, 0),
		},
		{
			name:      "date and clock",
			patch:     Patch{Date: timePtr(at(12, 0, 0)), Clock: &Clock{Hour: 8}},
			wantStart: at(12, 8, 0),
			wantEnd:   at(12, 9, 0),
		},
		{
			name:      "shift later",
			patch:     Patch{ShiftMinutes: intPtr(90)},
			wantStart: at(10, 11, 30),
			wantEnd:   at(10, 12, 30),
		},
		{
			name:      "shift earlier",
			patch:     Patch{ShiftMinutes: intPtr(-30)},
			wantStart: at(10, 9, 30),
			wantEnd:   at(10, 10, 30),
		},
		{
			name:      "shift ignored with absolute time",
			patch:     Patch{Clock: &Clock{Hour: 14}, ShiftMinutes: intPtr(60)},
			wantStart: at(10, 14, 0),
			wantEnd:   at(10, 15, 0),
		},
		{
			name:      "duration after shift",
			patch:     Patch{ShiftMinutes: intPtr(60), DurationMinutes: intPtr(30)},
			wantStart: at(10, 11, 0),
			wantEnd:   at(10, 11, 30),
		},
		{
			name:      "explicit end",
			patch:     Patch{End: timePtr(at(10, 12, 0))},
			wantStart: at(10, 10, 0),
			wantEnd:   at(10, 12, 0),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(baseEvent(), tc.patch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Start.Equal(tc.wantStart) || !got.End.Equal(tc.wantEnd) {
				t.Errorf("expected %v-%v, got %v-%v", tc.wantStart, tc.wantEnd, got.Start, got.End)
			}
		})
	}
}

func TestResolve_DoesNotModifyOriginal(t *testing.T) {
	orig := baseEvent()
	if _, err := Resolve(orig, Patch{ShiftMinutes: intPtr(60), Title: strPtr("Other")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orig.Summary != "Planning" || orig.Start.Hour() != 10 {
		t.Errorf("original was modified: %+v", orig)
	}
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
	}{
		{"zero duration", Patch{DurationMinutes: intPtr(0)}},
		{"end before start", Patch{End: timePtr(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))}},
		{"empty title", Patch{Title: strPtr("  ")}},
		{"bad clock", Patch{Clock: &Clock{Hour: 25}}},
		{"unknown category", Patch{Category: strPtr("napping")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(baseEvent(), tc.patch)
			if !errors.Is(err, ErrInvalidPatch) {
				t.Errorf("expected ErrInvalidPatch, got %v", err)
			}
		})
	}
}

func TestResolve_Fields(t *testing.T) {
	orig := baseEvent()
	orig.MeetLink = "https://meet.example/abc"

	got, err := Resolve(orig, Patch{
		Title:           strPtr(" Retro "),
		Location:        strPtr("Room 4"),
		AddMeet:         true,
		RemoveMeet:      true,
		Category:        strPtr("Sport"),
		ReminderMinutes: intPtr(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Summary != "Retro" {
		t.Errorf("expected title Retro, got %q", got.Summary)
	}
	if got.Location != "Room 4" {
		t.Errorf("expected location Room 4, got %q", got.Location)
	}
	if got.MeetLink != "" || got.RequestMeet {
		t.Error("expected remove to win over add")
	}
	if got.ColorID != "11" {
		t.Errorf("expected sport color 11, got %q", got.ColorID)
	}
	if got.Reminders.UseDefault || len(got.Reminders.Overrides) != 0 {
		t.Errorf("expected reminders off, got %+v", got.Reminders)
	}
}

func TestResolve_Reminders(t *testing.T) {
	tests := []struct {
		name        string
		patch       Patch
		wantDefault bool
		wantMinutes int
	}{
		{"untouched", Patch{}, true, 0},
		{"single popup", Patch{ReminderMinutes: intPtr(15)}, false, 15},
		{"back to default", Patch{DefaultReminders: true}, true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			orig := baseEvent()
			orig.Reminders = calendar.RemindersFromMinutes(intPtr(5))
			if tc.name == "untouched" {
				orig.Reminders = calendar.DefaultReminders()
			}
			got, err := Resolve(orig, tc.patch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Reminders.UseDefault != tc.wantDefault {
				t.Errorf("expected use default %v, got %v", tc.wantDefault, got.Reminders.UseDefault)
			}
			if m, _ := got.Reminders.FirstOverrideMinutes(); m != tc.wantMinutes {
				t.Errorf("expected %d minutes, got %d", tc.wantMinutes, m)
			}
		})
	}
}

func TestResolve_AddMeetRequestsLink(t *testing.T) {
	got, err := Resolve(baseEvent(), Patch{AddMeet: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.RequestMeet {
		t.Error("expected a conference request")
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(Patch{}).Empty() {
		t.Error("expected zero patch to be empty")
	}
	if (Patch{RemoveMeet: true}).Empty() {
		t.Error("expected patch with RemoveMeet not to be empty")
	}
}

func TestChanges(t *testing.T) {
	before := baseEvent()
	after, err := Resolve(before, Patch{ShiftMinutes: intPtr(60), Category: strPtr("work")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := Changes(before, after)
	if len(lines) != 2 {
		t.Fatalf("expected 2 changes, got %v", lines)
	}
	if !strings.Contains(lines[0], "10.03 11:00–12:00") {
		t.Errorf("expected new time in %q", lines[0])
	}
	if lines[1] != "category: work" {
		t.Errorf("expected category line, got %q", lines[1])
	}
}

func TestForSeries(t *testing.T) {
	at := func(d, h, m int) time.Time { return time.Date(2025, 3, d, h, m, 0, 0, time.UTC) }

	series := baseEvent()
	series.Recurrence = []string{"RRULE:FREQ=DAILY;COUNT=5"}
	occurrence := series.Clone()
	occurrence.ID = calendar.InstanceID(series.ID, at(12, 10, 0))
	occurrence.Start, occurrence.End = at(12, 10, 0), at(12, 11, 0)

	tests := []struct {
		name      string
		patch     Patch
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "clock keeps the series start day",
			patch:     Patch{Clock: &Clock{Hour: 14, Minute: 0}},
			wantStart: at(10, 14, 0),
			wantEnd:   at(10, 15, 0),
		},
		{
			name:      "date moves every occurrence by the same days",
			patch:     Patch{Date: timePtr(at(13, 0, 0))},
			wantStart: at(11, 10, 0),
			wantEnd:   at(11, 11, 0),
		},
		{
			name:      "explicit end changes the length",
			patch:     Patch{End: timePtr(at(12, 11, 30))},
			wantStart: at(10, 10, 0),
			wantEnd:   at(10, 11, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ForSeries(occurrence, series, tt.patch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.HasAbsoluteTime() || p.End != nil {
				t.Errorf("expected only relative time fields, got %+v", p)
			}
			got, err := Resolve(series, p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("expected %v-%v, got %v-%v", tt.wantStart, tt.wantEnd, got.Start, got.End)
			}
		})
	}
}

func TestForSeries_LeavesOtherPatchesAlone(t *testing.T) {
	single := baseEvent()
	p := Patch{Clock: &Clock{Hour: 9}}
	got, err := ForSeries(single, single, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Clock == nil || got.ShiftMinutes != nil {
		t.Errorf("expected a single event patch to pass through, got %+v", got)
	}

	series := baseEvent()
	series.Recurrence = []string{"RRULE:FREQ=WEEKLY;COUNT=4"}
	got, err = ForSeries(series, series, Patch{Title: strPtr("Retro")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ShiftMinutes != nil || got.DurationMinutes != nil {
		t.Errorf("expected a title change to stay untimed, got %+v", got)
	}
}
