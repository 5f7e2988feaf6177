package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestExportICS(t *testing.T) {
	start := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "abc", Summary: "Planning", Description: "Q1", Location: "Room 2", Start: start, End: start.Add(time.Hour)},
		{ID: "def_20250204T090000Z", Summary: "Gym", Start: start.Add(24 * time.Hour), End: start.Add(25 * time.Hour), Recurrence: []string{"RRULE:FREQ=WEEKLY;COUNT=12"}},
	}

	var buf bytes.Buffer
	if err := ExportICS(&buf, events, start); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"BEGIN:VCALENDAR", "SUMMARY:Planning", "LOCATION:Room 2", "UID:def", "RRULE:FREQ=WEEKLY;COUNT=12"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestParseICS(t *testing.T) {
	doc := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:one",
		"DTSTAMP:20250101T000000Z",
		"DTSTART:20250110T090000Z",
		"DTEND:20250110T100000Z",
		"SUMMARY:Lecture",
		"RRULE:FREQ=WEEKLY;COUNT=4",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:two",
		"DTSTAMP:20250101T000000Z",
		"DTSTART;VALUE=DATE:20250111",
		"DTEND;VALUE=DATE:20250112",
		"SUMMARY:Holiday",
		"STATUS:CANCELLED",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	events, err := ParseICS(strings.NewReader(doc), time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	lecture := events[0]
	if lecture.Summary != "Lecture" {
		t.Errorf("expected Lecture, got %s", lecture.Summary)
	}
	if !lecture.Start.Equal(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v", lecture.Start)
	}
	if len(lecture.Recurrence) != 1 || lecture.Recurrence[0] != "RRULE:FREQ=WEEKLY;COUNT=4" {
		t.Errorf("unexpected recurrence %v", lecture.Recurrence)
	}

	holiday := events[1]
	if !holiday.AllDay {
		t.Error("expected all-day event")
	}
	if !holiday.IsCancelled() {
		t.Error("expected cancelled status")
	}
}
