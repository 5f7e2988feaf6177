package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

// weekLoadedMsg is sent when a week's events are loaded.
type weekLoadedMsg struct {
	start  time.Time
	events []calendar.Event
}

// deletedMsg is sent after an event was removed.
type deletedMsg struct {
	summary string
}

// errMsg is sent when an error occurs.
type errMsg struct {
	err error
}

// statusMsg shows a temporary status line.
type statusMsg struct {
	text string
}

// clearStatusMsg is sent to clear the status line.
type clearStatusMsg struct{}

func loadWeek(backend calendar.Backend, start time.Time) tea.Cmd {
	return func() tea.Msg {
		events, err := backend.List(context.Background(), start, start.AddDate(0, 0, 7), weekLimit)
		if err != nil {
			return errMsg{err: fmt.Errorf("loading week: %w", err)}
		}
		return weekLoadedMsg{start: start, events: events}
	}
}

func deleteEvent(backend calendar.Backend, ev calendar.Event) tea.Cmd {
	return func() tea.Msg {
		if err := backend.Delete(context.Background(), ev.ID); err != nil {
			return errMsg{err: fmt.Errorf("deleting %q: %w", ev.Summary, err)}
		}
		return deletedMsg{summary: ev.Summary}
	}
}

// copyEvent puts a plain text rendering of ev on the clipboard.
func copyEvent(ev calendar.Event) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(eventText(ev)); err != nil {
			return errMsg{err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return statusMsg{text: "Copied " + ev.Summary}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func eventText(ev calendar.Event) string {
	text := ev.Summary + "\n" + calendar.FormatSpan(ev.Start, ev.End)
	if ev.AllDay {
		text = ev.Summary + "\n" + ev.Start.Format("02.01") + " all day"
	}
	if ev.Location != "" {
		text += "\n" + ev.Location
	}
	if ev.MeetLink != "" {
		text += "\n" + ev.MeetLink
	}
	if ev.Description != "" {
		text += "\n\n" + ev.Description
	}
	return text
}
