package assistant

import (
	"fmt"
	"strings"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

const untitled = "(untitled)"

func title(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return untitled
	}
	return summary
}

func when(ev *calendar.Event) string {
	if ev.AllDay {
		return ev.Start.Format("Mon 02.01") + ", all day"
	}
	return calendar.FormatSpan(ev.Start, ev.End)
}

// describeEvent renders an event over several lines.
func describeEvent(ev *calendar.Event) string {
	lines := []string{title(ev.Summary), when(ev)}
	if ev.Location != "" {
		lines = append(lines, "Location: "+ev.Location)
	}
	if label := reminderLabel(ev.Reminders); label != "" {
		lines = append(lines, label)
	}
	if len(ev.Recurrence) > 0 {
		lines = append(lines, "Repeats: "+strings.TrimPrefix(ev.Recurrence[0], "RRULE:"))
	}
	if ev.MeetLink != "" {
		lines = append(lines, "Meet: "+ev.MeetLink)
	}
	if ev.HTMLLink != "" {
		lines = append(lines, ev.HTMLLink)
	}
	return strings.Join(lines, "\n")
}

func eventLine(ev *calendar.Event) string {
	return fmt.Sprintf("- %s, %s", title(ev.Summary), when(ev))
}

func reminderLabel(r calendar.Reminders) string {
	if r.UseDefault {
		return ""
	}
	minutes, ok := r.FirstOverrideMinutes()
	if !ok {
		return "No reminder"
	}
	return fmt.Sprintf("Reminder %d min before", minutes)
}

func refLabel(i int, ref session.EventRef) string {
	return fmt.Sprintf("%d. %s (%s)", i+1, title(ref.Summary), ref.Start.Format("02.01 15:04"))
}

// choiceButtons lists candidates as numbered buttons followed by cancel.
func choiceButtons(refs []session.EventRef, prefix, cancel string) []Button {
	buttons := make([]Button, 0, len(refs)+1)
	for i, ref := range refs {
		buttons = append(buttons, Button{Label: refLabel(i, ref), Action: choiceAction(prefix, i)})
	}
	return append(buttons, Button{Label: "Cancel", Action: cancel})
}

func refs(events []calendar.Event) []session.EventRef {
	n := min(len(events), session.MaxCandidates)
	out := make([]session.EventRef, n)
	for i := range n {
		out[i] = session.RefOf(&events[i])
	}
	return out
}

func conflictReply(blocking scheduler.BlockingEvent, question, confirm string) Reply {
	return Reply{
		Text: fmt.Sprintf("There is already an event at that time:\n- %s, %s\n%s",
			title(blocking.Summary), blocking.Describe(), question),
		Buttons: []Button{
			{Label: confirm, Action: ActionConflictConfirm},
			{Label: "Cancel", Action: ActionConflictCancel},
		},
	}
}

func slotLines(slots []scheduler.Slot) string {
	lines := make([]string, len(slots))
	for i, s := range slots {
		lines[i] = "- " + s.String()
	}
	return strings.Join(lines, "\n")
}
