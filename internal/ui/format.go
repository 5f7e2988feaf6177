package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/assistant"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
)

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// FormatDuration formats minutes as "1h 30m", "2h" or "45m".
func FormatDuration(m int) string {
	h, rest := m/60, m%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", rest)
	case rest == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, rest)
	}
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// printEvents prints events grouped by day.
func printEvents(w io.Writer, events []calendar.Event, width int) {
	var day string
	for i := range events {
		ev := &events[i]
		if d := ev.Start.Format("Monday, January 2"); d != day {
			if day != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, formatHeader(d))
			day = d
		}

		span := ev.Start.Format("15:04") + "-" + ev.End.Format("15:04")
		if ev.AllDay {
			span = "all day    "
		}
		mins := int(ev.Duration().Minutes())
		fmt.Fprintf(w, "  %s  %s  %s  %s\n",
			formatTime(span),
			formatTitle(truncate(titleOf(ev.Summary), width)),
			formatMuted(FormatDuration(mins)),
			formatMuted(shortID(ev.ID)),
		)
	}
}

func titleOf(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return "(untitled)"
	}
	return summary
}

// shortID keeps enough of an event id to pass it back on the command line.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func printSlots(w io.Writer, slots []scheduler.Slot) {
	for i, s := range slots {
		fmt.Fprintf(w, "  %d. %s\n", i+1, formatTime(s.String()))
	}
}

// printReply prints an assistant reply with its buttons numbered for "!n".
func printReply(w io.Writer, r assistant.Reply) {
	for _, line := range strings.Split(r.Text, "\n") {
		fmt.Fprintln(w, formatReply(line))
	}
	for i, b := range r.Buttons {
		fmt.Fprintf(w, "  %s %s\n", formatWarn(fmt.Sprintf("[!%d]", i+1)), b.Label)
	}
}

// printWrapped prints narrative text wrapped to width, keeping bullets and
// headers of the model's markdown.
func printWrapped(w io.Writer, text string, width int) {
	for _, line := range strings.Split(stripMarkdownCodeBlocks(text), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			fmt.Fprintln(w)
		case strings.HasPrefix(trimmed, "#"):
			fmt.Fprintln(w, formatHeader("  "+strings.TrimLeft(trimmed, "# ")))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			wrapAndPrint(w, trimmed[2:], "    • ", width-6)
		default:
			wrapAndPrint(w, trimmed, "  ", width-2)
		}
	}
}

// wrapAndPrint wraps text to width and prints with the given prefix.
func wrapAndPrint(w io.Writer, text, prefix string, width int) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	continuation := strings.Repeat(" ", len([]rune(prefix)))
	line, first := "", true
	flush := func() {
		p := continuation
		if first {
			p = prefix
		}
		fmt.Fprintln(w, formatReply(p+line))
		first = false
	}
	for _, word := range words {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			flush()
			line = word
		}
	}
	flush()
}

// stripMarkdownCodeBlocks removes ```...``` fences from text.
func stripMarkdownCodeBlocks(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if !inCodeBlock {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
