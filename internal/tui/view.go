package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/analytics"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
)

const minColWidth = 12

// View renders the week.
func (m Model) View() string {
	var b strings.Builder

	end := m.weekStart.AddDate(0, 0, 6)
	title := fmt.Sprintf("Week of %s – %s", m.weekStart.Format("Jan 2"), end.Format("Jan 2, 2006"))
	if m.loading {
		title += "  loading..."
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.renderGrid())
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) colWidth() int {
	w := m.width/7 - 1
	if w < minColWidth {
		return minColWidth
	}
	return w
}

// gridHeight is the number of card lines a column may use.
func (m Model) gridHeight() int {
	h := m.height - 12
	if h < 4 {
		return 4
	}
	return h
}

func (m Model) renderGrid() string {
	width := m.colWidth()
	today := m.now()
	cols := make([]string, 7)

	for d := 0; d < 7; d++ {
		date := m.weekStart.AddDate(0, 0, d)
		label := date.Format("Mon 02")

		header := m.styles.DayHeader
		switch {
		case d == m.day:
			header = m.styles.ActiveDay
		case dateutil.SameDay(date, today):
			header = m.styles.Today
		}

		lines := []string{header.Width(width).Render(label)}
		lines = append(lines, m.renderDay(d, width)...)
		cols[d] = m.styles.Column.Width(width).Height(m.gridHeight()).Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderDay(d, width int) []string {
	events := m.days[d]
	if len(events) == 0 {
		return []string{m.styles.Empty.Render(ansi.Truncate("free", width, ""))}
	}

	now := m.now()
	// One line of border plus text per card.
	cardWidth := width - 1
	limit := m.gridHeight() - 1
	var lines []string
	for i := range events {
		if len(lines) >= limit {
			lines[len(lines)-1] = m.styles.Muted.Render(fmt.Sprintf("+%d more", len(events)-i+1))
			break
		}
		ev := &events[i]
		text := cardLabel(ev)
		selected := d == m.day && i == m.index
		style := m.styles.Card(analytics.Categorize(ev), ev.End.Before(now), selected, cardWidth)
		lines = append(lines, style.Render(ansi.Truncate(text, cardWidth, "…")))
	}
	return lines
}

func cardLabel(ev *calendar.Event) string {
	if ev.AllDay {
		return "all day " + ev.Summary
	}
	return ev.Start.Format("15:04") + " " + ev.Summary
}

func (m Model) renderFooter() string {
	var parts []string

	if ev := m.selected(); ev != nil {
		parts = append(parts, m.renderDetail(ev))
	}
	switch {
	case m.confirming:
		if ev := m.selected(); ev != nil {
			parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("Delete %q? y/n", ev.Summary)))
		}
	case m.status != "":
		parts = append(parts, m.styles.Status.Render(m.status))
	}
	parts = append(parts, m.help.View(m.keys))
	return strings.Join(parts, "\n")
}

func (m Model) renderDetail(ev *calendar.Event) string {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	lines := []string{m.styles.DetailHead.Render(ansi.Truncate(ev.Summary, width, "…"))}

	span := calendar.FormatSpan(ev.Start, ev.End)
	if ev.AllDay {
		span = ev.Start.Format("02.01") + " all day"
	}
	meta := span + "  " + analytics.Categorize(ev)
	if len(ev.Recurrence) > 0 {
		meta += "  repeating"
	}
	lines = append(lines, m.styles.Muted.Render(meta))
	if ev.Location != "" {
		lines = append(lines, ansi.Truncate(ev.Location, width, "…"))
	}
	if ev.Description != "" {
		first, _, _ := strings.Cut(ev.Description, "\n")
		lines = append(lines, m.styles.Muted.Render(ansi.Truncate(first, width, "…")))
	}
	return m.styles.Detail.Render(strings.Join(lines, "\n"))
}
