package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/tui/theme"
)

// Styles holds the lipgloss styles of the week view.
type Styles struct {
	palette *theme.Palette

	Title      lipgloss.Style
	DayHeader  lipgloss.Style
	Today      lipgloss.Style
	ActiveDay  lipgloss.Style
	Column     lipgloss.Style
	Empty      lipgloss.Style
	Detail     lipgloss.Style
	DetailHead lipgloss.Style
	Muted      lipgloss.Style
	Warning    lipgloss.Style
	Status     lipgloss.Style
}

// NewStyles creates styles from a palette.
func NewStyles(p *theme.Palette) *Styles {
	return &Styles{
		palette: p,

		Title:      lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Padding(0, 1),
		DayHeader:  lipgloss.NewStyle().Bold(true).Foreground(p.Fg).Align(lipgloss.Center),
		Today:      lipgloss.NewStyle().Bold(true).Foreground(p.Current).Align(lipgloss.Center),
		ActiveDay:  lipgloss.NewStyle().Bold(true).Foreground(p.TextOnAccent).Background(p.Accent).Align(lipgloss.Center),
		Column:     lipgloss.NewStyle().Background(p.BgHighlight).MarginRight(1),
		Empty:      lipgloss.NewStyle().Foreground(p.FgMuted).Italic(true),
		Detail:     lipgloss.NewStyle().Foreground(p.Fg).Padding(0, 1),
		DetailHead: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Muted:      lipgloss.NewStyle().Foreground(p.FgMuted),
		Warning:    lipgloss.NewStyle().Bold(true).Foreground(p.TextOnWarning).Background(p.Warning).Padding(0, 1),
		Status:     lipgloss.NewStyle().Foreground(p.Current).Padding(0, 1),
	}
}

// Card returns the style of an event card.
func (s *Styles) Card(category string, past, selected bool, width int) lipgloss.Style {
	c := s.palette.Card(category)
	bg := c.Bg
	switch {
	case selected:
		bg = c.Selected
	case past:
		bg = c.BgPast
	}
	st := lipgloss.NewStyle().
		Width(width).
		Foreground(c.Text).
		Background(bg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(c.Border).
		BorderBackground(bg)
	if selected {
		st = st.Bold(true)
	}
	return st
}
