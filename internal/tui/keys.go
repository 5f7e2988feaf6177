package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Today    key.Binding
	Reload   key.Binding
	Delete   key.Binding
	Copy     key.Binding
	Help     key.Binding
	Quit     key.Binding
	Yes      key.Binding
	No       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "prev day")),
		Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "next day")),
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "prev event")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "next event")),
		PrevWeek: key.NewBinding(key.WithKeys("[", "p"), key.WithHelp("[", "prev week")),
		NextWeek: key.NewBinding(key.WithKeys("]", "n"), key.WithHelp("]", "next week")),
		Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Delete:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Yes:      key.NewBinding(key.WithKeys("y", "Y")),
		No:       key.NewBinding(key.WithKeys("n", "N", "esc")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.PrevWeek, k.NextWeek, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.PrevWeek, k.NextWeek, k.Today, k.Reload},
		{k.Delete, k.Copy, k.Help, k.Quit},
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case weekLoadedMsg:
		// A slow load of a week we already left is dropped.
		if !msg.start.Equal(m.weekStart) {
			return m, nil
		}
		m.loading = false
		m.setWeek(msg.events)
		return m, nil

	case deletedMsg:
		return m.withStatus("Deleted "+msg.summary, loadWeek(m.backend, m.weekStart))

	case errMsg:
		m.loading = false
		return m.withStatus("Error: "+msg.err.Error(), nil)

	case statusMsg:
		return m.withStatus(msg.text, nil)

	case clearStatusMsg:
		if !m.nowFunc().Before(m.statusTime) {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

// statusDuration is how long a status line stays up.
var statusDuration = 3 * time.Second

func (m Model) withStatus(text string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.status = text
	m.statusTime = m.nowFunc().Add(statusDuration)
	return m, tea.Batch(cmd, clearStatusAfter(statusDuration))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming {
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.confirming = false
			if ev := m.selected(); ev != nil {
				return m, deleteEvent(m.backend, *ev)
			}
		case key.Matches(msg, m.keys.No):
			m.confirming = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		if m.day > 0 {
			m.day--
			m.index = 0
			return m, nil
		}
		// Previous week, Sunday.
		m.day = 6
		return m.shiftWeek(-7)

	case key.Matches(msg, m.keys.Right):
		if m.day < 6 {
			m.day++
			m.index = 0
			return m, nil
		}
		// Next week, Monday.
		m.day = 0
		return m.shiftWeek(7)

	case key.Matches(msg, m.keys.Up):
		if m.index > 0 {
			m.index--
		}

	case key.Matches(msg, m.keys.Down):
		if m.index < len(m.days[m.day])-1 {
			m.index++
		}

	case key.Matches(msg, m.keys.PrevWeek):
		return m.shiftWeek(-7)

	case key.Matches(msg, m.keys.NextWeek):
		return m.shiftWeek(7)

	case key.Matches(msg, m.keys.Today):
		now := m.now()
		m.day = weekdayIndex(now)
		m.index = 0
		if start := startOfWeek(now); !start.Equal(m.weekStart) {
			m.weekStart = start
			m.loading = true
			return m, loadWeek(m.backend, m.weekStart)
		}

	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, loadWeek(m.backend, m.weekStart)

	case key.Matches(msg, m.keys.Delete):
		if m.selected() != nil {
			m.confirming = true
		}

	case key.Matches(msg, m.keys.Copy):
		if ev := m.selected(); ev != nil {
			return m, copyEvent(*ev)
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) shiftWeek(days int) (tea.Model, tea.Cmd) {
	m.weekStart = m.weekStart.AddDate(0, 0, days)
	m.days = [7][]calendar.Event{}
	m.index = 0
	m.loading = true
	return m, loadWeek(m.backend, m.weekStart)
}
