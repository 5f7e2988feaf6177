package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/tui"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/tui/theme"
)

func (a *App) weekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Browse the calendar week by week",
		Long: `Open an interactive week view. Move between days and events with the
arrow keys or h/j/k/l, switch weeks with [ and ], copy an event with c and
delete it with x. Press ? for all keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := a.backend(cmd.Context())
			if err != nil {
				return err
			}
			t, err := a.theme()
			if err != nil {
				return err
			}

			m := tui.New(backend, a.config.Location(), tui.WithTheme(t))
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running week view: %w", err)
			}
			return nil
		},
	}
}

func (a *App) theme() (*theme.Theme, error) {
	if path := a.config.UI.ThemeFile; path != "" {
		t, err := theme.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading theme: %w", err)
		}
		return t, nil
	}
	if !theme.IsAvailable(a.config.UI.Theme) {
		a.log.Warn("unknown theme, using mocha", logx.String("theme", a.config.UI.Theme))
	}
	return theme.Load(a.config.UI.Theme), nil
}
