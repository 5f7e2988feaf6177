package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/habit"
)

func (a *App) habitCmd() *cobra.Command {
	var s habit.Setup

	cmd := &cobra.Command{
		Use:   "habit [name]",
		Short: "Schedule a recurring habit",
		Long: `Schedule a habit. With --at the habit becomes one recurring event at that
time; otherwise this week's sessions are placed in free time.

Examples:
  calassist habit "Gym" --duration=60 --per-week=3 --window=evening
  calassist habit "Reading" --duration=30 --per-week=7 --at=21:30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s.Name = args[0]
			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}

			_, planner := a.planners(a.finder())
			res, err := planner.Schedule(ctx, backend, a.user, s, time.Now().In(a.config.Location()))
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s scheduled, %s\n", formatTitle(s.Name), res.Cadence)
			for _, ev := range res.Events {
				fmt.Fprintf(a.out, "  %s\n", formatTime(calendar.FormatSpan(ev.Start, ev.End)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&s.DurationMinutes, "duration", 30, "Session length in minutes")
	cmd.Flags().IntVar(&s.SessionsPerWeek, "per-week", 3, "Sessions per week (1-7)")
	cmd.Flags().StringVar(&s.Window, "window", "", "Part of the day: morning, day, evening")
	cmd.Flags().StringVar(&s.FixedTime, "at", "", "Fixed time (HH:MM) for a recurring event")

	return cmd
}
