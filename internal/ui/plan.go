package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/series"
)

func (a *App) planCmd() *cobra.Command {
	var (
		deadline string
		hours    float64
		block    int
		window   string
		weekends bool
		yes      bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "plan [title]",
		Short: "Plan preparation blocks before a deadline",
		Long: `Split the work needed for a deadline into blocks and place them in free
time between now and the deadline.

The proposed blocks are shown first. Running short of room is not an
error: the preview says how many blocks are missing.

Examples:
  calassist plan "Thesis draft" --deadline="2025-03-20 18:00" --hours=6
  calassist plan "Exam" --deadline=friday --hours=4 --block=60 --window=morning --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loc := a.config.Location()
			due, err := dateutil.ParseDateTime(deadline, loc)
			if err != nil {
				d, derr := a.day(deadline)
				if derr != nil {
					return fmt.Errorf("invalid deadline %q: %w", deadline, derr)
				}
				due = dateutil.At(d, 18, 0)
			}

			w := series.Window(window)
			req := series.Request{
				Title:         args[0],
				Deadline:      due,
				TotalMinutes:  int(hours * 60),
				BlockMinutes:  block,
				Window:        &w,
				AllowWeekends: weekends,
			}

			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}
			planner, _ := a.planners(a.finder())
			preview, err := planner.Plan(ctx, backend, req, time.Now().In(loc))
			if err != nil {
				return err
			}

			a.printPreview(preview)
			if len(preview.Blocks) == 0 || dryRun {
				return nil
			}
			if !yes && !a.promptYesNo("\nCreate these blocks?") {
				fmt.Fprintln(a.out, "Plan discarded.")
				return nil
			}

			res, err := planner.Commit(ctx, backend, a.user, preview)
			var partial *series.CommitError
			if errors.As(err, &partial) {
				fmt.Fprintf(a.out, "%s created %d of %d blocks: %v\n",
					formatWarn("Stopped:"), len(partial.Created), len(preview.Blocks), partial.Err)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created %d blocks", len(res.Created))
			if res.DeadlineLink != nil {
				fmt.Fprint(a.out, " and a deadline marker")
			}
			fmt.Fprintln(a.out, ".")
			return nil
		},
	}

	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline (YYYY-MM-DD HH:MM or a date, required)")
	cmd.Flags().Float64Var(&hours, "hours", 4, "Total hours of work")
	cmd.Flags().IntVar(&block, "block", 90, "Block length in minutes")
	cmd.Flags().StringVar(&window, "window", "any", "Part of the day: morning, day, evening, any")
	cmd.Flags().BoolVar(&weekends, "weekends", false, "Allow blocks on weekends")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Create without asking")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the blocks without creating them")

	_ = cmd.MarkFlagRequired("deadline")

	return cmd
}

func (a *App) printPreview(p *series.Preview) {
	fmt.Fprintf(a.out, "\n%s\n", formatHeader(fmt.Sprintf("%s, due %s", p.Request.Title, p.Request.Deadline.Format("Mon Jan 2 15:04"))))
	fmt.Fprintln(a.out, strings.Repeat("-", 50))
	for _, b := range p.Blocks {
		fmt.Fprintf(a.out, "  %-9s %s %s\n", b.Label,
			formatTime(b.Start.Format("Mon 02.01 15:04")+"-"+b.End.Format("15:04")),
			formatMuted(FormatDuration(int(b.End.Sub(b.Start).Minutes()))))
	}
	if len(p.Blocks) == 0 {
		fmt.Fprintln(a.out, "  No free blocks before the deadline.")
	}
	for _, w := range p.Warnings {
		fmt.Fprintf(a.out, "  %s %s\n", formatWarn("!"), w)
	}
}

func (a *App) plansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List recorded preparation plans and habits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.ensureStore()
			if err != nil {
				return err
			}
			loc := a.config.Location()

			plans, err := store.ListPlans(ctx, a.user, loc)
			if err != nil {
				return err
			}
			habits, err := store.ListHabits(ctx, a.user, loc)
			if err != nil {
				return err
			}
			if len(plans) == 0 && len(habits) == 0 {
				fmt.Fprintln(a.out, "No plans or habits yet.")
				return nil
			}

			for _, p := range plans {
				fmt.Fprintf(a.out, "%s %s, due %s [%s]\n", formatMuted(fmt.Sprintf("#%d", p.ID)),
					formatTitle(p.Title), p.Deadline.Format("Mon Jan 2 15:04"), p.Status)
				for _, b := range p.Blocks {
					fmt.Fprintf(a.out, "    %-9s %s\n", b.Label, formatTime(b.Start.Format("Mon 02.01 15:04")+"-"+b.End.Format("15:04")))
				}
			}
			if len(habits) > 0 {
				fmt.Fprintln(a.out, formatHeader("Habits"))
			}
			for _, h := range habits {
				when := h.Window
				if h.FixedTime != "" {
					when = "at " + h.FixedTime
				}
				fmt.Fprintf(a.out, "  %s  %s, %d/week %s\n", formatTitle(h.Name),
					FormatDuration(h.DurationMinutes), h.SessionsPerWeek, formatMuted(when))
			}
			return nil
		},
	}
}
