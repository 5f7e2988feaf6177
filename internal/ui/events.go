package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/dateutil"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/mutation"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
)

const listLimit = 100

// day parses a YYYY-MM-DD or relative date, defaulting to today.
func (a *App) day(s string) (time.Time, error) {
	now := time.Now().In(a.config.Location())
	if s == "" {
		return dateutil.TruncateToDay(now), nil
	}
	if t, err := dateutil.ParseDate(s, now.Location()); err == nil {
		return t, nil
	}
	return dateutil.ParseRelativeDate(s, now)
}

func (a *App) addCmd() *cobra.Command {
	var (
		date     string
		start    string
		duration int
		location string
		category string
		repeat   string
		reminder int
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add an event",
		Long: `Add an event to the calendar. Overlapping events are reported and the
event is not created unless --force is given.

Example:
  calassist add "Dentist" --date=2025-03-14 --start=15:00 --duration=45`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			day, err := a.day(date)
			if err != nil {
				return err
			}
			hour, minute, err := dateutil.ParseClock(start)
			if err != nil {
				return err
			}
			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}

			begin := dateutil.At(day, hour, minute)
			ev := &calendar.Event{
				Summary:   args[0],
				Location:  location,
				Start:     begin,
				End:       begin.Add(minutes(duration)),
				Reminders: calendar.RemindersFromMinutes(&reminder),
			}
			if color, ok := calendar.ColorForCategory(category); ok {
				ev.ColorID = color
			}
			if repeat != "" {
				rule, ok := calendar.RecurrenceRule(repeat)
				if !ok {
					return fmt.Errorf("unknown repeat %q (daily, weekly or monthly)", repeat)
				}
				ev.Recurrence = []string{rule}
			}

			created, err := mutation.NewEngine(a.log).Create(ctx, backend, ev, mutation.Options{IgnoreConflicts: force})
			var conflict *mutation.ConflictError
			if errors.As(err, &conflict) {
				fmt.Fprintf(a.out, "%s %q (%s). Use --force to add it anyway.\n",
					formatWarn("Conflicts with"), conflict.Blocking.Summary, conflict.Blocking.Describe())
				return nil
			}
			if err != nil {
				return fmt.Errorf("creating event: %w", err)
			}

			fmt.Fprintf(a.out, "Created %s %s %s\n",
				formatTitle(created.Summary), formatTime(calendar.FormatSpan(created.Start, created.End)), formatMuted(created.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD, tomorrow, monday..., default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM, required)")
	cmd.Flags().IntVar(&duration, "duration", a.config.Schedule.DefaultDurationMinutes, "Duration in minutes")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&category, "category", "", "Category (work, study, sport, ...)")
	cmd.Flags().StringVar(&repeat, "repeat", "", "Repeat: daily, weekly or monthly")
	cmd.Flags().IntVar(&reminder, "reminder", a.config.Schedule.DefaultReminderMinutes, "Reminder in minutes before start, 0 for none")
	cmd.Flags().BoolVar(&force, "force", false, "Create even if it overlaps another event")

	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func (a *App) agendaCmd() *cobra.Command {
	var (
		window string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "agenda [date]",
		Short: "Show events of a day",
		Long: `Show the events of a day, or of several days with --days.

A window limits the day to morning, day, evening or night.`,
		Example: `  calassist agenda
  calassist agenda tomorrow --window=evening
  calassist agenda 2025-03-10 --days=7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			day, err := a.day(arg)
			if err != nil {
				return err
			}
			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}

			from, to := scheduler.AgendaRange(day, window)
			if days > 1 {
				to = dateutil.TruncateToDay(day).AddDate(0, 0, days)
			}
			events, err := backend.List(ctx, from, to, listLimit)
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(a.out, "Nothing planned.")
				return nil
			}
			printEvents(a.out, events, termWidth()-40)
			return nil
		},
	}

	cmd.Flags().StringVar(&window, "window", scheduler.WindowFull, "Part of the day: full, morning, day, evening, night")
	cmd.Flags().IntVar(&days, "days", 1, "Number of days to show")

	return cmd
}

func (a *App) slotsCmd() *cobra.Command {
	var (
		duration int
		from     string
		to       string
		window   string
		pages    int
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Find free time",
		Long: `Find the soonest free slot of each day in a date range.

Without dates the search covers the next search_days days from now.`,
		Example: `  calassist slots --duration=60
  calassist slots --duration=90 --from=monday --to=friday --window=morning --pages=2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			now := time.Now().In(a.config.Location())

			begin := now
			if from != "" {
				d, err := a.day(from)
				if err != nil {
					return err
				}
				if d.After(begin) {
					begin = d
				}
			}
			end := dateutil.TruncateToDay(begin).AddDate(0, 0, a.config.Schedule.SearchDays)
			if to != "" {
				d, err := a.day(to)
				if err != nil {
					return err
				}
				end = d.AddDate(0, 0, 1)
			}

			req := scheduler.Request{Duration: minutes(duration), From: begin, To: end}
			if w, ok := scheduler.PreferredWindow(window); ok {
				req.Window = &w
			}

			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}
			finder := a.finder()
			page, err := finder.FirstPage(ctx, backend, req)
			if err != nil {
				return err
			}
			for i := 0; ; i++ {
				if len(page.Slots) == 0 {
					if i == 0 {
						fmt.Fprintln(a.out, "No free slots in that range.")
					}
					return nil
				}
				printSlots(a.out, page.Slots)
				if i+1 >= pages {
					return nil
				}
				page, err = finder.Later(ctx, backend, page)
				if errors.Is(err, scheduler.ErrNoLaterSlots) {
					fmt.Fprintln(a.out, formatMuted("No later slots."))
					return nil
				}
				if err != nil {
					return err
				}
			}
		},
	}

	cmd.Flags().IntVar(&duration, "duration", a.config.Schedule.DefaultDurationMinutes, "Slot length in minutes")
	cmd.Flags().StringVar(&from, "from", "", "First day (default: now)")
	cmd.Flags().StringVar(&to, "to", "", "Last day, inclusive")
	cmd.Flags().StringVar(&window, "window", "", "Part of the day: morning, day, evening, night")
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of result pages to show")

	return cmd
}

func (a *App) moveCmd() *cobra.Command {
	var (
		date     string
		start    string
		shift    int
		duration int
		title    string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "move [event id]",
		Short: "Change an event's time or title",
		Long: `Change an existing event. Moving onto another event is refused unless
--force is given.

Examples:
  calassist move 3f2a9c --start=16:30
  calassist move 3f2a9c --shift=120
  calassist move 3f2a9c --date=friday --duration=45`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}
			original, err := a.resolveEvent(cmd, backend, args[0])
			if err != nil {
				return err
			}

			var p mutation.Patch
			if date != "" {
				d, err := a.day(date)
				if err != nil {
					return err
				}
				p.Date = &d
			}
			if start != "" {
				h, m, err := dateutil.ParseClock(start)
				if err != nil {
					return err
				}
				p.Clock = &mutation.Clock{Hour: h, Minute: m}
			}
			if shift != 0 {
				p.ShiftMinutes = &shift
			}
			if duration > 0 {
				p.DurationMinutes = &duration
			}
			if title != "" {
				p.Title = &title
			}
			if p.Empty() {
				return errors.New("nothing to change: give --date, --start, --shift, --duration or --title")
			}

			if p, err = mutation.ForSeries(original, original, p); err != nil {
				return err
			}
			updated, err := mutation.NewEngine(a.log).Apply(ctx, backend, original, p, mutation.Options{IgnoreConflicts: force})
			var conflict *mutation.ConflictError
			if errors.As(err, &conflict) {
				fmt.Fprintf(a.out, "%s %q (%s). Use --force to move it anyway.\n",
					formatWarn("Conflicts with"), conflict.Blocking.Summary, conflict.Blocking.Describe())
				return nil
			}
			if err != nil {
				return fmt.Errorf("updating event: %w", err)
			}

			fmt.Fprintf(a.out, "Updated %s %s\n", formatTitle(updated.Summary), formatTime(calendar.FormatSpan(updated.Start, updated.End)))
			for _, c := range mutation.Changes(original, updated) {
				fmt.Fprintf(a.out, "  %s\n", formatMuted(c))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "New date")
	cmd.Flags().StringVar(&start, "start", "", "New start time (HH:MM)")
	cmd.Flags().IntVar(&shift, "shift", 0, "Shift by minutes (negative is earlier)")
	cmd.Flags().IntVar(&duration, "duration", 0, "New duration in minutes")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().BoolVar(&force, "force", false, "Move even if it overlaps another event")

	return cmd
}

func (a *App) deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [event id]",
		Short: "Delete an event",
		Long: `Delete an event. Deleting an occurrence of a recurring event deletes the
whole series.

Example:
  calassist delete 3f2a9c`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}
			ev, err := a.resolveEvent(cmd, backend, args[0])
			if err != nil {
				return err
			}

			if !yes && !a.promptYesNo(fmt.Sprintf("Delete %q (%s)?", ev.Summary, calendar.FormatSpan(ev.Start, ev.End))) {
				fmt.Fprintln(a.out, "Deletion cancelled.")
				return nil
			}
			if err := backend.Delete(ctx, ev.ID); err != nil {
				return fmt.Errorf("deleting event: %w", err)
			}
			fmt.Fprintf(a.out, "Deleted %s\n", formatTitle(ev.Summary))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// resolveEvent finds an event by full id, or by the id prefix shown in
// listings among events of the surrounding year.
func (a *App) resolveEvent(cmd *cobra.Command, backend calendar.Backend, id string) (*calendar.Event, error) {
	ctx := cmd.Context()
	ev, err := backend.Get(ctx, id)
	if err == nil {
		return ev, nil
	}
	if !errors.Is(err, calendar.ErrNotFound) {
		return nil, fmt.Errorf("getting event: %w", err)
	}

	now := time.Now()
	events, err := backend.List(ctx, now.AddDate(-1, 0, 0), now.AddDate(1, 0, 0), 0)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	var match *calendar.Event
	for i := range events {
		if len(id) < 4 || len(events[i].ID) < len(id) || events[i].ID[:len(id)] != id {
			continue
		}
		if match != nil && calendar.BaseID(match.ID) != calendar.BaseID(events[i].ID) {
			return nil, fmt.Errorf("event id %q is ambiguous", id)
		}
		if match == nil {
			match = &events[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no event with id %q", id)
	}
	return backend.Get(ctx, match.ID)
}
