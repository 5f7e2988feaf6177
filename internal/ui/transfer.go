package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

// exportLimit caps the events written by one export.
const exportLimit = 2500

func (a *App) exportCmd() *cobra.Command {
	var (
		from string
		days int
	)

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export events as an iCalendar file",
		Long: `Write events to an .ics file, or to stdout when no file is given.

Examples:
  calassist export week.ics
  calassist export --from=2025-03-01 --days=31 > march.ics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start, err := a.day(from)
			if err != nil {
				return err
			}
			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}
			events, err := backend.List(ctx, start, start.AddDate(0, 0, days), exportLimit)
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}

			if len(args) == 0 {
				return calendar.ExportICS(a.out, events, time.Now())
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			if err := calendar.ExportICS(f, events, time.Now()); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported %d events to %s\n", len(events), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD or relative, default today)")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to export")

	return cmd
}

func (a *App) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import events from an iCalendar file",
		Long: `Copy the events of an .ics file into the calendar. Conflicts are not
checked: the file is taken as it is.

Example:
  calassist import exported.ics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}
			count, err := importICS(ctx, backend, f, a.config.Location())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Imported %d events from %s\n", count, args[0])
			return nil
		},
	}
}

// importICS creates every event of r in dest, skipping cancelled ones. On failure the count of
// events already created is returned with the error.
func importICS(ctx context.Context, dest calendar.Backend, r io.Reader, loc *time.Location) (int, error) {
	events, err := calendar.ParseICS(r, loc)
	if err != nil {
		return 0, err
	}

	imported := 0
	for i := range events {
		ev := events[i]
		if ev.Status == calendar.StatusCancelled {
			continue
		}
		ev.ID = ""
		if _, err := dest.Create(ctx, &ev); err != nil {
			return imported, fmt.Errorf("importing %q: %w", ev.Summary, err)
		}
		imported++
	}
	return imported, nil
}
