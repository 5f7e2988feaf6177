package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/analytics"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/llm"
)

func (a *App) reportCmd() *cobra.Command {
	var (
		days      int
		noInsight bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize how recent time was spent",
		Long: `Summarize the last days of the calendar: booked hours per category, the
busiest day, long blocks, habit and series sessions. Unless --no-insight
is set, the LLM adds a short commentary.

Example:
  calassist report --days=14`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			backend, err := a.backend(ctx)
			if err != nil {
				return err
			}

			opts := analytics.Options{Days: days, Now: time.Now().In(a.config.Location())}
			if !noInsight {
				client, err := a.model(ctx)
				if err != nil {
					return err
				}
				opts.Insighter = llm.NewEvaluator(client)
			}

			snap, err := analytics.Build(ctx, backend, opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, formatHeader("Calendar report"))
			fmt.Fprintln(a.out, strings.TrimRight(snap.Format(), "\n"))
			if snap.Insight != "" {
				fmt.Fprintln(a.out)
				printWrapped(a.out, snap.Insight, termWidth())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Number of past days to cover")
	cmd.Flags().BoolVar(&noInsight, "no-insight", false, "Skip the LLM commentary")

	return cmd
}
