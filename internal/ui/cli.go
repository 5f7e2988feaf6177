// Package ui implements the calassist command line.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/analytics"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/assistant"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar/gcal"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/config"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/db"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/habit"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/llm"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/logx"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/mutation"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/scheduler"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/series"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/session"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	root   *cobra.Command
	out    io.Writer
	in     io.Reader
	reader *bufio.Reader
	log    logx.Logger

	debug   bool
	noColor bool
	user    int64

	store    *db.SQLite
	provider calendar.Provider
	llm      llm.Client
}

// NewApp creates the CLI application for cfg.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg, out: os.Stdout, in: os.Stdin}

	a.root = &cobra.Command{
		Use:   "calassist",
		Short: "A conversational calendar assistant",
		Long: `calassist schedules events, finds free time, plans preparation for
deadlines and builds habits on top of a local or Google calendar.

Run it without arguments to chat, or use the subcommands directly.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			a.setupLogging()
			if a.noColor {
				DisableColor()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.chat(cmd.Context())
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	a.root.PersistentFlags().Int64Var(&a.user, "user", 0, "Calendar owner id in the local database")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.chatCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.agendaCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.slotsCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.deleteCmd())
	a.root.AddCommand(a.planCmd())
	a.root.AddCommand(a.plansCmd())
	a.root.AddCommand(a.habitCmd())
	a.root.AddCommand(a.reportCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.importCmd())
	a.root.AddCommand(a.serveCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "calassist %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close releases the database.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *App) setupLogging() {
	level := a.config.Log.Level
	if a.debug {
		level = "debug"
	}
	a.log = logx.New(logx.Options{Level: level, JSON: a.config.Log.JSON})
}

// ensureStore opens the local database on first use.
func (a *App) ensureStore() (*db.SQLite, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.config.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := db.New(path)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// calendars returns the configured calendar provider.
func (a *App) calendars(ctx context.Context) (calendar.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}
	switch a.config.Calendar.Backend {
	case config.BackendGoogle:
		b, err := gcal.New(ctx, a.config.Calendar.CredentialsFile, a.config.Calendar.CalendarID, a.config.Location())
		if err != nil {
			return nil, fmt.Errorf("connecting to Google Calendar: %w", err)
		}
		a.provider = b
	default:
		store, err := a.ensureStore()
		if err != nil {
			return nil, err
		}
		a.provider = store
	}
	return a.provider, nil
}

// backend returns the calendar of the --user owner.
func (a *App) backend(ctx context.Context) (calendar.Backend, error) {
	p, err := a.calendars(ctx)
	if err != nil {
		return nil, err
	}
	return p.ForUser(ctx, a.user)
}

func (a *App) model(ctx context.Context) (llm.Client, error) {
	if a.llm != nil {
		return a.llm, nil
	}
	client, err := llm.NewClient(ctx, llm.Settings{
		Provider: a.config.LLM.Provider,
		Model:    a.config.LLM.Model,
		BaseURL:  a.config.LLM.BaseURL,
		APIKey:   a.config.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	a.llm = client
	return client, nil
}

func (a *App) finder() *scheduler.Finder {
	s := a.config.Schedule
	return scheduler.NewFinder(scheduler.Options{
		Step:           minutes(s.StepMinutes),
		DefaultWindow:  scheduler.Window{StartHour: s.DayStartHour, EndHour: s.DayEndHour},
		PageBuffer:     minutes(s.PageBufferMinutes),
		MaxSuggestions: s.MaxSuggestions,
		Location:       a.config.Location(),
	})
}

// planners builds the series and habit planners. Plans and habits are
// recorded in the local database when it can be opened.
func (a *App) planners(finder *scheduler.Finder) (*series.Planner, *habit.Planner) {
	var (
		seriesRepo series.Repository
		habitRepo  habit.Repository
	)
	if store, err := a.ensureStore(); err != nil {
		a.log.Warn("plans will not be recorded", logx.Err(err))
	} else {
		seriesRepo, habitRepo = store, store
	}

	sp := series.NewPlanner(finder, seriesRepo, a.log)
	sp.SetDeadlineReminder(a.config.Schedule.DeadlineReminderMinutes)
	return sp, habit.NewPlanner(finder, habitRepo, a.log)
}

// engine wires the conversational assistant.
func (a *App) engine(ctx context.Context, sessions *session.Store) (*assistant.Engine, error) {
	provider, err := a.calendars(ctx)
	if err != nil {
		return nil, err
	}
	client, err := a.model(ctx)
	if err != nil {
		return nil, err
	}

	finder := a.finder()
	seriesPlanner, habitPlanner := a.planners(finder)
	var insighter analytics.Insighter = llm.NewEvaluator(client)

	s := a.config.Schedule
	return assistant.New(assistant.Deps{
		Calendars:  provider,
		Classifier: llm.NewClassifier(client, 0),
		Sessions:   sessions,
		Finder:     finder,
		Mutations:  mutation.NewEngine(a.log),
		Series:     seriesPlanner,
		Habits:     habitPlanner,
		Insighter:  insighter,
		Defaults: assistant.Defaults{
			DurationMinutes: s.DefaultDurationMinutes,
			ReminderMinutes: s.DefaultReminderMinutes,
			SearchDays:      s.SearchDays,
		},
		Log: a.log,
	}), nil
}
