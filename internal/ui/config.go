package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/config"
	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  calassist config`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runConfigInteractive(config.DefaultConfigPath())
		},
	}
}

func (a *App) runConfigInteractive(path string) error {
	fmt.Fprintf(a.out, "Config file: %s\n\n", path)

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Fprintln(a.out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(path); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(a.out, "Created %s\n\n", path)
	}

	printConfig(a.out, cfg)

	if !a.promptYesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Calendar.Backend = a.promptChoice("Calendar backend", cfg.Calendar.Backend,
		[]string{config.BackendLocal, config.BackendGoogle})
	if cfg.Calendar.Backend == config.BackendGoogle {
		cfg.Calendar.CredentialsFile = a.promptValue("Google credentials file", cfg.Calendar.CredentialsFile)
		cfg.Calendar.CalendarID = a.promptValue("Calendar ID", cfg.Calendar.CalendarID)
	}
	cfg.Calendar.Timezone = a.promptValue("Timezone", cfg.Calendar.Timezone)
	cfg.Schedule.DayStartHour = a.promptInt("Day start hour", cfg.Schedule.DayStartHour)
	cfg.Schedule.DayEndHour = a.promptInt("Day end hour", cfg.Schedule.DayEndHour)
	cfg.Schedule.DefaultDurationMinutes = a.promptInt("Default event length (minutes)", cfg.Schedule.DefaultDurationMinutes)
	cfg.Schedule.DefaultReminderMinutes = a.promptInt("Default reminder (minutes)", cfg.Schedule.DefaultReminderMinutes)
	cfg.LLM.Provider = a.promptChoice("LLM provider", cfg.LLM.Provider,
		[]string{"gemini", "copilot", "ollama", "lmstudio"})
	cfg.LLM.Model = a.promptValue("LLM model", cfg.LLM.Model)
	cfg.LLM.BaseURL = a.promptValue("LLM base URL (Ollama/LM Studio)", cfg.LLM.BaseURL)
	cfg.Storage.DBPath = a.promptValue("Database path", cfg.Storage.DBPath)
	cfg.Telegram.Token = a.promptValue("Telegram bot token (empty to skip)", cfg.Telegram.Token)
	if !theme.IsAvailable(cfg.UI.Theme) {
		cfg.UI.Theme = "mocha"
	}
	cfg.UI.Theme = a.promptChoice("Week view theme", cfg.UI.Theme, theme.Available())

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(a.out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[calendar]")
	fmt.Fprintf(w, "  backend          = %s\n", cfg.Calendar.Backend)
	if cfg.Calendar.Backend == config.BackendGoogle {
		fmt.Fprintf(w, "  credentials_file = %s\n", cfg.Calendar.CredentialsFile)
		fmt.Fprintf(w, "  calendar_id      = %s\n", cfg.Calendar.CalendarID)
	}
	fmt.Fprintf(w, "  timezone         = %s\n", cfg.Calendar.Timezone)
	fmt.Fprintln(w, "\n[schedule]")
	fmt.Fprintf(w, "  day_start_hour   = %d\n", cfg.Schedule.DayStartHour)
	fmt.Fprintf(w, "  day_end_hour     = %d\n", cfg.Schedule.DayEndHour)
	fmt.Fprintf(w, "  step_minutes     = %d\n", cfg.Schedule.StepMinutes)
	fmt.Fprintf(w, "  search_days      = %d\n", cfg.Schedule.SearchDays)
	fmt.Fprintf(w, "  default_duration = %d\n", cfg.Schedule.DefaultDurationMinutes)
	fmt.Fprintf(w, "  default_reminder = %d\n", cfg.Schedule.DefaultReminderMinutes)
	fmt.Fprintln(w, "\n[llm]")
	fmt.Fprintf(w, "  provider         = %s\n", cfg.LLM.Provider)
	fmt.Fprintf(w, "  model            = %s\n", cfg.LLM.Model)
	fmt.Fprintf(w, "  base_url         = %s\n", cfg.LLM.BaseURL)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path          = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[telegram]")
	fmt.Fprintf(w, "  token            = %s\n", mask(cfg.Telegram.Token))
	fmt.Fprintf(w, "  poll_timeout     = %s\n", cfg.Telegram.PollTimeout)
	fmt.Fprintln(w, "\n[session]")
	fmt.Fprintf(w, "  idle_ttl         = %s\n", cfg.Session.IdleTTL)
	fmt.Fprintf(w, "  sweep_spec       = %s\n", cfg.Session.SweepSpec)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme            = %s\n", cfg.UI.Theme)
	if cfg.UI.ThemeFile != "" {
		fmt.Fprintf(w, "  theme_file       = %s\n", cfg.UI.ThemeFile)
	}
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level            = %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  json             = %t\n", cfg.Log.JSON)
}

func mask(secret string) string {
	if len(secret) <= 4 {
		if secret == "" {
			return ""
		}
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
