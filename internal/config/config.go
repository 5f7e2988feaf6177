// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Calendar backends.
const (
	BackendLocal  = "local"
	BackendGoogle = "google"
)

// Config holds the application configuration.
type Config struct {
	Calendar CalendarConfig `toml:"calendar"`
	Schedule ScheduleConfig `toml:"schedule"`
	LLM      LLMConfig      `toml:"llm"`
	Storage  StorageConfig  `toml:"storage"`
	Telegram TelegramConfig `toml:"telegram"`
	Session  SessionConfig  `toml:"session"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
}

// CalendarConfig selects and configures the calendar backend.
type CalendarConfig struct {
	Backend         string `toml:"backend"`          // "local" or "google"
	CredentialsFile string `toml:"credentials_file"` // Google credentials JSON
	CalendarID      string `toml:"calendar_id"`      // e.g., "primary"
	Timezone        string `toml:"timezone"`         // IANA name, e.g., "Europe/Kyiv"
}

// ScheduleConfig holds slot search and event defaults.
type ScheduleConfig struct {
	DayStartHour            int `toml:"day_start_hour"`
	DayEndHour              int `toml:"day_end_hour"`
	StepMinutes             int `toml:"step_minutes"`
	PageBufferMinutes       int `toml:"page_buffer_minutes"`
	MaxSuggestions          int `toml:"max_suggestions"`
	SearchDays              int `toml:"search_days"`
	DefaultDurationMinutes  int `toml:"default_duration_minutes"`
	DefaultReminderMinutes  int `toml:"default_reminder_minutes"`
	DeadlineReminderMinutes int `toml:"deadline_reminder_minutes"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider string `toml:"provider"` // "copilot", "ollama", "lmstudio", "gemini"
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key,omitempty"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// TelegramConfig holds bot transport settings.
type TelegramConfig struct {
	Token         string  `toml:"token,omitempty"`
	PollTimeout   string  `toml:"poll_timeout"`
	RatePerSecond float64 `toml:"rate_per_second"`
}

// SessionConfig controls conversation session eviction.
type SessionConfig struct {
	IdleTTL   string `toml:"idle_ttl"`
	SweepSpec string `toml:"sweep_spec"` // cron spec, e.g., "@every 10m"
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// UIConfig holds week view settings.
type UIConfig struct {
	Theme     string `toml:"theme"`                // "mocha", "macchiato", "frappe", "latte"
	ThemeFile string `toml:"theme_file,omitempty"` // custom TOML theme, overrides theme
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Calendar: CalendarConfig{
			Backend:    BackendLocal,
			CalendarID: "primary",
			Timezone:   "Europe/Kyiv",
		},
		Schedule: ScheduleConfig{
			DayStartHour:            8,
			DayEndHour:              20,
			StepMinutes:             30,
			PageBufferMinutes:       15,
			MaxSuggestions:          3,
			SearchDays:              7,
			DefaultDurationMinutes:  60,
			DefaultReminderMinutes:  10,
			DeadlineReminderMinutes: 30,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			BaseURL:  "http://localhost:11434",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Telegram: TelegramConfig{
			PollTimeout:   "10s",
			RatePerSecond: 1,
		},
		Session: SessionConfig{
			IdleTTL:   "6h",
			SweepSpec: "@every 10m",
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "calassist.db"
	}
	return filepath.Join(home, ".local", "share", "calassist", "calassist.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "calassist", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
// A .env file in the working directory is loaded first.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, loads a .env file
// next to it, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Calendar.CredentialsFile = expandPath(cfg.Calendar.CredentialsFile)
	cfg.UI.ThemeFile = expandPath(cfg.UI.ThemeFile)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// loadDotEnv exports variables from a dotenv file without overriding the
// existing environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CALASSIST_TIMEZONE"); v != "" {
		cfg.Calendar.Timezone = v
	}
	if v := os.Getenv("CALASSIST_BACKEND"); v != "" {
		cfg.Calendar.Backend = v
	}
	if v := os.Getenv("CALASSIST_GOOGLE_CREDENTIALS"); v != "" {
		cfg.Calendar.CredentialsFile = v
	}
	if v := os.Getenv("CALASSIST_CALENDAR_ID"); v != "" {
		cfg.Calendar.CalendarID = v
	}

	if v := os.Getenv("CALASSIST_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("CALASSIST_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("CALASSIST_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("CALASSIST_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("CALASSIST_TELEGRAM_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telegram.RatePerSecond = rate
		}
	}

	if v := os.Getenv("CALASSIST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("CALASSIST_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

var validProviders = map[string]bool{
	"copilot":  true,
	"ollama":   true,
	"lmstudio": true,
	"gemini":   true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Calendar.Backend {
	case BackendLocal:
	case BackendGoogle:
		if c.Calendar.CredentialsFile == "" {
			return errors.New("credentials_file must be set for the google backend")
		}
	default:
		return fmt.Errorf("unknown calendar backend: %q", c.Calendar.Backend)
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Calendar.Timezone, err)
	}

	s := c.Schedule
	if s.DayStartHour < 0 || s.DayStartHour > 23 {
		return fmt.Errorf("day_start_hour must be within 0-23, got %d", s.DayStartHour)
	}
	if s.DayEndHour < 1 || s.DayEndHour > 24 {
		return fmt.Errorf("day_end_hour must be within 1-24, got %d", s.DayEndHour)
	}
	if s.DayStartHour >= s.DayEndHour {
		return errors.New("day_start_hour must be before day_end_hour")
	}
	if s.StepMinutes <= 0 {
		return errors.New("step_minutes must be positive")
	}
	if s.MaxSuggestions <= 0 {
		return errors.New("max_suggestions must be positive")
	}
	if s.SearchDays <= 0 {
		return errors.New("search_days must be positive")
	}
	if s.DefaultDurationMinutes <= 0 {
		return errors.New("default_duration_minutes must be positive")
	}
	if s.PageBufferMinutes < 0 || s.DefaultReminderMinutes < 0 || s.DeadlineReminderMinutes < 0 {
		return errors.New("buffer and reminder minutes must not be negative")
	}

	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}

	if _, err := time.ParseDuration(c.Telegram.PollTimeout); err != nil {
		return fmt.Errorf("invalid poll_timeout: %w", err)
	}
	if c.Telegram.RatePerSecond < 0 {
		return errors.New("rate_per_second must not be negative")
	}
	if _, err := time.ParseDuration(c.Session.IdleTTL); err != nil {
		return fmt.Errorf("invalid idle_ttl: %w", err)
	}
	if strings.TrimSpace(c.Session.SweepSpec) == "" {
		return errors.New("sweep_spec must be set")
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PollTimeout returns the parsed telegram poll timeout.
func (c *Config) PollTimeout() time.Duration {
	d, err := time.ParseDuration(c.Telegram.PollTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// IdleTTL returns the parsed session idle timeout.
func (c *Config) IdleTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.IdleTTL)
	if err != nil || d <= 0 {
		return 6 * time.Hour
	}
	return d
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
