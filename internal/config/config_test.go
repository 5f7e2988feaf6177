package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Calendar.Backend != BackendLocal {
		t.Errorf("expected backend local, got %s", cfg.Calendar.Backend)
	}
	if cfg.Calendar.Timezone != "Europe/Kyiv" {
		t.Errorf("expected timezone Europe/Kyiv, got %s", cfg.Calendar.Timezone)
	}
	if cfg.Schedule.DayStartHour != 8 || cfg.Schedule.DayEndHour != 20 {
		t.Errorf("expected day window 8-20, got %d-%d", cfg.Schedule.DayStartHour, cfg.Schedule.DayEndHour)
	}
	if cfg.Schedule.StepMinutes != 30 {
		t.Errorf("expected step 30, got %d", cfg.Schedule.StepMinutes)
	}
	if cfg.Schedule.MaxSuggestions != 3 {
		t.Errorf("expected max suggestions 3, got %d", cfg.Schedule.MaxSuggestions)
	}
	if cfg.Schedule.DefaultReminderMinutes != 10 {
		t.Errorf("expected reminder 10, got %d", cfg.Schedule.DefaultReminderMinutes)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("expected provider gemini, got %s", cfg.LLM.Provider)
	}
	if cfg.UI.Theme != "mocha" {
		t.Errorf("expected theme mocha, got %s", cfg.UI.Theme)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStartHour != 8 {
		t.Errorf("expected default day_start_hour, got %d", cfg.Schedule.DayStartHour)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[calendar]
backend = "local"
timezone = "UTC"

[schedule]
day_start_hour = 9
day_end_hour = 18
step_minutes = 15

[llm]
provider = "ollama"
model = "llama3"
base_url = "http://localhost:11435"

[storage]
db_path = "/tmp/test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStartHour != 9 {
		t.Errorf("expected day_start_hour 9, got %d", cfg.Schedule.DayStartHour)
	}
	if cfg.Schedule.DayEndHour != 18 {
		t.Errorf("expected day_end_hour 18, got %d", cfg.Schedule.DayEndHour)
	}
	if cfg.Schedule.StepMinutes != 15 {
		t.Errorf("expected step 15, got %d", cfg.Schedule.StepMinutes)
	}
	// Unset keys keep defaults.
	if cfg.Schedule.MaxSuggestions != 3 {
		t.Errorf("expected default max suggestions 3, got %d", cfg.Schedule.MaxSuggestions)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected provider ollama, got %s", cfg.LLM.Provider)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", cfg.Location())
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[llm]
provider = "ollama"
model = "llama3"

[storage]
db_path = "/tmp/test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	t.Setenv("CALASSIST_LLM_MODEL", "qwen2.5")
	t.Setenv("CALASSIST_DB_PATH", "/tmp/env.db")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("CALASSIST_UI_THEME", "latte")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Model != "qwen2.5" {
		t.Errorf("expected model qwen2.5 from env, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected provider ollama from file, got %s", cfg.LLM.Provider)
	}
	if cfg.Storage.DBPath != "/tmp/env.db" {
		t.Errorf("expected db path from env, got %s", cfg.Storage.DBPath)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("expected telegram token from env, got %s", cfg.Telegram.Token)
	}
	if cfg.UI.Theme != "latte" {
		t.Errorf("expected theme latte from env, got %s", cfg.UI.Theme)
	}
}

func TestLoadFrom_DotEnvNextToConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	envPath := filepath.Join(tmpDir, ".env")

	if err := os.WriteFile(envPath, []byte("CALASSIST_LLM_MODEL=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CALASSIST_LLM_MODEL") })

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Model != "from-dotenv" {
		t.Errorf("expected model from .env, got %s", cfg.LLM.Model)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Calendar.Backend = "exchange" }},
		{"google without credentials", func(c *Config) { c.Calendar.Backend = BackendGoogle }},
		{"bad timezone", func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" }},
		{"start after end", func(c *Config) { c.Schedule.DayStartHour = 20; c.Schedule.DayEndHour = 8 }},
		{"end hour out of range", func(c *Config) { c.Schedule.DayEndHour = 25 }},
		{"zero step", func(c *Config) { c.Schedule.StepMinutes = 0 }},
		{"zero suggestions", func(c *Config) { c.Schedule.MaxSuggestions = 0 }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "parrot" }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"bad poll timeout", func(c *Config) { c.Telegram.PollTimeout = "soon" }},
		{"bad idle ttl", func(c *Config) { c.Session.IdleTTL = "forever" }},
		{"empty sweep spec", func(c *Config) { c.Session.SweepSpec = " " }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test.db", filepath.Join(home, "test.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := expandPath(tc.input)
			if got != tc.want {
				t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.Schedule.DayStartHour = 7
	cfg.Schedule.DayEndHour = 19
	cfg.Session.IdleTTL = "30m"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Schedule.DayStartHour != 7 {
		t.Errorf("expected day_start_hour 7, got %d", loaded.Schedule.DayStartHour)
	}
	if loaded.Schedule.DayEndHour != 19 {
		t.Errorf("expected day_end_hour 19, got %d", loaded.Schedule.DayEndHour)
	}
	if loaded.IdleTTL() != 30*time.Minute {
		t.Errorf("expected idle ttl 30m, got %v", loaded.IdleTTL())
	}
}

func TestDurationAccessorsFallback(t *testing.T) {
	cfg := Default()
	cfg.Telegram.PollTimeout = "bogus"
	cfg.Session.IdleTTL = "-1h"

	if cfg.PollTimeout() != 10*time.Second {
		t.Errorf("expected fallback poll timeout 10s, got %v", cfg.PollTimeout())
	}
	if cfg.IdleTTL() != 6*time.Hour {
		t.Errorf("expected fallback idle ttl 6h, got %v", cfg.IdleTTL())
	}
}
