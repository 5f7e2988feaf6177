// Package theme provides color themes for the week view.
package theme

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
)

// Theme holds all colors for a theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Base background
	BgHighlight string `toml:"bg_highlight"` // Day columns, subtle highlight
	BgSelection string `toml:"bg_selection"` // Cursor, selection
	Fg          string `toml:"fg"`           // Primary foreground
	FgMuted     string `toml:"fg_muted"`     // Past events, muted elements
	Accent      string `toml:"accent"`       // Title, primary accent, borders
	Current     string `toml:"current"`      // Today and the running event
	Warning     string `toml:"warning"`      // Confirmations

	// Event accents by category group.
	Work     string `toml:"work"`
	Study    string `toml:"study"`
	Personal string `toml:"personal"`
	Health   string `toml:"health"`
}

var builtin = map[string]Theme{
	"mocha": {
		Name: "mocha", Bg: "#1e1e2e", BgHighlight: "#313244", BgSelection: "#45475a",
		Fg: "#cdd6f4", FgMuted: "#7f849c", Accent: "#cba6f7", Current: "#f9e2af", Warning: "#fab387",
		Work: "#89b4fa", Study: "#a6e3a1", Personal: "#f5c2e7", Health: "#94e2d5",
	},
	"macchiato": {
		Name: "macchiato", Bg: "#24273a", BgHighlight: "#363a4f", BgSelection: "#494d64",
		Fg: "#cad3f5", FgMuted: "#8087a2", Accent: "#c6a0f6", Current: "#eed49f", Warning: "#f5a97f",
		Work: "#8aadf4", Study: "#a6da95", Personal: "#f5bde6", Health: "#8bd5ca",
	},
	"frappe": {
		Name: "frappe", Bg: "#303446", BgHighlight: "#414559", BgSelection: "#51576d",
		Fg: "#c6d0f5", FgMuted: "#838ba7", Accent: "#ca9ee6", Current: "#e5c890", Warning: "#ef9f76",
		Work: "#8caaee", Study: "#a6d189", Personal: "#f4b8e4", Health: "#81c8be",
	},
	"latte": {
		Name: "latte", Bg: "#eff1f5", BgHighlight: "#e6e9ef", BgSelection: "#ccd0da",
		Fg: "#4c4f69", FgMuted: "#8c8fa1", Accent: "#8839ef", Current: "#df8e1d", Warning: "#fe640b",
		Work: "#1e66f5", Study: "#40a02b", Personal: "#ea76cb", Health: "#179299",
	},
}

// Color returns a lipgloss.Color for the given hex string.
func Color(hex string) lipgloss.Color {
	return lipgloss.Color(hex)
}

// Load returns a built-in theme by name.
// Falls back to mocha if the theme is not found.
func Load(name string) *Theme {
	t, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		t = builtin["mocha"]
	}
	return &t
}

// LoadFile reads a theme from a TOML file. Colors the file leaves out are
// taken from the theme it names in base, or mocha.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}

	var custom struct {
		Base string `toml:"base"`
		Theme
	}
	if err := toml.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", path, err)
	}

	t := Load(custom.Base)
	t.merge(custom.Theme)
	return t, nil
}

func (t *Theme) merge(o Theme) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.Name, o.Name)
	set(&t.Bg, o.Bg)
	set(&t.BgHighlight, o.BgHighlight)
	set(&t.BgSelection, o.BgSelection)
	set(&t.Fg, o.Fg)
	set(&t.FgMuted, o.FgMuted)
	set(&t.Accent, o.Accent)
	set(&t.Current, o.Current)
	set(&t.Warning, o.Warning)
	set(&t.Work, o.Work)
	set(&t.Study, o.Study)
	set(&t.Personal, o.Personal)
	set(&t.Health, o.Health)
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	_, ok := builtin[strings.ToLower(name)]
	return ok
}
