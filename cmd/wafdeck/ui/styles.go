// Package ui provides the visual styling and pages for the wafdeck console.
// Supports light/dark terminals with a security-console palette.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wafdeck/internal/wafclient"
)

// Color palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f4f5f6")
	LightForeground = lipgloss.Color("#101F38")
	LightPrimary    = lipgloss.Color("#101F38")
	LightAccent     = lipgloss.Color("#2196F3")
	LightSecondary  = lipgloss.Color("#e1e4e8")
	LightMuted      = lipgloss.Color("#8a919c")
	LightBorder     = lipgloss.Color("#dce0e5")
	LightCard       = lipgloss.Color("#ffffff")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#141d2b")
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#64B5F6")
	DarkAccent     = lipgloss.Color("#2196F3")
	DarkSecondary  = lipgloss.Color("#1e2a3d")
	DarkMuted      = lipgloss.Color("#5a6a82")
	DarkBorder     = lipgloss.Color("#2a3850")
	DarkCard       = lipgloss.Color("#1a2536")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")

	// Alert severity colors
	SeverityCritical = lipgloss.Color("#e53935")
	SeverityHigh     = lipgloss.Color("#ff8a65")
	SeverityMedium   = lipgloss.Color("#FFC107")
	SeverityLow      = lipgloss.Color("#8BC34A")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme auto-detects based on terminal or returns dark mode
func DetectTheme() Theme {
	// COLORFGBG is "foreground;background"; low background indexes mean a
	// dark terminal.
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if bgIdx >= 7 && bgIdx != 8 {
					return LightTheme()
				}
			}
		}
	}

	if os.Getenv("WAFDECK_LIGHT_MODE") == "1" {
		return LightTheme()
	}

	// Ops consoles live in dark terminals
	return DarkTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header lipgloss.Style
	Footer lipgloss.Style
	Tab    lipgloss.Style
	TabOn  lipgloss.Style
	Card   lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Interactive
	Prompt    lipgloss.Style
	UserInput lipgloss.Style
	Cursor    lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Divider lipgloss.Style
	Badge   lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Tab: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		TabOn: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Padding(0, 2).
			Bold(true).
			Underline(true),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Cursor: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),
	}
}

// DefaultStyles returns styles with the auto-detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// SeverityStyle returns the text style for an alert severity level.
func (s Styles) SeverityStyle(level wafclient.AlertLevel) lipgloss.Style {
	switch level {
	case wafclient.LevelCritical:
		return lipgloss.NewStyle().Foreground(SeverityCritical).Bold(true)
	case wafclient.LevelHigh:
		return lipgloss.NewStyle().Foreground(SeverityHigh).Bold(true)
	case wafclient.LevelMedium:
		return lipgloss.NewStyle().Foreground(SeverityMedium)
	default:
		return lipgloss.NewStyle().Foreground(SeverityLow)
	}
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
