package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcao2/truthlens/internal/verdict"
)

// Theme is a named color palette
type Theme struct {
	Name       string
	Primary    string
	Secondary  string
	Subtle     string
	Text       string
	Background string
	Positive   string
	Negative   string
	Neutral    string
}

// Themes holds the available palettes by name
var Themes = map[string]Theme{
	"default": {
		Name:       "default",
		Primary:    "#7D56F4",
		Secondary:  "#04B575",
		Subtle:     "#737373",
		Text:       "#FAFAFA",
		Background: "#1A1A1A",
		Positive:   "#04B575",
		Negative:   "#FF4D4F",
		Neutral:    "#F5A623",
	},
	"dracula": {
		Name:       "dracula",
		Primary:    "#BD93F9",
		Secondary:  "#8BE9FD",
		Subtle:     "#6272A4",
		Text:       "#F8F8F2",
		Background: "#282A36",
		Positive:   "#50FA7B",
		Negative:   "#FF5555",
		Neutral:    "#F1FA8C",
	},
	"nord": {
		Name:       "nord",
		Primary:    "#88C0D0",
		Secondary:  "#81A1C1",
		Subtle:     "#4C566A",
		Text:       "#ECEFF4",
		Background: "#2E3440",
		Positive:   "#A3BE8C",
		Negative:   "#BF616A",
		Neutral:    "#EBCB8B",
	},
}

// GetThemeNames returns theme names in a stable order, "default" first
func GetThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		if name != "default" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{"default"}, names...)
}

// Styles holds all the UI styles
type Styles struct {
	Title     lipgloss.Style
	Normal    lipgloss.Style
	Help      lipgloss.Style
	HelpKey   lipgloss.Style
	HelpDesc  lipgloss.Style
	HelpSep   lipgloss.Style
	Highlight lipgloss.Style
	Selected  lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Border    lipgloss.Style
	Card      lipgloss.Style
	FooterBar lipgloss.Style
	Label     lipgloss.Style

	Positive lipgloss.Style
	Negative lipgloss.Style
	Neutral  lipgloss.Style
}

// NewStyles builds the style set for a theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Primary)),

		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Text)),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)).
			Italic(true),

		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Secondary)),

		HelpDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)),

		HelpSep: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)),

		Highlight: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Secondary)),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.Primary)).
			Foreground(lipgloss.Color(theme.Background)),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Negative)),

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Positive)),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.Primary)).
			Padding(1, 2),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(theme.Subtle)).
			Padding(0, 1),

		FooterBar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color(theme.Subtle)),

		Label: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Subtle)),

		Positive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Positive)),

		Negative: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Negative)),

		Neutral: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(theme.Neutral)),
	}
}

// DefaultStyles returns the default style set
func DefaultStyles() Styles {
	return NewStyles(Themes["default"])
}

// Verdict returns the style for a verdict category
func (s Styles) Verdict(style verdict.Style) lipgloss.Style {
	switch style {
	case verdict.StylePositive:
		return s.Positive
	case verdict.StyleNegative:
		return s.Negative
	default:
		return s.Neutral
	}
}
