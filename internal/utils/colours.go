package utils

import "github.com/charmbracelet/lipgloss"

// ColourScheme maps UI roles onto the Catppuccin Mocha palette.
type ColourScheme struct {
	Accent   string
	Success  string
	Warning  string
	Error    string
	Pending  string
	Text     string
	Muted    string
	Subtle   string
	Surface  string
	Border   string
	Base     string
	Selected string
}

var Colours = ColourScheme{
	Accent:   "#89b4fa",
	Success:  "#a6e3a1",
	Warning:  "#f9e2af",
	Error:    "#f38ba8",
	Pending:  "#fab387",
	Text:     "#cdd6f4",
	Muted:    "#a6adc8",
	Subtle:   "#6c7086",
	Surface:  "#313244",
	Border:   "#45475a",
	Base:     "#1e1e2e",
	Selected: "#b4befe",
}

// Fg is a foreground-only style in one of the scheme's colours.
func Fg(colour string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colour))
}
