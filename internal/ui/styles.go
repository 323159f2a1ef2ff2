package ui

import "github.com/charmbracelet/lipgloss"

// Color palette. A single cyan accent with neutral support colors.
const (
	ColorCyan     = "81"  // Primary accent for headings
	ColorWhite    = "255" // Section headings
	ColorGray     = "245" // Secondary text
	ColorDarkGray = "238" // Code fence markers
	ColorGreen    = "114" // Success messages
	ColorYellow   = "221" // Warnings
	ColorRed      = "203" // Errors
)

// Styles holds the terminal styles for rendered output.
type Styles struct {
	Title    lipgloss.Style // top-level headings
	Section  lipgloss.Style // second-level headings
	Emphasis lipgloss.Style // bold spans
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Dim      lipgloss.Style
	Fence    lipgloss.Style // code fence markers
}

// DefaultStyles returns the styled set for interactive terminals.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Section:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Emphasis: lipgloss.NewStyle().Bold(true),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Fence:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle(),
		Section:  lipgloss.NewStyle(),
		Emphasis: lipgloss.NewStyle(),
		Success:  lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		Dim:      lipgloss.NewStyle(),
		Fence:    lipgloss.NewStyle(),
	}
}

// GetStyles returns the style set matching the color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
