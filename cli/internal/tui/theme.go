// Package tui renders the investigation wizard in a terminal with huh forms.
package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	ColorAccent = lipgloss.Color("#2563eb")
	ColorFg     = lipgloss.Color("#e5e7eb")
	ColorDim    = lipgloss.Color("#6b7280")
	ColorGreen  = lipgloss.Color("#16a34a")
	ColorRed    = lipgloss.Color("#dc2626")
	ColorOrange = lipgloss.Color("#ea580c")
	ColorYellow = lipgloss.Color("#ca8a04")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(ColorFg).Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	successStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(ColorGreen)
	currentStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(ColorDim)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorDim).Padding(0, 1)
)

func hsg245Theme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(ColorAccent)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(ColorFg).Background(ColorAccent).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(ColorAccent)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorAccent)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(ColorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(ColorDim)

	return t
}

// priorityStyle colours a priority the same way the CLI tables do.
func priorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "High":
		return lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	case "Medium":
		return lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
	case "Low":
		return lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorDim)
	}
}
