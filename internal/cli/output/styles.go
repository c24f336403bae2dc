package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used by text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	Added   lipgloss.Style
	Removed lipgloss.Style
	Updated lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles bound to a renderer with the given colour profile.
func NewStyles(profile termenv.Profile) *Styles {
	lr := lipgloss.NewRenderer(io.Discard)
	lr.SetColorProfile(profile)

	green := lipgloss.Color("2")
	red := lipgloss.Color("1")
	yellow := lipgloss.Color("3")
	blue := lipgloss.Color("4")
	grey := lipgloss.Color("8")

	return &Styles{
		Header1: lr.NewStyle().Bold(true).Underline(true),
		Header2: lr.NewStyle().Bold(true),
		Header:  lr.NewStyle().Bold(true).Foreground(blue),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(grey),
		Success: lr.NewStyle().Foreground(green),
		Warning: lr.NewStyle().Foreground(yellow),
		Error:   lr.NewStyle().Foreground(red).Bold(true),
		Info:    lr.NewStyle().Foreground(blue),

		Added:   lr.NewStyle().Foreground(green),
		Removed: lr.NewStyle().Foreground(red).Strikethrough(true),
		Updated: lr.NewStyle().Foreground(yellow),

		StatusSuccess: lr.NewStyle().Foreground(green).SetString("✓"),
		StatusFailed:  lr.NewStyle().Foreground(red).SetString("✗"),
	}
}
