package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// Header styles
	Header lipgloss.Style
	Label  lipgloss.Style

	// Field styles
	Field         lipgloss.Style
	FocusedField  lipgloss.Style
	DisabledField lipgloss.Style

	// Button styles
	Button         lipgloss.Style
	FocusedButton  lipgloss.Style
	DisabledButton lipgloss.Style

	// Home view
	Name   lipgloss.Style
	Handle lipgloss.Style
	Intro  lipgloss.Style
	Muted  lipgloss.Style

	// Status bar styles
	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	StatusText lipgloss.Style

	// Help screen
	Help lipgloss.Style

	// Dialog styles
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogButton lipgloss.Style
}

// NewStyles builds styles from a theme.
func NewStyles(theme Theme) Styles {
	p := theme.Palette
	field := lipgloss.NewStyle().
		Border(theme.Border).
		BorderForeground(p.Muted).
		Padding(0, 1).
		Width(28)
	button := lipgloss.NewStyle().
		Border(theme.Border).
		BorderForeground(p.Muted).
		Foreground(p.Text).
		Padding(0, 3)

	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent).
			MarginBottom(1),

		Label: lipgloss.NewStyle().
			Foreground(p.Muted),

		Field:         field,
		FocusedField:  field.BorderForeground(p.Accent),
		DisabledField: field.Foreground(p.Muted).BorderForeground(p.Surface),

		Button: button,
		FocusedButton: button.
			Bold(true).
			Foreground(p.Accent).
			BorderForeground(p.Accent),
		DisabledButton: button.
			Foreground(p.Muted).
			BorderForeground(p.Surface),

		Name: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text),

		Handle: lipgloss.NewStyle().
			Foreground(p.Accent),

		Intro: lipgloss.NewStyle().
			Foreground(p.Text).
			MarginTop(1),

		Muted: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),

		StatusBar: lipgloss.NewStyle().
			Padding(0, 1).
			Background(p.Surface).
			Foreground(p.Text),

		StatusKey: lipgloss.NewStyle().
			Foreground(p.KeycapText).
			Background(p.KeycapBg).
			Bold(true),

		StatusText: lipgloss.NewStyle().
			Foreground(p.Muted),

		Help: lipgloss.NewStyle().
			Padding(1, 2),

		Dialog: lipgloss.NewStyle().
			Border(theme.Border).
			BorderForeground(p.Danger).
			Padding(1, 2),

		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Danger).
			MarginBottom(1),

		DialogButton: lipgloss.NewStyle().
			Padding(0, 2).
			Border(theme.Border).
			BorderForeground(p.Accent).
			Foreground(p.Accent),
	}
}
