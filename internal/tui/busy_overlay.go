package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// staticIndicator replaces the animation when reduced motion is on.
const staticIndicator = "[...]"

// busyOverlay is the login screen's blocking activity indicator. The
// orchestrator drives Show/Hide; the model only renders it and forwards
// spinner ticks while it is visible.
type busyOverlay struct {
	spinner  spinner.Model
	message  string
	msgStyle lipgloss.Style
	animated bool

	visible bool
	shows   int
}

func newBusyOverlay(theme Theme, message string) *busyOverlay {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	msgStyle := lipgloss.NewStyle()
	if !theme.NoColor {
		s.Style = lipgloss.NewStyle().Foreground(theme.Palette.Accent)
		msgStyle = msgStyle.Foreground(theme.Palette.Text)
	}
	return &busyOverlay{
		spinner:  s,
		message:  message,
		msgStyle: msgStyle,
		animated: !theme.ReducedMotion,
	}
}

func (b *busyOverlay) Show() {
	b.visible = true
	b.shows++
}

func (b *busyOverlay) Hide() { b.visible = false }

// Tick starts the animation. Nil when animation is off.
func (b *busyOverlay) Tick() tea.Cmd {
	if !b.animated {
		return nil
	}
	return b.spinner.Tick
}

// Update advances the animation. Ticks stop once the overlay is hidden.
func (b *busyOverlay) Update(msg spinner.TickMsg) tea.Cmd {
	if !b.visible || !b.animated {
		return nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(msg)
	return cmd
}

func (b *busyOverlay) View() string {
	if !b.visible {
		return ""
	}
	indicator := staticIndicator
	if b.animated {
		indicator = b.spinner.View()
	}
	if b.message == "" {
		return indicator
	}
	return indicator + " " + b.msgStyle.Render(b.message)
}
