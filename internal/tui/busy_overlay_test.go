package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestBusyOverlay_Visibility(t *testing.T) {
	b := newBusyOverlay(NewTheme(ThemeOptions{NoColor: true, ReducedMotion: true}), "ログイン中...")
	assert.Empty(t, b.View())

	b.Show()
	assert.True(t, b.visible)
	assert.Equal(t, "[...] ログイン中...", b.View())

	b.Hide()
	assert.False(t, b.visible)
	assert.Empty(t, b.View())
	assert.Equal(t, 1, b.shows)
}

func TestBusyOverlay_ReducedMotion(t *testing.T) {
	b := newBusyOverlay(NewTheme(ThemeOptions{NoColor: true, ReducedMotion: true}), "")
	assert.Nil(t, b.Tick())

	b.Show()
	assert.Nil(t, b.Update(spinner.TickMsg{}))
	assert.Equal(t, staticIndicator, b.View())
}

func TestBusyOverlay_Animated(t *testing.T) {
	b := newBusyOverlay(NewTheme(ThemeOptions{Mode: ThemeDark}), "ログイン中...")
	assert.NotNil(t, b.Tick())

	// Hidden overlays drop ticks so the animation loop ends.
	assert.Nil(t, b.Update(spinner.TickMsg{}))

	b.Show()
	view := ansi.Strip(b.View())
	assert.Contains(t, view, "ログイン中...")
	assert.NotContains(t, view, staticIndicator)
}
