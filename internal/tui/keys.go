package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keybindings for the TUI.
type keyMap struct {
	// Login form
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding

	// Alerts
	Dismiss key.Binding

	// Home view
	Refresh key.Binding
	Logout  key.Binding

	// General
	Back     key.Binding
	Help     key.Binding
	HomeHelp key.Binding
	Quit     key.Binding
	HomeQuit key.Binding
}

// defaultKeyMap returns the default keybindings.
func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "log in"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "esc", " "),
			key.WithHelp("enter", "close"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log out"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "enter", "f1", "?"),
			key.WithHelp("any key", "return"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "toggle help"),
		),
		HomeHelp: key.NewBinding(
			key.WithKeys("?", "f1"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
		HomeQuit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// viewKeys is the set of bindings shown in the status bar for one screen.
// It implements help.KeyMap.
type viewKeys []key.Binding

func (v viewKeys) ShortHelp() []key.Binding  { return v }
func (v viewKeys) FullHelp() [][]key.Binding { return [][]key.Binding{v} }

// forView picks the status bar bindings. An open alert only accepts Dismiss.
func (k keyMap) forView(v viewState, alertOpen bool) viewKeys {
	if alertOpen && v != viewHelp {
		return viewKeys{k.Dismiss}
	}
	switch v {
	case viewLogin:
		return viewKeys{k.Next, k.Submit, k.Help, k.Quit}
	case viewHome:
		return viewKeys{k.Refresh, k.Logout, k.HomeHelp, k.HomeQuit}
	case viewHelp:
		return viewKeys{k.Back}
	default:
		return nil
	}
}
