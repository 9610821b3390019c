package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/loginchallenge/internal/diag"
	"github.com/Dicklesworthstone/loginchallenge/internal/login"
)

// Addressable control identifiers.
const (
	IDIdentifierField = "tbId"
	IDSecretField     = "tbPw"
	IDLoginButton     = "btnLogin"
)

// MaskCharacter replaces each character of the secret field on screen.
const MaskCharacter = '•'

type focusTarget int

const (
	focusIdentifier focusTarget = iota
	focusSecret
	focusButton
)

// alert is a modal message with a single dismiss action.
type alert struct {
	title   string
	message string
}

func alertFor(c login.Classification) *alert {
	return &alert{title: c.Title, message: c.Message}
}

// loginScreen is one instance of the credential-entry screen. It is the
// presenter for its own orchestrator.
type loginScreen struct {
	identifier textinput.Model
	secret     textinput.Model
	focus      focusTarget

	orch    *login.Orchestrator
	overlay *busyOverlay
	alert   *alert

	authenticated bool
}

type loginScreenConfig struct {
	theme           Theme
	sink            diag.Sink
	recordDiscarded bool
	logger          *slog.Logger
}

func newLoginScreen(cfg loginScreenConfig) *loginScreen {
	s := &loginScreen{
		identifier: newField("ID", false, cfg.theme),
		secret:     newField("パスワード", true, cfg.theme),
		overlay:    newBusyOverlay(cfg.theme, "ログイン中..."),
	}
	s.orch = login.New(login.Config{
		Presenter:       s,
		Overlay:         s.overlay,
		Sink:            cfg.sink,
		RecordDiscarded: cfg.recordDiscarded,
		Logger:          cfg.logger,
	})
	s.appear()
	return s
}

func newField(placeholder string, masked bool, theme Theme) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Width = 24
	if masked {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = MaskCharacter
	}
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(theme.Palette.Muted)
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// appear resynchronizes enablement and focus whenever the screen is shown.
func (s *loginScreen) appear() {
	s.orch.Appear(s.identifier.Value(), s.secret.Value())
	s.applyFocus()
}

func (s *loginScreen) fieldsChanged() {
	s.orch.FieldsChanged(s.identifier.Value(), s.secret.Value())
}

func (s *loginScreen) OnAuthenticated() {
	s.authenticated = true
	s.applyFocus()
}

func (s *loginScreen) OnFailed(c login.Classification) {
	s.alert = alertFor(c)
	s.focus = focusSecret
	s.applyFocus()
}

// enabled reports whether target can take focus.
func (s *loginScreen) enabled(target focusTarget) bool {
	c := s.orch.Controls()
	switch target {
	case focusIdentifier:
		return c.Identifier
	case focusSecret:
		return c.Secret
	case focusButton:
		return c.Submit
	default:
		return false
	}
}

// moveFocus cycles through enabled controls in direction dir (+1/-1).
func (s *loginScreen) moveFocus(dir int) {
	for i := 1; i <= 3; i++ {
		next := focusTarget((int(s.focus) + dir*i + 3) % 3)
		if s.enabled(next) {
			s.focus = next
			break
		}
	}
	s.applyFocus()
}

// applyFocus keeps the text inputs' cursor state in line with focus and
// enablement. Disabled fields never hold the cursor.
func (s *loginScreen) applyFocus() {
	s.identifier.Blur()
	s.secret.Blur()
	switch {
	case s.focus == focusIdentifier && s.enabled(focusIdentifier):
		s.identifier.Focus()
	case s.focus == focusSecret && s.enabled(focusSecret):
		s.secret.Focus()
	}
}
