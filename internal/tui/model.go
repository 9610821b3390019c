// Package tui provides the terminal user interface for loginchallenge: the
// credential-entry screen and the home view shown after authentication.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Dicklesworthstone/loginchallenge/internal/auth"
	"github.com/Dicklesworthstone/loginchallenge/internal/diag"
	"github.com/Dicklesworthstone/loginchallenge/internal/login"
)

// viewState represents the current view/mode of the TUI.
type viewState int

const (
	viewLogin viewState = iota
	viewHome
	viewHelp
)

var errNoSession = errors.New("no authentication session configured")

// Session is the remote account the TUI logs into.
type Session interface {
	auth.Authenticator
	CurrentUser(ctx context.Context) (*auth.User, error)
	LogOut(ctx context.Context) error
}

// Options configures the TUI.
type Options struct {
	Session Session

	// Sink records failed login attempts. Nil records nothing.
	Sink diag.Sink

	// RecordDiscarded also records failures that arrive after the login
	// screen was torn down.
	RecordDiscarded bool

	Theme  ThemeOptions
	Logger *slog.Logger

	// Context bounds remote calls. Defaults to context.Background().
	Context context.Context
}

// homeScreen is the authenticated view.
type homeScreen struct {
	user       *auth.User
	loading    bool
	loggingOut bool
	alert      *alert
}

// Model is the main Bubble Tea model for the loginchallenge TUI.
type Model struct {
	ctx             context.Context
	session         Session
	sink            diag.Sink
	recordDiscarded bool
	logger          *slog.Logger

	// View state
	view     viewState
	prevView viewState
	login    *loginScreen
	home     *homeScreen
	width    int
	height   int
	quitting bool

	// UI components
	keys       keyMap
	statusHelp help.Model
	theme      Theme
	styles     Styles
	help       *HelpRenderer
}

// New creates a TUI model showing a fresh login screen.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	theme := NewTheme(opts.Theme)
	styles := NewStyles(theme)

	m := Model{
		ctx:             ctx,
		session:         opts.Session,
		sink:            opts.Sink,
		recordDiscarded: opts.RecordDiscarded,
		logger:          logger,
		view:            viewLogin,
		keys:            defaultKeyMap(),
		theme:           theme,
		styles:          styles,
		statusHelp:      newStatusHelp(styles),
		help:            NewHelpRenderer(theme),
	}
	m.login = m.newLoginScreen()
	return m
}

func (m Model) newLoginScreen() *loginScreen {
	return newLoginScreen(loginScreenConfig{
		theme:           m.theme,
		sink:            m.sink,
		recordDiscarded: m.recordDiscarded,
		logger:          m.logger,
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("loginchallenge")
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(min(max(msg.Width-4, 20), 100))
		m.statusHelp.Width = max(msg.Width-2, 0)
		return m, nil

	case submitMsg:
		return m.handleSubmit(msg)

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case userLoadedMsg:
		return m.handleUserLoaded(msg)

	case loggedOutMsg:
		if msg.err != nil {
			m.logger.Warn("logout failed", "error", msg.err)
		}
		m.home = nil
		m.login = m.newLoginScreen()
		m.view = viewLogin
		return m, nil

	case spinner.TickMsg:
		if m.login == nil {
			return m, nil
		}
		return m, m.login.overlay.Update(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	switch m.view {
	case viewHelp:
		m.view = m.prevView
		if m.view == viewLogin {
			m.login.appear()
		}
		return m, nil
	case viewHome:
		return m.handleHomeKey(msg)
	default:
		return m.handleLoginKey(msg)
	}
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.login

	// Alerts are modal.
	if s.alert != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			s.alert = nil
			s.applyFocus()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.prevView = viewLogin
		m.view = viewHelp
		return m, nil
	}

	if s.orch.State() != login.StateInteractive {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		s.moveFocus(1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		s.moveFocus(-1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if s.focus == focusIdentifier {
			s.focus = focusSecret
			s.applyFocus()
			return m, nil
		}
		return m, m.trigger()
	}

	return m.updateField(msg)
}

// trigger schedules a submission if the button is enabled right now. The
// submission itself runs when submitMsg arrives.
func (m Model) trigger() tea.Cmd {
	s := m.login
	if !s.orch.Trigger() {
		return nil
	}
	return func() tea.Msg { return submitMsg{screen: s} }
}

func (m Model) updateField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.login
	if !s.enabled(s.focus) {
		return m, nil
	}

	var cmd tea.Cmd
	switch s.focus {
	case focusIdentifier:
		s.identifier, cmd = s.identifier.Update(msg)
	case focusSecret:
		s.secret, cmd = s.secret.Update(msg)
	default:
		return m, nil
	}
	s.fieldsChanged()
	return m, cmd
}

func (m Model) handleSubmit(msg submitMsg) (tea.Model, tea.Cmd) {
	s := msg.screen
	creds, ok := s.orch.Begin(s.identifier.Value(), s.secret.Value())
	if !ok {
		return m, nil
	}
	s.applyFocus()
	return m, tea.Batch(s.overlay.Tick(), m.authenticate(s, creds))
}

func (m Model) authenticate(s *loginScreen, creds login.Credentials) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		if session == nil {
			return loginResultMsg{screen: s, err: errNoSession}
		}
		return loginResultMsg{screen: s, err: session.LogIn(ctx, creds.Identifier, creds.Secret)}
	}
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	s := msg.screen
	s.orch.Complete(m.ctx, msg.err)

	if s != m.login || !s.authenticated {
		return m, nil
	}

	s.orch.Detach()
	m.home = &homeScreen{loading: true}
	m.view = viewHome
	return m, m.loadUser()
}

func (m Model) loadUser() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		if session == nil {
			return userLoadedMsg{err: errNoSession}
		}
		u, err := session.CurrentUser(ctx)
		return userLoadedMsg{user: u, err: err}
	}
}

func (m Model) logOut() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		if session == nil {
			return loggedOutMsg{}
		}
		return loggedOutMsg{err: session.LogOut(ctx)}
	}
}

func (m Model) handleUserLoaded(msg userLoadedMsg) (tea.Model, tea.Cmd) {
	h := m.home
	if h == nil {
		return m, nil
	}
	h.loading = false
	if msg.err != nil {
		m.logger.Warn("load user failed", "error", msg.err)
		h.alert = alertFor(login.Classify(msg.err))
		return m, nil
	}
	h.user = msg.user
	return m, nil
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	h := m.home
	if h.alert != nil {
		if key.Matches(msg, m.keys.Dismiss) {
			h.alert = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.HomeQuit):
		return m.quit()
	case key.Matches(msg, m.keys.HomeHelp):
		m.prevView = viewHome
		m.view = viewHelp
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if h.loading || h.loggingOut {
			return m, nil
		}
		h.loading = true
		return m, m.loadUser()
	case key.Matches(msg, m.keys.Logout):
		if h.loggingOut {
			return m, nil
		}
		h.loggingOut = true
		return m, m.logOut()
	}
	return m, nil
}

// quit tears down the login screen; an in-flight result is then discarded.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.login != nil {
		m.login.orch.Detach()
	}
	m.quitting = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	switch m.view {
	case viewHelp:
		return m.styles.Help.Render(m.help.Render(MainHelpMarkdown()))
	case viewHome:
		body = m.homeView()
	default:
		body = m.loginView()
	}

	status := m.renderStatusBar()
	availableHeight := m.height - lipgloss.Height(body) - lipgloss.Height(status)
	if availableHeight > 0 {
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			body,
			lipgloss.NewStyle().Height(availableHeight).Render(""),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

func (m Model) loginView() string {
	s := m.login
	if s.alert != nil {
		return m.alertView(s.alert)
	}

	parts := []string{
		m.styles.Header.Render("Login Challenge"),
		m.styles.Label.Render("ID"),
		m.fieldView(focusIdentifier),
		m.styles.Label.Render("パスワード"),
		m.fieldView(focusSecret),
		m.buttonView(),
	}
	if busy := s.overlay.View(); busy != "" {
		parts = append(parts, "", busy)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) fieldView(target focusTarget) string {
	s := m.login
	ti := s.identifier
	if target == focusSecret {
		ti = s.secret
	}

	style := m.styles.Field
	switch {
	case !s.enabled(target):
		style = m.styles.DisabledField
	case s.focus == target:
		style = m.styles.FocusedField
	}
	return style.Render(ti.View())
}

func (m Model) buttonView() string {
	s := m.login
	style := m.styles.Button
	switch {
	case !s.enabled(focusButton):
		style = m.styles.DisabledButton
	case s.focus == focusButton:
		style = m.styles.FocusedButton
	}
	return style.Render("ログイン")
}

func (m Model) alertView(a *alert) string {
	dialog := m.styles.Dialog.Render(lipgloss.JoinVertical(
		lipgloss.Center,
		m.styles.DialogTitle.Render(a.title),
		a.message,
		"",
		m.styles.DialogButton.Render(login.DismissLabel),
	))
	return lipgloss.Place(m.width, max(m.height-1, lipgloss.Height(dialog)), lipgloss.Center, lipgloss.Center, dialog)
}

func (m Model) homeView() string {
	h := m.home
	if h.alert != nil {
		return m.alertView(h.alert)
	}

	header := m.styles.Header.Render("Login Challenge")
	if h.user == nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.styles.Muted.Render("読み込み中..."))
	}

	width := max(m.width-4, 10)
	u := h.user
	parts := []string{
		header,
		m.styles.Name.Render(ansi.Truncate(u.Name, width, "…")),
		m.styles.Handle.Render(ansi.Truncate("@"+u.Handle, width, "…")),
		m.styles.Intro.Width(width).Render(u.Introduction),
	}
	if h.loading {
		parts = append(parts, m.styles.Muted.Render("更新中..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func newStatusHelp(styles Styles) help.Model {
	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = styles.StatusKey
	h.Styles.ShortDesc = styles.StatusText
	h.Styles.ShortSeparator = styles.StatusText
	h.Styles.Ellipsis = styles.StatusText
	return h
}

// renderStatusBar renders the key hints for the current view.
func (m Model) renderStatusBar() string {
	alertOpen := false
	switch m.view {
	case viewLogin:
		alertOpen = m.login.alert != nil
	case viewHome:
		alertOpen = m.home != nil && m.home.alert != nil
	}
	hints := m.statusHelp.View(m.keys.forView(m.view, alertOpen))
	return m.styles.StatusBar.Width(m.width).Render(hints)
}

// Element describes an addressable control on the login screen.
type Element struct {
	ID      string
	Enabled bool
	Focused bool
	// Text is the control's on-screen content without styling.
	Text string
}

// Element looks up a login screen control by identifier. It reports false
// when the login screen is not showing or the identifier is unknown.
func (m Model) Element(id string) (Element, bool) {
	if m.view != viewLogin || m.login == nil {
		return Element{}, false
	}
	s := m.login

	var target focusTarget
	var text string
	switch id {
	case IDIdentifierField:
		target, text = focusIdentifier, s.identifier.View()
	case IDSecretField:
		target, text = focusSecret, s.secret.View()
	case IDLoginButton:
		target, text = focusButton, "ログイン"
	default:
		return Element{}, false
	}

	enabled := s.enabled(target)
	return Element{
		ID:      id,
		Enabled: enabled,
		Focused: enabled && s.focus == target,
		Text:    ansi.Strip(text),
	}, true
}

// Alert returns the alert currently shown, if any.
func (m Model) Alert() (title, message string, ok bool) {
	var a *alert
	switch m.view {
	case viewLogin:
		a = m.login.alert
	case viewHome:
		a = m.home.alert
	}
	if a == nil {
		return "", "", false
	}
	return a.title, a.message, true
}

// Busy reports whether the login screen's busy indicator is showing.
func (m Model) Busy() bool {
	return m.login != nil && m.login.overlay.visible
}

// User returns the profile shown on the home view.
func (m Model) User() *auth.User {
	if m.home == nil {
		return nil
	}
	return m.home.user
}

// Run starts the TUI application.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
