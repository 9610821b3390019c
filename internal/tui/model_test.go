package tui

import (
	"context"
	"errors"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/loginchallenge/internal/auth"
	"github.com/Dicklesworthstone/loginchallenge/internal/login"
)

func TestNew_InitialLoginScreen(t *testing.T) {
	m := newTestModel(t, newFakeSession(), nil)

	assert.Equal(t, viewLogin, m.view)
	id := element(t, m, IDIdentifierField)
	assert.True(t, id.Enabled)
	assert.True(t, id.Focused)
	assert.True(t, element(t, m, IDSecretField).Enabled)
	assert.False(t, element(t, m, IDLoginButton).Enabled, "button disabled while fields are empty")

	_, ok := m.Element("nope")
	assert.False(t, ok)
	_, _, ok = m.Alert()
	assert.False(t, ok)
	assert.False(t, m.Busy())
}

func TestView_LoadingBeforeSize(t *testing.T) {
	m := New(Options{Theme: ThemeOptions{NoColor: true}})
	assert.Equal(t, "Loading...", m.View())
}

func TestScenarioA_ValidCredentials(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess, nil)

	m = fillCredentials(t, m, "koher", "1234")
	require.True(t, element(t, m, IDLoginButton).Enabled)

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd, "enter on the secret field triggers submission")
	m = drain(t, m, cmd)

	_, _, shown := m.Alert()
	assert.False(t, shown)
	assert.Equal(t, viewHome, m.view)
	assert.False(t, m.Busy())
	assert.Equal(t, 1, sess.callCount())
	assert.Equal(t, login.StateAuthenticated, m.login.orch.State())

	require.NotNil(t, m.User())
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Yuta Koshizawa")
	assert.Contains(t, view, "@koher")

	_, ok := m.Element(IDLoginButton)
	assert.False(t, ok, "login controls are gone after navigation")
}

func TestScenarioB_InvalidCredentials(t *testing.T) {
	sess := newFakeSession()
	sink := &recordingSink{}
	m := newTestModel(t, sess, sink)

	m = fillCredentials(t, m, "rehok", "4321")
	m, _ = press(t, m, tea.KeyTab)
	require.True(t, element(t, m, IDLoginButton).Focused)

	m, cmd := press(t, m, tea.KeyEnter)
	m = drain(t, m, cmd)

	title, message, shown := m.Alert()
	require.True(t, shown)
	assert.Equal(t, "ログインエラー", title)
	assert.Equal(t, "IDまたはパスワードが正しくありません。", message)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "ログインエラー")
	assert.Contains(t, view, login.DismissLabel)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "invalid_credentials", sink.entries[0].Kind)
	assert.NotContains(t, sink.entries[0].Detail, "4321")

	// Typing is swallowed while the alert is up.
	m = typeText(t, m, "x")
	_, _, shown = m.Alert()
	assert.True(t, shown)

	m, _ = press(t, m, tea.KeyEnter)
	_, _, shown = m.Alert()
	assert.False(t, shown)

	assert.True(t, element(t, m, IDIdentifierField).Enabled)
	assert.True(t, element(t, m, IDSecretField).Enabled)
	assert.True(t, element(t, m, IDLoginButton).Enabled)
	assert.Equal(t, viewLogin, m.view)
	assert.Equal(t, 1, sess.callCount())
}

func TestScenarioC_SecretIsMasked(t *testing.T) {
	m := newTestModel(t, newFakeSession(), nil)
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "1234")

	pw := element(t, m, IDSecretField)
	assert.Contains(t, pw.Text, "••••")
	assert.NotContains(t, pw.Text, "1234")
	assert.NotContains(t, ansi.Strip(m.View()), "1234")
	assert.Equal(t, "1234", m.login.secret.Value())
}

func TestEnterOnIdentifierMovesFocus(t *testing.T) {
	m := newTestModel(t, newFakeSession(), nil)
	m = typeText(t, m, "koher")

	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.True(t, element(t, m, IDSecretField).Focused)
}

func TestSubmit_DoubleTriggerCallsOnce(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess, nil)
	m = fillCredentials(t, m, "koher", "1234")

	// Two presses land before either scheduled submission runs.
	m, first := press(t, m, tea.KeyEnter)
	m, second := press(t, m, tea.KeyEnter)
	require.NotNil(t, first)
	require.NotNil(t, second)

	msg1, msg2 := first(), second()
	m, authCmd := update(t, m, msg1)
	require.NotNil(t, authCmd)
	assert.True(t, m.Busy())

	m, dropped := update(t, m, msg2)
	assert.Nil(t, dropped)

	m = drain(t, m, authCmd)
	assert.Equal(t, 1, sess.callCount())
	assert.Equal(t, viewHome, m.view)
}

func TestSubmit_FieldClearedDuringGap(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess, nil)
	m = fillCredentials(t, m, "koher", "1")

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	m, _ = press(t, m, tea.KeyBackspace)

	m = drain(t, m, cmd)
	assert.Equal(t, 0, sess.callCount())
	assert.Equal(t, viewLogin, m.view)
	assert.False(t, m.Busy())
}

func TestSubmit_ControlsDisabledWhileInFlight(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess, nil)
	m = fillCredentials(t, m, "koher", "1234")

	m, cmd := press(t, m, tea.KeyEnter)
	m, authCmd := update(t, m, cmd())
	require.NotNil(t, authCmd)

	assert.True(t, m.Busy())
	for _, id := range []string{IDIdentifierField, IDSecretField, IDLoginButton} {
		assert.False(t, element(t, m, id).Enabled, id)
	}
	assert.Contains(t, ansi.Strip(m.View()), "ログイン中...")

	// Input while submitting is ignored.
	m = typeText(t, m, "zzz")
	m, again := press(t, m, tea.KeyEnter)
	assert.Nil(t, again)
	assert.Equal(t, "1234", m.login.secret.Value())

	m = drain(t, m, authCmd)
	assert.False(t, m.Busy())
	assert.Equal(t, 1, sess.callCount())
}

func TestSubmit_FailureKindsShowAlerts(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		title string
	}{
		{"network", &auth.NetworkError{Op: "login", Err: errors.New("connection refused")}, "ネットワークエラー"},
		{"server", &auth.StatusError{Op: "login", StatusCode: http.StatusServiceUnavailable}, "サーバーエラー"},
		{"unknown", errors.New("decode login response: EOF"), "システムエラー"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess := newFakeSession()
			sess.loginErr = tc.err
			m := newTestModel(t, sess, nil)
			m = fillCredentials(t, m, "koher", "1234")

			m, cmd := press(t, m, tea.KeyEnter)
			m = drain(t, m, cmd)

			title, _, ok := m.Alert()
			require.True(t, ok)
			assert.Equal(t, tc.title, title)
			assert.NotContains(t, ansi.Strip(m.View()), tc.err.Error(), "raw error text is never displayed")
		})
	}
}

func TestSubmit_RetryAfterFailure(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess, nil)
	m = fillCredentials(t, m, "koher", "4321")

	m, cmd := press(t, m, tea.KeyEnter)
	m = drain(t, m, cmd)
	m, _ = press(t, m, tea.KeyEsc) // dismiss

	for range 4 {
		m, _ = press(t, m, tea.KeyBackspace)
	}
	m = typeText(t, m, "1234")
	m, cmd = press(t, m, tea.KeyEnter)
	m = drain(t, m, cmd)

	assert.Equal(t, viewHome, m.view)
	require.Equal(t, 2, sess.callCount())
	assert.Equal(t, login.Credentials{Identifier: "koher", Secret: "1234"}, sess.calls[1])
}

func TestQuitWhileSubmitting_DiscardsOutcome(t *testing.T) {
	sess := newFakeSession()
	sink := &recordingSink{}
	m := newTestModel(t, sess, sink)
	m = fillCredentials(t, m, "rehok", "4321")

	m, cmd := press(t, m, tea.KeyEnter)
	m, authCmd := update(t, m, cmd())
	require.NotNil(t, authCmd)

	m, quit := press(t, m, tea.KeyCtrlC)
	require.NotNil(t, quit)
	assert.IsType(t, tea.QuitMsg{}, quit())
	assert.True(t, m.login.orch.Detached())

	m, _ = update(t, m, authCmd())
	_, _, shown := m.Alert()
	assert.False(t, shown)
	assert.Empty(t, sink.entries)
	assert.False(t, m.Busy())
	assert.Equal(t, "", m.View())
}

func TestHome_RefreshAndLogout(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess, nil)
	m = fillCredentials(t, m, "koher", "1234")
	m, cmd := press(t, m, tea.KeyEnter)
	m = drain(t, m, cmd)
	require.Equal(t, viewHome, m.view)
	assert.Equal(t, 1, sess.userCalls)

	sess.user = &auth.User{ID: "koher", Name: "Koshizawa", Handle: "koher"}
	m, cmd = pressRune(t, m, 'r')
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)
	assert.Equal(t, 2, sess.userCalls)
	assert.Equal(t, "Koshizawa", m.User().Name)

	previous := m.login
	m, cmd = pressRune(t, m, 'l')
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)

	assert.Equal(t, 1, sess.loggedOut)
	assert.Equal(t, viewLogin, m.view)
	assert.NotSame(t, previous, m.login, "logout returns to a fresh login screen")
	assert.Equal(t, login.StateInteractive, m.login.orch.State())
	assert.NotContains(t, element(t, m, IDIdentifierField).Text, "koher")
	assert.False(t, element(t, m, IDLoginButton).Enabled)

	m = fillCredentials(t, m, "koher", "1234")
	assert.True(t, element(t, m, IDLoginButton).Enabled)
}

func TestHome_LoadFailureShowsAlert(t *testing.T) {
	sess := newFakeSession()
	sess.userErr = &auth.NetworkError{Op: "current user", Err: context.DeadlineExceeded}
	m := newTestModel(t, sess, nil)
	m = fillCredentials(t, m, "koher", "1234")
	m, cmd := press(t, m, tea.KeyEnter)
	m = drain(t, m, cmd)

	require.Equal(t, viewHome, m.view)
	title, _, ok := m.Alert()
	require.True(t, ok)
	assert.Equal(t, "ネットワークエラー", title)

	m, _ = press(t, m, tea.KeyEnter)
	_, _, ok = m.Alert()
	assert.False(t, ok)
	assert.Equal(t, viewHome, m.view, "fetch failures do not affect the login flow")
}

func TestHelp_ToggleAndResync(t *testing.T) {
	m := newTestModel(t, newFakeSession(), nil)
	m = fillCredentials(t, m, "koher", "1234")

	m, _ = press(t, m, tea.KeyF1)
	assert.Equal(t, viewHelp, m.view)
	assert.Contains(t, m.View(), "loginchallenge")
	_, ok := m.Element(IDLoginButton)
	assert.False(t, ok)

	// Enablement drifted while hidden; appearing again resyncs it.
	m.login.orch.FieldsChanged("", "")
	m, _ = pressRune(t, m, 'x')
	assert.Equal(t, viewLogin, m.view)
	assert.True(t, element(t, m, IDLoginButton).Enabled)
}

func TestEsc_Quits(t *testing.T) {
	m := newTestModel(t, newFakeSession(), nil)
	m, cmd := press(t, m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
}

func TestNoSessionFailsAsUnknown(t *testing.T) {
	m := newTestModel(t, nil, nil)
	m = fillCredentials(t, m, "koher", "1234")
	m, cmd := press(t, m, tea.KeyEnter)
	m = drain(t, m, cmd)

	title, _, ok := m.Alert()
	require.True(t, ok)
	assert.Equal(t, "システムエラー", title)
}

func TestStatusBar_FollowsView(t *testing.T) {
	m := newTestModel(t, newFakeSession(), nil)

	status := ansi.Strip(m.renderStatusBar())
	assert.Contains(t, status, "tab next field")
	assert.Contains(t, status, "enter log in")
	assert.Contains(t, status, "esc quit")

	m = fillCredentials(t, m, "rehok", "4321")
	m, cmd := press(t, m, tea.KeyEnter)
	m = drain(t, m, cmd)
	_, _, shown := m.Alert()
	require.True(t, shown)

	status = ansi.Strip(m.renderStatusBar())
	assert.Contains(t, status, "enter close")
	assert.NotContains(t, status, "log in")

	m, _ = press(t, m, tea.KeyF1)
	assert.Equal(t, viewLogin, m.view, "help cannot open over an alert")
	m, _ = press(t, m, tea.KeyEsc)
	m, _ = press(t, m, tea.KeyF1)
	require.Equal(t, viewHelp, m.view)
	assert.Contains(t, ansi.Strip(m.renderStatusBar()), "any key return")
}

func TestStatusBar_TruncatesToWidth(t *testing.T) {
	m := newTestModel(t, newFakeSession(), nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 24, Height: 10})

	status := ansi.Strip(m.renderStatusBar())
	assert.NotContains(t, status, "esc quit")
	assert.LessOrEqual(t, ansi.StringWidth(status), 24)
}
