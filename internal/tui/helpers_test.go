package tui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/loginchallenge/internal/auth"
	"github.com/Dicklesworthstone/loginchallenge/internal/diag"
	"github.com/Dicklesworthstone/loginchallenge/internal/login"
)

// fakeSession accepts koher/1234 and rejects everything else.
type fakeSession struct {
	mu        sync.Mutex
	calls     []login.Credentials
	loginErr  error
	user      *auth.User
	userErr   error
	userCalls int
	loggedOut int
}

func newFakeSession() *fakeSession {
	return &fakeSession{user: &auth.User{
		ID:           "koher",
		Name:         "Yuta Koshizawa",
		Handle:       "koher",
		Introduction: "ソフトウェアエンジニア。",
	}}
}

func (f *fakeSession) LogIn(_ context.Context, id, pw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, login.Credentials{Identifier: id, Secret: pw})
	if f.loginErr != nil {
		return f.loginErr
	}
	if id == "koher" && pw == "1234" {
		return nil
	}
	return &auth.StatusError{Op: "login", StatusCode: http.StatusUnauthorized}
}

func (f *fakeSession) CurrentUser(context.Context) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	return f.user, f.userErr
}

func (f *fakeSession) LogOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut++
	return nil
}

func (f *fakeSession) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingSink struct {
	entries []diag.Entry
}

func (r *recordingSink) Record(_ context.Context, e diag.Entry) {
	r.entries = append(r.entries, e)
}

func newTestModel(t *testing.T, session Session, sink diag.Sink) Model {
	t.Helper()
	m := New(Options{
		Session: session,
		Sink:    sink,
		Theme:   ThemeOptions{NoColor: true, ReducedMotion: true},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

func pressRune(t *testing.T, m Model, r rune) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// drain runs cmd and feeds every resulting message back into the model,
// following batches, until nothing is left.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command chain did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
		default:
			var next tea.Cmd
			m, next = update(t, m, msg)
			queue = append(queue, next)
		}
	}
	return m
}

func element(t *testing.T, m Model, id string) Element {
	t.Helper()
	e, ok := m.Element(id)
	require.True(t, ok, "element %s not addressable", id)
	return e
}

// fillCredentials types into both fields, leaving focus on the secret field.
func fillCredentials(t *testing.T, m Model, id, pw string) Model {
	t.Helper()
	m = typeText(t, m, id)
	m, _ = press(t, m, tea.KeyTab)
	return typeText(t, m, pw)
}
