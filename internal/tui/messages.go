package tui

import "github.com/Dicklesworthstone/loginchallenge/internal/auth"

// submitMsg is delivered one turn after the submit key, so execution-time
// checks see any edits that landed in between.
type submitMsg struct {
	screen *loginScreen
}

// loginResultMsg carries the outcome of the authentication call back to the
// screen that started it.
type loginResultMsg struct {
	screen *loginScreen
	err    error
}

type userLoadedMsg struct {
	user *auth.User
	err  error
}

type loggedOutMsg struct {
	err error
}
