package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure surface of LogIn. Callers classify with
// errors.Is; the concrete error types below unwrap to one of these.
var (
	// ErrInvalidCredentials indicates the server rejected the identifier/secret pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNetwork indicates the request never produced an HTTP response
	// (dial failure, timeout, connection reset).
	ErrNetwork = errors.New("network failure")

	// ErrServer indicates the remote service failed (5xx or throttled).
	ErrServer = errors.New("server failure")

	// ErrNotLoggedIn is returned by session-scoped calls made before LogIn.
	ErrNotLoggedIn = errors.New("not logged in")
)

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "unexpected status"
	}

	text := http.StatusText(e.StatusCode)
	switch {
	case e.Op == "" && e.Body == "":
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, text)
	case e.Op == "":
		return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, text, e.Body)
	case e.Body == "":
		return fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.StatusCode, text)
	default:
		return fmt.Sprintf("%s: unexpected status %d %s: %s", e.Op, e.StatusCode, text, e.Body)
	}
}

// Unwrap maps the status onto the sentinel taxonomy. Statuses outside the
// known buckets unwrap to nil so they stay unclassified.
func (e *StatusError) Unwrap() error {
	if e == nil {
		return nil
	}
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrInvalidCredentials
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500 && e.StatusCode <= 599:
		return ErrServer
	default:
		return nil
	}
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "network failure"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: network failure", e.Op)
	}
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying transport error.
func (e *NetworkError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}
