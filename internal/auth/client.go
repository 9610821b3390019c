// Package auth is the client side of the remote authentication service.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator performs the remote login call.
//
// LogIn returns nil on success. Failures unwrap to ErrInvalidCredentials,
// ErrNetwork or ErrServer; anything else is unclassified.
type Authenticator interface {
	LogIn(ctx context.Context, identifier, secret string) error
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, identifier, secret string) error

// LogIn calls f.
func (f AuthenticatorFunc) LogIn(ctx context.Context, identifier, secret string) error {
	return f(ctx, identifier, secret)
}

// User is the profile returned for the logged-in account.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Handle       string `json:"handle"`
	Introduction string `json:"introduction"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful POST /login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at,omitempty"` // RFC3339
}

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	// BaseURL of the authentication service, e.g. http://localhost:7890.
	BaseURL string

	// Timeout bounds each request. Zero uses DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport (useful for tests).
	HTTPClient *http.Client

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 15 * time.Second

// Client talks to the authentication service over HTTP. The session token
// lives in memory only.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewClient creates a client for the given configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("base URL must be http(s): %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		http:    hc,
		logger:  logger,
	}, nil
}

// LogIn authenticates and keeps the returned access token for later calls.
func (c *Client) LogIn(ctx context.Context, identifier, secret string) error {
	body, err := json.Marshal(LoginRequest{ID: identifier, Password: secret})
	if err != nil {
		return fmt.Errorf("encode login request: %w", err)
	}

	resp, err := c.do(ctx, "login", http.MethodPost, "/login", bytes.NewReader(body), "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("login", resp)
	}

	var lr LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if lr.AccessToken == "" {
		return fmt.Errorf("login response missing access token")
	}

	c.mu.Lock()
	c.token = lr.AccessToken
	c.expiresAt = tokenExpiry(lr)
	c.mu.Unlock()

	c.logger.Debug("login succeeded", "expires_at", c.ExpiresAt())
	return nil
}

// CurrentUser fetches the profile of the logged-in account.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	resp, err := c.do(ctx, "current user", http.MethodGet, "/users/me", nil, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("current user", resp)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// LogOut invalidates the session on the server and forgets the token. The
// token is dropped locally even if the server call fails.
func (c *Client) LogOut(ctx context.Context) error {
	token := c.Token()
	if token == "" {
		return nil
	}

	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	resp, err := c.do(ctx, "logout", http.MethodPost, "/logout", nil, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError("logout", resp)
	}
	return nil
}

// Token returns the current access token, or "" when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ExpiresAt returns the access token expiry, zero when unknown.
func (c *Client) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Cancellation and deadlines also end up here; the call never got an
		// answer, which is a network failure as far as the user is concerned.
		// The context error stays reachable through Unwrap.
		return nil, &NetworkError{Op: op, Err: err}
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(raw)),
	}
}

// tokenExpiry prefers the explicit expires_at field and falls back to the
// unverified exp claim. The client never verifies signatures; the server does.
func tokenExpiry(lr LoginResponse) time.Time {
	if lr.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, lr.ExpiresAt); err == nil {
			return t
		}
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(lr.AccessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
