// Package authserver is the demo authentication service the login screen
// talks to. It issues HS256 access tokens backed by server-side sessions.
package authserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Dicklesworthstone/loginchallenge/internal/auth"
)

// Issuer name placed in every token.
const tokenIssuer = "loginchallenge"

// Config configures a Server.
type Config struct {
	// Addr is the listen address, e.g. 127.0.0.1:7890.
	Addr string

	Users    *UserStore
	Sessions SessionStore

	// SigningKey for HS256 tokens. Empty generates a random key.
	SigningKey []byte
	TokenTTL   time.Duration

	// RateLimit is sustained login attempts per minute per identifier.
	// Zero disables limiting.
	RateLimit float64
	Burst     int

	Logger *slog.Logger
}

// Server exposes the authentication API.
type Server struct {
	users    *UserStore
	sessions SessionStore
	issuer   *Issuer
	limiter  *attemptLimiter
	logger   *slog.Logger
	now      func() time.Time

	router *mux.Router
	server *http.Server
}

// New creates a server. Users is required; Sessions defaults to an
// in-memory store.
func New(cfg Config) (*Server, error) {
	if cfg.Users == nil {
		return nil, errors.New("user store is required")
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewMemoryStore()
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	issuer, err := NewIssuer(cfg.SigningKey, tokenIssuer, ttl)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		users:    cfg.Users,
		sessions: sessions,
		issuer:   issuer,
		limiter:  newAttemptLimiter(cfg.RateLimit, cfg.Burst),
		logger:   logger,
		now:      time.Now,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/users/me", s.handleMe).Methods(http.MethodGet)
	r.Use(s.withLogging)
	s.router = r

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for embedding in httptest servers.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting auth server", "addr", s.server.Addr, "users", s.users.Len())
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting auth server", "addr", l.Addr().String(), "users", s.users.Len())
	err := s.server.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// HealthResponse is the response from /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Users     int       `json:"users"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: s.now(),
		Users:     s.users.Len(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Password == "" {
		http.Error(w, "id and password are required", http.StatusBadRequest)
		return
	}

	if !s.limiter.Allow(req.ID) {
		s.logger.Warn("login throttled", "id", req.ID)
		w.Header().Set("Retry-After", "60")
		http.Error(w, "too many attempts", http.StatusTooManyRequests)
		return
	}

	user, err := s.users.Verify(req.ID, req.Password)
	if err != nil {
		s.logger.Info("login rejected", "id", req.ID)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	sid := uuid.NewString()
	token, exp, err := s.issuer.Issue(user.ID, sid)
	if err != nil {
		s.logger.Error("issue token failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	sess := Session{ID: sid, UserID: user.ID, CreatedAt: s.now(), ExpiresAt: exp}
	if err := s.sessions.Create(r.Context(), sess); err != nil {
		s.logger.Error("create session failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("login succeeded", "id", user.ID, "session", sid)
	writeJSON(w, http.StatusOK, auth.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), claims.SID); err != nil {
		s.logger.Error("delete session failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	u, found := s.users.Get(claims.Subject)
	if !found {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, auth.User{
		ID:           u.ID,
		Name:         u.Name,
		Handle:       u.Handle,
		Introduction: u.Introduction,
	})
}

// authenticate verifies the bearer token and that its session is live. It
// writes the error response itself when it returns false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*Claims, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return nil, false
	}
	claims, err := s.issuer.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return nil, false
	}
	if _, err := s.sessions.Get(r.Context(), claims.SID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "session expired", http.StatusUnauthorized)
			return nil, false
		}
		s.logger.Error("load session failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return claims, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
