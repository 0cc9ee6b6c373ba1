// ABOUTME: Authenticated-user session with file-backed persistence
// ABOUTME: Explicit login/logout mutators replacing ambient global state

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rampkit/ramp/internal/api"
)

// cacheFile is the fixed name the user record is cached under inside
// the config directory.
const cacheFile = "session.json"

// ErrNotLoggedIn is returned by operations requiring authentication.
var ErrNotLoggedIn = errors.New("not logged in")

// Authenticator exchanges credentials for a user record.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
}

// persisted is the on-disk session shape.
type persisted struct {
	User  api.User `json:"user"`
	Token string   `json:"token,omitempty"`
}

// Session holds the authenticated user for the lifetime of the process.
// It is constructed once at startup and passed explicitly to whatever
// needs it; mutation is confined to Login and Logout.
type Session struct {
	mu     sync.Mutex
	user   *api.User
	token  string
	path   string
	logger *slog.Logger
}

// Load creates a session rooted at dir, restoring any cached user
// record from a previous run. A missing or corrupt cache yields a
// logged-out session, not an error.
func Load(dir string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		path:   filepath.Join(dir, cacheFile),
		logger: logger.With("component", "session"),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return s
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("ignoring corrupt session cache", "path", s.path, "error", err)
		return s
	}
	s.user = &p.User
	s.token = p.Token
	return s
}

// Login authenticates against auth and persists the resulting user
// record so the next startup restores it.
func (s *Session) Login(ctx context.Context, auth Authenticator, email, password string) (*api.User, error) {
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &resp.User
	s.token = resp.Token
	s.mu.Unlock()

	if err := s.save(); err != nil {
		s.logger.Warn("session not persisted", "error", err)
	}
	return &resp.User, nil
}

// Logout clears the in-memory user and removes the cache file.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session cache: %w", err)
	}
	return nil
}

// User returns the authenticated user, or nil when logged out.
func (s *Session) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token for API requests; empty when the
// backend issued none or the user is logged out. Suitable as an
// api.TokenSource.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// TokenExpiry inspects the cached token's exp claim without verifying
// the signature; verification is the backend's job. The second return
// is false when there is no token or it carries no expiry.
func (s *Session) TokenExpiry() (time.Time, bool) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return time.Time{}, false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the cached token has an expiry in the past.
// Tokenless sessions never expire client-side.
func (s *Session) Expired() bool {
	exp, ok := s.TokenExpiry()
	return ok && time.Now().After(exp)
}

// save writes the session cache, creating the directory if needed.
func (s *Session) save() error {
	s.mu.Lock()
	p := persisted{Token: s.token}
	if s.user != nil {
		p.User = *s.user
	}
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing session cache: %w", err)
	}
	return nil
}
