// ABOUTME: Tests for file-backed session persistence and token expiry parsing
// ABOUTME: Covers login/restore/logout round-trips and corrupt cache tolerance

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampkit/ramp/internal/api"
)

// fakeAuth returns a canned login response.
type fakeAuth struct {
	resp *api.LoginResponse
	err  error
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// signedToken builds an HS256 token expiring at exp.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestLogin_PersistsAndRestores(t *testing.T) {
	dir := t.TempDir()
	auth := &fakeAuth{resp: &api.LoginResponse{
		User:  api.User{ID: "u1", Email: "a@b.c", Role: "admin"},
		Token: "tok-1",
	}}

	s := Load(dir, testLogger())
	require.Nil(t, s.User())

	user, err := s.Login(context.Background(), auth, "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "tok-1", s.Token())

	// Cache file exists with restrictive permissions
	info, err := os.Stat(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A fresh load restores the same identity
	restored := Load(dir, testLogger())
	require.NotNil(t, restored.User())
	assert.Equal(t, "a@b.c", restored.User().Email)
	assert.Equal(t, "tok-1", restored.Token())
}

func TestLogin_FailurePropagates(t *testing.T) {
	s := Load(t.TempDir(), testLogger())
	auth := &fakeAuth{err: errors.New("backend returned 401: Incorrect email or password")}

	_, err := s.Login(context.Background(), auth, "a@b.c", "wrong")
	require.Error(t, err)
	assert.Nil(t, s.User())
}

func TestLogout_RemovesCache(t *testing.T) {
	dir := t.TempDir()
	auth := &fakeAuth{resp: &api.LoginResponse{User: api.User{ID: "u1"}, Token: "t"}}

	s := Load(dir, testLogger())
	_, err := s.Login(context.Background(), auth, "a@b.c", "pw")
	require.NoError(t, err)

	require.NoError(t, s.Logout())
	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())

	_, statErr := os.Stat(filepath.Join(dir, "session.json"))
	assert.True(t, os.IsNotExist(statErr))

	// Logging out twice is fine
	require.NoError(t, s.Logout())
}

func TestLoad_CorruptCacheYieldsLoggedOut(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0600))

	s := Load(dir, testLogger())
	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())
}

func TestTokenExpiry(t *testing.T) {
	dir := t.TempDir()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	auth := &fakeAuth{resp: &api.LoginResponse{
		User:  api.User{ID: "u1"},
		Token: signedToken(t, exp),
	}}

	s := Load(dir, testLogger())
	_, err := s.Login(context.Background(), auth, "a@b.c", "pw")
	require.NoError(t, err)

	got, ok := s.TokenExpiry()
	require.True(t, ok)
	assert.True(t, got.Equal(exp), "want %v, got %v", exp, got)
	assert.False(t, s.Expired())
}

func TestExpired(t *testing.T) {
	dir := t.TempDir()
	auth := &fakeAuth{resp: &api.LoginResponse{
		User:  api.User{ID: "u1"},
		Token: signedToken(t, time.Now().Add(-time.Minute)),
	}}

	s := Load(dir, testLogger())
	_, err := s.Login(context.Background(), auth, "a@b.c", "pw")
	require.NoError(t, err)
	assert.True(t, s.Expired())
}

func TestTokenExpiry_NoToken(t *testing.T) {
	s := Load(t.TempDir(), testLogger())
	_, ok := s.TokenExpiry()
	assert.False(t, ok)
	assert.False(t, s.Expired())

	// Opaque (non-JWT) tokens also report no expiry
	auth := &fakeAuth{resp: &api.LoginResponse{User: api.User{ID: "u1"}, Token: "opaque"}}
	_, err := s.Login(context.Background(), auth, "a@b.c", "pw")
	require.NoError(t, err)
	_, ok = s.TokenExpiry()
	assert.False(t, ok)
	assert.False(t, s.Expired())
}
