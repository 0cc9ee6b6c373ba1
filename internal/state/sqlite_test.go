// ABOUTME: Tests for the SQLite session state store
// ABOUTME: Covers save/load round-trips, upserts and clear semantics

package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	st := &SessionState{
		AgentID:          "ag1",
		CurrentStepIndex: 2,
		CompletedSteps:   []string{"s1", "s2"},
		Messages: []AssistantMessage{
			{Role: RoleAssistant, Content: "Welcome!", Timestamp: time.Now().UTC().Truncate(time.Second)},
			{Role: RoleUser, Content: "hi", Timestamp: time.Now().UTC().Truncate(time.Second)},
		},
	}
	require.NoError(t, s.Save(ctx, st))

	got, err := s.Load(ctx, "ag1")
	require.NoError(t, err)
	assert.Equal(t, "ag1", got.AgentID)
	assert.Equal(t, 2, got.CurrentStepIndex)
	assert.Equal(t, []string{"s1", "s2"}, got.CompletedSteps)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleAssistant, got.Messages[0].Role)
	assert.Equal(t, "Welcome!", got.Messages[0].Content)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSave_Upserts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &SessionState{AgentID: "ag1", CurrentStepIndex: 0}))
	require.NoError(t, s.Save(ctx, &SessionState{AgentID: "ag1", CurrentStepIndex: 3, CompletedSteps: []string{"s1"}}))

	got, err := s.Load(ctx, "ag1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStepIndex)
	assert.Equal(t, []string{"s1"}, got.CompletedSteps)
}

func TestLoad_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &SessionState{AgentID: "ag1", CurrentStepIndex: 1}))
	require.NoError(t, s.Save(ctx, &SessionState{AgentID: "ag2", CurrentStepIndex: 5}))

	got1, err := s.Load(ctx, "ag1")
	require.NoError(t, err)
	got2, err := s.Load(ctx, "ag2")
	require.NoError(t, err)
	assert.Equal(t, 1, got1.CurrentStepIndex)
	assert.Equal(t, 5, got2.CurrentStepIndex)
}

func TestClear(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &SessionState{AgentID: "ag1"}))
	require.NoError(t, s.Clear(ctx, "ag1"))

	_, err := s.Load(ctx, "ag1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing a missing session is not an error
	require.NoError(t, s.Clear(ctx, "never-existed"))
}

func TestReopen_PersistsAcrossHandles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, &SessionState{AgentID: "ag1", CurrentStepIndex: 4}))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load(ctx, "ag1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentStepIndex)
}
