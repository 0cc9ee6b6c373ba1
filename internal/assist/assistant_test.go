// ABOUTME: Tests for the rule-based onboarding assistant
// ABOUTME: Covers keyword replies, step navigation, progress and persistence

package assist

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampkit/ramp/internal/api"
	"github.com/rampkit/ramp/internal/state"
)

// memStore is an in-memory state.Store.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*state.SessionState
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*state.SessionState)}
}

func (m *memStore) Save(ctx context.Context, st *state.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *st
	m.sessions[st.AgentID] = &copied
	return nil
}

func (m *memStore) Load(ctx context.Context, agentID string) (*state.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.sessions[agentID]
	if !ok {
		return nil, state.ErrNotFound
	}
	copied := *st
	return &copied, nil
}

func (m *memStore) Clear(ctx context.Context, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, agentID)
	return nil
}

func (m *memStore) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAgent() *api.Agent {
	return &api.Agent{
		ID:   "ag1",
		Name: "Sales Onboarding",
		Role: "Account Executive",
		Steps: []api.OnboardingStep{
			{ID: "s1", Title: "Set up your CRM account", Description: "create your CRM login"},
			{ID: "s2", Title: "Import your leads", Description: "upload the lead spreadsheet"},
			{ID: "s3", Title: "Send your first outreach", Description: "use the email templates"},
		},
	}
}

func newTestAssistant(t *testing.T) (*Assistant, *memStore) {
	t.Helper()
	store := newMemStore()
	a, err := New(context.Background(), testAgent(), store, testLogger())
	require.NoError(t, err)
	return a, store
}

func TestNew_FreshSessionGetsWelcome(t *testing.T) {
	a, store := newTestAssistant(t)

	msgs := a.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, state.RoleAssistant, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Account Executive")
	assert.Contains(t, msgs[0].Content, "Set up your CRM account")

	// Welcome is persisted immediately
	st, err := store.Load(context.Background(), "ag1")
	require.NoError(t, err)
	assert.Len(t, st.Messages, 1)
}

func TestNew_RestoresSavedProgress(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Save(context.Background(), &state.SessionState{
		AgentID:          "ag1",
		CurrentStepIndex: 2,
		CompletedSteps:   []string{"s1", "s2"},
	}))

	a, err := New(context.Background(), testAgent(), store, testLogger())
	require.NoError(t, err)

	step, index, ok := a.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, 2, index)
	assert.Equal(t, "Send your first outreach", step.Title)
	assert.InDelta(t, 2.0/3.0, a.Progress(), 0.001)
}

func TestRespond_KeywordRules(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
	}{
		{"next step", "what's the next step?", "you should create your CRM login"},
		{"what now", "ok what now", "you should create your CRM login"},
		{"help", "help, I'm stuck", "I see you need some help"},
		{"confused", "I'm confused by this", "I see you need some help"},
		{"greeting", "hello there", "we're working on step 1"},
		{"thanks", "thank you!", "You're welcome"},
		{"fallback", "where is the office fridge", "you should focus on"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestAssistant(t)
			msg, err := a.Respond(context.Background(), tc.message)
			require.NoError(t, err)
			assert.Contains(t, msg.Content, tc.want)

			// Still on the first step; none of these advance
			_, index, _ := a.CurrentStep()
			assert.Equal(t, 0, index)
		})
	}
}

func TestRespond_DoneAdvances(t *testing.T) {
	a, store := newTestAssistant(t)

	msg, err := a.Respond(context.Background(), "I'm done with this one")
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "Great job")

	step, index, ok := a.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, 1, index)
	assert.Equal(t, "Import your leads", step.Title)
	assert.InDelta(t, 1.0/3.0, a.Progress(), 0.001)

	// Transition message landed in the transcript after the reply
	msgs := a.Messages()
	assert.Contains(t, msgs[len(msgs)-1].Content, "Import your leads")

	// Progress is persisted
	st, err := store.Load(context.Background(), "ag1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStepIndex)
	assert.Equal(t, []string{"s1"}, st.CompletedSteps)
}

func TestNext_FinalStepCongratulates(t *testing.T) {
	a, _ := newTestAssistant(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := a.Next(ctx)
		require.NoError(t, err)
	}

	// On the last step now; advancing again completes the workflow
	transition, err := a.Next(ctx)
	require.NoError(t, err)
	assert.Contains(t, transition, "Congratulations")
	assert.InDelta(t, 1.0, a.Progress(), 0.001)

	// Completing again does not double-count
	_, err = a.Next(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, a.Progress(), 0.001)
}

func TestPrevious(t *testing.T) {
	a, _ := newTestAssistant(t)
	ctx := context.Background()

	// Can't go back from the first step
	_, err := a.Previous(ctx)
	require.Error(t, err)

	_, err = a.Next(ctx)
	require.NoError(t, err)

	transition, err := a.Previous(ctx)
	require.NoError(t, err)
	assert.True(t, strings.Contains(transition, "Set up your CRM account"))

	_, index, _ := a.CurrentStep()
	assert.Equal(t, 0, index)
}

func TestReset(t *testing.T) {
	a, store := newTestAssistant(t)
	ctx := context.Background()

	_, err := a.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, a.Reset(ctx))

	_, index, _ := a.CurrentStep()
	assert.Equal(t, 0, index)
	assert.Zero(t, a.Progress())

	_, err = store.Load(ctx, "ag1")
	assert.ErrorIs(t, err, state.ErrNotFound)
}

func TestRespond_NoSteps(t *testing.T) {
	store := newMemStore()
	agent := &api.Agent{ID: "ag-empty", Role: "Intern"}
	a, err := New(context.Background(), agent, store, testLogger())
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), "hello")
	assert.Error(t, err)
	assert.Zero(t, a.Progress())
}
