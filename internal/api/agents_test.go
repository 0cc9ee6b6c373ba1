// ABOUTME: Tests for agent endpoints including step-list replacement
// ABOUTME: Covers client-side validation and partial update payloads

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentCreate_Validate(t *testing.T) {
	cases := []struct {
		name    string
		agent   AgentCreate
		wantErr string
	}{
		{
			name:  "valid",
			agent: AgentCreate{Name: "Sales", Role: "AE", Emails: []string{"a@x.com", "b@x.com"}},
		},
		{
			name:    "missing name",
			agent:   AgentCreate{Role: "AE"},
			wantErr: "agent name is required",
		},
		{
			name:    "missing role",
			agent:   AgentCreate{Name: "Sales"},
			wantErr: "agent role is required",
		},
		{
			name:    "duplicate email",
			agent:   AgentCreate{Name: "Sales", Role: "AE", Emails: []string{"a@x.com", "a@x.com"}},
			wantErr: "duplicate email: a@x.com",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.agent.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.wantErr)
			}
		})
	}
}

func TestAgentCreate_Validate_CaseSensitiveEmails(t *testing.T) {
	// Uniqueness is checked exactly as typed
	a := AgentCreate{Name: "Sales", Role: "AE", Emails: []string{"A@x.com", "a@x.com"}}
	assert.NoError(t, a.Validate())
}

func TestCreateAgent_ValidationSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := New(srv.URL, WithLogger(testLogger()))
	_, err := client.CreateAgent(context.Background(), AgentCreate{Role: "AE"})
	require.Error(t, err)
	assert.False(t, called, "invalid payload must not reach the backend")
}

func TestListAgents_TrailingSlashPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]Agent{{ID: "ag1", Name: "Sales", Role: "AE"}})
	}))
	defer srv.Close()

	client := New(srv.URL, WithLogger(testLogger()))
	agents, err := client.ListAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "/agents/", gotPath)
	assert.Equal(t, "ag1", agents[0].ID)
}

func TestSaveSteps_FullListReplacement(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Agent{ID: "ag1"})
	}))
	defer srv.Close()

	steps := []OnboardingStep{
		{ID: "s2", Title: "Second"},
		{ID: "s1", Title: "First"},
	}
	client := New(srv.URL, WithLogger(testLogger()))
	require.NoError(t, client.SaveSteps(context.Background(), "ag1", steps))

	// Ordering persists through a full agent update, not a steps route
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/agents/ag1", gotPath)

	rawSteps, ok := gotBody["steps"].([]any)
	require.True(t, ok, "body must carry the steps list")
	require.Len(t, rawSteps, 2)
	first := rawSteps[0].(map[string]any)
	assert.Equal(t, "s2", first["_id"])
	// Only steps travel in the payload
	assert.NotContains(t, gotBody, "name")
	assert.NotContains(t, gotBody, "emails")
}

func TestUpdateAgent_DuplicateEmailRejected(t *testing.T) {
	client := New("http://unused.invalid", WithLogger(testLogger()))
	emails := []string{"a@x.com", "a@x.com"}
	_, err := client.UpdateAgent(context.Background(), "ag1", AgentUpdate{Emails: &emails})
	assert.EqualError(t, err, "duplicate email: a@x.com")
}
