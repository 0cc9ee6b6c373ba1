// ABOUTME: Store interface and types for per-agent assistant session state
// ABOUTME: The local-storage analog: progress and transcript keyed by agent ID

package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no session exists for an agent.
var ErrNotFound = errors.New("not found")

// Message roles in the assistant transcript.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// AssistantMessage is one line of the assistant transcript.
type AssistantMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionState is an employee's progress through one agent's workflow.
// It is cached locally under the agent identifier and restored when the
// assistant reopens.
type SessionState struct {
	AgentID          string
	CurrentStepIndex int
	CompletedSteps   []string
	Messages         []AssistantMessage
	UpdatedAt        time.Time
}

// Store persists assistant session state per agent.
type Store interface {
	Save(ctx context.Context, s *SessionState) error
	Load(ctx context.Context, agentID string) (*SessionState, error)
	Clear(ctx context.Context, agentID string) error
	Close() error
}
