// ABOUTME: Rule-based onboarding assistant over an agent's step workflow
// ABOUTME: Keyword responder, step navigation and locally persisted progress

package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rampkit/ramp/internal/api"
	"github.com/rampkit/ramp/internal/state"
)

// Assistant guides one employee through one agent's workflow. Progress
// and transcript persist through the state store so a reopened
// assistant resumes where the employee left off.
type Assistant struct {
	agent  *api.Agent
	store  state.Store
	logger *slog.Logger

	mu sync.Mutex
	st *state.SessionState
}

// New opens an assistant for the agent, restoring saved progress or
// starting fresh with a welcome message.
func New(ctx context.Context, agent *api.Agent, store state.Store, logger *slog.Logger) (*Assistant, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assistant{
		agent:  agent,
		store:  store,
		logger: logger.With("component", "assist", "agent_id", agent.ID),
	}

	st, err := store.Load(ctx, agent.ID)
	switch {
	case err == nil:
		a.st = st
	case errors.Is(err, state.ErrNotFound):
		a.st = &state.SessionState{AgentID: agent.ID}
		a.appendAssistant(a.welcome())
		if err := a.save(ctx); err != nil {
			a.logger.Warn("initial session not persisted", "error", err)
		}
	default:
		return nil, err
	}
	return a, nil
}

// welcome is the first transcript line for a fresh session.
func (a *Assistant) welcome() string {
	first := "your onboarding"
	if len(a.agent.Steps) > 0 {
		first = a.agent.Steps[0].Title
	}
	return fmt.Sprintf("Hi there! I'm your onboarding assistant. I'll guide you through the %s onboarding process. Let's start with: %s",
		a.agent.Role, first)
}

// Agent returns the agent this assistant walks through.
func (a *Assistant) Agent() *api.Agent {
	return a.agent
}

// Messages returns a copy of the transcript.
func (a *Assistant) Messages() []state.AssistantMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]state.AssistantMessage(nil), a.st.Messages...)
}

// CurrentStep returns the active step and its index; ok is false when
// the agent has no steps.
func (a *Assistant) CurrentStep() (step api.OnboardingStep, index int, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.agent.Steps) == 0 {
		return api.OnboardingStep{}, 0, false
	}
	i := a.st.CurrentStepIndex
	if i >= len(a.agent.Steps) {
		i = len(a.agent.Steps) - 1
	}
	return a.agent.Steps[i], i, true
}

// Progress returns the completed fraction of the workflow, 0..1.
func (a *Assistant) Progress() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.agent.Steps) == 0 {
		return 0
	}
	return float64(len(a.st.CompletedSteps)) / float64(len(a.agent.Steps))
}

// Respond handles one user message: both sides are appended to the
// transcript and the session is saved. A completion-style reply also
// marks the current step done and advances.
func (a *Assistant) Respond(ctx context.Context, message string) (state.AssistantMessage, error) {
	step, index, ok := a.CurrentStep()
	if !ok {
		return state.AssistantMessage{}, errors.New("agent has no steps")
	}

	a.mu.Lock()
	a.st.Messages = append(a.st.Messages, state.AssistantMessage{
		Role:      state.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	})
	a.mu.Unlock()

	reply, advance := respond(message, step, index)
	msg := a.appendAssistant(reply)

	if advance {
		if transition := a.advance(); transition != "" {
			a.appendAssistant(transition)
		}
	}

	if err := a.save(ctx); err != nil {
		a.logger.Warn("session not persisted", "error", err)
	}
	return msg, nil
}

// respond maps a user query onto a canned reply. advance reports that
// the employee indicated the current step is finished.
func respond(message string, step api.OnboardingStep, index int) (reply string, advance bool) {
	query := strings.ToLower(message)
	switch {
	case strings.Contains(query, "next step") || strings.Contains(query, "what now"):
		return fmt.Sprintf("For the current step %q, you should %s. Let me know when you're ready to move on.",
			step.Title, step.Description), false
	case strings.Contains(query, "help") || strings.Contains(query, "confused"):
		return fmt.Sprintf("I see you need some help with %q. This step involves %s. Try looking for the relevant section in your interface.",
			step.Title, step.Description), false
	case strings.Contains(query, "complete") || strings.Contains(query, "done"):
		return "Great job! Let's mark this step as complete and move on to the next one.", true
	case strings.Contains(query, "hi") || strings.Contains(query, "hello") || strings.Contains(query, "hey"):
		return fmt.Sprintf("Hello! I'm your onboarding assistant. Currently, we're working on step %d: %s. How can I help you?",
			index+1, step.Title), false
	case strings.Contains(query, "thank"):
		return "You're welcome! I'm here to help. Let me know if you need anything else.", false
	default:
		return fmt.Sprintf("I understand you're asking about %q. Based on the current step, you should focus on %s.",
			message, step.Description), false
	}
}

// Next marks the current step completed and moves forward, returning
// the transition message added to the transcript.
func (a *Assistant) Next(ctx context.Context) (string, error) {
	transition := a.advance()
	if transition == "" {
		return "", errors.New("agent has no steps")
	}
	a.appendAssistant(transition)
	if err := a.save(ctx); err != nil {
		a.logger.Warn("session not persisted", "error", err)
	}
	return transition, nil
}

// Previous moves back one step, returning the transition message.
func (a *Assistant) Previous(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.st.CurrentStepIndex == 0 {
		a.mu.Unlock()
		return "", errors.New("already at the first step")
	}
	a.st.CurrentStepIndex--
	prev := a.agent.Steps[a.st.CurrentStepIndex]
	a.mu.Unlock()

	transition := fmt.Sprintf("Let's go back to: %s", prev.Title)
	a.appendAssistant(transition)
	if err := a.save(ctx); err != nil {
		a.logger.Warn("session not persisted", "error", err)
	}
	return transition, nil
}

// Reset discards all saved progress for this agent.
func (a *Assistant) Reset(ctx context.Context) error {
	a.mu.Lock()
	a.st = &state.SessionState{AgentID: a.agent.ID}
	a.mu.Unlock()
	return a.store.Clear(ctx, a.agent.ID)
}

// advance marks the current step completed and steps forward. The
// returned transition message is empty only when there are no steps.
// Completing the final step yields a congratulation instead of moving.
func (a *Assistant) advance() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.agent.Steps) == 0 {
		return ""
	}

	current := a.agent.Steps[a.st.CurrentStepIndex]
	if current.ID != "" && !contains(a.st.CompletedSteps, current.ID) {
		a.st.CompletedSteps = append(a.st.CompletedSteps, current.ID)
	}

	if a.st.CurrentStepIndex < len(a.agent.Steps)-1 {
		a.st.CurrentStepIndex++
		return fmt.Sprintf("Great! Let's move on to the next step: %s", a.agent.Steps[a.st.CurrentStepIndex].Title)
	}
	return "Congratulations! You've completed all the onboarding steps. Is there anything else you'd like help with?"
}

// appendAssistant adds an assistant line to the transcript.
func (a *Assistant) appendAssistant(content string) state.AssistantMessage {
	msg := state.AssistantMessage{
		Role:      state.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
	a.mu.Lock()
	a.st.Messages = append(a.st.Messages, msg)
	a.mu.Unlock()
	return msg
}

// save persists the current session state.
func (a *Assistant) save(ctx context.Context) error {
	a.mu.Lock()
	snapshot := *a.st
	snapshot.CompletedSteps = append([]string(nil), a.st.CompletedSteps...)
	snapshot.Messages = append([]state.AssistantMessage(nil), a.st.Messages...)
	a.mu.Unlock()
	return a.store.Save(ctx, &snapshot)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
