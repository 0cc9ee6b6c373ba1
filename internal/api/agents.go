// ABOUTME: Agent endpoints for the onboarding backend
// ABOUTME: CRUD over onboarding workflows including full step-list replacement

package api

import (
	"context"
	"net/http"
)

// ListAgents returns all onboarding agents.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := c.do(ctx, http.MethodGet, "/agents/", nil, &agents, "failed to fetch agents"); err != nil {
		return nil, err
	}
	return agents, nil
}

// GetAgent fetches one agent by ID.
func (c *Client) GetAgent(ctx context.Context, id string) (*Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodGet, "/agents/"+id, nil, &agent, "failed to fetch agent"); err != nil {
		return nil, err
	}
	return &agent, nil
}

// CreateAgent creates an agent after validating client-side invariants.
func (c *Client) CreateAgent(ctx context.Context, a AgentCreate) (*Agent, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	var agent Agent
	if err := c.do(ctx, http.MethodPost, "/agents/", a, &agent, "failed to create agent"); err != nil {
		return nil, err
	}
	return &agent, nil
}

// UpdateAgent applies a partial update to the agent with the given ID.
func (c *Client) UpdateAgent(ctx context.Context, id string, a AgentUpdate) (*Agent, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	var agent Agent
	if err := c.do(ctx, http.MethodPut, "/agents/"+id, a, &agent, "failed to update agent"); err != nil {
		return nil, err
	}
	return &agent, nil
}

// SaveSteps replaces the agent's full step list, preserving order.
// Step reordering persists through here rather than a separate
// steps endpoint; the step list is owned by the agent record.
func (c *Client) SaveSteps(ctx context.Context, agentID string, steps []OnboardingStep) error {
	_, err := c.UpdateAgent(ctx, agentID, AgentUpdate{Steps: &steps})
	return err
}

// DeleteAgent removes the agent with the given ID.
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/agents/"+id, nil, nil, "failed to delete agent")
}
