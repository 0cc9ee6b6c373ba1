// ABOUTME: Wire types for the onboarding backend REST API
// ABOUTME: Defines User, Agent, OnboardingStep and their create/update payloads

package api

import "fmt"

// User is an account record as returned by the backend.
type User struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserCreate is the payload for POST /users.
// Password may be omitted; the backend assigns a default in that case.
type UserCreate struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

// UserUpdate is the payload for PUT /users/{id}. Nil fields are left unchanged.
type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}

// OnboardingStep is one unit of an onboarding workflow. Ordering is
// significant: the position in Agent.Steps defines the step's rank.
type OnboardingStep struct {
	ID           string `json:"_id,omitempty"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	RecordingURL string `json:"recordingUrl,omitempty"`
}

// Agent is a named onboarding workflow with authorized viewer emails
// and an ordered list of steps. Owned by the backend; clients hold a
// working copy during edit sessions.
type Agent struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Role        string           `json:"role"`
	Description string           `json:"description,omitempty"`
	Emails      []string         `json:"emails"`
	Steps       []OnboardingStep `json:"steps"`
}

// AgentCreate is the payload for POST /agents/.
type AgentCreate struct {
	Name        string           `json:"name"`
	Role        string           `json:"role"`
	Description string           `json:"description,omitempty"`
	Emails      []string         `json:"emails"`
	Steps       []OnboardingStep `json:"steps,omitempty"`
}

// AgentUpdate is the payload for PUT /agents/{id}. Nil fields are left unchanged.
type AgentUpdate struct {
	Name        *string           `json:"name,omitempty"`
	Role        *string           `json:"role,omitempty"`
	Description *string           `json:"description,omitempty"`
	Emails      *[]string         `json:"emails,omitempty"`
	Steps       *[]OnboardingStep `json:"steps,omitempty"`
}

// Validate checks client-side invariants before submission. Emails must
// be unique exactly as typed; no case normalization is performed.
func (a *AgentCreate) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if a.Role == "" {
		return fmt.Errorf("agent role is required")
	}
	return checkEmailsUnique(a.Emails)
}

// Validate checks the update payload's client-side invariants.
func (a *AgentUpdate) Validate() error {
	if a.Emails != nil {
		return checkEmailsUnique(*a.Emails)
	}
	return nil
}

func checkEmailsUnique(emails []string) error {
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if _, dup := seen[e]; dup {
			return fmt.Errorf("duplicate email: %s", e)
		}
		seen[e] = struct{}{}
	}
	return nil
}

// LoginResponse is the result of POST /auth/login. Token is a bearer
// token for subsequent requests; older backends omit it.
type LoginResponse struct {
	User
	Token string `json:"token,omitempty"`
}

// UploadResult identifies an uploaded recording.
type UploadResult struct {
	FileID string `json:"file_id"`
	URL    string `json:"url"`
}

// RecordingMetadata is the poll target for asynchronous step extraction.
// Exactly one of ExtractedSteps (non-empty) or ProcessingError marks a
// terminal state; both absent means the pipeline is still working.
type RecordingMetadata struct {
	ExtractedSteps  []OnboardingStep `json:"extracted_steps,omitempty"`
	ProcessingError string           `json:"processing_error,omitempty"`
}
