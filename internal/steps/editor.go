// ABOUTME: Ordered step list editor with optimistic local mutation
// ABOUTME: Reorder, delete-with-confirmation and best-effort remote sync

package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rampkit/ramp/internal/api"
)

// Editor errors.
var (
	ErrIndexOutOfRange = errors.New("step index out of range")
	ErrNoPendingDelete = errors.New("no deletion pending")
	ErrBadOrder        = errors.New("order is not a permutation of current steps")
)

// Syncer persists editor changes to the backend.
type Syncer interface {
	SaveSteps(ctx context.Context, agentID string, steps []api.OnboardingStep) error
	DeleteRecording(ctx context.Context, ref string) error
}

// NotifyFunc surfaces a failure to the user. Local state is already
// applied when it fires; there is no rollback path.
type NotifyFunc func(title, detail string)

// Editor maintains the ordered step collection for one agent. All local
// mutations apply unconditionally; persistence runs in the background
// and failure only produces a notification, never a rollback. Local
// order is authoritative for the session (last write wins).
type Editor struct {
	mu            sync.Mutex
	agentID       string
	steps         []api.OnboardingStep
	pendingDelete int

	syncer Syncer
	notify NotifyFunc
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewEditor creates an editor. notify may be nil.
func NewEditor(syncer Syncer, notify NotifyFunc, logger *slog.Logger) *Editor {
	if notify == nil {
		notify = func(string, string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		pendingDelete: -1,
		syncer:        syncer,
		notify:        notify,
		logger:        logger.With("component", "steps"),
	}
}

// Load replaces the working copy with the agent's persisted steps.
// agentID may be empty for a not-yet-created agent; persistence is
// skipped until an ID is known.
func (e *Editor) Load(agentID string, steps []api.OnboardingStep) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.agentID = agentID
	e.steps = append([]api.OnboardingStep(nil), steps...)
	e.pendingDelete = -1
}

// SetAgentID records the persisted agent identity once the backend has
// assigned one (agent creation path).
func (e *Editor) SetAgentID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.agentID = id
}

// Steps returns a copy of the current ordered list.
func (e *Editor) Steps() []api.OnboardingStep {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]api.OnboardingStep(nil), e.steps...)
}

// Len returns the number of steps.
func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.steps)
}

// Add appends a new step with a durable locally-generated ID. The ID is
// reconciled with the server-issued one on the next load.
func (e *Editor) Add(ctx context.Context, title, description string) api.OnboardingStep {
	step := api.OnboardingStep{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
	}
	e.mu.Lock()
	e.steps = append(e.steps, step)
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snapshot, "Step not saved")
	return step
}

// Append merges extracted steps after all existing steps, preserving
// their relative order. Steps without IDs get local ones.
func (e *Editor) Append(ctx context.Context, steps ...api.OnboardingStep) {
	if len(steps) == 0 {
		return
	}
	e.mu.Lock()
	for _, s := range steps {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		e.steps = append(e.steps, s)
	}
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snapshot, "Steps not saved")
}

// Reorder replaces the local order with the given permutation of
// current indices. The local change always applies; if a persisted
// agent ID is known the new order is pushed to the backend, and a
// persistence failure is reported without rolling back.
func (e *Editor) Reorder(ctx context.Context, order []int) error {
	e.mu.Lock()
	if len(order) != len(e.steps) {
		e.mu.Unlock()
		return ErrBadOrder
	}
	seen := make([]bool, len(order))
	for _, idx := range order {
		if idx < 0 || idx >= len(order) || seen[idx] {
			e.mu.Unlock()
			return ErrBadOrder
		}
		seen[idx] = true
	}
	reordered := make([]api.OnboardingStep, len(order))
	for pos, idx := range order {
		reordered[pos] = e.steps[idx]
	}
	e.steps = reordered
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persist(ctx, snapshot, "Order not saved")
	return nil
}

// RequestDelete opens the two-step confirmation gate for the step at
// index. A second request replaces any earlier pending one.
func (e *Editor) RequestDelete(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.steps) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	e.pendingDelete = index
	return nil
}

// PendingDelete returns the index awaiting confirmation, or -1.
func (e *Editor) PendingDelete() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingDelete
}

// CancelDelete abandons a pending deletion.
func (e *Editor) CancelDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingDelete = -1
}

// ConfirmDelete executes the pending deletion. The step is removed from
// local state immediately; if it carries a recording reference, a
// best-effort remote delete of that resource follows. Remote failure
// leaves the step deleted and surfaces a notification.
func (e *Editor) ConfirmDelete(ctx context.Context) error {
	e.mu.Lock()
	index := e.pendingDelete
	e.mu.Unlock()
	if index < 0 {
		return ErrNoPendingDelete
	}
	return e.Delete(ctx, index)
}

// Delete removes the step at index, bypassing the confirmation gate.
func (e *Editor) Delete(ctx context.Context, index int) error {
	e.mu.Lock()
	if index < 0 || index >= len(e.steps) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	removed := e.steps[index]
	e.steps = append(e.steps[:index:index], e.steps[index+1:]...)
	e.pendingDelete = -1
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if removed.RecordingURL != "" {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.syncer.DeleteRecording(ctx, removed.RecordingURL); err != nil {
				e.logger.Warn("recording delete failed", "ref", removed.RecordingURL, "error", err)
				e.notify("Recording not removed", err.Error())
			}
		}()
	}

	e.persist(ctx, snapshot, "Step removal not saved")
	return nil
}

// snapshotLocked copies the current list; callers hold e.mu.
func (e *Editor) snapshotLocked() []api.OnboardingStep {
	return append([]api.OnboardingStep(nil), e.steps...)
}

// persist pushes a snapshot to the backend in the background. No-op
// without a persisted agent ID. Failure notifies, never rolls back.
func (e *Editor) persist(ctx context.Context, snapshot []api.OnboardingStep, title string) {
	e.mu.Lock()
	agentID := e.agentID
	e.mu.Unlock()
	if agentID == "" {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.syncer.SaveSteps(ctx, agentID, snapshot); err != nil {
			e.logger.Warn("step sync failed", "agent_id", agentID, "error", err)
			e.notify(title, err.Error())
		}
	}()
}

// Wait blocks until all background persistence has settled.
func (e *Editor) Wait() {
	e.wg.Wait()
}
