// ABOUTME: Guided recording capture workflow: capture, upload, extract, merge
// ABOUTME: Drives one recording pass from both agent creation and editing

package guided

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/rampkit/ramp/internal/api"
	"github.com/rampkit/ramp/internal/capture"
)

// Phase identifies where a capture session currently is. Cancel is only
// legal while idle; the other phases hold live hardware or an in-flight
// request that must not be abandoned silently.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseUploading
	PhaseExtracting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseUploading:
		return "uploading"
	case PhaseExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when cancel is attempted mid-capture or mid-flight.
var ErrBusy = errors.New("capture session is busy")

// Recorder is the capture controller contract the session drives.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (*capture.Recording, error)
	Done() <-chan struct{}
	Warnings() []string
}

// Uploader transfers a captured blob and returns a durable reference.
type Uploader interface {
	UploadRecording(ctx context.Context, blob io.Reader, stepIndex int) (*api.UploadResult, error)
}

// Extractor waits for the AI pipeline to derive steps from an upload.
type Extractor interface {
	Await(ctx context.Context, fileID string) ([]api.OnboardingStep, error)
}

// Session runs one capture-upload-extract cycle. It is ephemeral: its
// state is discarded once the extracted steps are merged or the user
// cancels. The same session shape serves agent creation and editing;
// the only difference at the call sites is whether a persisted agent ID
// exists yet.
type Session struct {
	rec    Recorder
	up     Uploader
	ex     Extractor
	logger *slog.Logger

	mu     sync.Mutex
	phase  Phase
	fileID string
}

// NewSession creates an idle capture session.
func NewSession(rec Recorder, up Uploader, ex Extractor, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		rec:    rec,
		up:     up,
		ex:     ex,
		logger: logger.With("component", "guided"),
	}
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Record starts the capture. Screen acquisition failure aborts the
// attempt and leaves the session idle.
func (s *Session) Record(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBusy, s.phase)
	}
	s.phase = PhaseRecording
	s.mu.Unlock()

	if err := s.rec.Start(ctx); err != nil {
		s.setPhase(PhaseIdle)
		return err
	}
	return nil
}

// Stopped reports external capture termination (the user revoked screen
// sharing outside the app); treated identically to an explicit stop.
func (s *Session) Stopped() <-chan struct{} {
	return s.rec.Done()
}

// Warnings surfaces non-fatal capture degradations for display.
func (s *Session) Warnings() []string {
	return s.rec.Warnings()
}

// Finish stops the recording, uploads the blob and waits for extracted
// steps, each tagged with a reference back to the source recording.
// stepIndex is the list position the extracted steps will be appended
// at. Within one session upload always precedes polling, and polling
// terminates before the steps are returned for merging.
func (s *Session) Finish(ctx context.Context, stepIndex int) ([]api.OnboardingStep, error) {
	s.mu.Lock()
	if s.phase != PhaseRecording {
		s.mu.Unlock()
		return nil, fmt.Errorf("not recording: %s", s.phase)
	}
	s.phase = PhaseUploading
	s.mu.Unlock()

	rec, err := s.rec.Stop()
	if err != nil {
		s.setPhase(PhaseIdle)
		return nil, fmt.Errorf("stopping capture: %w", err)
	}
	blob, err := os.Open(rec.Path)
	if err != nil {
		s.setPhase(PhaseIdle)
		return nil, fmt.Errorf("opening recording: %w", err)
	}

	result, err := s.up.UploadRecording(ctx, blob, stepIndex)
	blob.Close()
	if err != nil {
		s.setPhase(PhaseIdle)
		// The blob stays on disk so the user can retry the upload.
		return nil, err
	}
	os.Remove(rec.Path)

	s.mu.Lock()
	s.fileID = result.FileID
	s.phase = PhaseExtracting
	s.mu.Unlock()

	s.logger.Info("recording uploaded", "file_id", result.FileID, "duration", rec.Duration)

	extracted, err := s.ex.Await(ctx, result.FileID)
	s.setPhase(PhaseIdle)
	if err != nil {
		return nil, err
	}

	// Tag each step with its source recording before the merge.
	for i := range extracted {
		if extracted[i].RecordingURL == "" {
			extracted[i].RecordingURL = result.URL
		}
	}
	return extracted, nil
}

// Cancel abandons the session. Only legal while idle: no recording, no
// upload and no poll in flight. Completes with an empty step list and
// performs no network calls.
func (s *Session) Cancel() ([]api.OnboardingStep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseIdle {
		return nil, fmt.Errorf("%w: %s", ErrBusy, s.phase)
	}
	return []api.OnboardingStep{}, nil
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}
