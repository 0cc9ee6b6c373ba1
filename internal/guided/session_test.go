// ABOUTME: Tests for the capture-upload-extract session lifecycle
// ABOUTME: Drives an end-to-end cycle with fake recorder, uploader and extractor

package guided

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampkit/ramp/internal/api"
	"github.com/rampkit/ramp/internal/capture"
)

// fakeRecorder writes a blob file on Stop.
type fakeRecorder struct {
	dir      string
	startErr error
	stopErr  error
	done     chan struct{}
	warnings []string
	started  bool
	stopped  bool
}

func newFakeRecorder(t *testing.T) *fakeRecorder {
	t.Helper()
	return &fakeRecorder{dir: t.TempDir(), done: make(chan struct{})}
}

func (f *fakeRecorder) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeRecorder) Stop() (*capture.Recording, error) {
	f.stopped = true
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	path := filepath.Join(f.dir, "capture.webm")
	if err := os.WriteFile(path, []byte("webm-bytes"), 0o644); err != nil {
		return nil, err
	}
	return &capture.Recording{Path: path, Size: 10, Duration: 3 * time.Second}, nil
}

func (f *fakeRecorder) Done() <-chan struct{} { return f.done }

func (f *fakeRecorder) Warnings() []string { return f.warnings }

// fakeUploader captures the uploaded blob.
type fakeUploader struct {
	gotBlob   []byte
	gotIndex  int
	uploadErr error
	result    *api.UploadResult
}

func (f *fakeUploader) UploadRecording(ctx context.Context, blob io.Reader, stepIndex int) (*api.UploadResult, error) {
	data, err := io.ReadAll(blob)
	if err != nil {
		return nil, err
	}
	f.gotBlob = data
	f.gotIndex = stepIndex
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.result, nil
}

// fakeExtractor returns canned steps.
type fakeExtractor struct {
	gotFileID string
	steps     []api.OnboardingStep
	err       error
}

func (f *fakeExtractor) Await(ctx context.Context, fileID string) ([]api.OnboardingStep, error) {
	f.gotFileID = fileID
	return f.steps, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSession_FullCycle(t *testing.T) {
	rec := newFakeRecorder(t)
	up := &fakeUploader{result: &api.UploadResult{FileID: "f1", URL: "http://x/recordings/f1"}}
	ex := &fakeExtractor{steps: []api.OnboardingStep{
		{Title: "Open settings"},
		{Title: "Enable SSO", RecordingURL: "http://x/recordings/other"},
	}}

	s := NewSession(rec, up, ex, testLogger())
	assert.Equal(t, PhaseIdle, s.Phase())

	require.NoError(t, s.Record(context.Background()))
	assert.Equal(t, PhaseRecording, s.Phase())
	assert.True(t, rec.started)

	steps, err := s.Finish(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, s.Phase())

	// Upload saw the blob and the target index
	assert.Equal(t, "webm-bytes", string(up.gotBlob))
	assert.Equal(t, 2, up.gotIndex)

	// Extraction polled the uploaded file
	assert.Equal(t, "f1", ex.gotFileID)

	// Untagged steps get the upload URL; pre-tagged ones are left alone
	require.Len(t, steps, 2)
	assert.Equal(t, "http://x/recordings/f1", steps[0].RecordingURL)
	assert.Equal(t, "http://x/recordings/other", steps[1].RecordingURL)

	// Blob removed once the upload landed
	_, statErr := os.Stat(filepath.Join(rec.dir, "capture.webm"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSession_UploadFailureKeepsBlob(t *testing.T) {
	rec := newFakeRecorder(t)
	up := &fakeUploader{uploadErr: errors.New("413 too large")}
	ex := &fakeExtractor{}

	s := NewSession(rec, up, ex, testLogger())
	require.NoError(t, s.Record(context.Background()))

	_, err := s.Finish(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, PhaseIdle, s.Phase())

	// The captured file survives for a manual retry
	_, statErr := os.Stat(filepath.Join(rec.dir, "capture.webm"))
	assert.NoError(t, statErr)
}

func TestSession_CancelOnlyWhileIdle(t *testing.T) {
	rec := newFakeRecorder(t)
	s := NewSession(rec, &fakeUploader{}, &fakeExtractor{}, testLogger())

	// Idle cancel: empty list, no capture or network activity
	steps, err := s.Cancel()
	require.NoError(t, err)
	assert.NotNil(t, steps)
	assert.Empty(t, steps)
	assert.False(t, rec.started)

	// Mid-recording cancel is rejected
	require.NoError(t, s.Record(context.Background()))
	_, err = s.Cancel()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSession_RecordTwiceRejected(t *testing.T) {
	rec := newFakeRecorder(t)
	s := NewSession(rec, &fakeUploader{}, &fakeExtractor{}, testLogger())

	require.NoError(t, s.Record(context.Background()))
	assert.ErrorIs(t, s.Record(context.Background()), ErrBusy)
}

func TestSession_StartFailureStaysIdle(t *testing.T) {
	rec := newFakeRecorder(t)
	rec.startErr = errors.New("display unavailable")
	s := NewSession(rec, &fakeUploader{}, &fakeExtractor{}, testLogger())

	require.Error(t, s.Record(context.Background()))
	assert.Equal(t, PhaseIdle, s.Phase())

	// Still cancellable, still idle
	_, err := s.Cancel()
	assert.NoError(t, err)
}

func TestSession_FinishWithoutRecording(t *testing.T) {
	s := NewSession(newFakeRecorder(t), &fakeUploader{}, &fakeExtractor{}, testLogger())
	_, err := s.Finish(context.Background(), 0)
	assert.Error(t, err)
}

func TestSession_ExtractionErrorPropagates(t *testing.T) {
	rec := newFakeRecorder(t)
	up := &fakeUploader{result: &api.UploadResult{FileID: "f1", URL: "u"}}
	ex := &fakeExtractor{err: errors.New("extraction failed: no audio")}

	s := NewSession(rec, up, ex, testLogger())
	require.NoError(t, s.Record(context.Background()))

	_, err := s.Finish(context.Background(), 0)
	require.ErrorContains(t, err, "no audio")
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "recording", PhaseRecording.String())
	assert.Equal(t, "uploading", PhaseUploading.String())
	assert.Equal(t, "extracting", PhaseExtracting.String())
}
