// ABOUTME: Screen and microphone capture driving an ffmpeg subprocess
// ABOUTME: Produces a single video blob from 1-second segments with an elapsed ticker

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Recorder state errors.
var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrNoSegments       = errors.New("no segments captured")
)

// Recording is the finished capture artifact: one blob on disk.
type Recording struct {
	Path     string
	Size     int64
	Duration time.Duration
}

// Config holds capture device configuration.
type Config struct {
	FFmpegPath   string // defaults to "ffmpeg" on PATH
	Display      string // X display to grab, e.g. ":0.0"
	DisplayAudio string // pulse source for system/display audio
	Microphone   string // optional pulse source for narration; empty disables
	FrameRate    int
	SegmentSecs  int    // output segment length; bounds memory/loss window
	OutDir       string // where the assembled blob lands
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.Display == "" {
		c.Display = ":0.0"
	}
	if c.DisplayAudio == "" {
		c.DisplayAudio = "default"
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 25
	}
	if c.SegmentSecs <= 0 {
		c.SegmentSecs = 1
	}
	if c.OutDir == "" {
		c.OutDir = os.TempDir()
	}
	return c
}

// ScreenRecorder captures the screen (with cursor) plus available audio
// into fixed-time segments, assembled into one blob on stop. Microphone
// acquisition is best-effort: a failed probe degrades the recording to
// display audio only and records a warning instead of aborting.
type ScreenRecorder struct {
	cfg    Config
	logger *slog.Logger
	onTick func(seconds int)

	mu        sync.Mutex
	recording bool
	cmd       *exec.Cmd
	segDir    string
	warnings  []string

	elapsed  atomic.Int64
	done     chan struct{}
	tickStop chan struct{}
}

// NewScreenRecorder creates a recorder. onTick may be nil; when set it
// fires once per second of wall-clock recording time.
func NewScreenRecorder(cfg Config, logger *slog.Logger, onTick func(seconds int)) *ScreenRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenRecorder{
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "capture"),
		onTick: onTick,
	}
}

// Start acquires the screen stream and begins recording. Screen
// acquisition failure is fatal to the attempt; microphone failure is
// not. The elapsed ticker runs until Stop or external termination.
func (r *ScreenRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}

	withMic := false
	if r.cfg.Microphone != "" {
		if err := r.probeMicrophone(ctx); err != nil {
			r.warnings = append(r.warnings,
				fmt.Sprintf("microphone %q unavailable, continuing with display audio: %v", r.cfg.Microphone, err))
			r.logger.Warn("microphone probe failed", "source", r.cfg.Microphone, "error", err)
		} else {
			withMic = true
		}
	}

	segDir, err := os.MkdirTemp("", "ramp-capture-*")
	if err != nil {
		return fmt.Errorf("creating segment dir: %w", err)
	}

	args := captureArgs(r.cfg, withMic, filepath.Join(segDir, "seg-%05d.webm"))
	cmd := exec.CommandContext(ctx, r.cfg.FFmpegPath, args...)
	cmd.Cancel = func() error {
		// Let ffmpeg finalize the current segment instead of dying mid-write.
		return cmd.Process.Signal(syscall.SIGINT)
	}
	if err := cmd.Start(); err != nil {
		os.RemoveAll(segDir)
		return fmt.Errorf("starting screen capture: %w", err)
	}

	r.cmd = cmd
	r.segDir = segDir
	r.recording = true
	r.elapsed.Store(0)
	r.done = make(chan struct{})
	r.tickStop = make(chan struct{})

	// Reap the process; exit before Stop (user revoked sharing, ffmpeg
	// killed) closes done and is treated like an explicit stop.
	go func(cmd *exec.Cmd, done chan struct{}) {
		cmd.Wait()
		close(done)
	}(cmd, r.done)

	go r.tickLoop(r.done, r.tickStop)

	r.logger.Info("recording started", "display", r.cfg.Display, "mic", withMic)
	return nil
}

// tickLoop updates elapsed seconds once per second until stopped.
func (r *ScreenRecorder) tickLoop(done, stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-done:
			return
		case <-ticker.C:
			secs := r.elapsed.Add(1)
			if r.onTick != nil {
				r.onTick(int(secs))
			}
		}
	}
}

// Elapsed returns the wall-clock recording time so far.
func (r *ScreenRecorder) Elapsed() time.Duration {
	return time.Duration(r.elapsed.Load()) * time.Second
}

// Done is closed when the capture process has exited, whether via Stop
// or because the user revoked sharing from outside.
func (r *ScreenRecorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Warnings returns non-fatal degradations recorded so far.
func (r *ScreenRecorder) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// Stop finalizes the recorder, releases the capture hardware and
// assembles all collected segments into one blob.
func (r *ScreenRecorder) Stop() (*Recording, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.recording = false
	cmd := r.cmd
	segDir := r.segDir
	done := r.done
	close(r.tickStop)
	r.mu.Unlock()

	// Ask ffmpeg to finalize unless it already exited on its own.
	select {
	case <-done:
	default:
		if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
			r.logger.Warn("signaling capture process", "error", err)
		}
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			cmd.Process.Kill()
			<-done
		}
	}

	defer os.RemoveAll(segDir)
	rec, err := r.assemble(segDir)
	if err != nil {
		return nil, err
	}
	rec.Duration = r.Elapsed()
	r.logger.Info("recording stopped", "path", rec.Path, "size", rec.Size, "duration", rec.Duration)
	return rec, nil
}

// assemble concatenates the captured segments into a single file in OutDir.
func (r *ScreenRecorder) assemble(segDir string) (*Recording, error) {
	segments, err := listSegments(segDir)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	listPath := filepath.Join(segDir, "segments.txt")
	var list strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&list, "file '%s'\n", seg)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0644); err != nil {
		return nil, fmt.Errorf("writing segment list: %w", err)
	}

	outPath := filepath.Join(r.cfg.OutDir, fmt.Sprintf("recording-%d.webm", time.Now().Unix()))
	cmd := exec.Command(r.cfg.FFmpegPath, assembleArgs(listPath, outPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("assembling recording: %w: %s", err, lastLine(out))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("inspecting recording: %w", err)
	}
	return &Recording{Path: outPath, Size: info.Size()}, nil
}

// probeMicrophone verifies the configured source accepts capture.
func (r *ScreenRecorder) probeMicrophone(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, r.cfg.FFmpegPath, probeArgs(r.cfg.Microphone)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%v: %s", err, lastLine(out))
	}
	return nil
}

// listSegments returns segment files in capture order.
func listSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading segment dir: %w", err)
	}
	var segments []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "seg-") && strings.HasSuffix(e.Name(), ".webm") {
			segments = append(segments, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(segments)
	return segments, nil
}

// lastLine extracts the final non-empty line of process output, which
// is where ffmpeg puts its actual error.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
