// ABOUTME: Extraction poller for asynchronous AI step derivation
// ABOUTME: Polls recording metadata on a fixed interval until a terminal state

package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rampkit/ramp/internal/api"
)

// defaultInterval is how often the metadata endpoint is queried.
const defaultInterval = 3 * time.Second

// ErrProcessing is returned when the extraction pipeline reports a
// terminal processing error for a recording. The pass yields no steps;
// the user must re-record.
var ErrProcessing = errors.New("extraction failed")

// MetadataFetcher fetches extraction status for an uploaded recording.
type MetadataFetcher interface {
	RecordingMetadata(ctx context.Context, fileID string) (*api.RecordingMetadata, error)
}

// Poller discovers when the external AI pipeline has finished deriving
// structured steps from an uploaded recording.
type Poller struct {
	fetch    MetadataFetcher
	interval time.Duration
	maxWait  time.Duration // zero means no ceiling
	logger   *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithMaxWait bounds the total poll duration. Zero keeps the default of
// polling until a terminal state or cancellation.
func WithMaxWait(d time.Duration) Option {
	return func(p *Poller) { p.maxWait = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// New creates a poller over the given metadata source.
func New(fetch MetadataFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetch:    fetch,
		interval: defaultInterval,
		logger:   slog.Default().With("component", "extract"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch is a running poll loop for one recording. Stop is safe to call
// any number of times; the underlying ticker is torn down exactly once.
type Watch struct {
	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}

	mu    sync.Mutex
	steps []api.OnboardingStep
	err   error
}

// Stop tears the poll loop down. Idempotent.
func (w *Watch) Stop() {
	w.stopOnce.Do(w.cancel)
}

// Done is closed when the loop has reached a terminal state or was stopped.
func (w *Watch) Done() <-chan struct{} {
	return w.done
}

// Result returns the extracted steps or the terminal error. Valid after
// Done is closed.
func (w *Watch) Result() ([]api.OnboardingStep, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps, w.err
}

// Start begins polling for fileID in the background and returns a
// cancellable handle.
func (p *Poller) Start(ctx context.Context, fileID string) *Watch {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watch{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		defer w.Stop()
		steps, err := p.Await(ctx, fileID)
		w.mu.Lock()
		w.steps, w.err = steps, err
		w.mu.Unlock()
	}()

	return w
}

// Await polls until the pipeline reports extracted steps or a
// processing error, returning the steps in extraction order. Transient
// transport failures are logged and polling continues; only the two
// terminal conditions (or cancellation) end the loop.
func (p *Poller) Await(ctx context.Context, fileID string) ([]api.OnboardingStep, error) {
	if p.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.maxWait)
		defer cancel()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for extraction of %s: %w", fileID, ctx.Err())
		case <-ticker.C:
			meta, err := p.fetch.RecordingMetadata(ctx, fileID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("waiting for extraction of %s: %w", fileID, ctx.Err())
				}
				p.logger.Warn("metadata poll failed, retrying", "file_id", fileID, "error", err)
				continue
			}
			if meta.ProcessingError != "" {
				return nil, fmt.Errorf("%w: %s", ErrProcessing, meta.ProcessingError)
			}
			if len(meta.ExtractedSteps) > 0 {
				return meta.ExtractedSteps, nil
			}
			// Neither field present: pipeline still working.
		}
	}
}
