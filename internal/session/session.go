// ABOUTME: Scaling session owning both retiming pipelines
// ABOUTME: Validates configuration, supervises pipelines, reports completion once
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Retime-Project/retime-go/internal/progress"
	"github.com/Retime-Project/retime-go/pkg/media"
	"github.com/Retime-Project/retime-go/pkg/timescale"
)

// ErrInvalidConfiguration is returned by New for a non-positive target
// duration or frame rate. No pipeline starts.
var ErrInvalidConfiguration = errors.New("invalid session configuration")

// DefaultChunkFrames is the per-channel decode chunk length the audio
// pipeline assumes; the resampler's block size matches it so each block's
// lookahead is predictable.
const DefaultChunkFrames = 4096

// How many emitted frames between preview frames handed to OnProgress.
const previewInterval = 15

// Config describes one retiming request. Either track may be absent
// (nil decoder or encoder); the session then completes that pipeline's
// progress share immediately.
type Config struct {
	Asset           media.AssetInfo
	TargetDuration  time.Duration
	TargetFrameRate float64

	AudioDecoder media.AudioDecoder
	AudioEncoder media.AudioEncoder
	VideoDecoder media.VideoDecoder
	VideoEncoder media.VideoEncoder

	// ChunkFrames overrides DefaultChunkFrames when > 0.
	ChunkFrames int

	// OnProgress receives the cumulative progress in [0,1] and, every
	// previewInterval output frames, the frame just written.
	OnProgress func(total float64, preview *media.Frame)

	// OnComplete is invoked exactly once with the session outcome.
	OnComplete func(Result)
}

// Result is the session outcome delivered to OnComplete.
type Result struct {
	SessionID      string
	Cancelled      bool
	Err            error
	FramesEmitted  int64
	SamplesEmitted int64
}

// Session owns the mutable state of one retiming request: the time-scale
// factor, both pipelines, and the shared progress accumulator. Destroy it
// (let it go out of scope) after completion or cancellation; Run can only
// be called once.
type Session struct {
	cfg      Config
	id       string
	factor   float64
	frameDur time.Duration
	tracker  *progress.Tracker

	stopChan chan struct{}
	stopOnce sync.Once

	mu             sync.Mutex
	framesEmitted  int64
	samplesEmitted int64

	cbMu         sync.Mutex
	completeOnce sync.Once
}

// New validates the configuration and captures the asset descriptor.
func New(cfg Config) (*Session, error) {
	if cfg.TargetDuration <= 0 {
		return nil, fmt.Errorf("%w: target duration %v", ErrInvalidConfiguration, cfg.TargetDuration)
	}
	if cfg.TargetFrameRate <= 0 {
		return nil, fmt.Errorf("%w: target frame rate %f", ErrInvalidConfiguration, cfg.TargetFrameRate)
	}
	if cfg.Asset.Duration <= 0 {
		return nil, fmt.Errorf("%w: source duration %v", ErrInvalidConfiguration, cfg.Asset.Duration)
	}
	if cfg.ChunkFrames <= 0 {
		cfg.ChunkFrames = DefaultChunkFrames
	}

	return &Session{
		cfg:      cfg,
		id:       uuid.New().String(),
		factor:   cfg.TargetDuration.Seconds() / cfg.Asset.Duration.Seconds(),
		frameDur: time.Duration(float64(time.Second) / cfg.TargetFrameRate),
		tracker:  progress.NewTracker(progress.SessionWeights()),
		stopChan: make(chan struct{}),
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Factor returns the computed time-scale factor (>1 stretches).
func (s *Session) Factor() float64 { return s.factor }

// Progress returns the cumulative progress tracker.
func (s *Session) Progress() *progress.Tracker { return s.tracker }

// Cancel requests cooperative cancellation. Both pipelines observe the
// flag once per processed unit and stop without losing already-flushed
// output.
func (s *Session) Cancel() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Run executes both pipelines concurrently and blocks until they finish.
// The completion callback fires exactly once; the same Result is returned
// for callers that prefer synchronous use.
func (s *Session) Run(ctx context.Context) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	select {
	case <-s.stopChan:
		// Cancelled before the pipelines started.
		cancel()
	default:
	}
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Printf("Session %s: factor %.4f, target %v at %.3f fps",
		s.id, s.factor, s.cfg.TargetDuration, s.cfg.TargetFrameRate)

	// Asset analysis happened at construction; its share completes first.
	s.tracker.Complete(progress.ContributorAnalysis)
	s.notifyProgress(nil)

	var videoErr, audioErr error
	g := new(errgroup.Group)
	g.Go(func() error {
		videoErr = s.runVideo(ctx)
		return nil
	})
	g.Go(func() error {
		audioErr = s.runAudio(ctx)
		return nil
	})
	g.Wait()

	cancelled := errors.Is(videoErr, context.Canceled) || errors.Is(audioErr, context.Canceled)
	if cancelled {
		// Cancellation is an outcome, not a failure.
		if errors.Is(videoErr, context.Canceled) {
			videoErr = nil
		}
		if errors.Is(audioErr, context.Canceled) {
			audioErr = nil
		}
	}

	s.mu.Lock()
	result := Result{
		SessionID:      s.id,
		Cancelled:      cancelled,
		Err:            errors.Join(videoErr, audioErr),
		FramesEmitted:  s.framesEmitted,
		SamplesEmitted: s.samplesEmitted,
	}
	s.mu.Unlock()

	s.completeOnce.Do(func() {
		if s.cfg.OnComplete != nil {
			s.cfg.OnComplete(result)
		}
	})
	return result
}

// notifyProgress pushes the current total (and an optional preview frame)
// to the caller's progress callback. Calls are serialized so the caller
// observes totals in non-decreasing order even though both pipelines
// report concurrently.
func (s *Session) notifyProgress(preview *media.Frame) {
	if s.cfg.OnProgress == nil {
		return
	}
	s.cbMu.Lock()
	s.cfg.OnProgress(s.tracker.Value(), preview)
	s.cbMu.Unlock()
}

// waitReady polls a sink's readiness, yielding between checks so
// cancellation stays observable.
func waitReady(ctx context.Context, ready func() bool) error {
	for !ready() {
		select {
		case <-ctx.Done():
			return context.Canceled
		case <-time.After(time.Millisecond):
		}
	}
	return nil
}

// runVideo drives the frame retiming pipeline.
func (s *Session) runVideo(ctx context.Context) error {
	if s.cfg.VideoDecoder == nil || s.cfg.VideoEncoder == nil {
		s.tracker.Complete(progress.ContributorVideo)
		s.notifyProgress(nil)
		return nil
	}

	retimer, err := timescale.NewVideoRetimer(s.cfg.VideoDecoder, s.cfg.VideoEncoder, s.factor, s.frameDur)
	if err != nil {
		s.tracker.Complete(progress.ContributorVideo)
		return fmt.Errorf("video retimer: %w", err)
	}

	totalFrames := s.cfg.Asset.Duration.Seconds() * s.cfg.Asset.FrameRate
	retimer.Progress = func(consumed, emitted int64, frame *media.Frame) {
		if totalFrames > 0 {
			s.tracker.Report(progress.ContributorVideo, float64(consumed)/totalFrames)
		}
		s.mu.Lock()
		s.framesEmitted = emitted
		s.mu.Unlock()

		var preview *media.Frame
		if emitted%previewInterval == 1 {
			preview = frame
		}
		s.notifyProgress(preview)
	}

	runErr := retimer.Run(ctx)
	if runErr == nil {
		s.tracker.Complete(progress.ContributorVideo)
		s.notifyProgress(nil)
	} else if !errors.Is(runErr, context.Canceled) {
		log.Printf("Session %s: video pipeline: %v", s.id, runErr)
		// A failed or absent track still accounts for its progress share.
		s.tracker.Complete(progress.ContributorVideo)
	}
	return runErr
}
