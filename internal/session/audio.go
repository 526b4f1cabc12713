// ABOUTME: Audio pipeline of a scaling session
// ABOUTME: Streams decoded chunks through the sliding-window resampler
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/Retime-Project/retime-go/internal/progress"
	"github.com/Retime-Project/retime-go/pkg/media"
	"github.com/Retime-Project/retime-go/pkg/timescale"
)

// runAudio drives the audio resampling pipeline: decode one chunk, feed
// the sliding window, flush whatever the resampler produced, repeat.
// Processing is strictly sequential within the pipeline.
func (s *Session) runAudio(ctx context.Context) error {
	if s.cfg.AudioDecoder == nil || s.cfg.AudioEncoder == nil {
		s.tracker.Complete(progress.ContributorAudio)
		s.notifyProgress(nil)
		return nil
	}

	asset := s.cfg.Asset
	outFrames := int64(math.Round(s.cfg.TargetDuration.Seconds() * float64(asset.SampleRate)))
	if outFrames <= 0 || asset.SampleCount < 2 || asset.Channels <= 0 {
		// Degenerate scale factor or unusable track: skip cleanly, the
		// video pipeline proceeds on its own.
		log.Printf("Session %s: audio skipped (output frames %d, source frames %d)",
			s.id, outFrames, asset.SampleCount)
		s.tracker.Complete(progress.ContributorAudio)
		s.notifyProgress(nil)
		s.cfg.AudioEncoder.Finish()
		return nil
	}

	// Smoothstep easing only helps when stretching; compression keeps the
	// constant-velocity ramp.
	smooth := outFrames > asset.SampleCount
	control := timescale.ControlPoints(int(outFrames), int(asset.SampleCount), smooth)

	resampler, err := timescale.NewStreamResampler(control, asset.Channels, s.cfg.ChunkFrames)
	if err != nil {
		s.tracker.Complete(progress.ContributorAudio)
		s.cfg.AudioEncoder.Finish()
		return fmt.Errorf("audio resampler: %w", err)
	}

	dec, enc := s.cfg.AudioDecoder, s.cfg.AudioEncoder
	if err := dec.Start(); err != nil {
		// The track produces no output; not fatal for the session.
		s.tracker.Complete(progress.ContributorAudio)
		enc.Finish()
		return fmt.Errorf("audio decode start: %w", err)
	}

	var consumed int64
	for {
		// Cancellation is checked once per chunk.
		if ctx.Err() != nil {
			dec.Cancel()
			enc.Finish()
			return context.Canceled
		}

		chunk, err := dec.NextChunk()
		if errors.Is(err, io.EOF) {
			if out := resampler.Flush(); len(out) > 0 {
				if err := s.appendAudio(ctx, out); err != nil {
					dec.Cancel()
					enc.Finish()
					return err
				}
			}
			enc.Finish()
			s.tracker.Complete(progress.ContributorAudio)
			s.notifyProgress(nil)
			return nil
		}
		if err != nil {
			dec.Cancel()
			enc.Finish()
			return fmt.Errorf("audio decode: %w", err)
		}

		resampler.Push(chunk.Samples)
		consumed += int64(chunk.Frames(asset.Channels))

		if out := resampler.Drain(); len(out) > 0 {
			if err := s.appendAudio(ctx, out); err != nil {
				dec.Cancel()
				enc.Finish()
				return err
			}
		}

		s.tracker.Report(progress.ContributorAudio, float64(consumed)/float64(asset.SampleCount))
		s.notifyProgress(nil)
	}
}

// appendAudio hands resampled samples to the encoder once it is ready.
// A rejected append is terminal for the pipeline.
func (s *Session) appendAudio(ctx context.Context, samples []int32) error {
	enc := s.cfg.AudioEncoder
	if err := waitReady(ctx, enc.Ready); err != nil {
		return err
	}
	if err := enc.Append(&media.Chunk{Samples: samples}); err != nil {
		return fmt.Errorf("append audio: %w", err)
	}
	s.mu.Lock()
	s.samplesEmitted += int64(len(samples) / s.cfg.Asset.Channels)
	s.mu.Unlock()
	return nil
}
