// ABOUTME: Video retiming driver that re-grids frames onto a new clock
// ABOUTME: Duplicates frames when stretching and drops them when compressing
package timescale

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// RetimerState is the video driver's lifecycle state.
type RetimerState int

const (
	StateAwaitingFirstFrame RetimerState = iota
	StateScaling
	StateDraining
	StateDone
	StateCancelled
)

func (s RetimerState) String() string {
	switch s {
	case StateAwaitingFirstFrame:
		return "awaiting-first-frame"
	case StateScaling:
		return "scaling"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// VideoRetimer walks decoded frames against a fixed-rate output clock.
// While the clock has not passed the current frame's scaled timestamp the
// frame is written at the clock position and the clock advances one frame
// duration; otherwise the next source frame is pulled without writing.
// Stretching therefore duplicates frames and compression drops them —
// pixel content is never interpolated.
type VideoRetimer struct {
	dec      media.VideoDecoder
	enc      media.VideoEncoder
	factor   float64
	frameDur time.Duration

	clock     time.Duration
	cur       *media.Frame
	curScaled time.Duration
	state     RetimerState
	consumed  int64
	emitted   int64

	// Progress, when set, is invoked after every emitted frame with the
	// count of source frames consumed so far and the frame just written.
	Progress func(consumed, emitted int64, frame *media.Frame)
}

// NewVideoRetimer creates a driver for one video track. factor is the
// time-scale ratio (desired/source duration); frameDuration is one tick
// of the output clock.
func NewVideoRetimer(dec media.VideoDecoder, enc media.VideoEncoder, factor float64, frameDuration time.Duration) (*VideoRetimer, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("invalid time-scale factor %f", factor)
	}
	if frameDuration <= 0 {
		return nil, fmt.Errorf("invalid frame duration %v", frameDuration)
	}
	return &VideoRetimer{
		dec:      dec,
		enc:      enc,
		factor:   factor,
		frameDur: frameDuration,
		state:    StateAwaitingFirstFrame,
	}, nil
}

// State returns the driver's current lifecycle state.
func (v *VideoRetimer) State() RetimerState { return v.state }

// Emitted returns the number of frames written so far.
func (v *VideoRetimer) Emitted() int64 { return v.emitted }

// Consumed returns the number of source frames pulled so far.
func (v *VideoRetimer) Consumed() int64 { return v.consumed }

// Run drives the track to completion. It returns context.Canceled when
// cancellation was observed, nil on a normal drain, and a wrapped encoder
// error when a write is rejected. The encoder is always finished exactly
// once before Run returns.
func (v *VideoRetimer) Run(ctx context.Context) error {
	if v.state != StateAwaitingFirstFrame {
		return fmt.Errorf("retimer ran twice (state %s)", v.state)
	}

	if err := v.dec.Start(); err != nil {
		// The track produces no output; this is not fatal for the session.
		v.state = StateDone
		v.enc.Finish()
		return fmt.Errorf("video decode start: %w", err)
	}

	if err := v.pull(); err != nil {
		v.state = StateDone
		v.enc.Finish()
		if errors.Is(err, io.EOF) {
			return nil // empty track
		}
		return err
	}
	v.state = StateScaling

	for v.state == StateScaling {
		// Cancellation is checked once per step, before any write.
		if ctx.Err() != nil {
			v.state = StateCancelled
			v.dec.Cancel()
			v.enc.Finish()
			return context.Canceled
		}

		if !v.enc.Ready() {
			select {
			case <-ctx.Done():
			case <-time.After(time.Millisecond):
			}
			continue
		}

		if v.clock <= v.curScaled {
			out := &media.Frame{PTS: v.clock, Data: v.cur.Data, Keyframe: v.cur.Keyframe}
			if err := v.enc.Append(out); err != nil {
				v.state = StateDone
				v.dec.Cancel()
				v.enc.Finish()
				return fmt.Errorf("append frame at %v: %w", out.PTS, err)
			}
			v.clock += v.frameDur
			v.emitted++
			if v.Progress != nil {
				v.Progress(v.consumed, v.emitted, out)
			}
		} else {
			switch err := v.pull(); {
			case errors.Is(err, io.EOF):
				v.state = StateDraining
			case err != nil:
				v.state = StateDone
				v.dec.Cancel()
				v.enc.Finish()
				return fmt.Errorf("video decode: %w", err)
			}
		}
	}

	if v.state == StateDraining {
		v.state = StateDone
		v.enc.Finish()
	}
	return nil
}

// pull advances to the next source frame and scales its timestamp onto
// the output clock's time base.
func (v *VideoRetimer) pull() error {
	frame, err := v.dec.NextFrame()
	if err != nil {
		return err
	}
	v.cur = frame
	v.curScaled = time.Duration(float64(frame.PTS) * v.factor)
	v.consumed++
	return nil
}
