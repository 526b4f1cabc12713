// ABOUTME: Tests for the video retiming driver
// ABOUTME: Covers duplication, dropping, draining, and cancellation
package timescale

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// stubVideoDecoder serves a fixed frame sequence.
type stubVideoDecoder struct {
	frames    []*media.Frame
	next      int
	started   bool
	cancelled bool
	startErr  error
}

func (d *stubVideoDecoder) Start() error {
	d.started = true
	return d.startErr
}

func (d *stubVideoDecoder) NextFrame() (*media.Frame, error) {
	if d.next >= len(d.frames) {
		return nil, io.EOF
	}
	f := d.frames[d.next]
	d.next++
	return f, nil
}

func (d *stubVideoDecoder) Cancel() { d.cancelled = true }

// stubVideoEncoder records appended frames.
type stubVideoEncoder struct {
	frames    []*media.Frame
	finished  int
	appendErr error
	notReady  int // reject readiness this many times
}

func (e *stubVideoEncoder) Ready() bool {
	if e.notReady > 0 {
		e.notReady--
		return false
	}
	return true
}

func (e *stubVideoEncoder) Append(f *media.Frame) error {
	if e.appendErr != nil {
		return e.appendErr
	}
	e.frames = append(e.frames, f)
	return nil
}

func (e *stubVideoEncoder) Finish() error {
	e.finished++
	return nil
}

func sourceFrames(count int, frameDur time.Duration) []*media.Frame {
	frames := make([]*media.Frame, count)
	for i := range frames {
		frames[i] = &media.Frame{
			PTS:      time.Duration(i) * frameDur,
			Data:     []byte{byte(i)},
			Keyframe: i == 0,
		}
	}
	return frames
}

func TestVideoRetimerStretchDuplicates(t *testing.T) {
	const frameDur = 40 * time.Millisecond
	const count = 25
	dec := &stubVideoDecoder{frames: sourceFrames(count, frameDur)}
	enc := &stubVideoEncoder{}

	v, err := NewVideoRetimer(dec, enc, 2.0, frameDur)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if v.State() != StateDone {
		t.Errorf("expected done state, got %s", v.State())
	}
	// Stretching only ever duplicates: at least one output per source frame.
	if int64(len(enc.frames)) < count {
		t.Errorf("factor 2: expected >= %d frames, got %d", count, len(enc.frames))
	}
	if enc.finished != 1 {
		t.Errorf("expected encoder finished once, got %d", enc.finished)
	}
	// Output timestamps sit on the fixed output grid.
	for i, f := range enc.frames {
		if f.PTS != time.Duration(i)*frameDur {
			t.Fatalf("frame %d: expected PTS %v, got %v", i, time.Duration(i)*frameDur, f.PTS)
		}
	}
}

func TestVideoRetimerCompressDrops(t *testing.T) {
	const frameDur = 40 * time.Millisecond
	const count = 30
	dec := &stubVideoDecoder{frames: sourceFrames(count, frameDur)}
	enc := &stubVideoEncoder{}

	v, err := NewVideoRetimer(dec, enc, 0.5, frameDur)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if int64(len(enc.frames)) > count {
		t.Errorf("factor 0.5: expected <= %d frames, got %d", count, len(enc.frames))
	}
	if v.Consumed() != count {
		t.Errorf("expected all %d source frames consumed, got %d", count, v.Consumed())
	}
}

func TestVideoRetimerEmptyTrack(t *testing.T) {
	dec := &stubVideoDecoder{}
	enc := &stubVideoEncoder{}

	v, err := NewVideoRetimer(dec, enc, 1.5, 40*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Run(context.Background()); err != nil {
		t.Fatalf("empty track should not fail: %v", err)
	}
	if len(enc.frames) != 0 {
		t.Errorf("expected no frames, got %d", len(enc.frames))
	}
	if enc.finished != 1 {
		t.Errorf("expected encoder finished once, got %d", enc.finished)
	}
}

func TestVideoRetimerDecodeStartFailure(t *testing.T) {
	dec := &stubVideoDecoder{startErr: errors.New("no track")}
	enc := &stubVideoEncoder{}

	v, _ := NewVideoRetimer(dec, enc, 1.5, 40*time.Millisecond)
	if err := v.Run(context.Background()); err == nil {
		t.Fatal("expected decode start error")
	}
	if len(enc.frames) != 0 {
		t.Errorf("expected no output after start failure, got %d frames", len(enc.frames))
	}
	if enc.finished != 1 {
		t.Errorf("expected encoder finished once, got %d", enc.finished)
	}
}

func TestVideoRetimerAppendFailureCancelsDecoder(t *testing.T) {
	dec := &stubVideoDecoder{frames: sourceFrames(10, 40*time.Millisecond)}
	enc := &stubVideoEncoder{appendErr: errors.New("sink full")}

	v, _ := NewVideoRetimer(dec, enc, 1.0, 40*time.Millisecond)
	if err := v.Run(context.Background()); err == nil {
		t.Fatal("expected append error")
	}
	if !dec.cancelled {
		t.Error("expected decoder cancelled after append failure")
	}
	if enc.finished != 1 {
		t.Errorf("expected encoder finished once, got %d", enc.finished)
	}
}

func TestVideoRetimerCancellation(t *testing.T) {
	dec := &stubVideoDecoder{frames: sourceFrames(100, 40*time.Millisecond)}
	enc := &stubVideoEncoder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, _ := NewVideoRetimer(dec, enc, 2.0, 40*time.Millisecond)
	err := v.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if v.State() != StateCancelled {
		t.Errorf("expected cancelled state, got %s", v.State())
	}
	if !dec.cancelled {
		t.Error("expected decoder told to stop")
	}
	if enc.finished != 1 {
		t.Errorf("expected encoder finished once, got %d", enc.finished)
	}
	if len(enc.frames) != 0 {
		t.Errorf("expected no writes after cancellation, got %d", len(enc.frames))
	}
}

func TestVideoRetimerWaitsForReadiness(t *testing.T) {
	dec := &stubVideoDecoder{frames: sourceFrames(5, 40*time.Millisecond)}
	enc := &stubVideoEncoder{notReady: 3}

	v, _ := NewVideoRetimer(dec, enc, 1.0, 40*time.Millisecond)
	if err := v.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(enc.frames) == 0 {
		t.Error("expected frames once encoder became ready")
	}
}

func TestVideoRetimerProgressHook(t *testing.T) {
	dec := &stubVideoDecoder{frames: sourceFrames(10, 40*time.Millisecond)}
	enc := &stubVideoEncoder{}

	var calls int64
	v, _ := NewVideoRetimer(dec, enc, 1.0, 40*time.Millisecond)
	v.Progress = func(consumed, emitted int64, frame *media.Frame) {
		calls++
		if frame == nil {
			t.Error("progress hook received nil frame")
		}
		if emitted != calls {
			t.Errorf("expected emitted %d, got %d", calls, emitted)
		}
	}
	if err := v.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != v.Emitted() {
		t.Errorf("expected %d progress calls, got %d", v.Emitted(), calls)
	}
}

func TestNewVideoRetimerValidation(t *testing.T) {
	dec := &stubVideoDecoder{}
	enc := &stubVideoEncoder{}

	if _, err := NewVideoRetimer(dec, enc, 0, 40*time.Millisecond); err == nil {
		t.Error("expected error for zero factor")
	}
	if _, err := NewVideoRetimer(dec, enc, 1, 0); err == nil {
		t.Error("expected error for zero frame duration")
	}
}
