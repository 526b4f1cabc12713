// ABOUTME: Streaming sliding-window resampler for multi-channel PCM
// ABOUTME: Evaluates a control-point mapping incrementally with bounded memory
package timescale

import (
	"fmt"
	"math"
)

// StreamResampler produces resampled, channel-interleaved audio
// incrementally as source audio arrives in chunks. It retains, per
// channel, only the not-yet-fully-consumed span of source samples plus a
// count of samples already discarded from the front, so memory stays
// bounded regardless of track length.
//
// Block-windowed output is identical to resampling the whole source in
// one pass with ResampleBuffer: the window is a memory optimization, not
// a behavioral one.
type StreamResampler struct {
	control     []float64
	channels    int
	blockFrames int

	next    int       // index of the next unprocessed control point
	windows [][]int32 // per-channel retained source samples
	removed int64     // source frames discarded from the window front
	pending []int32   // interleaved output not yet drained
	final   bool
}

// NewStreamResampler creates a resampler for one audio track. control is
// the full output-to-source index mapping (see ControlPoints); blockFrames
// should match the decoder's natural chunk length so each block's required
// lookahead is predictable.
func NewStreamResampler(control []float64, channels, blockFrames int) (*StreamResampler, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	if blockFrames <= 0 {
		return nil, fmt.Errorf("invalid block size %d", blockFrames)
	}
	for i := 1; i < len(control); i++ {
		if control[i] < control[i-1] {
			return nil, fmt.Errorf("control sequence decreases at index %d", i)
		}
	}
	if len(control) > 0 && control[0] < 0 {
		return nil, fmt.Errorf("control sequence starts below zero: %f", control[0])
	}

	return &StreamResampler{
		control:     control,
		channels:    channels,
		blockFrames: blockFrames,
		windows:     make([][]int32, channels),
	}, nil
}

// Push appends one decoded interleaved chunk to the window and resamples
// every block whose lookahead is now satisfied. Call Drain afterwards to
// collect the produced output.
func (r *StreamResampler) Push(interleaved []int32) {
	if r.final {
		return
	}
	if chans := Deinterleave(interleaved, r.channels); chans != nil {
		for c := range r.windows {
			r.windows[c] = append(r.windows[c], chans[c]...)
		}
	}
	r.process()
}

// Drain returns the interleaved output produced so far and resets the
// pending buffer.
func (r *StreamResampler) Drain() []int32 {
	out := r.pending
	r.pending = nil
	return out
}

// Flush marks the end of the source stream, resamples all remaining
// blocks (padding the window with silence where the mapping reads past
// the final source sample), and returns any remaining output.
func (r *StreamResampler) Flush() []int32 {
	r.final = true
	r.process()
	return r.Drain()
}

// Done reports whether every control point has been resampled.
func (r *StreamResampler) Done() bool {
	return r.next >= len(r.control)
}

// process resamples ready blocks in order. A block is ready once the
// window holds every source sample its interpolation will read; at end of
// stream the window is padded with zero samples instead.
func (r *StreamResampler) process() {
	for r.next < len(r.control) {
		end := r.next + r.blockFrames
		if end > len(r.control) {
			end = len(r.control)
		}
		block := r.control[r.next:end]

		if !r.trim(block[0]) {
			return
		}

		// Offsets are control values relative to the current window
		// front. After trimming, the front is exactly floor(block[0]).
		base := float64(r.removed)
		required := 0
		for _, point := range block {
			if n := requiredWindow(point - base); n > required {
				required = n
			}
		}

		if wlen := len(r.windows[0]); required > wlen {
			if !r.final {
				return // lookahead not yet satisfied
			}
			for c := range r.windows {
				for len(r.windows[c]) < required {
					r.windows[c] = append(r.windows[c], 0)
				}
			}
		}

		out := make([][]int32, r.channels)
		for c := range r.windows {
			out[c] = make([]int32, len(block))
			for j, point := range block {
				v := interpolate(r.windows[c], point-base)
				out[c][j] = int32(math.Round(v))
			}
		}
		r.pending = append(r.pending, Interleave(out)...)
		r.next = end
	}
}

// trim discards source frames in front of floor(first) from every
// channel's window, carrying the discard count forward. Returns false
// when the discard reaches past the buffered data and more input is
// needed first.
func (r *StreamResampler) trim(first float64) bool {
	owed := int64(math.Floor(first)) - r.removed
	if owed <= 0 {
		return true
	}
	wlen := int64(len(r.windows[0]))
	drop := owed
	if drop > wlen {
		drop = wlen
	}
	for c := range r.windows {
		w := r.windows[c]
		r.windows[c] = append(w[:0], w[drop:]...)
	}
	r.removed += drop
	if owed > wlen {
		if !r.final {
			return false
		}
		// Remaining discards consume samples that never arrived.
		r.removed += owed - wlen
	}
	return true
}

// interpolate evaluates the window as a piecewise-linear function at a
// fractional offset. An integral offset reads that sample exactly; a
// fractional offset blends the two samples above it, weighted by the
// fractional part. The asymmetric indexing is preserved from the original
// engine because it is observable in golden-file comparisons.
func interpolate(window []int32, off float64) float64 {
	fl := math.Floor(off)
	t := off - fl
	if t == 0 {
		return float64(window[int(fl)])
	}
	i := int(fl) + 1
	a := float64(window[i])
	b := float64(window[i+1])
	return a + (b-a)*t
}

// requiredWindow returns the window length interpolate needs for the
// given offset: integral offsets read one sample, fractional offsets read
// the two samples above their floor.
func requiredWindow(off float64) int {
	fl := math.Floor(off)
	if off == fl {
		return int(fl) + 1
	}
	return int(fl) + 3
}

// ResampleBuffer is the whole-buffer form of the resampler: it evaluates
// the full control sequence against the full source in one pass. Output
// samples are rounded to the nearest integer, ties away from zero.
func ResampleBuffer(control []float64, channels int, interleaved []int32) []int32 {
	if channels <= 0 || len(control) == 0 {
		return nil
	}
	chans := Deinterleave(interleaved, channels)
	if chans == nil {
		chans = make([][]int32, channels)
	}

	required := 0
	for _, point := range control {
		if n := requiredWindow(point); n > required {
			required = n
		}
	}

	out := make([][]int32, channels)
	for c := range chans {
		w := chans[c]
		for len(w) < required {
			w = append(w, 0)
		}
		out[c] = make([]int32, len(control))
		for j, point := range control {
			out[c][j] = int32(math.Round(interpolate(w, point)))
		}
	}
	return Interleave(out)
}
