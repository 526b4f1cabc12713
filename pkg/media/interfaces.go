// ABOUTME: Decoder and encoder contracts for external collaborators
// ABOUTME: Demuxing, codec work, and destination handling live behind these
package media

// AudioDecoder produces decoded PCM chunks in strictly increasing source
// order. NextChunk returns io.EOF once the track is exhausted.
type AudioDecoder interface {
	Start() error
	NextChunk() (*Chunk, error)
	Cancel()
}

// VideoDecoder produces decoded frames in strictly increasing source
// order. NextFrame returns io.EOF once the track is exhausted.
type VideoDecoder interface {
	Start() error
	NextFrame() (*Frame, error)
	Cancel()
}

// AudioEncoder accepts resampled chunks. A failed Append is terminal for
// the audio pipeline. Finish must be safe to call after a failure.
type AudioEncoder interface {
	Ready() bool
	Append(*Chunk) error
	Finish() error
}

// VideoEncoder accepts retimed frames. Same terminality rules as
// AudioEncoder.
type VideoEncoder interface {
	Ready() bool
	Append(*Frame) error
	Finish() error
}
