// ABOUTME: Raw PCM audio sink writing s16le or s24le sample streams
// ABOUTME: Implements the audio encoder contract over any io.Writer
package sink

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// PCMSink writes interleaved samples as little-endian PCM. Supported
// bit depths are 16 and 24; internal samples stay in the 24-bit range
// until serialization.
type PCMSink struct {
	w        *bufio.Writer
	closer   io.Closer
	bitDepth int
	frames   int64
	finished bool
}

// NewPCMSink wraps a writer. The closer may be nil.
func NewPCMSink(w io.Writer, bitDepth int) (*PCMSink, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported PCM bit depth %d", bitDepth)
	}
	s := &PCMSink{w: bufio.NewWriter(w), bitDepth: bitDepth}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// NewPCMFileSink creates the output file and wraps it.
func NewPCMFileSink(path string, bitDepth int) (*PCMSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create PCM output: %w", err)
	}
	s, err := NewPCMSink(f, bitDepth)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Ready always reports true; the buffered writer absorbs bursts.
func (s *PCMSink) Ready() bool { return !s.finished }

// Append serializes one chunk of samples.
func (s *PCMSink) Append(chunk *media.Chunk) error {
	if s.finished {
		return fmt.Errorf("append after finish")
	}

	for _, sample := range chunk.Samples {
		var err error
		if s.bitDepth == 16 {
			v := media.SampleToInt16(sample)
			_, err = s.w.Write([]byte{byte(v), byte(v >> 8)})
		} else {
			b := media.SampleTo24Bit(sample)
			_, err = s.w.Write(b[:])
		}
		if err != nil {
			return fmt.Errorf("pcm write: %w", err)
		}
	}
	s.frames += int64(len(chunk.Samples))
	return nil
}

// Finish flushes and closes the underlying writer. Idempotent.
func (s *PCMSink) Finish() error {
	if s.finished {
		return nil
	}
	s.finished = true

	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("pcm flush: %w", err)
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			return fmt.Errorf("pcm close: %w", err)
		}
	}
	log.Printf("PCM sink finished: %d samples at %d bit", s.frames, s.bitDepth)
	return nil
}
