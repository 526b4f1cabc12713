// ABOUTME: Opus audio sink producing length-prefixed packets
// ABOUTME: Buffers PCM into 20ms frames and encodes them with libopus
package sink

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/hraban/opus.v2"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// opusFrameMs is the packet duration; 20ms is the codec's sweet spot.
const opusFrameMs = 20

// maxOpusPacket bounds one encoded packet.
const maxOpusPacket = 4000

// OpusSink encodes appended samples into a stream of opus packets, each
// preceded by a big-endian uint16 length. The final partial frame is
// zero-padded at Finish.
type OpusSink struct {
	encoder   *opus.Encoder
	w         *bufio.Writer
	closer    io.Closer
	channels  int
	frameSize int // samples per channel per packet
	pcm       []int16
	packets   int64
	finished  bool
}

// NewOpusSink creates an opus encoder for the given stream parameters.
// Opus accepts 8, 12, 16, 24, or 48 kHz input.
func NewOpusSink(w io.Writer, sampleRate, channels int) (*OpusSink, error) {
	encoder, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	bitrate := 64000 * channels
	if err := encoder.SetBitrate(bitrate); err != nil {
		log.Printf("Warning: failed to set opus bitrate: %v", err)
	}

	s := &OpusSink{
		encoder:   encoder,
		w:         bufio.NewWriter(w),
		channels:  channels,
		frameSize: sampleRate * opusFrameMs / 1000,
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

// NewOpusFileSink creates the output file and wraps it.
func NewOpusFileSink(path string, sampleRate, channels int) (*OpusSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus output: %w", err)
	}
	s, err := NewOpusSink(f, sampleRate, channels)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *OpusSink) Ready() bool { return !s.finished }

// Append buffers samples and encodes every complete frame.
func (s *OpusSink) Append(chunk *media.Chunk) error {
	if s.finished {
		return fmt.Errorf("append after finish")
	}

	for _, sample := range chunk.Samples {
		s.pcm = append(s.pcm, media.SampleToInt16(sample))
	}
	return s.encodeBuffered(false)
}

// encodeBuffered drains complete frames from the PCM buffer. With pad
// set, the trailing partial frame is zero-filled and encoded too.
func (s *OpusSink) encodeBuffered(pad bool) error {
	full := s.frameSize * s.channels
	for len(s.pcm) >= full {
		if err := s.encodeFrame(s.pcm[:full]); err != nil {
			return err
		}
		s.pcm = s.pcm[full:]
	}
	if pad && len(s.pcm) > 0 {
		frame := make([]int16, full)
		copy(frame, s.pcm)
		s.pcm = nil
		return s.encodeFrame(frame)
	}
	return nil
}

func (s *OpusSink) encodeFrame(pcm []int16) error {
	packet := make([]byte, maxOpusPacket)
	n, err := s.encoder.Encode(pcm, packet)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}

	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(n))
	if _, err := s.w.Write(length[:]); err != nil {
		return fmt.Errorf("opus write: %w", err)
	}
	if _, err := s.w.Write(packet[:n]); err != nil {
		return fmt.Errorf("opus write: %w", err)
	}
	s.packets++
	return nil
}

// Finish encodes the padded tail, flushes, and closes. Idempotent.
func (s *OpusSink) Finish() error {
	if s.finished {
		return nil
	}

	if err := s.encodeBuffered(true); err != nil {
		s.finished = true
		return err
	}
	s.finished = true

	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("opus flush: %w", err)
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			return fmt.Errorf("opus close: %w", err)
		}
	}
	log.Printf("Opus sink finished: %d packets", s.packets)
	return nil
}
