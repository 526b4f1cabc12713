// ABOUTME: Live playback audio sink using the oto output library
// ABOUTME: Streams retimed samples to the default audio device
package sink

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"

	"github.com/ebitengine/oto/v3"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// PlaybackSink plays appended samples on the default output device.
// oto only supports 16-bit output, so samples are narrowed on write.
type PlaybackSink struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	finished   bool
}

// NewPlaybackSink opens the audio device. Only one oto context can
// exist per process, so at most one PlaybackSink may be created.
func NewPlaybackSink(sampleRate, channels int) (*PlaybackSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	log.Printf("Playback output initialized: %dHz, %d channels", sampleRate, channels)

	return &PlaybackSink{
		otoCtx:     ctx,
		player:     player,
		pipeReader: pr,
		pipeWriter: pw,
	}, nil
}

func (s *PlaybackSink) Ready() bool { return !s.finished }

// Append writes samples to the device pipe; blocks until consumed.
func (s *PlaybackSink) Append(chunk *media.Chunk) error {
	if s.finished {
		return fmt.Errorf("append after finish")
	}

	output := make([]byte, len(chunk.Samples)*2)
	for i, sample := range chunk.Samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(media.SampleToInt16(sample)))
	}
	if _, err := s.pipeWriter.Write(output); err != nil {
		return fmt.Errorf("playback write: %w", err)
	}
	return nil
}

// Finish closes the pipe and suspends the device. Idempotent.
func (s *PlaybackSink) Finish() error {
	if s.finished {
		return nil
	}
	s.finished = true

	s.pipeWriter.Close()
	s.player.Close()
	s.pipeReader.Close()
	s.otoCtx.Suspend()
	return nil
}
