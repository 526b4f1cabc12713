// ABOUTME: MP3 audio source backed by the go-mp3 decoder
// ABOUTME: Streams fixed-size int32 chunks and reports asset metadata
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// mp3BytesPerFrame is one stereo 16-bit sample frame as go-mp3 emits it.
const mp3BytesPerFrame = 4

// MP3Source reads from an MP3 file. go-mp3 always decodes to 16-bit
// stereo; samples are left-justified into the 24-bit range.
type MP3Source struct {
	file      *os.File
	decoder   *mp3.Decoder
	info      media.AssetInfo
	cancelled bool
}

// NewMP3Source opens and probes an MP3 file.
func NewMP3Source(path string) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	frames := decoder.Length() / mp3BytesPerFrame
	rate := decoder.SampleRate()
	info := media.AssetInfo{
		Duration:    time.Duration(frames) * time.Second / time.Duration(rate),
		SampleRate:  rate,
		Channels:    2,
		SampleCount: frames,
		SampleFormat: media.Format{
			Codec:         "pcm",
			SampleRate:    rate,
			Channels:      2,
			BitDepth:      16,
			ChannelLayout: "stereo",
		},
	}

	log.Printf("Loaded MP3: %s (%d Hz, %d frames, %v)", path, rate, frames, info.Duration)

	return &MP3Source{file: f, decoder: decoder, info: info}, nil
}

func (s *MP3Source) Start() error { return nil }

// NextChunk decodes up to ChunkFrames stereo frames. Returns io.EOF at
// end of stream or after Cancel.
func (s *MP3Source) NextChunk() (*media.Chunk, error) {
	if s.cancelled {
		return nil, io.EOF
	}

	buf := make([]byte, ChunkFrames*2*2) // frames * channels * 2 bytes
	n, err := io.ReadFull(s.decoder, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	samples := make([]int32, n/2)
	for i := range samples {
		s16 := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
		samples[i] = media.SampleFromInt16(s16)
	}
	return &media.Chunk{Samples: samples}, nil
}

func (s *MP3Source) Cancel() { s.cancelled = true }

func (s *MP3Source) Info() media.AssetInfo { return s.info }

func (s *MP3Source) Close() error { return s.file.Close() }
