// ABOUTME: FLAC audio source backed by mewkiz/flac
// ABOUTME: Preserves the stream's native channel count and bit depth
package source

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mewkiz/flac"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// FLACSource reads from a FLAC file frame by frame.
type FLACSource struct {
	file      *os.File
	stream    *flac.Stream
	info      media.AssetInfo
	bitDepth  int
	leftover  []int32
	cancelled bool
}

// NewFLACSource opens and probes a FLAC file.
func NewFLACSource(path string) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	si := stream.Info
	rate := int(si.SampleRate)
	channels := int(si.NChannels)
	bitDepth := int(si.BitsPerSample)
	frames := int64(si.NSamples)

	layout := "mono"
	if channels == 2 {
		layout = "stereo"
	}
	info := media.AssetInfo{
		Duration:    time.Duration(frames) * time.Second / time.Duration(rate),
		SampleRate:  rate,
		Channels:    channels,
		SampleCount: frames,
		SampleFormat: media.Format{
			Codec:         "pcm",
			SampleRate:    rate,
			Channels:      channels,
			BitDepth:      bitDepth,
			ChannelLayout: layout,
		},
	}

	log.Printf("Loaded FLAC: %s (%d Hz, %d ch, %d bit, %d frames)",
		path, rate, channels, bitDepth, frames)

	return &FLACSource{file: f, stream: stream, info: info, bitDepth: bitDepth}, nil
}

func (s *FLACSource) Start() error { return nil }

// NextChunk parses FLAC frames until it has ChunkFrames sample frames or
// hits end of stream. Samples are scaled into the 24-bit range regardless
// of the file's stored bit depth.
func (s *FLACSource) NextChunk() (*media.Chunk, error) {
	if s.cancelled {
		return nil, io.EOF
	}

	want := ChunkFrames * s.info.Channels
	samples := s.leftover
	s.leftover = nil

	for len(samples) < want {
		frame, err := s.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < s.info.Channels; ch++ {
				samples = append(samples, s.scale(frame.Subframes[ch].Samples[i]))
			}
		}
	}

	if len(samples) == 0 {
		return nil, io.EOF
	}
	if len(samples) > want {
		s.leftover = samples[want:]
		samples = samples[:want]
	}
	return &media.Chunk{Samples: samples}, nil
}

// scale maps a sample at the stream's bit depth into the 24-bit range.
func (s *FLACSource) scale(sample int32) int32 {
	switch {
	case s.bitDepth == 24:
		return sample
	case s.bitDepth < 24:
		return sample << (24 - s.bitDepth)
	default:
		return sample >> (s.bitDepth - 24)
	}
}

func (s *FLACSource) Cancel() { s.cancelled = true }

func (s *FLACSource) Info() media.AssetInfo { return s.info }

func (s *FLACSource) Close() error { return s.file.Close() }
