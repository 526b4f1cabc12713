// ABOUTME: Deterministic test tone audio source
// ABOUTME: Generates a fixed-length 440Hz sine wave for demos and tests
package source

import (
	"io"
	"math"
	"time"

	"github.com/Retime-Project/retime-go/pkg/media"
)

const (
	toneSampleRate = 48000
	toneChannels   = 2
	toneVolume     = 0.5
)

// ToneSource generates a sine wave of a fixed duration. Deterministic:
// the same duration and frequency always produce the same samples.
type ToneSource struct {
	info      media.AssetInfo
	frequency float64
	pos       int64
	cancelled bool
}

// NewToneSource creates a tone generator of the given length.
func NewToneSource(duration time.Duration, frequency float64) *ToneSource {
	frames := int64(duration.Seconds() * toneSampleRate)
	return &ToneSource{
		info: media.AssetInfo{
			Duration:    duration,
			SampleRate:  toneSampleRate,
			Channels:    toneChannels,
			SampleCount: frames,
			SampleFormat: media.Format{
				Codec:         "pcm",
				SampleRate:    toneSampleRate,
				Channels:      toneChannels,
				BitDepth:      24,
				ChannelLayout: "stereo",
			},
		},
		frequency: frequency,
	}
}

func (s *ToneSource) Start() error { return nil }

func (s *ToneSource) NextChunk() (*media.Chunk, error) {
	if s.cancelled || s.pos >= s.info.SampleCount {
		return nil, io.EOF
	}

	frames := int64(ChunkFrames)
	if remaining := s.info.SampleCount - s.pos; remaining < frames {
		frames = remaining
	}

	samples := make([]int32, frames*toneChannels)
	for i := int64(0); i < frames; i++ {
		t := float64(s.pos+i) / toneSampleRate
		v := int32(math.Sin(2*math.Pi*s.frequency*t) * toneVolume * media.Max24Bit)
		samples[i*2] = v
		samples[i*2+1] = v
	}
	s.pos += frames

	return &media.Chunk{Samples: samples}, nil
}

func (s *ToneSource) Cancel() { s.cancelled = true }

func (s *ToneSource) Info() media.AssetInfo { return s.info }

func (s *ToneSource) Close() error { return nil }
