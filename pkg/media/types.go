// ABOUTME: Core media value types and sample conversions
// ABOUTME: Defines formats, asset descriptors, PCM chunks, and video frames
package media

import (
	"fmt"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format is the fixed configuration record for an encoded stream.
// It enumerates the recognized encode/decode options up front instead of
// passing dynamic settings maps around.
type Format struct {
	Codec         string // "pcm", "opus", ...
	SampleRate    int
	Channels      int
	BitDepth      int
	PixelFormat   string // video only, e.g. "yuv420p"
	ChannelLayout string // audio only, e.g. "stereo"
}

// Validate checks the fields that the engine depends on.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	if f.BitDepth != 16 && f.BitDepth != 24 {
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
	return nil
}

// AssetInfo describes the source asset. It is captured once at session
// construction and never mutated afterwards.
type AssetInfo struct {
	Duration     time.Duration
	SampleRate   int
	Channels     int
	SampleCount  int64 // total frames per channel
	FrameRate    float64
	SampleFormat Format
}

// Chunk is a block of decoded, channel-interleaved PCM samples.
type Chunk struct {
	Samples []int32
}

// Frames returns the number of per-channel sample frames in the chunk.
func (c *Chunk) Frames(channels int) int {
	if channels <= 0 {
		return 0
	}
	return len(c.Samples) / channels
}

// Frame is a single encoded picture with its presentation timestamp.
// The pixel payload is opaque to the engine: retiming moves frames onto a
// new timestamp grid, it never looks inside them.
type Frame struct {
	PTS      time.Duration
	Data     []byte
	Keyframe bool
}

// SampleToInt16 converts an int32 sample to int16 (for 16-bit output)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts an int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
