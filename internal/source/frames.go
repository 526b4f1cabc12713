// ABOUTME: Frame-sequence container reader exposing a video decoder
// ABOUTME: Parses the FSEQ header and length-prefixed frame records
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// FSEQ container layout. All integers big-endian.
//
//	header: magic "FSEQ" | uint16 version | float64 fps | uint32 frame count
//	record: int64 pts (ns) | uint8 flags (bit0 keyframe) | uint32 len | payload
const (
	FrameSeqMagic   = "FSEQ"
	FrameSeqVersion = 1

	frameSeqHeaderSize = 4 + 2 + 8 + 4
	frameRecordHeader  = 8 + 1 + 4

	// Sanity bound on a single frame payload.
	maxFramePayload = 64 << 20
)

// FrameSeqReader decodes frames from an FSEQ container file.
type FrameSeqReader struct {
	file       *os.File
	frameRate  float64
	frameCount int64
	cancelled  bool
}

// NewFrameSeqReader opens an FSEQ file and validates its header.
func NewFrameSeqReader(path string) (*FrameSeqReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame sequence: %w", err)
	}

	header := make([]byte, frameSeqHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read frame sequence header: %w", err)
	}
	if string(header[:4]) != FrameSeqMagic {
		f.Close()
		return nil, fmt.Errorf("not a frame sequence file: bad magic %q", header[:4])
	}
	if v := binary.BigEndian.Uint16(header[4:6]); v != FrameSeqVersion {
		f.Close()
		return nil, fmt.Errorf("unsupported frame sequence version %d", v)
	}

	fps := math.Float64frombits(binary.BigEndian.Uint64(header[6:14]))
	count := int64(binary.BigEndian.Uint32(header[14:18]))
	if fps <= 0 {
		f.Close()
		return nil, fmt.Errorf("invalid frame rate %f in frame sequence", fps)
	}

	log.Printf("Loaded frame sequence: %s (%.3f fps, %d frames)", path, fps, count)

	return &FrameSeqReader{file: f, frameRate: fps, frameCount: count}, nil
}

func (r *FrameSeqReader) Start() error { return nil }

// NextFrame reads one frame record. Returns io.EOF at end of file or
// after Cancel.
func (r *FrameSeqReader) NextFrame() (*media.Frame, error) {
	if r.cancelled {
		return nil, io.EOF
	}

	header := make([]byte, frameRecordHeader)
	if _, err := io.ReadFull(r.file, header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame record header: %w", err)
	}

	pts := int64(binary.BigEndian.Uint64(header[:8]))
	keyframe := header[8]&1 != 0
	size := binary.BigEndian.Uint32(header[9:13])
	if size > maxFramePayload {
		return nil, fmt.Errorf("frame payload %d exceeds limit", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r.file, data); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	return &media.Frame{
		PTS:      time.Duration(pts),
		Data:     data,
		Keyframe: keyframe,
	}, nil
}

func (r *FrameSeqReader) Cancel() { r.cancelled = true }

// FrameRate returns the container's declared frame rate.
func (r *FrameSeqReader) FrameRate() float64 { return r.frameRate }

// FrameCount returns the container's declared frame count.
func (r *FrameSeqReader) FrameCount() int64 { return r.frameCount }

// Duration derives the source length from frame count and rate.
func (r *FrameSeqReader) Duration() time.Duration {
	return time.Duration(float64(r.frameCount) / r.frameRate * float64(time.Second))
}

func (r *FrameSeqReader) Close() error { return r.file.Close() }
