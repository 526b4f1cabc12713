// ABOUTME: Frame-sequence container writer implementing the video encoder
// ABOUTME: Emits the FSEQ header and length-prefixed frame records
package sink

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/Retime-Project/retime-go/internal/source"
	"github.com/Retime-Project/retime-go/pkg/media"
)

// FrameSeqWriter appends frames to an FSEQ container file. The header's
// frame count is a placeholder until Finish seeks back to fill it.
type FrameSeqWriter struct {
	file     *os.File
	count    uint32
	finished bool
}

// NewFrameSeqWriter creates the output file and writes its header.
func NewFrameSeqWriter(path string, frameRate float64) (*FrameSeqWriter, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %f", frameRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame sequence: %w", err)
	}

	header := make([]byte, 4+2+8+4)
	copy(header, source.FrameSeqMagic)
	binary.BigEndian.PutUint16(header[4:6], source.FrameSeqVersion)
	binary.BigEndian.PutUint64(header[6:14], math.Float64bits(frameRate))
	// Frame count filled in by Finish.

	if _, err := f.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write frame sequence header: %w", err)
	}
	return &FrameSeqWriter{file: f}, nil
}

func (w *FrameSeqWriter) Ready() bool { return !w.finished }

// Append writes one frame record.
func (w *FrameSeqWriter) Append(frame *media.Frame) error {
	if w.finished {
		return fmt.Errorf("append after finish")
	}

	header := make([]byte, 8+1+4)
	binary.BigEndian.PutUint64(header[:8], uint64(frame.PTS.Nanoseconds()))
	if frame.Keyframe {
		header[8] = 1
	}
	binary.BigEndian.PutUint32(header[9:13], uint32(len(frame.Data)))

	if _, err := w.file.Write(header); err != nil {
		return fmt.Errorf("write frame record: %w", err)
	}
	if _, err := w.file.Write(frame.Data); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	w.count++
	return nil
}

// Finish patches the frame count into the header and closes the file.
// Idempotent.
func (w *FrameSeqWriter) Finish() error {
	if w.finished {
		return nil
	}
	w.finished = true

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], w.count)
	if _, err := w.file.WriteAt(count[:], 14); err != nil {
		w.file.Close()
		return fmt.Errorf("patch frame count: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close frame sequence: %w", err)
	}
	return nil
}
