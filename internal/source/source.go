// ABOUTME: Audio source abstraction over decodable input files
// ABOUTME: Dispatches MP3, FLAC, or a generated test tone by path
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Retime-Project/retime-go/pkg/media"
)

// ChunkFrames is the natural per-channel chunk length every source
// produces. The session sizes the resampler's blocks to match it.
const ChunkFrames = 4096

// Source is an audio decoder that also exposes the asset metadata the
// session captures at construction.
type Source interface {
	media.AudioDecoder
	Info() media.AssetInfo
	Close() error
}

// New opens an audio source for the given file path. An empty path
// returns a deterministic test tone.
func New(path string) (Source, error) {
	if path == "" {
		return NewToneSource(5*time.Second, 440.0), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return NewMP3Source(path)
	case ".flac":
		return NewFLACSource(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
}
