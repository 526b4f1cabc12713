// ABOUTME: Tests for audio source dispatch and the tone generator
// ABOUTME: Covers format selection errors, tone determinism, and EOF behavior
package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewEmptyPathReturnsTone(t *testing.T) {
	src, err := New("")
	if err != nil {
		t.Fatalf("New(\"\") failed: %v", err)
	}
	defer src.Close()

	if _, ok := src.(*ToneSource); !ok {
		t.Errorf("expected *ToneSource, got %T", src)
	}
}

func TestNewMissingFile(t *testing.T) {
	_, err := New("/nonexistent/audio.mp3")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(path)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestToneSourceInfo(t *testing.T) {
	src := NewToneSource(2*time.Second, 440.0)

	info := src.Info()
	if info.SampleRate != toneSampleRate {
		t.Errorf("sample rate = %d, want %d", info.SampleRate, toneSampleRate)
	}
	if info.Channels != 2 {
		t.Errorf("channels = %d, want 2", info.Channels)
	}
	if info.SampleCount != 2*toneSampleRate {
		t.Errorf("sample count = %d, want %d", info.SampleCount, 2*toneSampleRate)
	}
	if info.Duration != 2*time.Second {
		t.Errorf("duration = %v, want 2s", info.Duration)
	}
}

func TestToneSourceProducesAllFrames(t *testing.T) {
	src := NewToneSource(100*time.Millisecond, 440.0)
	if err := src.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var total int
	for {
		chunk, err := src.NextChunk()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextChunk failed: %v", err)
		}
		if len(chunk.Samples)%2 != 0 {
			t.Fatalf("chunk not frame-aligned: %d samples", len(chunk.Samples))
		}
		total += chunk.Frames(2)
	}

	if int64(total) != src.Info().SampleCount {
		t.Errorf("produced %d frames, want %d", total, src.Info().SampleCount)
	}
}

func TestToneSourceDeterministic(t *testing.T) {
	a := NewToneSource(50*time.Millisecond, 440.0)
	b := NewToneSource(50*time.Millisecond, 440.0)

	ca, err := a.NextChunk()
	if err != nil {
		t.Fatal(err)
	}
	cb, err := b.NextChunk()
	if err != nil {
		t.Fatal(err)
	}

	if len(ca.Samples) != len(cb.Samples) {
		t.Fatalf("chunk lengths differ: %d vs %d", len(ca.Samples), len(cb.Samples))
	}
	for i := range ca.Samples {
		if ca.Samples[i] != cb.Samples[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, ca.Samples[i], cb.Samples[i])
		}
	}
}

func TestToneSourceStereoDuplicated(t *testing.T) {
	src := NewToneSource(10*time.Millisecond, 440.0)
	chunk, err := src.NextChunk()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(chunk.Samples); i += 2 {
		if chunk.Samples[i] != chunk.Samples[i+1] {
			t.Fatalf("frame %d channels differ: %d vs %d", i/2, chunk.Samples[i], chunk.Samples[i+1])
		}
	}
}

func TestToneSourceCancel(t *testing.T) {
	src := NewToneSource(time.Second, 440.0)
	src.Cancel()

	if _, err := src.NextChunk(); !errors.Is(err, io.EOF) {
		t.Errorf("NextChunk after Cancel = %v, want io.EOF", err)
	}
}
