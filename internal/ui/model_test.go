// ABOUTME: Tests for the TUI model and state management
// ABOUTME: Covers status updates, cancellation key handling, and rendering helpers
package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func testInfo() SessionInfo {
	return SessionInfo{
		SessionID:      "session-1",
		InputName:      "track.flac",
		SourceDuration: 10 * time.Second,
		TargetDuration: 20 * time.Second,
		SampleRate:     48000,
		Channels:       2,
		FrameRate:      24,
		Factor:         2.0,
	}
}

func TestNewModel(t *testing.T) {
	model := NewModel(testInfo(), nil)

	if model.state != "Starting" {
		t.Errorf("expected initial state 'Starting', got %q", model.state)
	}
	if model.progress != 0 {
		t.Errorf("expected zero initial progress, got %f", model.progress)
	}
	if model.done {
		t.Error("expected done to be false initially")
	}
}

func TestStatusMsgProgress(t *testing.T) {
	model := NewModel(testInfo(), nil)

	model.applyStatus(StatusMsg{State: "Scaling", Progress: 0.5, FramesEmitted: 12, SamplesEmitted: 4800})

	if model.state != "Scaling" {
		t.Errorf("expected state 'Scaling', got %q", model.state)
	}
	if model.progress != 0.5 {
		t.Errorf("expected progress 0.5, got %f", model.progress)
	}
	if model.framesEmitted != 12 {
		t.Errorf("expected 12 frames, got %d", model.framesEmitted)
	}
	if model.samplesEmitted != 4800 {
		t.Errorf("expected 4800 samples, got %d", model.samplesEmitted)
	}
}

func TestProgressNeverRegresses(t *testing.T) {
	model := NewModel(testInfo(), nil)

	model.applyStatus(StatusMsg{Progress: 0.7})
	model.applyStatus(StatusMsg{Progress: 0.4})

	if model.progress != 0.7 {
		t.Errorf("progress regressed to %f, want 0.7", model.progress)
	}
}

func TestPartialStatusRetainsState(t *testing.T) {
	model := NewModel(testInfo(), nil)

	model.applyStatus(StatusMsg{State: "Scaling", Progress: 0.3})
	model.applyStatus(StatusMsg{Progress: 0.6})

	if model.state != "Scaling" {
		t.Error("empty state field should not clear previous state")
	}
	if model.progress != 0.6 {
		t.Errorf("expected progress 0.6, got %f", model.progress)
	}
}

func TestQKeyCancelsSession(t *testing.T) {
	var cancelled bool
	model := NewModel(testInfo(), func() { cancelled = true })

	next, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	if !cancelled {
		t.Error("expected cancel callback to fire on q")
	}
	if cmd != nil {
		t.Error("q should not quit directly; the session's DoneMsg does")
	}
	m := next.(Model)
	if m.state != "Cancelling" {
		t.Errorf("expected state 'Cancelling', got %q", m.state)
	}
}

func TestDoneMsgQuits(t *testing.T) {
	model := NewModel(testInfo(), nil)

	next, cmd := model.Update(DoneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command on DoneMsg")
	}
	m := next.(Model)
	if !m.done {
		t.Error("expected done after DoneMsg")
	}
	if m.state != "Done" {
		t.Errorf("expected state 'Done', got %q", m.state)
	}
}

func TestDoneMsgOutcomes(t *testing.T) {
	tests := []struct {
		name string
		msg  DoneMsg
		want string
	}{
		{"cancelled", DoneMsg{Cancelled: true}, "Cancelled"},
		{"failed", DoneMsg{Err: errors.New("boom")}, "Failed: boom"},
		{"success", DoneMsg{}, "Done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := NewModel(testInfo(), nil)
			next, _ := model.Update(tt.msg)
			if got := next.(Model).state; got != tt.want {
				t.Errorf("state = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestViewRendersAfterResize(t *testing.T) {
	model := NewModel(testInfo(), nil)

	if v := model.View(); v != "Loading..." {
		t.Errorf("expected loading view before size known, got %q", v)
	}

	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if v := next.(Model).View(); v == "Loading..." || v == "" {
		t.Error("expected rendered view after window size")
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestChannelNameFunction(t *testing.T) {
	if channelName(1) != "Mono" {
		t.Error("expected Mono for 1 channel")
	}
	if channelName(2) != "Stereo" {
		t.Error("expected Stereo for 2 channels")
	}
}
