// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the retiming UI
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// SessionInfo seeds the model with the static facts of the session.
type SessionInfo struct {
	SessionID      string
	InputName      string
	SourceDuration time.Duration
	TargetDuration time.Duration
	SampleRate     int
	Channels       int
	FrameRate      float64
	Factor         float64
}

// NewModel creates a TUI model for a session. cancel is invoked when the
// user presses q.
func NewModel(info SessionInfo, cancel func()) Model {
	return Model{
		sessionID:      info.SessionID,
		inputName:      info.InputName,
		sourceDuration: info.SourceDuration,
		targetDuration: info.TargetDuration,
		sampleRate:     info.SampleRate,
		channels:       info.Channels,
		frameRate:      info.FrameRate,
		factor:         info.Factor,
		state:          "Starting",
		cancel:         cancel,
	}
}

// Run starts the TUI program. Feed it StatusMsg/DoneMsg via p.Send.
func Run(info SessionInfo, cancel func()) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(info, cancel), tea.WithAltScreen())
	return p, nil
}
