// ABOUTME: Bubbletea model for the retiming progress TUI
// ABOUTME: Renders asset summary, progress bar, and pipeline stats
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state for one retiming session.
type Model struct {
	// Asset
	inputName      string
	sourceDuration time.Duration
	targetDuration time.Duration
	sampleRate     int
	channels       int
	frameRate      float64

	// Session
	sessionID string
	factor    float64
	state     string
	progress  float64

	// Stats
	framesEmitted  int64
	samplesEmitted int64

	// Outcome
	done      bool
	cancelled bool
	errText   string

	// Cancel requests cooperative session cancellation.
	cancel func()

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case DoneMsg:
		m.done = true
		m.cancelled = msg.Cancelled
		if msg.Err != nil {
			m.errText = msg.Err.Error()
		}
		m.state = m.outcomeText()
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderAsset()
	s += m.renderProgress()
	s += m.renderStats()
	s += m.renderHelp()
	return s
}

func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ Retime ─────────────────────────────────────────────┐
│ Session: %-43s │
│ State:   %-43s │
├──────────────────────────────────────────────────────┤
`, truncate(m.sessionID, 43), m.state)
}

func (m Model) renderAsset() string {
	s := fmt.Sprintf("│ Input:  %-44s │\n", truncate(m.inputName, 44))
	s += fmt.Sprintf("│ Audio:  %dHz %s%-31s │\n",
		m.sampleRate, channelName(m.channels), "")
	s += fmt.Sprintf("│ Retime: %v -> %v (x%.3f)%-15s │\n",
		m.sourceDuration.Round(time.Millisecond),
		m.targetDuration.Round(time.Millisecond), m.factor, "")
	return s
}

func (m Model) renderProgress() string {
	pct := int(m.progress * 100)
	bar := renderBar(pct, 100, 40)
	return fmt.Sprintf("│                                                      │\n"+
		"│ [%s] %3d%%%-3s │\n", bar, pct, "")
}

func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Frames: %-10d  Samples: %-10d%-9s │
│                                                      │
`, m.framesEmitted, m.samplesEmitted, "")
}

func (m Model) renderHelp() string {
	return `│ q:Cancel                                             │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.cancel != nil && !m.done {
			m.cancel()
			m.state = "Cancelling"
			// Quit arrives via DoneMsg once the session winds down.
			return m, nil
		}
		return m, tea.Quit
	}
	return m, nil
}

// applyStatus updates model from a status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Progress > m.progress {
		m.progress = msg.Progress
	}
	if msg.FramesEmitted > 0 {
		m.framesEmitted = msg.FramesEmitted
	}
	if msg.SamplesEmitted > 0 {
		m.samplesEmitted = msg.SamplesEmitted
	}
}

func (m Model) outcomeText() string {
	switch {
	case m.cancelled:
		return "Cancelled"
	case m.errText != "":
		return "Failed: " + truncate(m.errText, 30)
	default:
		return "Done"
	}
}

// StatusMsg updates the TUI with session progress.
type StatusMsg struct {
	State          string
	Progress       float64
	FramesEmitted  int64
	SamplesEmitted int64
}

// DoneMsg ends the TUI with the session outcome.
type DoneMsg struct {
	Cancelled bool
	Err       error
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
