// ABOUTME: Monotonic weighted progress accumulator shared by both pipelines
// ABOUTME: Clamps out-of-order reports so the running total never decreases
package progress

import "sync"

// Contributor names used by the retiming session.
const (
	ContributorAnalysis = "analysis"
	ContributorVideo    = "video"
	ContributorAudio    = "audio"
)

// Tracker accumulates fractional completion reports from independent
// contributors into a single running total. Each contributor reports an
// absolute fraction in [0,1]; the tracker applies the weighted delta since
// that contributor's last report. Negative deltas (repeated or
// out-of-order reports) are clamped to zero, so the total is monotonic.
//
// The tracker is the only state shared for writes across the pipelines;
// a single mutex serializes updates.
type Tracker struct {
	mu      sync.Mutex
	total   float64
	weights map[string]float64
	last    map[string]float64
	onMove  func(float64)
}

// NewTracker creates a tracker with fixed per-contributor weights. The
// weights should sum to 1 across all contributors.
func NewTracker(weights map[string]float64) *Tracker {
	w := make(map[string]float64, len(weights))
	for name, weight := range weights {
		w[name] = weight
	}
	return &Tracker{
		weights: w,
		last:    make(map[string]float64, len(weights)),
	}
}

// SessionWeights is the standard split for a retiming session: asset
// analysis completes first, then the two pipelines share the rest evenly.
func SessionWeights() map[string]float64 {
	return map[string]float64{
		ContributorAnalysis: 0.10,
		ContributorVideo:    0.45,
		ContributorAudio:    0.45,
	}
}

// OnChange registers a hook invoked (under the tracker lock) whenever the
// total advances. Used to push updates to the UI and monitor.
func (t *Tracker) OnChange(fn func(total float64)) {
	t.mu.Lock()
	t.onMove = fn
	t.mu.Unlock()
}

// Report records contributor's absolute completion fraction. Fractions
// outside [0,1] are clamped. Returns the new total.
func (t *Tracker) Report(contributor string, fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	delta := fraction - t.last[contributor]
	if delta <= 0 {
		return t.total
	}
	t.last[contributor] = fraction
	t.total += delta * t.weights[contributor]
	if t.onMove != nil {
		t.onMove(t.total)
	}
	return t.total
}

// Complete marks a contributor fully done regardless of what it reported
// before. Used when a pipeline is skipped cleanly.
func (t *Tracker) Complete(contributor string) float64 {
	return t.Report(contributor, 1)
}

// Value returns the current running total.
func (t *Tracker) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
