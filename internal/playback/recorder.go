package playback

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/trackview/internal/ir"
)

// NewRunID returns a time-ordered UUIDv7 string.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Recorder collects effects in the order they happen.
type Recorder struct {
	runID   string
	seq     int64
	now     int64
	effects []ir.Effect
}

// NewRecorder creates a recorder for one run. An empty runID gets a fresh
// UUIDv7.
func NewRecorder(runID string) *Recorder {
	if runID == "" {
		runID = NewRunID()
	}
	return &Recorder{runID: runID}
}

// RunID identifies the run.
func (r *Recorder) RunID() string { return r.runID }

// SetTime stamps subsequent effects with t.
func (r *Recorder) SetTime(t float32) { r.now = ir.Micros(t) }

// Record appends an effect.
func (r *Recorder) Record(kind ir.EffectKind, target, value string) {
	r.seq++
	r.effects = append(r.effects, ir.Effect{
		Seq:    r.seq,
		TimeUS: r.now,
		Kind:   kind,
		Target: target,
		Value:  value,
	})
}

// Effects returns a copy of everything recorded.
func (r *Recorder) Effects() []ir.Effect { return slices.Clone(r.effects) }

// Len returns the number of recorded effects.
func (r *Recorder) Len() int { return len(r.effects) }

// Hash returns the trace hash of the recorded effects.
func (r *Recorder) Hash() (string, error) {
	h, err := ir.TraceHash(r.effects)
	if err != nil {
		return "", fmt.Errorf("run %s: %w", r.runID, err)
	}
	return h, nil
}

// Clear drops recorded effects and restarts numbering.
func (r *Recorder) Clear() {
	r.seq = 0
	r.now = 0
	r.effects = nil
}
