package harness

import "github.com/roach88/trackview/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Trace contains every recorded effect in order.
	Trace []ir.Effect `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RunID and TraceHash identify the run as written to the store.
	RunID     string `json:"run_id"`
	TraceHash string `json:"trace_hash"`

	// Frames is the number of frames the player evaluated.
	Frames int `json:"frames"`

	// FinalTime is the player time after the last step.
	FinalTime float32 `json:"final_time"`

	// Camera is the name of the active camera entity after the last step,
	// "#<id>" when the id does not resolve, or empty.
	Camera string `json:"camera,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.Effect{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
