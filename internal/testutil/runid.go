package testutil

// DefaultRunID is returned by a FixedRunID created with an empty id.
const DefaultRunID = "test-run-default"

// FixedRunID hands out the same run id every time.
//
// Playback runs normally get a fresh UUIDv7. Golden traces and stored runs
// compared across test executions need a stable id instead.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator for id. An empty id means DefaultRunID.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunID) Generate() string {
	return g.id
}
