package store

import (
	"context"
	"fmt"

	"github.com/roach88/trackview/internal/ir"
)

// ReplayResult compares a stored run with a fresh trace of the same
// sequence.
type ReplayResult struct {
	RunID        string
	Match        bool
	ExpectedHash string
	ActualHash   string

	// FirstDiff is the index of the first differing effect, or -1.
	FirstDiff int
	Expected  *ir.Effect
	Actual    *ir.Effect
}

// CompareRun checks actual against the stored trace of runID. Traces
// match when their hashes are equal.
func (s *Store) CompareRun(ctx context.Context, runID string, actual []ir.Effect) (ReplayResult, error) {
	res := ReplayResult{RunID: runID, FirstDiff: -1}

	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return res, fmt.Errorf("compare run: %w", err)
	}
	expected, err := s.ReadEffects(ctx, runID)
	if err != nil {
		return res, fmt.Errorf("compare run: %w", err)
	}
	actualHash, err := ir.TraceHash(actual)
	if err != nil {
		return res, fmt.Errorf("compare run: %w", err)
	}

	res.ExpectedHash = run.TraceHash
	res.ActualHash = actualHash
	res.Match = run.TraceHash == actualHash
	if !res.Match {
		res.FirstDiff = DiffEffects(expected, actual)
		if res.FirstDiff >= 0 && res.FirstDiff < len(expected) {
			res.Expected = &expected[res.FirstDiff]
		}
		if res.FirstDiff >= 0 && res.FirstDiff < len(actual) {
			res.Actual = &actual[res.FirstDiff]
		}
	}
	return res, nil
}

// DiffEffects returns the index of the first effect that differs between
// a and b, or -1 when they are equal. A strict prefix differs at the
// length of the shorter trace.
func DiffEffects(a, b []ir.Effect) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
