package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/testutil"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestRunWithGolden_CameraCut(t *testing.T) {
	s := loadScenario(t, "camera_cut")

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, testutil.DefaultRunID, result.RunID)
	assert.Equal(t, 5, result.Frames)
	assert.Equal(t, "CamB", result.Camera)
}

func TestRun_OverrideScrub(t *testing.T) {
	s := loadScenario(t, "override_scrub")

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "override-run", result.RunID)
	assert.Empty(t, result.Camera, "reset withdraws the override camera")

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, ir.EffectCamera, last.Kind)
	assert.Equal(t, "0.0000,0.0000,cut", last.Value)
}

func TestRun_Deterministic(t *testing.T) {
	s := loadScenario(t, "camera_cut")

	a, err := Run(context.Background(), s)
	require.NoError(t, err)
	b, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, a.Trace, b.Trace)
	assert.Equal(t, a.TraceHash, b.TraceHash)
	assert.Equal(t, ir.MustTraceHash(a.Trace), a.TraceHash, "stored hash is the trace hash")
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	s := loadScenario(t, "camera_cut")
	s.Assertions = []Assertion{
		{Type: AssertTraceCount, EffectMatch: EffectMatch{Kind: "camera"}, Count: 3},
		{Type: AssertFinalCamera, Camera: "CamA"},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "3 occurrences of camera")
	assert.Contains(t, result.Errors[0], "Actual: 4 occurrences")
	assert.Contains(t, result.Errors[1], `camera "CamB"`)
}

func TestRun_LoopingScenario(t *testing.T) {
	s := loadScenario(t, "camera_cut")
	s.Loop = true
	s.Steps = []Step{{Action: StepPlay}, {Action: StepRun, Frames: 9}}
	s.Assertions = []Assertion{
		// The wrap lands on 0.25, so the first camera cuts in again.
		{Type: AssertTraceCount, EffectMatch: EffectMatch{Kind: "camera", Target: "CamA", Value: "60.0000,0.2500,cut"}, Count: 2},
		{Type: AssertTraceCount, EffectMatch: EffectMatch{Kind: "camera"}, Count: 7},
		// A single event key stays active across the wrap.
		{Type: AssertTraceCount, EffectMatch: EffectMatch{Kind: "event", Target: "door"}, Count: 1},
		{Type: AssertFinalTime, Time: ptr(float32(0.25))},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 9, result.Frames)
}

func TestRun_TickStepsAndStop(t *testing.T) {
	s := loadScenario(t, "camera_cut")
	s.Steps = []Step{{Action: StepPlay}, {Action: StepTick, Frames: 2}, {Action: StepStop}, {Action: StepTick}}
	s.Assertions = []Assertion{
		{Type: AssertTraceCount, EffectMatch: EffectMatch{Kind: "event"}, Count: 1},
		{Type: AssertFinalCamera, Camera: "CamA"},
		{Type: AssertFinalTime, Time: ptr(float32(0.5))},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 2, result.Frames, "ticks after stop do nothing")
}

func TestRun_UnknownPlaySequence(t *testing.T) {
	s := loadScenario(t, "camera_cut")
	s.Play = "Missing"

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Missing" not loaded`)
}

func TestRun_DuplicateEntityID(t *testing.T) {
	s := loadScenario(t, "camera_cut")
	s.Entities = append(s.Entities, EntitySpec{ID: 1, Name: "Other"})

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already used")
}

func ptr[T any](v T) *T { return &v }
