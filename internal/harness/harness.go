package harness

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/node"
	"github.com/roach88/trackview/internal/playback"
	"github.com/roach88/trackview/internal/sequence"
	"github.com/roach88/trackview/internal/store"
	"github.com/roach88/trackview/internal/testutil"
)

// Harness is the test execution engine.
// It runs one scenario against a fresh world, library and store.
type Harness struct {
	store   *store.Store
	world   *playback.World
	library *sequence.Library
	factory *sequence.Factory
	player  *playback.Player
	log     *zap.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger routes engine logging to l. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.log = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed run id so traces are reproducible.
//
// Execution flow:
// 1. Build the world from the scenario entities
// 2. Load every sequence document into a library
// 3. Drive the player through the steps
// 4. Write the sequence and the run to the store
// 5. Evaluate assertions against the trace and the store
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}

	runID := testutil.NewFixedRunID(scenario.RunID).Generate()
	h.library = sequence.NewLibrary()
	h.world = playback.NewWorld(playback.NewRecorder(runID),
		playback.WithFinder(h.library),
		playback.WithLogger(h.log.Named("world")))
	h.world.SetEditor(scenario.Editor, scenario.Editing)
	h.world.SetBatchRender(scenario.Batch)
	h.factory = sequence.NewFactory(node.NewTables(), h.world.Services(), h.log)

	if err := BuildEntities(h.world, scenario.Entities); err != nil {
		return nil, fmt.Errorf("failed to set up entities: %w", err)
	}
	for _, path := range scenario.Sequences {
		if _, err := h.library.LoadFile(path, h.factory, sequence.WithLogger(h.log)); err != nil {
			return nil, fmt.Errorf("failed to load sequence: %w", err)
		}
	}
	seq := h.library.Get(scenario.Play)
	if seq == nil {
		return nil, fmt.Errorf("sequence %q not loaded", scenario.Play)
	}

	popts := []playback.PlayerOption{
		playback.WithLoop(scenario.Loop),
		playback.WithTrackMask(ir.TrackMask(scenario.TrackMask)),
		playback.WithPlayerLogger(h.log.Named("player")),
	}
	if scenario.FPS > 0 {
		popts = append(popts, playback.WithFPS(scenario.FPS))
	}
	h.player = playback.NewPlayer(seq, h.world, popts...)

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	result := NewResult()
	rec := h.world.Recorder()
	result.Trace = rec.Effects()
	result.RunID = rec.RunID()
	result.Frames = h.player.Frames()
	result.FinalTime = h.player.Time()
	result.Camera = h.cameraName()

	traceHash, err := h.persist(ctx, seq, scenario, result)
	if err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}
	result.TraceHash = traceHash

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, step Step) error {
	switch step.Action {
	case StepPlay:
		h.player.Play(step.Time)
	case StepTick:
		n := max(step.Frames, 1)
		for i := 0; i < n; i++ {
			if !h.player.Tick() {
				break
			}
		}
	case StepRun:
		if _, err := h.player.Run(ctx, step.Frames); err != nil {
			return err
		}
	case StepScrub:
		h.player.Scrub(step.Time)
	case StepOverride:
		h.world.SetOverrideCamera(step.Camera)
	case StepStop:
		h.player.Stop()
	case StepReset:
		h.player.Reset()
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

// persist writes the played sequence and the run, returning the trace hash.
func (h *Harness) persist(ctx context.Context, seq *sequence.Sequence, scenario *Scenario, result *Result) (string, error) {
	xml, err := sequence.Marshal(seq)
	if err != nil {
		return "", err
	}
	seqHash, err := h.store.WriteSequence(ctx, seq.Name(), xml)
	if err != nil {
		return "", err
	}
	run := store.Run{
		ID:           result.RunID,
		SequenceHash: seqHash,
		SequenceName: seq.Name(),
		Frames:       int64(result.Frames),
		Meta: map[string]string{
			"scenario": scenario.Name,
			"step":     strconv.FormatFloat(float64(h.player.Step()), 'g', -1, 32),
		},
	}
	return h.store.WriteRun(ctx, run, result.Trace)
}

func (h *Harness) cameraName() string {
	id := h.world.CameraParams().EntityID
	if !id.Valid() {
		return ""
	}
	if e := h.world.FindByID(id); e != nil {
		return e.Name()
	}
	return "#" + strconv.FormatUint(uint64(id), 10)
}
