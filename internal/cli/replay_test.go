package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trackview/internal/store"
)

func TestReplayReproducesRecordedRun(t *testing.T) {
	db, rec := record(t)

	out, err := execute(t, NewReplayCommand(jsonOpts()), "--db", db)
	require.NoError(t, err)

	resp := decode[ReplayResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Deterministic)
	require.Len(t, resp.Data.Runs, 1)
	run := resp.Data.Runs[0]
	assert.Equal(t, rec.RunID, run.RunID)
	assert.True(t, run.Match)
	assert.Equal(t, rec.TraceHash, run.ActualHash)
	assert.Equal(t, -1, run.FirstDiff)
}

func TestReplayLoopedRun(t *testing.T) {
	db, _ := record(t, "--loop", "--frames", "9", "--from", "0.25")

	out, err := execute(t, NewReplayCommand(textOpts()), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All runs reproduced")
}

func TestReplayDetectsDivergence(t *testing.T) {
	db, rec := record(t)

	// Rewrite the stored frame rate so the replay samples other times.
	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE runs SET meta = replace(meta, '"fps":"4"', '"fps":"2"') WHERE id = ?`, rec.RunID)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewReplayCommand(textOpts()), "--db", db, "--run", rec.RunID)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Run: "+rec.RunID)
	assert.Contains(t, out, "First difference at effect")
	assert.Contains(t, out, "✗ Replay diverged")

	out, err = execute(t, NewReplayCommand(jsonOpts()), "--db", db, "--run", rec.RunID)
	require.Error(t, err)
	resp := decode[ReplayResult](t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	assert.False(t, resp.Data.Runs[0].Match)
	assert.GreaterOrEqual(t, resp.Data.Runs[0].FirstDiff, 0)
}

func TestReplayFiltersBySequence(t *testing.T) {
	db, _ := record(t)
	_, err := execute(t, NewRecordCommand(jsonOpts()), introXML, shotsXML, "--db", db, "--sequence", "Shots", "--fps", "4")
	require.NoError(t, err)

	out, err := execute(t, NewReplayCommand(jsonOpts()), "--db", db, "--sequence", "Shots")
	require.NoError(t, err)
	resp := decode[ReplayResult](t, out)
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, "Shots", resp.Data.Runs[0].Sequence)

	out, err = execute(t, NewReplayCommand(jsonOpts()), "--db", db)
	require.NoError(t, err)
	assert.Equal(t, 2, decode[ReplayResult](t, out).Data.TotalRuns)
}

func TestReplayEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(t, NewReplayCommand(textOpts()), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}

func TestReplayUnknownRun(t *testing.T) {
	db, _ := record(t)

	_, err := execute(t, NewReplayCommand(textOpts()), "--db", db, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: nope")
}

func TestTraceShowsStoredRun(t *testing.T) {
	db, rec := record(t)

	out, err := execute(t, NewTraceCommand(jsonOpts()), "--db", db, "--run", rec.RunID)
	require.NoError(t, err)
	resp := decode[TraceResult](t, out)
	assert.Equal(t, rec.RunID, resp.Data.RunID)
	assert.Equal(t, "Intro", resp.Data.Sequence)
	assert.Equal(t, rec.Effects, resp.Data.Stats.TotalEffects)
	assert.Equal(t, 1, resp.Data.Stats.ByKind["event"])
	assert.Equal(t, "4", resp.Data.Meta["fps"])

	out, err = execute(t, NewTraceCommand(jsonOpts()), "--db", db, "--run", rec.RunID, "--kind", "event")
	require.NoError(t, err)
	timeline := decode[TraceResult](t, out).Data.Timeline
	require.Len(t, timeline, 1)
	assert.Equal(t, "door", timeline[0].Target)
	assert.Equal(t, int64(250000), timeline[0].TimeUS)
}

func TestTraceText(t *testing.T) {
	db, rec := record(t)

	out, err := execute(t, NewTraceCommand(textOpts()), "--db", db)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, rec.RunID), "run listing: %s", out)

	out, err = execute(t, NewTraceCommand(&RootOptions{Format: "text", Verbose: true}), "--db", db, "--run", rec.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "Run: "+rec.RunID)
	assert.Contains(t, out, "Sequence: Intro (5 frames)")
	assert.Contains(t, out, "fps = 4")
	assert.Regexp(t, `event\s+door\s+open`, out)
	assert.Regexp(t, `Stats: \d+ effects`, out)
}

func TestTraceUnknownRun(t *testing.T) {
	db, _ := record(t)
	_, err := execute(t, NewTraceCommand(textOpts()), "--db", db, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayRunRebuildsWorld(t *testing.T) {
	db, rec := record(t)
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), rec.RunID)
	require.NoError(t, err)
	res, err := replayRun(context.Background(), st, run, textOpts())
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.Equal(t, int64(5), res.Frames)
}
