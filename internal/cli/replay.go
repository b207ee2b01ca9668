package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/trackview/internal/harness"
	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
	Sequence string // optional - runs of one sequence only
}

// ReplayRunResult is the replay result of one stored run.
type ReplayRunResult struct {
	RunID        string     `json:"run_id"`
	Sequence     string     `json:"sequence"`
	Frames       int64      `json:"frames"`
	Match        bool       `json:"match"`
	ExpectedHash string     `json:"expected_hash"`
	ActualHash   string     `json:"actual_hash"`
	FirstDiff    int        `json:"first_diff"`
	Expected     *ir.Effect `json:"expected,omitempty"`
	Actual       *ir.Effect `json:"actual,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs          []ReplayRunResult `json:"runs"`
	TotalRuns     int               `json:"total_runs"`
	Deterministic bool              `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-play stored runs and verify determinism",
		Long: `Re-play stored runs from their documents and settings and compare
the fresh trace with the stored one.

Runs match when their trace hashes are equal. For a mismatch the first
differing effect is reported.

Exit codes:
  0 - All runs reproduce their stored trace
  1 - At least one run diverged
  2 - Command error (database not found, unknown run, etc.)

Examples:
  trackview replay --db ./runs.db
  trackview replay --db ./runs.db --run 0190c1d2-...
  trackview replay --db ./runs.db --sequence Intro --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.settings().DB
			}
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")
	cmd.Flags().StringVar(&opts.Sequence, "sequence", "", "replay runs of one sequence only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx, opts.Sequence)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:          make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:     len(runs),
		Deterministic: true,
	}
	for _, run := range runs {
		rr, err := replayRun(ctx, st, run, opts.RootOptions)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, rr)
		if !rr.Match {
			result.Deterministic = false
		}
	}

	if formatter.JSON() {
		var failure *CLIError
		if !result.Deterministic {
			failure = &CLIError{Code: ErrCodeMismatch, Message: "replay diverged from the stored trace"}
		}
		if err := formatter.Respond(result, failure); err != nil {
			return err
		}
		if failure != nil {
			return NewExitError(ExitFailure, failure.Message)
		}
		return nil
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayRun rebuilds the run's world and library from the store, plays it
// again with the stored settings and compares the traces.
func replayRun(ctx context.Context, st *store.Store, run store.Run, opts *RootOptions) (ReplayRunResult, error) {
	settings, entities, library, err := settingsFromMeta(run.SequenceName, run.Meta)
	if err != nil {
		return ReplayRunResult{}, err
	}

	sess := newSession(run.ID, opts.logger().With(zap.String("run", run.ID)))
	if err := harness.BuildEntities(sess.world, entities); err != nil {
		return ReplayRunResult{}, err
	}
	for _, hash := range append([]string{run.SequenceHash}, library...) {
		rec, err := st.ReadSequence(ctx, hash)
		if err != nil {
			return ReplayRunResult{}, err
		}
		if _, err := sess.loadDocument(rec.Name, rec.XML); err != nil {
			return ReplayRunResult{}, err
		}
	}
	seq, err := sess.pick(nil, run.SequenceName)
	if err != nil {
		return ReplayRunResult{}, err
	}

	out, err := sess.play(ctx, seq, settings)
	if err != nil {
		return ReplayRunResult{}, err
	}
	cmp, err := st.CompareRun(ctx, run.ID, out.Effects)
	if err != nil {
		return ReplayRunResult{}, err
	}
	return ReplayRunResult{
		RunID:        run.ID,
		Sequence:     run.SequenceName,
		Frames:       run.Frames,
		Match:        cmp.Match,
		ExpectedHash: cmp.ExpectedHash,
		ActualHash:   cmp.ActualHash,
		FirstDiff:    cmp.FirstDiff,
		Expected:     cmp.Expected,
		Actual:       cmp.Actual,
	}, nil
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
	for _, run := range result.Runs {
		status := "✓"
		if !run.Match {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s (%s, %d frames)\n", status, run.RunID, run.Sequence, run.Frames)
		if verbose || !run.Match {
			fmt.Fprintf(w, "  Expected: %s\n", run.ExpectedHash)
			fmt.Fprintf(w, "  Actual:   %s\n", run.ActualHash)
		}
		if !run.Match {
			fmt.Fprintf(w, "  First difference at effect %d\n", run.FirstDiff)
			if run.Expected != nil {
				fmt.Fprintf(w, "    stored: %s\n", describeEffect(*run.Expected))
			}
			if run.Actual != nil {
				fmt.Fprintf(w, "    replay: %s\n", describeEffect(*run.Actual))
			}
		}
	}
	fmt.Fprintln(w)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ All runs reproduced")
		return nil
	}
	fmt.Fprintln(w, "✗ Replay diverged")
	return NewExitError(ExitFailure, "replay diverged from the stored trace")
}

func describeEffect(e ir.Effect) string {
	return fmt.Sprintf("[%d] %s %s %s %s", e.Seq, ir.FormatScalar(ir.Seconds(e.TimeUS)), e.Kind, e.Target, e.Value)
}
